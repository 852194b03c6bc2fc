// Package ir provides the typed node graph that compiler passes operate on.
//
// Every node has a Kind from a closed set, a type descriptor (xtype.Type), a
// source range and an annotation slot. Nodes are built only through a
// Factory, which registers each one in an Arena and hands out a stable
// NodeID. Child access is by index within the arity fixed by the node's
// shape.
//
// The graph is a tree except at references: For, Let, Parameter and
// Function nodes are shared by identity between their definition and every
// use, including uses inside their own definition.
//
// This package imports nothing internal except xtype. Structural contract
// violations panic with *ContractError; they indicate a bug in the producer,
// not bad input.
package ir
