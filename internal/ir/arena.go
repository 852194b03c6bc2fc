package ir

// Arena owns every node a Factory creates and hands out stable handles.
//
// Nodes are never removed from an Arena. A node is dead only when it cannot
// be reached from the program root; because references may be shared and
// self-referential, that is decided by a full sweep (Reachable), never by
// counting uses.
type Arena struct {
	// slots[0] is reserved so the zero NodeID stays invalid.
	slots []Node
}

// NewArena returns an empty arena.
func NewArena() *Arena {
	return &Arena{slots: make([]Node, 1, 64)}
}

func (a *Arena) register(n Node) NodeID {
	id := NodeID(len(a.slots))
	a.slots = append(a.slots, n)
	return id
}

// Node returns the node with handle id, or nil for an unknown handle.
func (a *Arena) Node(id NodeID) Node {
	if !id.IsValid() || int(id) >= len(a.slots) {
		return nil
	}
	return a.slots[id]
}

// Len returns the number of nodes ever allocated.
func (a *Arena) Len() int { return len(a.slots) - 1 }

// Reachable returns the set of handles reachable from root, following
// children and reference uses alike.
func (a *Arena) Reachable(root Node) map[NodeID]bool {
	seen := make(map[NodeID]bool)
	stack := []Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n == nil || seen[n.ID()] {
			continue
		}
		seen[n.ID()] = true
		for i := n.Len() - 1; i >= 0; i-- {
			stack = append(stack, n.Child(i))
		}
	}
	return seen
}

// Dead returns, in allocation order, the handles of nodes not reachable from
// root.
func (a *Arena) Dead(root Node) []NodeID {
	live := a.Reachable(root)
	var dead []NodeID
	for id := NodeID(1); int(id) < len(a.slots); id++ {
		if !live[id] {
			dead = append(dead, id)
		}
	}
	return dead
}
