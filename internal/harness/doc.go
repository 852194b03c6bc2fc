// Package harness runs scenario files against query graph fixtures.
//
// A scenario names a CUE fixture, builds it through the pattern factory, and
// checks the resulting program with a list of assertions.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: countdown
//	description: "Recursive function needs a forward declaration"
//	fixture: ../fixtures/countdown.cue
//	mode: normal
//	assertions:
//	  - type: root_kind
//	    kind: Invoke
//	  - type: forward_decls
//	    ids: ["$count"]
//	  - type: round_trip
//
// The fixture path is resolved relative to the scenario file.
//
// # Assertion Types
//
//   - root_kind: the program root has the given node kind
//   - root_type: the program root has the given type, e.g. "xs:int"
//   - node_count: exactly count nodes, or at least min
//   - forward_decls: the serialized form forward-declares count references,
//     or exactly the listed ids
//   - round_trip: the program survives save, load and rewrite unchanged
//   - valid: ir.Validate reports no warnings
//
// # Deterministic Testing
//
// Round trips go through an in-memory snapshot store with sequential ids,
// and the serialized form carries no source positions, so two runs of the
// same scenario produce byte-identical output.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/countdown.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, e := range result.Errors {
//	        log.Println(e)
//	    }
//	}
package harness
