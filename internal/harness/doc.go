// Package harness runs conformance scenarios against compiled slices.
//
// A scenario names a directory of CUE slice definitions, a list of actions
// to dispatch and the assertions that must hold afterwards:
//
//	name: counter_basics
//	description: "Increment, add and reset the counter"
//	specs: ../specs/app
//	session: scenario-counter
//	steps:
//	  - dispatch: counter.inc
//	  - dispatch: counter.add
//	    payload: 5
//	    expect:
//	      counter: {count: 6}
//	  - dispatch: counter.add
//	    payload: "five"
//	    error: "payload"
//	assertions:
//	  - type: trace_contains
//	    action: counter/add
//	    payload: 5
//	  - type: trace_order
//	    actions: [counter/inc, counter/add]
//	  - type: trace_count
//	    action: counter.inc
//	    count: 1
//	  - type: final_state
//	    slice: counter
//	    expect: {count: 6}
//
// Steps run through a real engine.Engine with an in-memory journal, a
// deterministic clock and a fixed session, so two runs of the same scenario
// produce byte-identical traces. Every run ends by replaying the journal and
// comparing the rebuilt state hash with the live one.
//
// Trace snapshots are compared with golden files under testdata/golden:
//
//	go test ./internal/harness -update
package harness
