// Package operations runs the pipeline as a sequence of registered steps.
//
// Each Step reads its inputs from disk, writes its artifacts atomically and
// returns a Diagnostics record. The Manager orders steps by their declared
// dependencies, wraps every execution in a trace span, records stage metrics
// and stops the run on the first fatal error. A run can be restricted to a
// subset of steps; the remaining inputs are then taken from the artifacts of
// an earlier run.
//
// Steps:
//
//	matches  -> panels -> rotation --> combine -> report
//	                   \-> injury  -/
package operations
