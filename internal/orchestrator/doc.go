// Package orchestrator runs the tallying program over a set of regions.
//
// A run fetches the data once, restricted to the selected regions, then
// invokes the program for each region in ascending identifier order:
//
//	<command...> <cache>/<candidates> <cache>/<ordering> <cache>/<region file> <region> <seats>
//
// Each invocation blocks until the program exits. A non-zero exit stops the
// run with a [*ProgramError].
package orchestrator
