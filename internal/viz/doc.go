// Package viz renders runs in the terminal.
//
// [Model] is a Bubble Tea program that integrates an engine cycle live and
// draws its p-V loop on a Braille [Canvas]; [PlotTrajectory] draws a stored
// trajectory with asciigraph.
//
// # Key Bindings
//
//	Space - Pause/Resume integration
//	+/-   - Steps per frame
//	T     - Cycle color themes
//	?     - Show help overlay
//	Q     - Finish the run and quit
package viz
