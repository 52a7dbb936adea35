// Package viz renders sweeps and fitting progress in the terminal.
//
//   - [PlotSweep]: asciigraph curve of coverage or current against potential
//   - [Summary]: styled key figures of a sweep
//   - [FitModel]: Bubble Tea view of a running fit, fed by a progress channel
//
// # Key Bindings
//
//	q / Ctrl+C - stop the fit and keep the best point so far
package viz
