// Package viz provides terminal views of self-consistent model runs.
//
//   - [PlotProfile] and [PlotConvergence]: asciigraph charts of a finished run
//   - [Progress]: a Bubble Tea model showing live iteration progress
//   - [Observer]: forwards model callbacks to a running tea.Program
//
// # Live Progress
//
// The model iterates on its own goroutine while the program renders:
//
//	p := tea.NewProgram(viz.NewProgress(name, iterations, components))
//	exp.AddObserver(viz.NewObserver(p.Send, change))
//	go func() {
//	    _, err := exp.Run(ctx)
//	    p.Send(viz.DoneMsg{Err: err})
//	}()
//	_, err := p.Run()
//
// Press q to quit; the caller cancels the run when the program exits.
package viz
