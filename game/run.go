package game

import "context"

// Run steps g for the given number of frames, stopping early if ctx is done.
// Cancellation is checked between frames; a frame is never interrupted.
func Run(ctx context.Context, g *Game, frames int) error {
	for i := 0; i < frames; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		g.Step()
	}
	g.logSummary()
	return nil
}
