package ranging

import (
	"context"
	"log"
	"time"
)

// Run calls r.Tick on every value received from tick until ctx is done.
// Trigger failures are logged once per failure streak; ranging carries on
// and the failed channel simply reports zero.
func Run(ctx context.Context, r *Ranger, tick <-chan time.Time) error {
	failing := false
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick:
			err := r.Tick()
			if err != nil && !failing {
				ch, _ := r.Active()
				log.Printf("ranging: trigger channel %d: %v", ch, err)
			}
			if err == nil && failing {
				log.Printf("ranging: trigger recovered")
			}
			failing = err != nil
		}
	}
}

// RunEvery runs the scheduler with a ticker of the given period.
func RunEvery(ctx context.Context, r *Ranger, period time.Duration) error {
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	return Run(ctx, r, ticker.C)
}
