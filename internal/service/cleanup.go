package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Sweeper deletes expired rows and reports how many went away
type Sweeper func(ctx context.Context) (int, error)

// Cleanup runs sweep every t until ctx is done
func Cleanup(ctx context.Context, name string, t time.Duration, sweep Sweeper) {
	ticker := time.NewTicker(t)

	zap.L().Debug(name+" attached", zap.Duration("tick_every", t))

	go func() {
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := sweep(ctx)
				if err != nil {
					zap.L().Error(name+" failed", zap.Error(err))
					continue
				}

				if n > 0 {
					zap.L().Debug(name+" finished", zap.Int("removed", n))
				}
			}
		}
	}()
}
