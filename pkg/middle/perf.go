package middle

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Slow operation thresholds shared by the server and the command line.
const (
	SlowAnalysis    = 500 * time.Millisecond
	SlowRarefaction = 5 * time.Second
)

// MeasurePerformance times an operation; call the returned func when it ends.
// Durations are logged at debug level, and as a warning above threshold.
//
//	defer middle.MeasurePerformance(ctx, "rarefaction", middle.SlowRarefaction)()
func MeasurePerformance(ctx context.Context, name string, threshold time.Duration) func() time.Duration {
	start := time.Now()
	return func() time.Duration {
		d := time.Since(start)
		log := Logger(ctx)
		log.Debug("Operation completed", zap.String("operation", name), zap.Duration("duration", d))
		if threshold > 0 && d > threshold {
			log.Warn("Slow operation",
				zap.String("operation", name),
				zap.Duration("duration", d),
				zap.Duration("threshold", threshold),
			)
		}
		return d
	}
}
