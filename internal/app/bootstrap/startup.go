// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/eduledger/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs once after the database is ready and before the handler is
// built. It applies TIMEOUT_* overrides and logs the ledger rules in force.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if n := timeouts.ConfigureFromEnv(); n > 0 {
		cur := timeouts.Current()
		logger.Info("timeouts overridden from environment",
			zap.Int("count", n),
			zap.Duration("short", cur.Short),
			zap.Duration("medium", cur.Medium),
			zap.Duration("long", cur.Long),
			zap.Duration("batch", cur.Batch),
		)
	}

	logger.Info("ledger policy",
		zap.Int("lessons_per_month", appCfg.LessonsPerMonth),
		zap.Int64("paid_tolerance", appCfg.PaidTolerance),
		zap.Bool("attendance_enforce_schedule", appCfg.AttendanceEnforceSchedule),
	)
	return nil
}
