// internal/app/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/eduledger/internal/app/system/auth"
	"github.com/dalemusser/eduledger/internal/domain/ledger"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for eduledger.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, jwt_secret, etc.
//   - Environment variables: EDULEDGER_MONGO_URI, EDULEDGER_JWT_SECRET, etc.
//   - Command-line flags: --mongo_uri, --jwt_secret, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "eduledger", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	{Name: "jwt_secret", Default: "", Desc: "HS256 secret for bearer tokens (at least 32 characters)"},
	{Name: "jwt_ttl", Default: "24h", Desc: "Lifetime of tokens issued by this service"},

	{Name: "lessons_per_month", Default: ledger.DefaultLessonsPerMonth, Desc: "Lessons per month when a course sets none"},
	{Name: "paid_tolerance", Default: int(ledger.DefaultPaidTolerance), Desc: "Largest amount owed that still counts as paid"},
	{Name: "attendance_enforce_schedule", Default: false, Desc: "Reject attendance on dates the group does not meet"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig merges flags > env > files > defaults,
// reading WAFFLE_* for core settings and EDULEDGER_* for the keys above.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "EDULEDGER", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		JWTSecret: appValues.String("jwt_secret"),
		JWTTTL:    appValues.Duration("jwt_ttl", 24*time.Hour),

		LessonsPerMonth: appValues.Int("lessons_per_month"),
		PaidTolerance:   int64(appValues.Int("paid_tolerance")),

		AttendanceEnforceSchedule: appValues.Bool("attendance_enforce_schedule"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// The Mongo URI is checked before any connection attempt, and the ledger
// constants are checked so a bad divisor can never reach a charge.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if appCfg.MongoDatabase == "" {
		return errors.New("mongo_database must not be empty")
	}
	if len(appCfg.JWTSecret) < auth.MinSecretLen {
		return fmt.Errorf("jwt_secret must be at least %d characters", auth.MinSecretLen)
	}
	if appCfg.LessonsPerMonth <= 0 {
		return fmt.Errorf("lessons_per_month must be positive, got %d", appCfg.LessonsPerMonth)
	}
	if appCfg.PaidTolerance < 0 {
		return fmt.Errorf("paid_tolerance must not be negative, got %d", appCfg.PaidTolerance)
	}
	if appCfg.JWTTTL <= 0 {
		return fmt.Errorf("jwt_ttl must be positive, got %s", appCfg.JWTTTL)
	}
	if appCfg.MongoMinPoolSize > appCfg.MongoMaxPoolSize {
		return fmt.Errorf("mongo_min_pool_size (%d) exceeds mongo_max_pool_size (%d)",
			appCfg.MongoMinPoolSize, appCfg.MongoMaxPoolSize)
	}
	return nil
}
