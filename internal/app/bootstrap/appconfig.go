// internal/app/bootstrap/appconfig.go
package bootstrap

import (
	"time"

	"github.com/dalemusser/eduledger/internal/domain/ledger"
)

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig covers the
// framework settings (ports, TLS, logging, CORS, body limits); everything
// that belongs to the ledger itself lives here.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Bearer token verification
	JWTSecret string        // HS256 secret shared with the token issuer
	JWTTTL    time.Duration // lifetime of tokens minted by Issue (tests and tooling)

	// Ledger rules
	LessonsPerMonth int   // default divisor when a course sets none
	PaidTolerance   int64 // a student owing this much or less counts as paid

	// When true, attendance for a date outside the group's schedule is
	// rejected instead of logged.
	AttendanceEnforceSchedule bool
}

// Policy returns the ledger constants carried by the config.
func (c AppConfig) Policy() ledger.Policy {
	return ledger.Policy{
		LessonsPerMonth: c.LessonsPerMonth,
		PaidTolerance:   c.PaidTolerance,
	}
}
