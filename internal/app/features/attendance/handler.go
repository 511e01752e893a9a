// internal/app/features/attendance/handler.go
package attendance

import (
	"github.com/dalemusser/eduledger/internal/domain/ledger"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler records attendance and turns it into lesson charges.
//
// Policy supplies the lesson divisor. When EnforceSchedule is set a sheet
// for a weekday the group does not meet on is rejected; otherwise it is
// only logged.
type Handler struct {
	DB              *mongo.Database
	Log             *zap.Logger
	Policy          ledger.Policy
	EnforceSchedule bool
}

func NewHandler(db *mongo.Database, policy ledger.Policy, enforceSchedule bool, logger *zap.Logger) *Handler {
	return &Handler{
		DB:              db,
		Log:             logger,
		Policy:          policy,
		EnforceSchedule: enforceSchedule,
	}
}
