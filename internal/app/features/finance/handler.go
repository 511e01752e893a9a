// internal/app/features/finance/handler.go
package finance

import (
	"github.com/dalemusser/eduledger/internal/domain/ledger"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves read-only views of student balances.
type Handler struct {
	DB     *mongo.Database
	Log    *zap.Logger
	Policy ledger.Policy
}

func NewHandler(db *mongo.Database, policy ledger.Policy, logger *zap.Logger) *Handler {
	return &Handler{
		DB:     db,
		Log:    logger,
		Policy: policy,
	}
}
