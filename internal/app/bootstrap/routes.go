// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	attendancefeature "github.com/dalemusser/eduledger/internal/app/features/attendance"
	employeepaymentsfeature "github.com/dalemusser/eduledger/internal/app/features/employeepayments"
	errorsfeature "github.com/dalemusser/eduledger/internal/app/features/errors"
	financefeature "github.com/dalemusser/eduledger/internal/app/features/finance"
	healthfeature "github.com/dalemusser/eduledger/internal/app/features/health"
	paymentsfeature "github.com/dalemusser/eduledger/internal/app/features/payments"
	"github.com/dalemusser/eduledger/internal/app/system/auth"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// the Startup hook have completed. Every ledger route requires a signed-in
// caller; capability checks live in each feature's Routes.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	authMgr, err := auth.NewManager(appCfg.JWTSecret, appCfg.JWTTTL, logger)
	if err != nil {
		logger.Error("auth manager init failed", zap.Error(err))
		return nil, err
	}

	db := deps.MongoDatabase
	policy := appCfg.Policy()
	errorsHandler := errorsfeature.NewHandler()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.NotFound(errorsHandler.NotFound)
	r.MethodNotAllowed(errorsHandler.MethodNotAllowed)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	r.Group(func(pr chi.Router) {
		pr.Use(authMgr.LoadUser)
		pr.Use(auth.RequireSignedIn)

		attendanceHandler := attendancefeature.NewHandler(db, policy, appCfg.AttendanceEnforceSchedule, logger)
		pr.Mount("/attendance", attendancefeature.Routes(attendanceHandler))

		paymentsHandler := paymentsfeature.NewHandler(db, logger)
		pr.Mount("/payments", paymentsfeature.Routes(paymentsHandler))

		employeePaymentsHandler := employeepaymentsfeature.NewHandler(db, logger)
		pr.Mount("/employee-payments", employeepaymentsfeature.Routes(employeePaymentsHandler))

		financeHandler := financefeature.NewHandler(db, policy, logger)
		pr.Mount("/students", financefeature.StudentRoutes(financeHandler))
		pr.Mount("/finance", financefeature.Routes(financeHandler))
	})

	logger.Info("routes mounted",
		zap.String("env", coreCfg.Env),
		zap.Strings("prefixes", []string{"/health", "/attendance", "/payments", "/employee-payments", "/students", "/finance"}),
	)
	return r, nil
}
