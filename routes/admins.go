package routes

import (
	"net/http"
	"time"

	"solfit/controllers/admins"
	"solfit/middleware"

	"github.com/gorilla/mux"
)

func SetAdminRoutes(api *mux.Router) {
	// Rate limiter for admin login: 5 attempts per IP per minute
	adminLoginLimiter := middleware.NewIPRateLimiter(5, time.Minute)

	// Public admin routes
	api.Handle("/admin/login", adminLoginLimiter.Middleware(http.HandlerFunc(admins.Login))).Methods(http.MethodPost)

	// Protected admin routes
	adminRouter := api.PathPrefix("/admin").Subrouter()
	adminRouter.Use(middleware.AdminAuthMiddleware)

	// Dashboard stats
	adminRouter.Handle("/dashboard", http.HandlerFunc(admins.GetDashboardStats)).Methods(http.MethodGet)

	// Admin profile
	adminRouter.Handle("/profile", http.HandlerFunc(admins.GetAdminProfile)).Methods(http.MethodGet)
	adminRouter.Handle("/profile", http.HandlerFunc(admins.UpdateAdminProfile)).Methods(http.MethodPut)
	adminRouter.Handle("/password", http.HandlerFunc(admins.UpdateAdminPassword)).Methods(http.MethodPut)

	// User management
	adminRouter.Handle("/users", http.HandlerFunc(admins.GetUsers)).Methods(http.MethodGet)
	adminRouter.Handle("/users/{id:[0-9]+}", http.HandlerFunc(admins.GetUserDetail)).Methods(http.MethodGet)
	adminRouter.Handle("/users/{id:[0-9]+}", http.HandlerFunc(admins.UpdateUser)).Methods(http.MethodPut)
	adminRouter.Handle("/users/balance/{id:[0-9]+}", http.HandlerFunc(admins.UpdateUserBalance)).Methods(http.MethodPut)
	adminRouter.Handle("/users/password/{id:[0-9]+}", http.HandlerFunc(admins.UpdateUserPassword)).Methods(http.MethodPut)

	// Challenge management
	adminRouter.Handle("/challenges", http.HandlerFunc(admins.GetChallenges)).Methods(http.MethodGet)
	adminRouter.Handle("/challenges/{id:[0-9]+}", http.HandlerFunc(admins.GetChallengeDetail)).Methods(http.MethodGet)

	// Transaction management
	adminRouter.Handle("/transactions", http.HandlerFunc(admins.GetTransactions)).Methods(http.MethodGet)
}
