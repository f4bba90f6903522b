package routes

import (
	"net/http"
	"os"
	"strings"
	"time"

	"solfit/controllers/auth"
	"solfit/controllers/challenges"
	"solfit/controllers/users"
	"solfit/middleware"

	"github.com/gorilla/mux"
)

// UsersRoutes registers all user-facing routes on the given subrouter.
func UsersRoutes(api *mux.Router) {
	// Rate limiter login/register: 60 per IP per 5 minutes
	loginLimiter := middleware.NewIPRateLimiter(60, 5*time.Minute)
	// Rate limiter session: 120 reads, 60 writes per user per minute
	userLimiter := middleware.NewUserRateLimiter(120, 60, 60)
	// Oracle sync arrives in bursts when devices come online, so the window is
	// generous and the oracle's own hosts bypass it via ORACLE_IP_WHITELIST
	// (comma-separated).
	var oracleWhitelist []string
	if env := os.Getenv("ORACLE_IP_WHITELIST"); env != "" {
		for _, p := range strings.Split(env, ",") {
			if ip := strings.TrimSpace(p); ip != "" {
				oracleWhitelist = append(oracleWhitelist, ip)
			}
		}
	}
	oracleLimiter := middleware.NewOracleLimiter(1000, time.Minute, oracleWhitelist)

	// Register & Login
	api.Handle("/register", loginLimiter.Middleware(http.HandlerFunc(auth.RegisterHandler))).Methods(http.MethodPost)
	api.Handle("/login", loginLimiter.Middleware(http.HandlerFunc(auth.LoginHandler))).Methods(http.MethodPost)
	api.Handle("/refresh", loginLimiter.Middleware(http.HandlerFunc(auth.RefreshHandler))).Methods(http.MethodPost)
	api.Handle("/logout", userLimiter.Middleware(middleware.AuthMiddleware(http.HandlerFunc(auth.LogoutHandler)))).Methods(http.MethodPost)
	api.Handle("/logout-all", userLimiter.Middleware(middleware.AuthMiddleware(http.HandlerFunc(auth.LogoutAllHandler)))).Methods(http.MethodPost)

	// Change password (write)
	api.Handle("/users/change-password", userLimiter.Middleware(middleware.AuthMiddleware(http.HandlerFunc(users.ChangePasswordHandler)))).Methods(http.MethodPost)

	// User info (read)
	api.Handle("/users/info", userLimiter.Middleware(middleware.AuthMiddleware(http.HandlerFunc(users.InfoHandler)))).Methods(http.MethodGet)

	// User profile (update and delete)
	api.Handle("/users/profile", userLimiter.Middleware(middleware.AuthMiddleware(http.HandlerFunc(users.UpdateProfileHandler)))).Methods(http.MethodPut)
	api.Handle("/users/profile", userLimiter.Middleware(middleware.AuthMiddleware(http.HandlerFunc(users.DeleteProfileHandler)))).Methods(http.MethodDelete)

	// Transaction history
	api.Handle("/users/transactions", userLimiter.Middleware(middleware.AuthMiddleware(http.HandlerFunc(users.GetTransactionHistory)))).Methods(http.MethodGet)
	api.Handle("/users/challenges", userLimiter.Middleware(middleware.AuthMiddleware(http.HandlerFunc(challenges.ListMyChallengesHandler)))).Methods(http.MethodGet)

	// Challenge lifecycle
	api.Handle("/challenges", userLimiter.Middleware(middleware.AuthMiddleware(http.HandlerFunc(challenges.CreateChallengeHandler)))).Methods(http.MethodPost)
	api.Handle("/challenges", userLimiter.Middleware(middleware.AuthMiddleware(http.HandlerFunc(challenges.ListChallengesHandler)))).Methods(http.MethodGet)
	api.Handle("/challenges/{id:[0-9]+}", userLimiter.Middleware(middleware.AuthMiddleware(http.HandlerFunc(challenges.GetChallengeHandler)))).Methods(http.MethodGet)
	api.Handle("/challenges/{id:[0-9]+}/join", userLimiter.Middleware(middleware.AuthMiddleware(http.HandlerFunc(challenges.JoinChallengeHandler)))).Methods(http.MethodPost)
	api.Handle("/challenges/{id:[0-9]+}/withdraw", userLimiter.Middleware(middleware.AuthMiddleware(http.HandlerFunc(challenges.WithdrawHandler)))).Methods(http.MethodPost)

	// Oracle progress reports, authenticated by detached signature instead of JWT
	api.Handle("/oracle/sync", oracleLimiter.Middleware(middleware.OracleAuthMiddleware(http.HandlerFunc(challenges.SyncHandler)))).Methods(http.MethodPost)
}
