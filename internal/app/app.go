// Package app wires stores, services and HTTP handlers into a single router.
package app

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-redis/redis/v8"
	"github.com/userhub/backend/internal/audit"
	"github.com/userhub/backend/internal/config"
	"github.com/userhub/backend/internal/handlers"
	"github.com/userhub/backend/internal/middleware"
	"github.com/userhub/backend/internal/models"
	"github.com/userhub/backend/internal/services"
	"github.com/userhub/backend/internal/store"
	"go.uber.org/zap"
)

// Deps are the external resources the application is built from. Redis may be
// nil, which disables attempt limiting and token revocation.
type Deps struct {
	DB        *sql.DB
	Redis     *redis.Client
	Mailer    services.Mailer
	Config    *config.AuthConfig
	JWTSecret string
	Logger    *zap.Logger
}

// App owns the process-wide session and the services behind the router.
type App struct {
	Router        http.Handler
	Session       *services.Session
	Auth          *services.AuthService
	Roles         *services.RoleService
	TwoFactor     *services.TwoFactorService
	PasswordReset *services.PasswordResetService
	Accounts      *services.AccountService
	Tokens        *middleware.TokenManager
}

func New(deps Deps) *App {
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	accounts := store.NewAccountStore(deps.DB)
	resetTokens := store.NewResetTokenStore(deps.DB)
	auditLog := audit.NewLogger(logger)
	hasher := services.NewPasswordHasher(cfg.BcryptCost)
	session := services.NewSession()

	loginLimiter := services.NewAttemptLimiter(deps.Redis, "login", cfg.LoginMaxAttempts, cfg.LoginWindow)
	totpLimiter := services.NewAttemptLimiter(deps.Redis, "totp", cfg.TOTPMaxAttempts, cfg.TOTPWindow)

	a := &App{Session: session}
	a.Auth = services.NewAuthService(accounts, hasher, session, loginLimiter, auditLog, logger)
	a.Roles = services.NewRoleService(accounts, session, auditLog, logger)
	a.TwoFactor = services.NewTwoFactorService(accounts, services.NewQRService(), session, totpLimiter,
		cfg.TOTPIssuer, cfg.TOTPSkew, auditLog, logger)
	a.PasswordReset = services.NewPasswordResetService(accounts, resetTokens, deps.Mailer, hasher,
		cfg.AppName, cfg.ResetTokenTTL, auditLog, logger)
	a.Accounts = services.NewAccountService(accounts, a.Roles, hasher, session, auditLog, logger)
	a.Tokens = middleware.NewTokenManager(deps.JWTSecret, cfg.TokenTTL, cfg.AppName, deps.Redis)

	a.Router = a.routes(cfg, logger)
	return a
}

func (a *App) routes(cfg *config.AuthConfig, logger *zap.Logger) http.Handler {
	authn := middleware.NewAuthenticator(a.Tokens, a.Session, logger)

	authHandler := handlers.NewAuthHandler(a.Auth, a.Roles, a.Tokens, logger)
	twoFactorHandler := handlers.NewTwoFactorHandler(a.TwoFactor, logger)
	resetHandler := handlers.NewPasswordResetHandler(a.PasswordReset, logger)
	accountHandler := handlers.NewAccountHandler(a.Accounts, a.Session, logger)

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	})

	r.Handle("/static/avatars/*", http.StripPrefix("/static/avatars/", middleware.AvatarServer(cfg.AvatarDir)))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/password/forgot", resetHandler.Forgot)
		r.Post("/password/verify-token", resetHandler.VerifyToken)
		r.Post("/password/reset", resetHandler.Reset)

		r.Group(func(r chi.Router) {
			r.Use(authn.Authenticate)

			r.Post("/auth/logout", authHandler.Logout)
			r.Get("/auth/me", authHandler.Me)

			r.Post("/2fa/enroll", twoFactorHandler.Enroll)
			r.Post("/2fa/verify", twoFactorHandler.Verify)
			r.Get("/2fa/status", twoFactorHandler.Status)

			r.Group(func(r chi.Router) {
				r.Use(authn.RequireVerified)

				r.Put("/profile", accountHandler.UpdateProfile)
				r.Put("/profile/password", accountHandler.ChangePassword)

				r.Route("/admin/users", func(r chi.Router) {
					r.Use(authn.RequireAnyRole(models.RoleAdmin, models.RoleSuperAdmin))

					r.Get("/", accountHandler.ListUsers)
					r.Post("/", accountHandler.CreateUser)
					r.Put("/{id}/block", accountHandler.SetBlocked)
					r.Put("/{id}/role", accountHandler.ToggleRole)
					r.Delete("/{id}", accountHandler.DeleteUser)
				})
			})
		})
	})

	return r
}
