package routes

import (
	"alquigest/internal/handlers"
	"alquigest/internal/middleware"

	"github.com/gorilla/mux"
)

func InitRoutes(
	router *mux.Router,
	authHandler *handlers.AuthHandler,
	passwordHandler *handlers.PasswordHandler,
	codeHandler *handlers.SecurityCodeHandler,
	increaseHandler *handlers.RentIncreaseHandler,
	reportHandler *handlers.ReportHandler,
) {
	router.Use(middleware.Recoverer)
	router.Use(middleware.Logging)

	api := router.PathPrefix("/api").Subrouter()

	// --- Публичные маршруты ---
	api.HandleFunc("/login", authHandler.Login).Methods("POST")
	api.HandleFunc("/refresh", authHandler.Refresh).Methods("POST")

	// восстановление пароля: доступно без сессии
	api.HandleFunc("/password/forgot", passwordHandler.Forgot).Methods("POST")
	api.HandleFunc("/password/reset", passwordHandler.Reset).Methods("POST")
	api.HandleFunc("/password/check-token", passwordHandler.CheckToken).Methods("GET")
	api.HandleFunc("/security-codes/validate", codeHandler.Validate).Methods("POST")

	// --- Защищённые JWT ---
	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.JWTAuth)

	protected.HandleFunc("/logout", authHandler.Logout).Methods("POST")
	protected.HandleFunc("/profile", authHandler.Profile).Methods("GET")
	protected.HandleFunc("/password/change", passwordHandler.Change).Methods("POST")

	protected.HandleFunc("/security-codes/generate", codeHandler.Generate).Methods("POST")
	protected.HandleFunc("/security-codes/regenerate", codeHandler.Regenerate).Methods("POST")
	protected.HandleFunc("/security-codes/available", codeHandler.Available).Methods("GET")

	protected.HandleFunc("/rent-increases", increaseHandler.Create).Methods("POST")
	protected.HandleFunc("/contracts/{id:[0-9]+}/rent-increases", increaseHandler.ListByContract).Methods("GET")

	protected.HandleFunc("/reports/fees", reportHandler.Fees).Methods("GET")
	protected.HandleFunc("/reports/fees/pdf", reportHandler.FeesPDF).Methods("GET")
	protected.HandleFunc("/reports/rents", reportHandler.Rents).Methods("GET")
	protected.HandleFunc("/reports/rents/pdf", reportHandler.RentsPDF).Methods("GET")
	protected.HandleFunc("/reports/increases", reportHandler.Increases).Methods("GET")
	protected.HandleFunc("/reports/increases/pdf", reportHandler.IncreasesPDF).Methods("GET")

	admin := protected.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.OnlyRole("admin"))
	admin.HandleFunc("/security-codes/available/{id:[0-9]+}", codeHandler.AvailableForUser).Methods("GET")
}
