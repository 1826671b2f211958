package app

import (
	"alquigest/internal/clock"
	"alquigest/internal/config"
	"alquigest/internal/db"
	"alquigest/internal/handlers"
	"alquigest/internal/repository"
	"alquigest/internal/routes"
	"alquigest/internal/services"
	"context"
	"strconv"
	"time"

	"github.com/gorilla/mux"
)

func InitApp(cfg *config.Config) (*mux.Router, error) {
	conn, err := db.NewPostgresConnection(cfg)
	if err != nil {
		return nil, err
	}

	clk := clock.Real{}
	hasher := services.BcryptHasher{}

	// Репозитории
	userRepo := repository.NewUserRepository(conn)
	codeRepo := repository.NewSecurityCodeRepository(conn)
	contractRepo := repository.NewContractRepository(conn)
	increaseRepo := repository.NewRentIncreaseRepository(conn)
	reportRepo := repository.NewReportRepository(conn)

	// Сервисы
	authService := services.NewAuthService(userRepo)
	codeService := services.NewSecurityCodeService(codeRepo, userRepo, hasher, clk, cfg.PasswordResetTTL())
	resetService := services.NewPasswordResetService(userRepo, hasher, clk, cfg.FrontendURL, cfg.PasswordResetTTL())
	contractService := services.NewContractService(contractRepo, clk)
	increaseService := services.NewRentIncreaseService(increaseRepo, clk)

	feePercent, _ := strconv.ParseFloat(cfg.ReportFeePercent, 64)
	reportService := services.NewReportService(reportRepo, clk, feePercent)

	emailService := services.NewEmailService(cfg)

	// Хендлеры
	authHandler := handlers.NewAuthHandler(authService, contractService)
	passwordHandler := handlers.NewPasswordHandler(resetService)
	codeHandler := handlers.NewSecurityCodeHandler(codeService)
	increaseHandler := handlers.NewRentIncreaseHandler(increaseService)
	reportHandler := handlers.NewReportHandler(reportService)

	// Просроченные договоры: разово на старте и дальше раз в час
	_ = contractService.ExpireOverdue(context.Background())
	StartContractCleaner(contractService)

	// Воркеры очереди писем
	for i := 0; i < 3; i++ {
		services.StartEmailWorker(emailService)
	}

	// Маршруты
	router := mux.NewRouter()
	routes.InitRoutes(router, authHandler, passwordHandler, codeHandler, increaseHandler, reportHandler)

	return router, nil
}

func StartContractCleaner(svc *services.ContractService) {
	t := time.NewTicker(1 * time.Hour)
	go func() {
		for range t.C {
			_ = svc.ExpireOverdue(context.Background())
		}
	}()
}
