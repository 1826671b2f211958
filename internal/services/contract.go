package services

import (
	"alquigest/internal/clock"
	"alquigest/internal/logger"
	"context"
	"time"

	"go.uber.org/zap"
)

type ContractRepo interface {
	ExpireContracts(ctx context.Context, cutoff time.Time) (int64, error)
}

type ContractService struct {
	repo ContractRepo
	clk  clock.Clock
}

func NewContractService(repo ContractRepo, clk clock.Clock) *ContractService {
	return &ContractService{repo: repo, clk: clk}
}

// ExpireOverdue переводит просроченные договоры в архив. Срез берётся на
// сутки назад: в день окончания договор ещё действует. Ошибка логируется и
// наружу не отдаётся — фоновая чистка не должна ломать вход пользователя.
func (s *ContractService) ExpireOverdue(ctx context.Context) int64 {
	cutoff := s.clk.Now().AddDate(0, 0, -1)

	n, err := s.repo.ExpireContracts(ctx, cutoff)
	if err != nil {
		logger.Log.Error("Ошибка архивации просроченных договоров", zap.Error(err))
		return 0
	}
	if n > 0 {
		logger.Log.Info("Просроченные договоры переведены в архив", zap.Int64("count", n))
	}
	return n
}
