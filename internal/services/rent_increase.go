package services

import (
	"alquigest/internal/clock"
	"alquigest/internal/logger"
	"alquigest/internal/models"
	"context"
	"errors"
	"math"

	"go.uber.org/zap"
)

var ErrContractNotFound = errors.New("договор не найден")

type RentIncreaseRepo interface {
	GetContractAmount(ctx context.Context, contractID int64) (float64, error)
	CreateAndApply(ctx context.Context, inc *models.RentIncrease) error
	GetByContract(ctx context.Context, contractID int64) ([]*models.RentIncrease, error)
}

type RentIncreaseService struct {
	repo RentIncreaseRepo
	clk  clock.Clock
}

func NewRentIncreaseService(repo RentIncreaseRepo, clk clock.Clock) *RentIncreaseService {
	return &RentIncreaseService{repo: repo, clk: clk}
}

// Create фиксирует повышение: новая сумма считается от текущей суммы договора
// по проценту и применяется к договору вместе с записью повышения.
func (s *RentIncreaseService) Create(ctx context.Context, req *models.CreateRentIncreaseRequest) (*models.RentIncrease, error) {
	if req.Percentage <= 0 {
		return nil, errors.New("процент повышения должен быть положительным")
	}

	prev, err := s.repo.GetContractAmount(ctx, req.ContractID)
	if err != nil {
		return nil, ErrContractNotFound
	}

	inc := &models.RentIncrease{
		ContractID:     req.ContractID,
		IncreaseDate:   s.clk.Today(),
		PreviousAmount: prev,
		NewAmount:      round2(prev * (1 + req.Percentage/100)),
		Percentage:     req.Percentage,
		Description:    req.Description,
		CreatedAt:      s.clk.Now(),
	}

	if err := s.repo.CreateAndApply(ctx, inc); err != nil {
		return nil, err
	}

	logger.Log.Info("Повышение аренды зафиксировано",
		zap.Int64("contract_id", inc.ContractID),
		zap.Float64("previous", inc.PreviousAmount),
		zap.Float64("new", inc.NewAmount),
	)
	return inc, nil
}

func (s *RentIncreaseService) ListByContract(ctx context.Context, contractID int64) ([]*models.RentIncrease, error) {
	return s.repo.GetByContract(ctx, contractID)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
