package repository

import (
	"alquigest/internal/logger"
	"alquigest/internal/models"
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type RentIncreaseRepository struct {
	db *pgxpool.Pool
}

func NewRentIncreaseRepository(db *pgxpool.Pool) *RentIncreaseRepository {
	return &RentIncreaseRepository{db: db}
}

func (r *RentIncreaseRepository) GetContractAmount(ctx context.Context, contractID int64) (float64, error) {
	var amount float64
	err := r.db.QueryRow(ctx, `SELECT rent_amount FROM contracts WHERE id = $1`, contractID).Scan(&amount)
	if err != nil {
		logger.Log.Warn("Договор не найден при чтении суммы (repo)", zap.Int64("contract_id", contractID), zap.Error(err))
	}
	return amount, err
}

// CreateAndApply записывает повышение и обновляет текущую сумму договора
// одной транзакцией.
func (r *RentIncreaseRepository) CreateAndApply(ctx context.Context, inc *models.RentIncrease) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO rent_increases (contract_id, increase_date, previous_amount, new_amount, percentage, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		inc.ContractID, inc.IncreaseDate, inc.PreviousAmount, inc.NewAmount, inc.Percentage, inc.Description, inc.CreatedAt,
	).Scan(&inc.ID)
	if err != nil {
		logger.Log.Error("Ошибка записи повышения (repo)", zap.Int64("contract_id", inc.ContractID), zap.Error(err))
		return err
	}

	if _, err := tx.Exec(ctx,
		`UPDATE contracts SET rent_amount = $1 WHERE id = $2`,
		inc.NewAmount, inc.ContractID,
	); err != nil {
		logger.Log.Error("Ошибка обновления суммы договора (repo)", zap.Int64("contract_id", inc.ContractID), zap.Error(err))
		return err
	}

	return tx.Commit(ctx)
}

func (r *RentIncreaseRepository) GetByContract(ctx context.Context, contractID int64) ([]*models.RentIncrease, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, contract_id, increase_date, previous_amount, new_amount, percentage, description, created_at
		FROM rent_increases
		WHERE contract_id = $1
		ORDER BY increase_date DESC`,
		contractID,
	)
	if err != nil {
		logger.Log.Error("Ошибка выборки повышений (repo)", zap.Int64("contract_id", contractID), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var list []*models.RentIncrease
	for rows.Next() {
		var inc models.RentIncrease
		if err := rows.Scan(&inc.ID, &inc.ContractID, &inc.IncreaseDate, &inc.PreviousAmount, &inc.NewAmount, &inc.Percentage, &inc.Description, &inc.CreatedAt); err != nil {
			logger.Log.Error("Ошибка сканирования повышения (repo)", zap.Error(err))
			return nil, err
		}
		list = append(list, &inc)
	}
	return list, rows.Err()
}
