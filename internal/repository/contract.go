package repository

import (
	"alquigest/internal/logger"
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type ContractRepository struct {
	db *pgxpool.Pool
}

func NewContractRepository(db *pgxpool.Pool) *ContractRepository {
	return &ContractRepository{db: db}
}

// ExpireContracts переводит действующие договоры с прошедшей датой окончания
// в статус «не действует» и освобождает их объекты. Одна транзакция, чтобы
// договор и объект не разъехались по статусам.
func (r *ContractRepository) ExpireContracts(ctx context.Context, cutoff time.Time) (int64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		UPDATE properties SET is_rented = false
		WHERE id IN (SELECT property_id FROM contracts WHERE status = 'active' AND end_date < $1)`,
		cutoff,
	); err != nil {
		logger.Log.Error("Ошибка освобождения объектов (repo)", zap.Error(err))
		return 0, err
	}

	ct, err := tx.Exec(ctx,
		`UPDATE contracts SET status = 'expired' WHERE status = 'active' AND end_date < $1`,
		cutoff,
	)
	if err != nil {
		logger.Log.Error("Ошибка перевода договоров в архив (repo)", zap.Error(err))
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}
