package repository

import (
	"alquigest/internal/logger"
	"alquigest/internal/models"
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type SecurityCodeRepository struct {
	db *pgxpool.Pool
}

func NewSecurityCodeRepository(db *pgxpool.Pool) *SecurityCodeRepository {
	return &SecurityCodeRepository{db: db}
}

func (r *SecurityCodeRepository) HasAvailable(ctx context.Context, userID int) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM security_codes WHERE user_id = $1 AND used = false)`,
		userID,
	).Scan(&exists)
	if err != nil {
		logger.Log.Error("Ошибка проверки наличия кодов (repo)", zap.Int("user_id", userID), zap.Error(err))
	}
	return exists, err
}

func (r *SecurityCodeRepository) CountAvailable(ctx context.Context, userID int) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM security_codes WHERE user_id = $1 AND used = false`,
		userID,
	).Scan(&count)
	if err != nil {
		logger.Log.Error("Ошибка подсчёта доступных кодов (repo)", zap.Int("user_id", userID), zap.Error(err))
	}
	return count, err
}

func (r *SecurityCodeRepository) GetAvailable(ctx context.Context, userID int) ([]*models.SecurityCode, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, code_hash, created_at, used, used_at
		FROM security_codes
		WHERE user_id = $1 AND used = false`,
		userID,
	)
	if err != nil {
		logger.Log.Error("Ошибка выборки доступных кодов (repo)", zap.Int("user_id", userID), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var codes []*models.SecurityCode
	for rows.Next() {
		var c models.SecurityCode
		if err := rows.Scan(&c.ID, &c.UserID, &c.CodeHash, &c.CreatedAt, &c.Used, &c.UsedAt); err != nil {
			logger.Log.Error("Ошибка сканирования кода (repo)", zap.Error(err))
			return nil, err
		}
		codes = append(codes, &c)
	}
	return codes, rows.Err()
}

// InsertBatch сохраняет пачку хешей одной транзакцией: либо запишется вся
// пачка, либо ничего.
func (r *SecurityCodeRepository) InsertBatch(ctx context.Context, userID int, hashes []string, createdAt time.Time) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, h := range hashes {
		if _, err := tx.Exec(ctx,
			`INSERT INTO security_codes (user_id, code_hash, created_at, used) VALUES ($1, $2, $3, false)`,
			userID, h, createdAt,
		); err != nil {
			logger.Log.Error("Ошибка вставки кода (repo)", zap.Int("user_id", userID), zap.Error(err))
			return err
		}
	}

	return tx.Commit(ctx)
}

// ReplaceBatch в одной транзакции гасит все неиспользованные коды пользователя
// и записывает новую пачку. Конкурентная валидация не увидит состояние
// «старые коды погашены, новых ещё нет».
func (r *SecurityCodeRepository) ReplaceBatch(ctx context.Context, userID int, hashes []string, now time.Time) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`UPDATE security_codes SET used = true, used_at = $1 WHERE user_id = $2 AND used = false`,
		now, userID,
	); err != nil {
		logger.Log.Error("Ошибка инвалидации кодов (repo)", zap.Int("user_id", userID), zap.Error(err))
		return err
	}

	for _, h := range hashes {
		if _, err := tx.Exec(ctx,
			`INSERT INTO security_codes (user_id, code_hash, created_at, used) VALUES ($1, $2, $3, false)`,
			userID, h, now,
		); err != nil {
			logger.Log.Error("Ошибка вставки кода (repo)", zap.Int("user_id", userID), zap.Error(err))
			return err
		}
	}

	return tx.Commit(ctx)
}

// ConsumeAndIssueResetToken помечает код использованным и одновременно
// выдаёт пользователю токен восстановления. Оба изменения — одна транзакция:
// код не может авторизовать второй токен, а токен не может появиться без
// погашенного кода.
func (r *SecurityCodeRepository) ConsumeAndIssueResetToken(ctx context.Context, codeID int64, userID int, token string, expiry, usedAt time.Time) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	ct, err := tx.Exec(ctx,
		`UPDATE security_codes SET used = true, used_at = $1 WHERE id = $2 AND used = false`,
		usedAt, codeID,
	)
	if err != nil {
		logger.Log.Error("Ошибка погашения кода (repo)", zap.Int64("code_id", codeID), zap.Error(err))
		return err
	}
	if ct.RowsAffected() == 0 {
		// код успели погасить параллельно (regenerate или вторая валидация)
		return pgx.ErrNoRows
	}

	if _, err := tx.Exec(ctx,
		`UPDATE users SET reset_token = $1, reset_token_expiry = $2, updated_at = now() WHERE id = $3`,
		token, expiry, userID,
	); err != nil {
		logger.Log.Error("Ошибка записи токена восстановления (repo)", zap.Int("user_id", userID), zap.Error(err))
		return err
	}

	return tx.Commit(ctx)
}
