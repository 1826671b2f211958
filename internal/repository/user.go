package repository

import (
	"alquigest/internal/logger"
	"alquigest/internal/models"
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, username, full_name, phone, email, password_hash, role, reset_token, reset_token_expiry, created_at, updated_at`

func scanUser(row interface{ Scan(dest ...any) error }) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.FullName,
		&u.Phone,
		&u.Email,
		&u.PasswordHash,
		&u.Role,
		&u.ResetToken,
		&u.ResetTokenExpiry,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetUserByID(ctx context.Context, id int) (*models.User, error) {
	logger.Log.Debug("Получение пользователя по ID (repo)", zap.Int("user_id", id))
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		logger.Log.Warn("Пользователь по ID не найден (repo)", zap.Int("user_id", id), zap.Error(err))
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	logger.Log.Debug("Получение пользователя по username (repo)", zap.String("username", username))
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username))
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	logger.Log.Debug("Получение пользователя по email (repo)")
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1) LIMIT 1`, email))
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) GetByResetToken(ctx context.Context, token string) (*models.User, error) {
	logger.Log.Debug("Поиск пользователя по токену восстановления (repo)")
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE reset_token = $1`, token))
	if err != nil {
		return nil, err
	}
	return u, nil
}

// SetResetToken ставит пользователю токен восстановления и срок его действия.
func (r *UserRepository) SetResetToken(ctx context.Context, userID int, token string, expiry time.Time) error {
	_, err := r.db.Exec(ctx,
		`UPDATE users SET reset_token = $1, reset_token_expiry = $2, updated_at = now() WHERE id = $3`,
		token, expiry, userID,
	)
	if err != nil {
		logger.Log.Error("Ошибка сохранения токена восстановления (repo)", zap.Int("user_id", userID), zap.Error(err))
	}
	return err
}

// UpdatePasswordAndClearResetToken в одной транзакции обновляет хеш пароля
// и обнуляет оба поля токена — поля живут только парой.
func (r *UserRepository) UpdatePasswordAndClearResetToken(ctx context.Context, userID int, passwordHash string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`UPDATE users SET password_hash = $1, reset_token = NULL, reset_token_expiry = NULL, updated_at = now() WHERE id = $2`,
		passwordHash, userID,
	)
	if err != nil {
		logger.Log.Error("Ошибка обновления пароля (repo)", zap.Int("user_id", userID), zap.Error(err))
		return err
	}

	return tx.Commit(ctx)
}

func (r *UserRepository) SaveRefreshToken(ctx context.Context, userID int, token string) error {
	logger.Log.Debug("Сохранение refresh токена (repo)", zap.Int("user_id", userID))
	_, err := r.db.Exec(ctx, `INSERT INTO refresh_tokens (user_id, token) VALUES ($1, $2)`, userID, token)
	if err != nil {
		logger.Log.Error("Ошибка сохранения refresh токена (repo)", zap.Error(err))
	}
	return err
}

func (r *UserRepository) IsRefreshTokenValid(ctx context.Context, userID int, token string) (bool, error) {
	logger.Log.Debug("Проверка refresh токена (repo)", zap.Int("user_id", userID))
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM refresh_tokens WHERE user_id = $1 AND token = $2)`,
		userID, token,
	).Scan(&exists)
	if err != nil {
		logger.Log.Error("Ошибка проверки refresh токена (repo)", zap.Error(err))
	}
	return exists, err
}

func (r *UserRepository) DeleteRefreshToken(ctx context.Context, userID int, token string) error {
	logger.Log.Debug("Удаление refresh токена (repo)", zap.Int("user_id", userID))
	_, err := r.db.Exec(ctx, `DELETE FROM refresh_tokens WHERE user_id = $1 AND token = $2`, userID, token)
	if err != nil {
		logger.Log.Error("Ошибка удаления refresh токена (repo)", zap.Error(err))
	}
	return err
}
