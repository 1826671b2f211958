package services

import (
	"alquigest/internal/clock"
	"alquigest/internal/logger"
	"alquigest/internal/models"
	"alquigest/internal/utils/helpers"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrPasswordMismatch = errors.New("пароли не совпадают")
	ErrTokenInvalid     = errors.New("неверный токен восстановления")
	ErrTokenExpired     = errors.New("токен восстановления истёк")
)

type UserRepo interface {
	GetUserByID(ctx context.Context, id int) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetByResetToken(ctx context.Context, token string) (*models.User, error)
	SetResetToken(ctx context.Context, userID int, token string, expiry time.Time) error
	UpdatePasswordAndClearResetToken(ctx context.Context, userID int, passwordHash string) error
	SaveRefreshToken(ctx context.Context, userID int, token string) error
	IsRefreshTokenValid(ctx context.Context, userID int, token string) (bool, error)
	DeleteRefreshToken(ctx context.Context, userID int, token string) error
}

type PasswordResetService struct {
	users       UserRepo
	hasher      PasswordHasher
	clk         clock.Clock
	frontendURL string
	tokenTTL    time.Duration
}

func NewPasswordResetService(users UserRepo, hasher PasswordHasher, clk clock.Clock, frontendURL string, tokenTTL time.Duration) *PasswordResetService {
	return &PasswordResetService{
		users:       users,
		hasher:      hasher,
		clk:         clk,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		tokenTTL:    tokenTTL,
	}
}

// RequestReset выдаёт токен восстановления и ставит письмо в очередь отправки.
// Возвращает nil всегда — по ответу нельзя понять, существует ли такой e-mail.
// Письмо уходит асинхронно: сбой доставки логируется и не откатывает уже
// сохранённый токен.
func (s *PasswordResetService) RequestReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	logger.Log.Info("Запрос на восстановление пароля")

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		logger.Log.Warn("Запрос восстановления с незарегистрированным email", zap.Error(err))
		return nil
	}

	token := uuid.New().String()
	expiry := s.clk.Now().Add(s.tokenTTL)
	if err := s.users.SetResetToken(ctx, user.ID, token, expiry); err != nil {
		logger.Log.Error("Ошибка сохранения токена восстановления",
			zap.Int("user_id", user.ID),
			zap.Error(err),
		)
		return nil
	}

	link := fmt.Sprintf("%s/auth/reset-password?token=%s", s.frontendURL, token)
	EnqueueEmail(EmailJob{
		To:      []string{email},
		Subject: "Восстановление пароля — Alquigest",
		Body:    helpers.BuildRecoveryHTML(user.Username, link),
		IsHTML:  true,
	})

	logger.Log.Info("Письмо восстановления поставлено в очередь",
		zap.Int("user_id", user.ID),
		zap.Time("expires_at", expiry),
	)
	return nil
}

// ResetPassword устанавливает новый пароль по токену восстановления.
// Совпадение паролей проверяется до любого обращения к базе.
func (s *PasswordResetService) ResetPassword(ctx context.Context, token, newPassword, confirmPassword string) error {
	if newPassword != confirmPassword {
		logger.Log.Warn("Пароль и подтверждение не совпадают при сбросе")
		return ErrPasswordMismatch
	}

	user, err := s.users.GetByResetToken(ctx, token)
	if err != nil {
		logger.Log.Warn("Сброс пароля по неизвестному токену")
		return ErrTokenInvalid
	}

	if user.ResetTokenExpiry == nil || s.clk.Now().After(*user.ResetTokenExpiry) {
		logger.Log.Warn("Сброс пароля по истёкшему токену", zap.String("username", user.Username))
		return ErrTokenExpired
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		logger.Log.Error("Ошибка хеширования нового пароля", zap.Int("user_id", user.ID), zap.Error(err))
		return err
	}

	if err := s.users.UpdatePasswordAndClearResetToken(ctx, user.ID, hash); err != nil {
		logger.Log.Error("Ошибка обновления пароля", zap.Int("user_id", user.ID), zap.Error(err))
		return err
	}

	logger.Log.Info("Пароль успешно сброшен", zap.String("username", user.Username))
	return nil
}

// ValidateToken — только чтение, ничего не мутирует: фронт показывает форму
// сброса до отправки.
func (s *PasswordResetService) ValidateToken(ctx context.Context, token string) bool {
	user, err := s.users.GetByResetToken(ctx, token)
	if err != nil {
		return false
	}
	return user.ResetTokenExpiry != nil && s.clk.Now().Before(*user.ResetTokenExpiry)
}

// ChangePassword меняет пароль авторизованного пользователя по старому паролю.
func (s *PasswordResetService) ChangePassword(ctx context.Context, userID int, oldPassword, newPassword string) error {
	logger.Log.Info("Смена пароля (авторизованный пользователь)", zap.Int("user_id", userID))

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return ErrUserNotFound
	}

	if !s.hasher.Verify(oldPassword, user.PasswordHash) {
		logger.Log.Warn("Старый пароль не совпадает", zap.Int("user_id", userID))
		return errors.New("старый пароль неверен")
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		logger.Log.Error("Ошибка хеширования нового пароля", zap.Error(err), zap.Int("user_id", userID))
		return err
	}

	if err := s.users.UpdatePasswordAndClearResetToken(ctx, userID, hash); err != nil {
		logger.Log.Error("Ошибка обновления пароля", zap.Int("user_id", userID), zap.Error(err))
		return err
	}

	logger.Log.Info("Пароль успешно изменён", zap.Int("user_id", userID))
	return nil
}
