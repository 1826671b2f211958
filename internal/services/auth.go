package services

import (
	"alquigest/internal/logger"
	"alquigest/internal/models"
	"alquigest/internal/utils"
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

type AuthService struct {
	repo UserRepo
}

func NewAuthService(repo UserRepo) *AuthService {
	return &AuthService{repo: repo}
}

func (s *AuthService) LoginUser(
	ctx context.Context,
	username, password, jwtSecret string,
	accessTTL, refreshTTL time.Duration,
) (string, string, *models.User, error) {
	logger.Log.Info("Попытка входа (service)", zap.String("username", username))
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		logger.Log.Warn("Пользователь не найден (service)", zap.String("username", username), zap.Error(err))
		return "", "", nil, errors.New("неверное имя пользователя или пароль")
	}

	if !utils.CheckPassword(password, user.PasswordHash) {
		logger.Log.Warn("Неверный пароль (service)", zap.String("username", username))
		return "", "", nil, errors.New("неверное имя пользователя или пароль")
	}

	access, err := utils.GenerateToken(jwtSecret, user.ID, user.Role, accessTTL, "access")
	if err != nil {
		logger.Log.Error("Ошибка генерации access токена", zap.Error(err))
		return "", "", nil, err
	}

	refresh, err := utils.GenerateToken(jwtSecret, user.ID, user.Role, refreshTTL, "refresh")
	if err != nil {
		logger.Log.Error("Ошибка генерации refresh токена", zap.Error(err))
		return "", "", nil, err
	}

	if err := s.repo.SaveRefreshToken(ctx, user.ID, refresh); err != nil {
		return "", "", nil, err
	}

	logger.Log.Info("Вход выполнен (service)", zap.String("username", username), zap.Int("user_id", user.ID))
	return access, refresh, user, nil
}

func (s *AuthService) RefreshTokens(
	ctx context.Context,
	userID int, role, oldRefresh, jwtSecret string,
	accessTTL, refreshTTL time.Duration,
) (string, string, error) {
	valid, err := s.repo.IsRefreshTokenValid(ctx, userID, oldRefresh)
	if err != nil || !valid {
		logger.Log.Warn("Недействительный refresh токен", zap.Int("user_id", userID))
		return "", "", errors.New("недействительный refresh токен")
	}

	access, err := utils.GenerateToken(jwtSecret, userID, role, accessTTL, "access")
	if err != nil {
		return "", "", err
	}
	refresh, err := utils.GenerateToken(jwtSecret, userID, role, refreshTTL, "refresh")
	if err != nil {
		return "", "", err
	}

	// старый токен гасим, новый сохраняем
	if err := s.repo.DeleteRefreshToken(ctx, userID, oldRefresh); err != nil {
		return "", "", err
	}
	if err := s.repo.SaveRefreshToken(ctx, userID, refresh); err != nil {
		return "", "", err
	}

	return access, refresh, nil
}

func (s *AuthService) Logout(ctx context.Context, userID int, refresh string) error {
	logger.Log.Info("Выход пользователя (service)", zap.Int("user_id", userID))
	return s.repo.DeleteRefreshToken(ctx, userID, refresh)
}

func (s *AuthService) GetUserByID(ctx context.Context, id int) (*models.User, error) {
	return s.repo.GetUserByID(ctx, id)
}
