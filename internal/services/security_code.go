package services

import (
	"alquigest/internal/clock"
	"alquigest/internal/logger"
	"alquigest/internal/models"
	"alquigest/internal/utils"
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	codeBatchSize  = 8
	codeSegments   = 3
	codeSegmentLen = 4
	codeAlphabet   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

var ErrUserNotFound = errors.New("пользователь не найден")

// PasswordHasher — один и тот же медленный хеш и для паролей,
// и для кодов восстановления.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) bool
}

type BcryptHasher struct{}

func (BcryptHasher) Hash(plain string) (string, error) { return utils.HashPassword(plain) }
func (BcryptHasher) Verify(plain, hash string) bool    { return utils.CheckPassword(plain, hash) }

type SecurityCodeRepo interface {
	HasAvailable(ctx context.Context, userID int) (bool, error)
	CountAvailable(ctx context.Context, userID int) (int64, error)
	GetAvailable(ctx context.Context, userID int) ([]*models.SecurityCode, error)
	InsertBatch(ctx context.Context, userID int, hashes []string, createdAt time.Time) error
	ReplaceBatch(ctx context.Context, userID int, hashes []string, now time.Time) error
	ConsumeAndIssueResetToken(ctx context.Context, codeID int64, userID int, token string, expiry, usedAt time.Time) error
}

type SecurityCodeService struct {
	codes    SecurityCodeRepo
	users    UserRepo
	hasher   PasswordHasher
	clk      clock.Clock
	tokenTTL time.Duration
}

func NewSecurityCodeService(codes SecurityCodeRepo, users UserRepo, hasher PasswordHasher, clk clock.Clock, tokenTTL time.Duration) *SecurityCodeService {
	return &SecurityCodeService{
		codes:    codes,
		users:    users,
		hasher:   hasher,
		clk:      clk,
		tokenTTL: tokenTTL,
	}
}

// GenerateCodes выдаёт первую пачку кодов. Если у пользователя ещё остались
// неиспользованные коды — ничего не пишет и возвращает пустой список:
// случайный повторный вызов не должен плодить коды, для замены есть
// RegenerateCodes.
func (s *SecurityCodeService) GenerateCodes(ctx context.Context, userID int) ([]string, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	has, err := s.codes.HasAvailable(ctx, userID)
	if err != nil {
		return nil, err
	}
	if has {
		logger.Log.Warn("У пользователя уже есть активные коды восстановления", zap.String("username", user.Username))
		return []string{}, nil
	}

	plains, hashes, err := s.newBatch()
	if err != nil {
		return nil, err
	}
	if err := s.codes.InsertBatch(ctx, userID, hashes, s.clk.Now()); err != nil {
		return nil, err
	}

	logger.Log.Info("Сгенерированы коды восстановления",
		zap.String("username", user.Username),
		zap.Int("count", len(plains)),
	)
	return plains, nil
}

// RegenerateCodes гасит все текущие коды и выдаёт новую пачку. Открытые коды
// возвращаются ровно один раз — восстановить их по хешам невозможно.
func (s *SecurityCodeService) RegenerateCodes(ctx context.Context, userID int) ([]string, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	plains, hashes, err := s.newBatch()
	if err != nil {
		return nil, err
	}
	if err := s.codes.ReplaceBatch(ctx, userID, hashes, s.clk.Now()); err != nil {
		return nil, err
	}

	logger.Log.Info("Коды восстановления перевыпущены",
		zap.String("username", user.Username),
		zap.Int("count", len(plains)),
	)
	return plains, nil
}

// CountAvailable — сколько кодов ещё не использовано.
func (s *SecurityCodeService) CountAvailable(ctx context.Context, userID int) (int64, error) {
	if _, err := s.users.GetUserByID(ctx, userID); err != nil {
		return 0, ErrUserNotFound
	}
	return s.codes.CountAvailable(ctx, userID)
}

// ValidateCode проверяет код и при совпадении выдаёт токен восстановления.
// Все отрицательные исходы (нет пользователя, нет кодов, код не подошёл)
// снаружи неразличимы — подробности только в логах, чтобы по ответу нельзя
// было перебирать учётные записи.
func (s *SecurityCodeService) ValidateCode(ctx context.Context, username, plainCode string) (string, bool) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		logger.Log.Warn("Валидация кода для несуществующего пользователя", zap.String("username", username))
		return "", false
	}

	available, err := s.codes.GetAvailable(ctx, user.ID)
	if err != nil {
		logger.Log.Error("Ошибка выборки кодов при валидации", zap.String("username", username), zap.Error(err))
		return "", false
	}
	if len(available) == 0 {
		logger.Log.Warn("У пользователя нет доступных кодов восстановления", zap.String("username", username))
		return "", false
	}

	for _, code := range available {
		if !s.hasher.Verify(plainCode, code.CodeHash) {
			continue
		}

		token := uuid.New().String()
		now := s.clk.Now()
		if err := s.codes.ConsumeAndIssueResetToken(ctx, code.ID, user.ID, token, now.Add(s.tokenTTL), now); err != nil {
			logger.Log.Error("Ошибка погашения кода и выдачи токена",
				zap.String("username", username),
				zap.Int64("code_id", code.ID),
				zap.Error(err),
			)
			return "", false
		}

		logger.Log.Info("Код восстановления подтверждён", zap.String("username", username))
		return token, true
	}

	logger.Log.Warn("Код восстановления не подошёл", zap.String("username", username))
	return "", false
}

func (s *SecurityCodeService) newBatch() (plains, hashes []string, err error) {
	plains = make([]string, 0, codeBatchSize)
	hashes = make([]string, 0, codeBatchSize)
	for i := 0; i < codeBatchSize; i++ {
		plain, err := randomCode()
		if err != nil {
			return nil, nil, err
		}
		hash, err := s.hasher.Hash(plain)
		if err != nil {
			return nil, nil, err
		}
		plains = append(plains, plain)
		hashes = append(hashes, hash)
	}
	return plains, hashes, nil
}

// randomCode собирает код вида XXXX-XXXX-XXXX из криптостойкого источника.
func randomCode() (string, error) {
	var b strings.Builder
	alphabetLen := big.NewInt(int64(len(codeAlphabet)))

	for seg := 0; seg < codeSegments; seg++ {
		if seg > 0 {
			b.WriteByte('-')
		}
		for i := 0; i < codeSegmentLen; i++ {
			n, err := rand.Int(rand.Reader, alphabetLen)
			if err != nil {
				return "", err
			}
			b.WriteByte(codeAlphabet[n.Int64()])
		}
	}
	return b.String(), nil
}
