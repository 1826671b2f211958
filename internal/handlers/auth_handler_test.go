package handlers

import (
	"alquigest/internal/clock"
	"alquigest/internal/logger"
	"alquigest/internal/models"
	"alquigest/internal/services"
	"alquigest/internal/utils"
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	logger.Log = zap.NewNop()
	os.Exit(m.Run())
}

// Мок-репозиторий пользователей (заглушка)
type stubUserRepo struct {
	user *models.User
}

func (s *stubUserRepo) GetUserByID(_ context.Context, id int) (*models.User, error) {
	if s.user != nil && s.user.ID == id {
		return s.user, nil
	}
	return nil, errors.New("not found")
}

func (s *stubUserRepo) GetByUsername(_ context.Context, username string) (*models.User, error) {
	if s.user != nil && s.user.Username == username {
		return s.user, nil
	}
	return nil, errors.New("not found")
}

func (s *stubUserRepo) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	return nil, errors.New("not found")
}

func (s *stubUserRepo) GetByResetToken(_ context.Context, token string) (*models.User, error) {
	return nil, errors.New("not found")
}

func (s *stubUserRepo) SetResetToken(_ context.Context, userID int, token string, expiry time.Time) error {
	return nil
}

func (s *stubUserRepo) UpdatePasswordAndClearResetToken(_ context.Context, userID int, passwordHash string) error {
	return nil
}

func (s *stubUserRepo) SaveRefreshToken(_ context.Context, userID int, token string) error {
	return nil
}
func (s *stubUserRepo) IsRefreshTokenValid(_ context.Context, userID int, token string) (bool, error) {
	return true, nil
}
func (s *stubUserRepo) DeleteRefreshToken(_ context.Context, userID int, token string) error {
	return nil
}

type stubContractRepo struct {
	calls      int
	lastCutoff time.Time
	err        error
}

func (s *stubContractRepo) ExpireContracts(_ context.Context, cutoff time.Time) (int64, error) {
	s.calls++
	s.lastCutoff = cutoff
	return 1, s.err
}

func newAuthFixture(t *testing.T) (*AuthHandler, *stubContractRepo, *clock.Mock) {
	t.Helper()
	hash, err := utils.HashPassword("secret")
	if err != nil {
		t.Fatalf("ошибка хеширования: %v", err)
	}
	repo := &stubUserRepo{user: &models.User{
		ID:           1,
		Username:     "testuser",
		PasswordHash: hash,
		Role:         "user",
	}}
	contracts := &stubContractRepo{}
	clk := clock.NewMock(time.Date(2025, 6, 15, 9, 0, 0, 0, time.Local))
	h := NewAuthHandler(services.NewAuthService(repo), services.NewContractService(contracts, clk))
	return h, contracts, clk
}

// Вход попутно архивирует просроченные договоры.
func TestLogin_ExpiresOverdueContracts(t *testing.T) {
	h, contracts, clk := newAuthFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/api/login",
		bytes.NewBufferString(`{"username":"testuser","password":"secret"}`))
	rr := httptest.NewRecorder()
	h.Login(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("ожидался 200, получен %d: %s", rr.Code, rr.Body.String())
	}
	if contracts.calls != 1 {
		t.Fatalf("чистка договоров должна запускаться при входе, вызовов: %d", contracts.calls)
	}
	want := clk.Now().AddDate(0, 0, -1)
	if !contracts.lastCutoff.Equal(want) {
		t.Fatalf("неверный срез чистки: %v, ожидался %v", contracts.lastCutoff, want)
	}
}

func TestLogin_SweepFailureDoesNotBlockLogin(t *testing.T) {
	h, contracts, _ := newAuthFixture(t)
	contracts.err = errors.New("db down")

	req := httptest.NewRequest(http.MethodPost, "/api/login",
		bytes.NewBufferString(`{"username":"testuser","password":"secret"}`))
	rr := httptest.NewRecorder()
	h.Login(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("сбой чистки не должен ломать вход, получен %d", rr.Code)
	}
}

func TestLogin_BadCredentialsSkipSweep(t *testing.T) {
	h, contracts, _ := newAuthFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/api/login",
		bytes.NewBufferString(`{"username":"testuser","password":"wrong"}`))
	rr := httptest.NewRecorder()
	h.Login(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("ожидался 401, получен %d", rr.Code)
	}
	if contracts.calls != 0 {
		t.Fatal("неудачный вход не должен запускать чистку договоров")
	}
}
