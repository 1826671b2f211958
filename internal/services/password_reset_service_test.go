package services

import (
	"alquigest/internal/clock"
	"alquigest/internal/models"
	"context"
	"errors"
	"testing"
	"time"
)

func newResetFixture(t *testing.T) (*PasswordResetService, *mockUserRepo, *clock.Mock) {
	t.Helper()
	users := newMockUserRepo()
	users.users["testuser"] = &models.User{
		ID:           1,
		Username:     "testuser",
		Email:        "test@example.com",
		PasswordHash: "hash:old-password",
	}
	clk := clock.NewMock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	svc := NewPasswordResetService(users, plainHasher{}, clk, "http://localhost:3000", time.Hour)
	return svc, users, clk
}

func issueToken(users *mockUserRepo, clk *clock.Mock, token string, ttl time.Duration) {
	_ = users.SetResetToken(context.Background(), 1, token, clk.Now().Add(ttl))
}

func TestResetPassword_Mismatch(t *testing.T) {
	svc, users, clk := newResetFixture(t)
	issueToken(users, clk, "tok-1", time.Hour)

	err := svc.ResetPassword(context.Background(), "tok-1", "one", "two")
	if !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("ожидалась ErrPasswordMismatch, получено %v", err)
	}
	if users.users["testuser"].PasswordHash != "hash:old-password" {
		t.Fatal("пароль не должен меняться при несовпадении")
	}
	if users.users["testuser"].ResetToken == nil {
		t.Fatal("токен не должен гаситься при несовпадении паролей")
	}
}

func TestResetPassword_InvalidToken(t *testing.T) {
	svc, users, _ := newResetFixture(t)

	err := svc.ResetPassword(context.Background(), "no-such-token", "pass", "pass")
	if !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("ожидалась ErrTokenInvalid, получено %v", err)
	}
	if users.users["testuser"].PasswordHash != "hash:old-password" {
		t.Fatal("пароль не должен меняться по неизвестному токену")
	}
}

func TestResetPassword_ExpiredToken(t *testing.T) {
	svc, users, clk := newResetFixture(t)
	issueToken(users, clk, "tok-1", time.Hour)

	clk.Advance(time.Hour + time.Minute)

	err := svc.ResetPassword(context.Background(), "tok-1", "pass", "pass")
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("ожидалась ErrTokenExpired, получено %v", err)
	}
	if users.users["testuser"].PasswordHash != "hash:old-password" {
		t.Fatal("пароль не должен меняться по истёкшему токену")
	}
}

func TestResetPassword_Success(t *testing.T) {
	svc, users, clk := newResetFixture(t)
	issueToken(users, clk, "tok-1", time.Hour)

	// токен ещё жив, хоть и на исходе
	clk.Advance(59 * time.Minute)

	if err := svc.ResetPassword(context.Background(), "tok-1", "new-password", "new-password"); err != nil {
		t.Fatalf("ошибка сброса пароля: %v", err)
	}

	u := users.users["testuser"]
	if u.PasswordHash != "hash:new-password" {
		t.Fatal("пароль не обновлён")
	}
	if u.ResetToken != nil || u.ResetTokenExpiry != nil {
		t.Fatal("токен и срок должны быть очищены после сброса")
	}
}

func TestRequestReset(t *testing.T) {
	svc, users, clk := newResetFixture(t)

	if err := svc.RequestReset(context.Background(), "Test@Example.com "); err != nil {
		t.Fatalf("запрос восстановления не должен возвращать ошибку: %v", err)
	}

	u := users.users["testuser"]
	if u.ResetToken == nil {
		t.Fatal("токен восстановления не выдан")
	}
	if u.ResetTokenExpiry == nil || !u.ResetTokenExpiry.Equal(clk.Now().Add(time.Hour)) {
		t.Fatal("срок действия токена выставлен неверно")
	}

	// письмо должно встать в очередь
	select {
	case job := <-EmailQueue:
		if len(job.To) != 1 || job.To[0] != "test@example.com" {
			t.Fatalf("письмо адресовано не туда: %v", job.To)
		}
		if !job.IsHTML {
			t.Fatal("письмо восстановления должно быть HTML")
		}
	default:
		t.Fatal("письмо восстановления не поставлено в очередь")
	}
}

func TestRequestReset_UnknownEmail(t *testing.T) {
	svc, users, _ := newResetFixture(t)

	if err := svc.RequestReset(context.Background(), "ghost@example.com"); err != nil {
		t.Fatalf("по неизвестному email ошибка не возвращается: %v", err)
	}
	if users.users["testuser"].ResetToken != nil {
		t.Fatal("токен не должен выдаваться по чужому email")
	}

	select {
	case <-EmailQueue:
		t.Fatal("письмо не должно отправляться по неизвестному email")
	default:
	}
}

func TestValidateToken_ReadOnly(t *testing.T) {
	svc, users, clk := newResetFixture(t)
	issueToken(users, clk, "tok-1", time.Hour)
	ctx := context.Background()

	if !svc.ValidateToken(ctx, "tok-1") {
		t.Fatal("живой токен должен проходить проверку")
	}
	// проверка ничего не мутирует
	if !svc.ValidateToken(ctx, "tok-1") {
		t.Fatal("повторная проверка того же токена должна проходить")
	}
	if svc.ValidateToken(ctx, "other") {
		t.Fatal("чужой токен не должен проходить")
	}

	clk.Advance(2 * time.Hour)
	if svc.ValidateToken(ctx, "tok-1") {
		t.Fatal("истёкший токен не должен проходить")
	}
}

func TestChangePassword(t *testing.T) {
	svc, users, _ := newResetFixture(t)
	ctx := context.Background()

	if err := svc.ChangePassword(ctx, 1, "wrong", "new-password"); err == nil {
		t.Fatal("ожидалась ошибка при неверном старом пароле")
	}
	if users.users["testuser"].PasswordHash != "hash:old-password" {
		t.Fatal("пароль не должен меняться при неверном старом пароле")
	}

	if err := svc.ChangePassword(ctx, 1, "old-password", "new-password"); err != nil {
		t.Fatalf("ошибка смены пароля: %v", err)
	}
	if users.users["testuser"].PasswordHash != "hash:new-password" {
		t.Fatal("пароль не обновлён")
	}
}
