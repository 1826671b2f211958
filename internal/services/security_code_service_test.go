package services

import (
	"alquigest/internal/clock"
	"alquigest/internal/models"
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

// Мок-репозиторий пользователей (заглушка)
type mockUserRepo struct {
	users map[string]*models.User // ключ — username
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*models.User)}
}

func (m *mockUserRepo) GetUserByID(_ context.Context, id int) (*models.User, error) {
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, errors.New("not found")
}

func (m *mockUserRepo) GetByUsername(_ context.Context, username string) (*models.User, error) {
	u, ok := m.users[username]
	if !ok {
		return nil, errors.New("not found")
	}
	return u, nil
}

func (m *mockUserRepo) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, errors.New("not found")
}

func (m *mockUserRepo) GetByResetToken(_ context.Context, token string) (*models.User, error) {
	for _, u := range m.users {
		if u.ResetToken != nil && *u.ResetToken == token {
			return u, nil
		}
	}
	return nil, errors.New("not found")
}

func (m *mockUserRepo) SetResetToken(_ context.Context, userID int, token string, expiry time.Time) error {
	for _, u := range m.users {
		if u.ID == userID {
			t, e := token, expiry
			u.ResetToken = &t
			u.ResetTokenExpiry = &e
			return nil
		}
	}
	return errors.New("not found")
}

func (m *mockUserRepo) UpdatePasswordAndClearResetToken(_ context.Context, userID int, passwordHash string) error {
	for _, u := range m.users {
		if u.ID == userID {
			u.PasswordHash = passwordHash
			u.ResetToken = nil
			u.ResetTokenExpiry = nil
			return nil
		}
	}
	return errors.New("not found")
}

func (m *mockUserRepo) SaveRefreshToken(_ context.Context, userID int, token string) error {
	return nil
}
func (m *mockUserRepo) IsRefreshTokenValid(_ context.Context, userID int, token string) (bool, error) {
	return true, nil
}
func (m *mockUserRepo) DeleteRefreshToken(_ context.Context, userID int, token string) error {
	return nil
}

// Мок-репозиторий кодов восстановления. Погашение кода и выдача токена
// идут одной операцией, как и в боевом репозитории.
type mockCodeRepo struct {
	users  *mockUserRepo
	codes  []*models.SecurityCode
	nextID int64
}

func newMockCodeRepo(users *mockUserRepo) *mockCodeRepo {
	return &mockCodeRepo{users: users, nextID: 1}
}

func (m *mockCodeRepo) HasAvailable(_ context.Context, userID int) (bool, error) {
	for _, c := range m.codes {
		if c.UserID == userID && !c.Used {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockCodeRepo) CountAvailable(_ context.Context, userID int) (int64, error) {
	var n int64
	for _, c := range m.codes {
		if c.UserID == userID && !c.Used {
			n++
		}
	}
	return n, nil
}

func (m *mockCodeRepo) GetAvailable(_ context.Context, userID int) ([]*models.SecurityCode, error) {
	var out []*models.SecurityCode
	for _, c := range m.codes {
		if c.UserID == userID && !c.Used {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockCodeRepo) InsertBatch(_ context.Context, userID int, hashes []string, createdAt time.Time) error {
	for _, h := range hashes {
		m.codes = append(m.codes, &models.SecurityCode{
			ID:        m.nextID,
			UserID:    userID,
			CodeHash:  h,
			CreatedAt: createdAt,
		})
		m.nextID++
	}
	return nil
}

func (m *mockCodeRepo) ReplaceBatch(ctx context.Context, userID int, hashes []string, now time.Time) error {
	for _, c := range m.codes {
		if c.UserID == userID && !c.Used {
			c.Used = true
			t := now
			c.UsedAt = &t
		}
	}
	return m.InsertBatch(ctx, userID, hashes, now)
}

func (m *mockCodeRepo) ConsumeAndIssueResetToken(ctx context.Context, codeID int64, userID int, token string, expiry, usedAt time.Time) error {
	for _, c := range m.codes {
		if c.ID == codeID && !c.Used {
			c.Used = true
			t := usedAt
			c.UsedAt = &t
			return m.users.SetResetToken(ctx, userID, token, expiry)
		}
	}
	return errors.New("no rows")
}

// plainHasher — быстрый детерминированный хеш вместо bcrypt,
// чтобы пачка из восьми кодов не тормозила тесты.
type plainHasher struct{}

func (plainHasher) Hash(plain string) (string, error) { return "hash:" + plain, nil }
func (plainHasher) Verify(plain, hash string) bool    { return hash == "hash:"+plain }

func newCodeFixture(t *testing.T) (*SecurityCodeService, *PasswordResetService, *mockUserRepo, *mockCodeRepo, *clock.Mock) {
	t.Helper()
	users := newMockUserRepo()
	users.users["testuser"] = &models.User{
		ID:           1,
		Username:     "testuser",
		Email:        "test@example.com",
		PasswordHash: "hash:old-password",
		Role:         "user",
	}
	codes := newMockCodeRepo(users)
	clk := clock.NewMock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	codeSvc := NewSecurityCodeService(codes, users, plainHasher{}, clk, time.Hour)
	resetSvc := NewPasswordResetService(users, plainHasher{}, clk, "http://localhost:3000", time.Hour)
	return codeSvc, resetSvc, users, codes, clk
}

func TestGenerateCodes(t *testing.T) {
	svc, _, _, repo, _ := newCodeFixture(t)

	plains, err := svc.GenerateCodes(context.Background(), 1)
	if err != nil {
		t.Fatalf("ошибка генерации кодов: %v", err)
	}
	if len(plains) != 8 {
		t.Fatalf("ожидалось 8 кодов, получено %d", len(plains))
	}

	for _, code := range plains {
		segs := strings.Split(code, "-")
		if len(segs) != 3 {
			t.Fatalf("неверный формат кода: %q", code)
		}
		for _, seg := range segs {
			if len(seg) != 4 {
				t.Fatalf("неверная длина сегмента в коде %q", code)
			}
			for _, r := range seg {
				if !strings.ContainsRune(codeAlphabet, r) {
					t.Fatalf("недопустимый символ %q в коде %q", r, code)
				}
			}
		}
	}

	n, _ := repo.CountAvailable(context.Background(), 1)
	if n != 8 {
		t.Fatalf("в хранилище должно быть 8 кодов, есть %d", n)
	}
	for _, c := range repo.codes {
		if strings.HasPrefix(c.CodeHash, "hash:") == false {
			t.Fatal("код сохранён без хеширования")
		}
	}
}

func TestGenerateCodes_SecondCallDoesNothing(t *testing.T) {
	svc, _, _, repo, _ := newCodeFixture(t)

	if _, err := svc.GenerateCodes(context.Background(), 1); err != nil {
		t.Fatalf("ошибка генерации кодов: %v", err)
	}

	again, err := svc.GenerateCodes(context.Background(), 1)
	if err != nil {
		t.Fatalf("повторный вызов не должен возвращать ошибку: %v", err)
	}
	if len(again) != 0 {
		t.Fatalf("повторный вызов не должен выдавать коды, получено %d", len(again))
	}
	if len(repo.codes) != 8 {
		t.Fatalf("повторный вызов не должен писать в хранилище, всего кодов %d", len(repo.codes))
	}
}

func TestRegenerateCodes_InvalidatesOldBatch(t *testing.T) {
	svc, _, _, _, _ := newCodeFixture(t)
	ctx := context.Background()

	first, err := svc.GenerateCodes(ctx, 1)
	if err != nil {
		t.Fatalf("ошибка генерации кодов: %v", err)
	}

	second, err := svc.RegenerateCodes(ctx, 1)
	if err != nil {
		t.Fatalf("ошибка перевыпуска кодов: %v", err)
	}
	if len(second) != 8 {
		t.Fatalf("ожидалось 8 новых кодов, получено %d", len(second))
	}

	n, _ := svc.CountAvailable(ctx, 1)
	if n != 8 {
		t.Fatalf("после перевыпуска должно остаться 8 кодов, есть %d", n)
	}

	if _, ok := svc.ValidateCode(ctx, "testuser", first[0]); ok {
		t.Fatal("код из старой пачки не должен проходить после перевыпуска")
	}
	if _, ok := svc.ValidateCode(ctx, "testuser", second[0]); !ok {
		t.Fatal("код из новой пачки должен проходить")
	}
}

func TestValidateCode_SingleUse(t *testing.T) {
	svc, _, users, _, clk := newCodeFixture(t)
	ctx := context.Background()

	plains, _ := svc.GenerateCodes(ctx, 1)

	token, ok := svc.ValidateCode(ctx, "testuser", plains[2])
	if !ok || token == "" {
		t.Fatal("верный код должен выдавать токен восстановления")
	}

	u := users.users["testuser"]
	if u.ResetToken == nil || *u.ResetToken != token {
		t.Fatal("токен восстановления не сохранён у пользователя")
	}
	if u.ResetTokenExpiry == nil || !u.ResetTokenExpiry.Equal(clk.Now().Add(time.Hour)) {
		t.Fatal("срок действия токена выставлен неверно")
	}

	n, _ := svc.CountAvailable(ctx, 1)
	if n != 7 {
		t.Fatalf("после валидации должно остаться 7 кодов, есть %d", n)
	}

	if _, ok := svc.ValidateCode(ctx, "testuser", plains[2]); ok {
		t.Fatal("использованный код не должен проходить повторно")
	}
}

func TestValidateCode_Negative(t *testing.T) {
	svc, _, _, _, _ := newCodeFixture(t)
	ctx := context.Background()

	// кодов ещё нет
	if _, ok := svc.ValidateCode(ctx, "testuser", "AAAA-BBBB-CCCC"); ok {
		t.Fatal("валидация без выданных кодов должна отклоняться")
	}

	if _, err := svc.GenerateCodes(ctx, 1); err != nil {
		t.Fatalf("ошибка генерации кодов: %v", err)
	}

	// неверный код
	if _, ok := svc.ValidateCode(ctx, "testuser", "AAAA-BBBB-CCCC"); ok {
		t.Fatal("неверный код не должен проходить")
	}

	// несуществующий пользователь — снаружи ответ тот же
	if _, ok := svc.ValidateCode(ctx, "ghost", "AAAA-BBBB-CCCC"); ok {
		t.Fatal("валидация для несуществующего пользователя должна отклоняться")
	}

	n, _ := svc.CountAvailable(ctx, 1)
	if n != 8 {
		t.Fatalf("неудачные попытки не должны гасить коды, осталось %d", n)
	}
}

func TestCountAvailable_UserNotFound(t *testing.T) {
	svc, _, _, _, _ := newCodeFixture(t)

	if _, err := svc.CountAvailable(context.Background(), 42); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("ожидалась ErrUserNotFound, получено %v", err)
	}
	if _, err := svc.GenerateCodes(context.Background(), 42); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("ожидалась ErrUserNotFound, получено %v", err)
	}
}

// Полный сценарий восстановления: выдача кодов, валидация, сброс пароля.
func TestRecoveryFlow(t *testing.T) {
	codeSvc, resetSvc, users, _, _ := newCodeFixture(t)
	ctx := context.Background()

	plains, err := codeSvc.GenerateCodes(ctx, 1)
	if err != nil {
		t.Fatalf("ошибка генерации кодов: %v", err)
	}

	token, ok := codeSvc.ValidateCode(ctx, "testuser", plains[0])
	if !ok {
		t.Fatal("верный код должен проходить")
	}
	if !resetSvc.ValidateToken(ctx, token) {
		t.Fatal("выданный токен должен быть действителен")
	}

	if err := resetSvc.ResetPassword(ctx, token, "new-password", "new-password"); err != nil {
		t.Fatalf("ошибка сброса пароля: %v", err)
	}

	u := users.users["testuser"]
	if u.PasswordHash != "hash:new-password" {
		t.Fatal("пароль не обновлён")
	}
	if u.ResetToken != nil || u.ResetTokenExpiry != nil {
		t.Fatal("токен восстановления должен быть очищен после сброса")
	}
	if resetSvc.ValidateToken(ctx, token) {
		t.Fatal("токен не должен действовать после сброса пароля")
	}
	if _, ok := codeSvc.ValidateCode(ctx, "testuser", plains[0]); ok {
		t.Fatal("использованный код не должен проходить после сброса")
	}

	n, _ := codeSvc.CountAvailable(ctx, 1)
	if n != 7 {
		t.Fatalf("после сценария должно остаться 7 кодов, есть %d", n)
	}
}
