package handlers

import (
	"alquigest/internal/logger"
	"alquigest/internal/middleware"
	"alquigest/internal/services"
	helpers "alquigest/internal/utils/helpers"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

type PasswordHandler struct {
	svc *services.PasswordResetService
}

func NewPasswordHandler(svc *services.PasswordResetService) *PasswordHandler {
	return &PasswordHandler{svc: svc}
}

type forgotReq struct {
	Email string `json:"email"`
}

// Forgot godoc
// @Summary Запрос восстановления пароля
// @Description Отправляет письмо со ссылкой для сброса пароля. Ответ всегда одинаковый, даже если e-mail не найден.
// @Tags password
// @Accept json
// @Produce json
// @Param input body forgotReq true "Email пользователя"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Router /api/password/forgot [post]
func (h *PasswordHandler) Forgot(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	var req forgotReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Email) == "" {
		log.Warn("Невалидный payload в Forgot")
		helpers.Error(w, http.StatusBadRequest, "invalid payload")
		return
	}

	// Не раскрываем, существует ли email — всегда возвращаем 200
	if err := h.svc.RequestReset(r.Context(), req.Email); err != nil {
		log.Error("Сбой при запросе восстановления пароля", zap.Error(err))
	}

	helpers.JSON(w, http.StatusOK, map[string]string{"message": "Если такой e-mail зарегистрирован, письмо со ссылкой отправлено."})
}

type resetReq struct {
	Token           string `json:"token"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

// Reset godoc
// @Summary Сброс пароля по токену
// @Description Устанавливает новый пароль по токену из письма или из проверки кода восстановления.
// @Tags password
// @Accept json
// @Produce json
// @Param input body resetReq true "Токен и новый пароль с подтверждением"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Router /api/password/reset [post]
func (h *PasswordHandler) Reset(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	var req resetReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Token) == "" {
		log.Warn("Невалидный payload в Reset")
		helpers.Error(w, http.StatusBadRequest, "invalid payload")
		return
	}

	if err := h.svc.ResetPassword(r.Context(), req.Token, req.NewPassword, req.ConfirmPassword); err != nil {
		log.Warn("Не удалось сбросить пароль по токену", zap.Error(err))
		switch {
		case errors.Is(err, services.ErrPasswordMismatch):
			helpers.Error(w, http.StatusBadRequest, "Пароли не совпадают")
		case errors.Is(err, services.ErrTokenExpired):
			helpers.Error(w, http.StatusBadRequest, "Токен восстановления истёк")
		case errors.Is(err, services.ErrTokenInvalid):
			helpers.Error(w, http.StatusBadRequest, "Неверный токен восстановления")
		default:
			helpers.Error(w, http.StatusInternalServerError, "Не удалось сбросить пароль")
		}
		return
	}

	log.Info("Пароль успешно сброшен")
	helpers.JSON(w, http.StatusOK, map[string]string{"message": "Пароль изменён."})
}

// CheckToken godoc
// @Summary Проверка токена восстановления
// @Description Read-only: фронт проверяет токен перед показом формы сброса, состояние не меняется.
// @Tags password
// @Produce json
// @Param token query string true "Токен восстановления"
// @Success 200 {object} map[string]bool
// @Router /api/password/check-token [get]
func (h *PasswordHandler) CheckToken(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSpace(r.URL.Query().Get("token"))
	valid := token != "" && h.svc.ValidateToken(r.Context(), token)
	helpers.JSON(w, http.StatusOK, map[string]bool{"valid": valid})
}

type changeReq struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// Change godoc
// @Summary Смена пароля (авторизованный пользователь)
// @Tags password
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param input body changeReq true "Старый и новый пароль"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /api/password/change [post]
func (h *PasswordHandler) Change(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok || userID == 0 {
		log.Warn("Нет доступа для Change: отсутствует user_id")
		helpers.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req changeReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.OldPassword) == "" || strings.TrimSpace(req.NewPassword) == "" {
		log.Warn("Невалидный payload в Change", zap.Int("user_id", userID))
		helpers.Error(w, http.StatusBadRequest, "invalid payload")
		return
	}

	if err := h.svc.ChangePassword(r.Context(), userID, req.OldPassword, req.NewPassword); err != nil {
		log.Warn("Не удалось сменить пароль", zap.Int("user_id", userID), zap.Error(err))
		helpers.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	log.Info("Пароль изменён", zap.Int("user_id", userID))
	helpers.JSON(w, http.StatusOK, map[string]string{"message": "Пароль изменён."})
}
