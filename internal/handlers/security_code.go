package handlers

import (
	"alquigest/internal/logger"
	"alquigest/internal/middleware"
	"alquigest/internal/services"
	helpers "alquigest/internal/utils/helpers"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type SecurityCodeHandler struct {
	svc *services.SecurityCodeService
}

func NewSecurityCodeHandler(svc *services.SecurityCodeService) *SecurityCodeHandler {
	return &SecurityCodeHandler{svc: svc}
}

type securityCodesResponse struct {
	Codes   []string `json:"codes"`
	Message string   `json:"message"`
}

type validateCodeRequest struct {
	Username string `json:"username"`
	Code     string `json:"code"`
}

type validateCodeResponse struct {
	Token   string `json:"token,omitempty"`
	Valid   bool   `json:"valid"`
	Message string `json:"message"`
}

type availableCodesResponse struct {
	Count   int64  `json:"count"`
	Message string `json:"message"`
}

const regeneratedCodesMessage = "Коды восстановления перевыпущены. ВАЖНО: сохраните их в надёжном месте — показать их повторно будет невозможно."

// Regenerate godoc
// @Summary Перевыпуск кодов восстановления
// @Description Гасит все текущие коды и выдаёт новую пачку. Открытые коды показываются только один раз.
// @Tags security-codes
// @Security ApiKeyAuth
// @Produce json
// @Success 200 {object} securityCodesResponse
// @Failure 400 {object} map[string]string
// @Router /api/security-codes/regenerate [post]
func (h *SecurityCodeHandler) Regenerate(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	codes, err := h.svc.RegenerateCodes(r.Context(), userID)
	if err != nil {
		logger.Log.Error("Ошибка перевыпуска кодов", zap.Int("user_id", userID), zap.Error(err))
		helpers.Error(w, http.StatusBadRequest, "Не удалось перевыпустить коды")
		return
	}

	helpers.JSON(w, http.StatusOK, securityCodesResponse{
		Codes:   codes,
		Message: regeneratedCodesMessage,
	})
}

// Generate godoc
// @Summary Первичная выдача кодов восстановления
// @Description Выдаёт пачку кодов, если активных кодов ещё нет. Иначе возвращает пустой список.
// @Tags security-codes
// @Security ApiKeyAuth
// @Produce json
// @Success 200 {object} securityCodesResponse
// @Failure 400 {object} map[string]string
// @Router /api/security-codes/generate [post]
func (h *SecurityCodeHandler) Generate(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	codes, err := h.svc.GenerateCodes(r.Context(), userID)
	if err != nil {
		logger.Log.Error("Ошибка выдачи кодов", zap.Int("user_id", userID), zap.Error(err))
		helpers.Error(w, http.StatusBadRequest, "Не удалось выдать коды")
		return
	}

	msg := regeneratedCodesMessage
	if len(codes) == 0 {
		msg = "У вас уже есть активные коды. Для замены используйте перевыпуск."
	}
	helpers.JSON(w, http.StatusOK, securityCodesResponse{Codes: codes, Message: msg})
}

// Validate godoc
// @Summary Проверка кода восстановления
// @Description Публичная точка восстановления пароля: при верном коде возвращает одноразовый токен. Ответ об ошибке одинаков для всех причин отказа.
// @Tags security-codes
// @Accept json
// @Produce json
// @Param input body validateCodeRequest true "Имя пользователя и код"
// @Success 200 {object} validateCodeResponse
// @Failure 400 {object} validateCodeResponse
// @Router /api/security-codes/validate [post]
func (h *SecurityCodeHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req validateCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil ||
		strings.TrimSpace(req.Username) == "" || strings.TrimSpace(req.Code) == "" {
		helpers.Error(w, http.StatusBadRequest, "Невалидный JSON")
		return
	}

	token, ok := h.svc.ValidateCode(r.Context(), req.Username, strings.TrimSpace(req.Code))
	if !ok {
		// единый ответ: не раскрываем, существует ли пользователь и были ли коды
		helpers.JSON(w, http.StatusBadRequest, validateCodeResponse{
			Valid:   false,
			Message: "Код восстановления неверен или недоступен. Проверьте код и попробуйте ещё раз.",
		})
		return
	}

	helpers.JSON(w, http.StatusOK, validateCodeResponse{
		Token:   token,
		Valid:   true,
		Message: "Код подтверждён. Используйте токен для сброса пароля.",
	})
}

// Available godoc
// @Summary Сколько кодов осталось
// @Tags security-codes
// @Security ApiKeyAuth
// @Produce json
// @Success 200 {object} availableCodesResponse
// @Failure 400 {object} map[string]string
// @Router /api/security-codes/available [get]
func (h *SecurityCodeHandler) Available(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	h.respondAvailable(w, r, userID)
}

// AvailableForUser godoc
// @Summary Сколько кодов осталось у пользователя (админ)
// @Tags security-codes
// @Security ApiKeyAuth
// @Produce json
// @Param id path int true "ID пользователя"
// @Success 200 {object} availableCodesResponse
// @Failure 400 {object} map[string]string
// @Router /api/admin/security-codes/available/{id} [get]
func (h *SecurityCodeHandler) AvailableForUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		helpers.Error(w, http.StatusBadRequest, "Некорректный ID пользователя")
		return
	}
	h.respondAvailable(w, r, id)
}

func (h *SecurityCodeHandler) respondAvailable(w http.ResponseWriter, r *http.Request, userID int) {
	count, err := h.svc.CountAvailable(r.Context(), userID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			helpers.Error(w, http.StatusNotFound, "Пользователь не найден")
			return
		}
		helpers.Error(w, http.StatusInternalServerError, "Не удалось посчитать коды")
		return
	}

	var msg string
	switch {
	case count == 0:
		msg = "Доступных кодов нет. Перевыпустите коды восстановления."
	case count == 1:
		msg = "Остался 1 код восстановления. Стоит перевыпустить коды."
	default:
		msg = fmt.Sprintf("Доступно кодов восстановления: %d.", count)
	}

	helpers.JSON(w, http.StatusOK, availableCodesResponse{Count: count, Message: msg})
}
