package handlers

import (
	"alquigest/internal/logger"
	"alquigest/internal/models"
	"alquigest/internal/services"
	helpers "alquigest/internal/utils/helpers"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type RentIncreaseHandler struct {
	svc *services.RentIncreaseService
}

func NewRentIncreaseHandler(svc *services.RentIncreaseService) *RentIncreaseHandler {
	return &RentIncreaseHandler{svc: svc}
}

// Create godoc
// @Summary Зафиксировать повышение аренды
// @Description Считает новую сумму от текущей по проценту и применяет её к договору.
// @Tags rent-increases
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param input body models.CreateRentIncreaseRequest true "Договор и процент повышения"
// @Success 201 {object} models.RentIncrease
// @Failure 400 {object} map[string]string
// @Router /api/rent-increases [post]
func (h *RentIncreaseHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateRentIncreaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ContractID == 0 {
		helpers.Error(w, http.StatusBadRequest, "Невалидный JSON")
		return
	}

	inc, err := h.svc.Create(r.Context(), &req)
	if err != nil {
		logger.Log.Warn("Не удалось зафиксировать повышение", zap.Int64("contract_id", req.ContractID), zap.Error(err))
		if errors.Is(err, services.ErrContractNotFound) {
			helpers.Error(w, http.StatusNotFound, "Договор не найден")
			return
		}
		helpers.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	helpers.JSON(w, http.StatusCreated, inc)
}

// ListByContract godoc
// @Summary История повышений по договору
// @Tags rent-increases
// @Security ApiKeyAuth
// @Produce json
// @Param id path int true "ID договора"
// @Success 200 {array} models.RentIncrease
// @Failure 400 {object} map[string]string
// @Router /api/contracts/{id}/rent-increases [get]
func (h *RentIncreaseHandler) ListByContract(w http.ResponseWriter, r *http.Request) {
	contractID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		helpers.Error(w, http.StatusBadRequest, "Некорректный ID договора")
		return
	}

	list, err := h.svc.ListByContract(r.Context(), contractID)
	if err != nil {
		helpers.Error(w, http.StatusInternalServerError, "Не удалось получить повышения")
		return
	}

	helpers.JSON(w, http.StatusOK, list)
}
