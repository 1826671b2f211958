package handlers

import (
	"alquigest/internal/logger"
	"alquigest/internal/services"
	helpers "alquigest/internal/utils/helpers"
	"net/http"
	"strconv"

	"go.uber.org/zap"
)

type ReportHandler struct {
	svc *services.ReportService
}

func NewReportHandler(svc *services.ReportService) *ReportHandler {
	return &ReportHandler{svc: svc}
}

// Fees godoc
// @Summary Отчёт по комиссии за текущий месяц
// @Tags reports
// @Security ApiKeyAuth
// @Produce json
// @Success 200 {object} models.FeeReport
// @Failure 500 {object} map[string]string
// @Router /api/reports/fees [get]
func (h *ReportHandler) Fees(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.FeeReport(r.Context())
	if err != nil {
		logger.Log.Error("Ошибка формирования отчёта по комиссии", zap.Error(err))
		helpers.Error(w, http.StatusInternalServerError, "Не удалось сформировать отчёт")
		return
	}
	helpers.JSON(w, http.StatusOK, report)
}

// Rents godoc
// @Summary Отчёт по арендам за текущий месяц
// @Tags reports
// @Security ApiKeyAuth
// @Produce json
// @Success 200 {object} models.RentReport
// @Failure 500 {object} map[string]string
// @Router /api/reports/rents [get]
func (h *ReportHandler) Rents(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.RentReport(r.Context())
	if err != nil {
		logger.Log.Error("Ошибка формирования отчёта по арендам", zap.Error(err))
		helpers.Error(w, http.StatusInternalServerError, "Не удалось сформировать отчёт")
		return
	}
	helpers.JSON(w, http.StatusOK, report)
}

// FeesPDF godoc
// @Summary Отчёт по комиссии в PDF
// @Tags reports
// @Security ApiKeyAuth
// @Produce application/pdf
// @Success 200 {file} binary
// @Failure 500 {object} map[string]string
// @Router /api/reports/fees/pdf [get]
func (h *ReportHandler) FeesPDF(w http.ResponseWriter, r *http.Request) {
	data, err := h.svc.FeeReportPDF(r.Context())
	if err != nil {
		helpers.Error(w, http.StatusInternalServerError, "Не удалось сформировать PDF")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="fees.pdf"`)
	_, _ = w.Write(data)
}

// Increases godoc
// @Summary Отчёт по повышениям аренды за последние месяцы
// @Description Повышения за последние months месяцев (по умолчанию 6), сгруппированные по договорам.
// @Tags reports
// @Security ApiKeyAuth
// @Produce json
// @Param months query int false "Глубина отчёта в месяцах" default(6)
// @Success 200 {object} models.IncreaseReport
// @Failure 500 {object} map[string]string
// @Router /api/reports/increases [get]
func (h *ReportHandler) Increases(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.IncreaseReport(r.Context(), monthsParam(r))
	if err != nil {
		logger.Log.Error("Ошибка формирования отчёта по повышениям", zap.Error(err))
		helpers.Error(w, http.StatusInternalServerError, "Не удалось сформировать отчёт")
		return
	}
	helpers.JSON(w, http.StatusOK, report)
}

// IncreasesPDF godoc
// @Summary Отчёт по повышениям аренды в PDF
// @Tags reports
// @Security ApiKeyAuth
// @Produce application/pdf
// @Param months query int false "Глубина отчёта в месяцах" default(6)
// @Success 200 {file} binary
// @Failure 500 {object} map[string]string
// @Router /api/reports/increases/pdf [get]
func (h *ReportHandler) IncreasesPDF(w http.ResponseWriter, r *http.Request) {
	data, err := h.svc.IncreaseReportPDF(r.Context(), monthsParam(r))
	if err != nil {
		helpers.Error(w, http.StatusInternalServerError, "Не удалось сформировать PDF")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="increases.pdf"`)
	_, _ = w.Write(data)
}

// monthsParam — параметр ?months=N; мусор и отсутствие значения отдаются
// сервису нулём, дефолт выбирает он.
func monthsParam(r *http.Request) int {
	months, err := strconv.Atoi(r.URL.Query().Get("months"))
	if err != nil {
		return 0
	}
	return months
}

// RentsPDF godoc
// @Summary Отчёт по арендам в PDF
// @Tags reports
// @Security ApiKeyAuth
// @Produce application/pdf
// @Success 200 {file} binary
// @Failure 500 {object} map[string]string
// @Router /api/reports/rents/pdf [get]
func (h *ReportHandler) RentsPDF(w http.ResponseWriter, r *http.Request) {
	data, err := h.svc.RentReportPDF(r.Context())
	if err != nil {
		helpers.Error(w, http.StatusInternalServerError, "Не удалось сформировать PDF")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="rents.pdf"`)
	_, _ = w.Write(data)
}
