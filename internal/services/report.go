package services

import (
	"alquigest/internal/clock"
	"alquigest/internal/logger"
	"alquigest/internal/models"
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"go.uber.org/zap"
)

type ReportRepo interface {
	GetPaidRentsForMonth(ctx context.Context, month, year int) ([]models.FeeReportRow, error)
	GetRentsForMonth(ctx context.Context, month, year int) ([]models.RentReportRow, error)
	GetIncreasesBetween(ctx context.Context, from, to time.Time) ([]models.IncreaseReportRow, error)
}

const defaultIncreaseReportMonths = 6

type ReportService struct {
	repo       ReportRepo
	clk        clock.Clock
	feePercent float64
}

func NewReportService(repo ReportRepo, clk clock.Clock, feePercent float64) *ReportService {
	if feePercent <= 0 {
		feePercent = 10
	}
	return &ReportService{repo: repo, clk: clk, feePercent: feePercent}
}

func (s *ReportService) period() (month, year int, label string) {
	now := s.clk.Today()
	month, year = int(now.Month()), now.Year()
	return month, year, fmt.Sprintf("%02d/%d", month, year)
}

// FeeReport — комиссия агентства за текущий месяц: процент от каждой
// оплаченной аренды по действующим договорам.
func (s *ReportService) FeeReport(ctx context.Context) (*models.FeeReport, error) {
	month, year, label := s.period()
	logger.Log.Info("Формирование отчёта по комиссии", zap.String("period", label))

	rows, err := s.repo.GetPaidRentsForMonth(ctx, month, year)
	if err != nil {
		return nil, err
	}

	report := &models.FeeReport{Period: label, Rows: make([]models.FeeReportRow, 0, len(rows))}
	for _, row := range rows {
		row.Fee = round2(row.RentAmount * s.feePercent / 100)
		report.Rows = append(report.Rows, row)
		report.Total = round2(report.Total + row.Fee)
	}

	logger.Log.Info("Отчёт по комиссии сформирован",
		zap.Int("rows", len(report.Rows)),
		zap.Float64("total", report.Total),
	)
	return report, nil
}

// RentReport — все аренды текущего месяца с итогами оплачено/к получению.
func (s *ReportService) RentReport(ctx context.Context) (*models.RentReport, error) {
	month, year, label := s.period()
	logger.Log.Info("Формирование отчёта по арендам", zap.String("period", label))

	rows, err := s.repo.GetRentsForMonth(ctx, month, year)
	if err != nil {
		return nil, err
	}

	report := &models.RentReport{Period: label, Rows: rows}
	for _, row := range rows {
		if row.Paid {
			report.TotalPaid = round2(report.TotalPaid + row.Amount)
		} else {
			report.TotalUnpaid = round2(report.TotalUnpaid + row.Amount)
		}
	}
	return report, nil
}

// IncreaseReport — повышения аренды за последние months месяцев,
// сгруппированные по договорам. При months <= 0 берётся полгода.
func (s *ReportService) IncreaseReport(ctx context.Context, months int) (*models.IncreaseReport, error) {
	if months <= 0 {
		months = defaultIncreaseReportMonths
	}

	to := s.clk.Today()
	from := to.AddDate(0, -months, 0)
	logger.Log.Info("Формирование отчёта по повышениям",
		zap.Int("months", months),
		zap.Time("from", from),
	)

	rows, err := s.repo.GetIncreasesBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}

	report := &models.IncreaseReport{
		PeriodFrom: fmt.Sprintf("%02d/%d", int(from.Month()), from.Year()),
		PeriodTo:   fmt.Sprintf("%02d/%d", int(to.Month()), to.Year()),
		Months:     months,
		Groups:     []models.IncreaseReportGroup{},
	}

	// строки приходят отсортированными по договору, группы собираются по месту
	byContract := make(map[int64]int)
	for _, row := range rows {
		idx, ok := byContract[row.ContractID]
		if !ok {
			report.Groups = append(report.Groups, models.IncreaseReportGroup{
				ContractID:      row.ContractID,
				PropertyAddress: row.PropertyAddress,
				OwnerName:       row.OwnerName,
				TenantName:      row.TenantName,
			})
			idx = len(report.Groups) - 1
			byContract[row.ContractID] = idx
		}
		report.Groups[idx].Increases = append(report.Groups[idx].Increases, models.IncreaseReportItem{
			IncreaseID:     row.IncreaseID,
			IncreaseDate:   row.IncreaseDate,
			PreviousAmount: row.PreviousAmount,
			NewAmount:      row.NewAmount,
			Percentage:     row.Percentage,
		})
	}

	logger.Log.Info("Отчёт по повышениям сформирован", zap.Int("contracts", len(report.Groups)))
	return report, nil
}

// FeeReportPDF отдаёт отчёт по комиссии готовым PDF.
func (s *ReportService) FeeReportPDF(ctx context.Context) ([]byte, error) {
	report, err := s.FeeReport(ctx)
	if err != nil {
		return nil, err
	}

	pdf := newReportPDF("Fee report", report.Period)

	pdf.SetFont("Arial", "B", 10)
	widths := []float64{60, 20, 40, 40, 20, 20}
	headers := []string{"Property", "Contract", "Owner", "Tenant", "Rent", "Fee"}
	for i, h := range headers {
		pdf.CellFormat(widths[i], 8, h, "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, row := range report.Rows {
		pdf.CellFormat(widths[0], 7, row.PropertyAddress, "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 7, fmt.Sprintf("%d", row.ContractID), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[2], 7, row.OwnerName, "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[3], 7, row.TenantName, "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[4], 7, fmt.Sprintf("%.2f", row.RentAmount), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[5], 7, fmt.Sprintf("%.2f", row.Fee), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(180, 8, fmt.Sprintf("Total: %.2f", report.Total), "", 1, "R", false, 0, "")

	return outputPDF(pdf)
}

// RentReportPDF отдаёт отчёт по арендам готовым PDF.
func (s *ReportService) RentReportPDF(ctx context.Context) ([]byte, error) {
	report, err := s.RentReport(ctx)
	if err != nil {
		return nil, err
	}

	pdf := newReportPDF("Rent report", report.Period)

	pdf.SetFont("Arial", "B", 10)
	widths := []float64{60, 20, 40, 40, 20, 20}
	headers := []string{"Property", "Contract", "Owner", "Tenant", "Amount", "Paid"}
	for i, h := range headers {
		pdf.CellFormat(widths[i], 8, h, "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, row := range report.Rows {
		paid := "no"
		if row.Paid {
			paid = "yes"
		}
		pdf.CellFormat(widths[0], 7, row.PropertyAddress, "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 7, fmt.Sprintf("%d", row.ContractID), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[2], 7, row.OwnerName, "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[3], 7, row.TenantName, "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[4], 7, fmt.Sprintf("%.2f", row.Amount), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[5], 7, paid, "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
	}

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(180, 8, fmt.Sprintf("Paid: %.2f   Outstanding: %.2f", report.TotalPaid, report.TotalUnpaid), "", 1, "R", false, 0, "")

	return outputPDF(pdf)
}

// IncreaseReportPDF отдаёт отчёт по повышениям готовым PDF.
func (s *ReportService) IncreaseReportPDF(ctx context.Context, months int) ([]byte, error) {
	report, err := s.IncreaseReport(ctx, months)
	if err != nil {
		return nil, err
	}

	pdf := newReportPDF("Rent increases", report.PeriodFrom+" - "+report.PeriodTo)

	widths := []float64{30, 35, 35, 40, 40}
	headers := []string{"Date", "Previous", "New", "Percent", "Increase ID"}

	for _, group := range report.Groups {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(180, 8,
			fmt.Sprintf("Contract %d - %s (%s / %s)", group.ContractID, group.PropertyAddress, group.OwnerName, group.TenantName),
			"", 1, "L", false, 0, "")

		pdf.SetFont("Arial", "B", 9)
		for i, h := range headers {
			pdf.CellFormat(widths[i], 7, h, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)

		pdf.SetFont("Arial", "", 9)
		for _, inc := range group.Increases {
			pdf.CellFormat(widths[0], 7, inc.IncreaseDate.Format("02.01.2006"), "1", 0, "L", false, 0, "")
			pdf.CellFormat(widths[1], 7, fmt.Sprintf("%.2f", inc.PreviousAmount), "1", 0, "R", false, 0, "")
			pdf.CellFormat(widths[2], 7, fmt.Sprintf("%.2f", inc.NewAmount), "1", 0, "R", false, 0, "")
			pdf.CellFormat(widths[3], 7, fmt.Sprintf("%.2f%%", inc.Percentage), "1", 0, "R", false, 0, "")
			pdf.CellFormat(widths[4], 7, fmt.Sprintf("%d", inc.IncreaseID), "1", 0, "R", false, 0, "")
			pdf.Ln(-1)
		}
		pdf.Ln(3)
	}

	if len(report.Groups) == 0 {
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(180, 8, "No increases in the period", "", 1, "C", false, 0, "")
	}

	return outputPDF(pdf)
}

func newReportPDF(title, period string) *gofpdf.Fpdf {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title, false)
	pdf.SetAuthor("Alquigest", false)
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, title, "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(0, 7, "Period: "+period, "", 1, "C", false, 0, "")
	pdf.Ln(4)
	return pdf
}

func outputPDF(pdf *gofpdf.Fpdf) ([]byte, error) {
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		logger.Log.Error("Ошибка генерации PDF", zap.Error(err))
		return nil, err
	}
	return buf.Bytes(), nil
}
