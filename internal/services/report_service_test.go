package services

import (
	"alquigest/internal/clock"
	"alquigest/internal/models"
	"bytes"
	"context"
	"errors"
	"testing"
	"time"
)

type mockReportRepo struct {
	paid      []models.FeeReportRow
	rents     []models.RentReportRow
	increases []models.IncreaseReportRow
	lastMonth int
	lastYear  int
	lastFrom  time.Time
	lastTo    time.Time
	err       error
}

func (m *mockReportRepo) GetPaidRentsForMonth(_ context.Context, month, year int) ([]models.FeeReportRow, error) {
	m.lastMonth, m.lastYear = month, year
	return m.paid, m.err
}

func (m *mockReportRepo) GetRentsForMonth(_ context.Context, month, year int) ([]models.RentReportRow, error) {
	m.lastMonth, m.lastYear = month, year
	return m.rents, m.err
}

func (m *mockReportRepo) GetIncreasesBetween(_ context.Context, from, to time.Time) ([]models.IncreaseReportRow, error) {
	m.lastFrom, m.lastTo = from, to
	return m.increases, m.err
}

func TestFeeReport(t *testing.T) {
	repo := &mockReportRepo{paid: []models.FeeReportRow{
		{ContractID: 1, PropertyAddress: "ul. Lenina 1", OwnerName: "Ivanov", TenantName: "Petrov", RentAmount: 100000},
		{ContractID: 2, PropertyAddress: "ul. Mira 5", OwnerName: "Sidorov", TenantName: "Orlov", RentAmount: 45333.33},
	}}
	clk := clock.NewMock(time.Date(2025, 3, 10, 0, 0, 0, 0, time.Local))
	svc := NewReportService(repo, clk, 10)

	report, err := svc.FeeReport(context.Background())
	if err != nil {
		t.Fatalf("ошибка формирования отчёта: %v", err)
	}

	if report.Period != "03/2025" {
		t.Fatalf("неверный период: %q", report.Period)
	}
	if repo.lastMonth != 3 || repo.lastYear != 2025 {
		t.Fatalf("выборка за неверный период: %d/%d", repo.lastMonth, repo.lastYear)
	}
	if report.Rows[0].Fee != 10000 {
		t.Fatalf("неверная комиссия по первой строке: %v", report.Rows[0].Fee)
	}
	if report.Rows[1].Fee != 4533.33 {
		t.Fatalf("комиссия должна округляться до копеек: %v", report.Rows[1].Fee)
	}
	if report.Total != 14533.33 {
		t.Fatalf("неверный итог: %v", report.Total)
	}
}

func TestFeeReport_DefaultPercent(t *testing.T) {
	repo := &mockReportRepo{paid: []models.FeeReportRow{{ContractID: 1, RentAmount: 1000}}}
	svc := NewReportService(repo, clock.NewMock(time.Date(2025, 3, 10, 0, 0, 0, 0, time.Local)), 0)

	report, err := svc.FeeReport(context.Background())
	if err != nil {
		t.Fatalf("ошибка формирования отчёта: %v", err)
	}
	if report.Rows[0].Fee != 100 {
		t.Fatalf("при нулевой настройке действует процент по умолчанию, получено %v", report.Rows[0].Fee)
	}
}

func TestRentReport(t *testing.T) {
	repo := &mockReportRepo{rents: []models.RentReportRow{
		{ContractID: 1, Amount: 50000, Paid: true},
		{ContractID: 2, Amount: 30000, Paid: false},
		{ContractID: 3, Amount: 20000, Paid: true},
	}}
	svc := NewReportService(repo, clock.NewMock(time.Date(2025, 12, 1, 0, 0, 0, 0, time.Local)), 10)

	report, err := svc.RentReport(context.Background())
	if err != nil {
		t.Fatalf("ошибка формирования отчёта: %v", err)
	}
	if report.Period != "12/2025" {
		t.Fatalf("неверный период: %q", report.Period)
	}
	if report.TotalPaid != 70000 || report.TotalUnpaid != 30000 {
		t.Fatalf("неверные итоги: paid=%v unpaid=%v", report.TotalPaid, report.TotalUnpaid)
	}
}

func TestIncreaseReport(t *testing.T) {
	date := func(d int) time.Time { return time.Date(2025, 6, d, 0, 0, 0, 0, time.Local) }
	repo := &mockReportRepo{increases: []models.IncreaseReportRow{
		{ContractID: 1, PropertyAddress: "ul. Lenina 1", OwnerName: "Ivanov", TenantName: "Petrov",
			IncreaseID: 11, IncreaseDate: date(1), PreviousAmount: 1000, NewAmount: 1100, Percentage: 10},
		{ContractID: 1, PropertyAddress: "ul. Lenina 1", OwnerName: "Ivanov", TenantName: "Petrov",
			IncreaseID: 12, IncreaseDate: date(20), PreviousAmount: 1100, NewAmount: 1210, Percentage: 10},
		{ContractID: 2, PropertyAddress: "ul. Mira 5", OwnerName: "Sidorov", TenantName: "Orlov",
			IncreaseID: 13, IncreaseDate: date(10), PreviousAmount: 500, NewAmount: 550, Percentage: 10},
	}}
	clk := clock.NewMock(time.Date(2025, 8, 15, 12, 0, 0, 0, time.Local))
	svc := NewReportService(repo, clk, 10)

	report, err := svc.IncreaseReport(context.Background(), 0)
	if err != nil {
		t.Fatalf("ошибка формирования отчёта: %v", err)
	}

	// без параметра берутся последние 6 месяцев от начала текущего дня
	if !repo.lastTo.Equal(clk.Today()) || !repo.lastFrom.Equal(clk.Today().AddDate(0, -6, 0)) {
		t.Fatalf("неверный период выборки: %v - %v", repo.lastFrom, repo.lastTo)
	}
	if report.Months != 6 || report.PeriodFrom != "02/2025" || report.PeriodTo != "08/2025" {
		t.Fatalf("неверные атрибуты периода: %d, %q - %q", report.Months, report.PeriodFrom, report.PeriodTo)
	}

	if len(report.Groups) != 2 {
		t.Fatalf("ожидалось 2 группы по договорам, получено %d", len(report.Groups))
	}
	first := report.Groups[0]
	if first.ContractID != 1 || len(first.Increases) != 2 {
		t.Fatalf("неверная группировка: договор %d, повышений %d", first.ContractID, len(first.Increases))
	}
	if first.Increases[0].IncreaseID != 11 || first.Increases[1].IncreaseID != 12 {
		t.Fatal("повышения внутри группы должны идти по дате")
	}
	if report.Groups[1].ContractID != 2 || report.Groups[1].PropertyAddress != "ul. Mira 5" {
		t.Fatal("вторая группа собрана неверно")
	}
}

func TestIncreaseReport_CustomMonths(t *testing.T) {
	repo := &mockReportRepo{}
	clk := clock.NewMock(time.Date(2025, 8, 15, 12, 0, 0, 0, time.Local))
	svc := NewReportService(repo, clk, 10)

	report, err := svc.IncreaseReport(context.Background(), 12)
	if err != nil {
		t.Fatalf("ошибка формирования отчёта: %v", err)
	}
	if !repo.lastFrom.Equal(clk.Today().AddDate(0, -12, 0)) {
		t.Fatalf("неверное начало периода: %v", repo.lastFrom)
	}
	if report.Months != 12 || report.PeriodFrom != "08/2024" {
		t.Fatalf("неверные атрибуты периода: %d, %q", report.Months, report.PeriodFrom)
	}
	if report.Groups == nil || len(report.Groups) != 0 {
		t.Fatal("без повышений отчёт отдаёт пустой список групп, не nil")
	}
}

func TestReport_RepoError(t *testing.T) {
	repo := &mockReportRepo{err: errors.New("db down")}
	svc := NewReportService(repo, clock.NewMock(time.Date(2025, 3, 10, 0, 0, 0, 0, time.Local)), 10)

	if _, err := svc.FeeReport(context.Background()); err == nil {
		t.Fatal("ошибка выборки должна подниматься наружу")
	}
	if _, err := svc.RentReport(context.Background()); err == nil {
		t.Fatal("ошибка выборки должна подниматься наружу")
	}
	if _, err := svc.IncreaseReport(context.Background(), 6); err == nil {
		t.Fatal("ошибка выборки должна подниматься наружу")
	}
}

func TestReportPDF(t *testing.T) {
	repo := &mockReportRepo{
		paid:  []models.FeeReportRow{{ContractID: 1, PropertyAddress: "ul. Lenina 1", RentAmount: 1000}},
		rents: []models.RentReportRow{{ContractID: 1, PropertyAddress: "ul. Lenina 1", Amount: 1000, Paid: true}},
		increases: []models.IncreaseReportRow{{ContractID: 1, PropertyAddress: "ul. Lenina 1",
			IncreaseDate: time.Date(2025, 2, 1, 0, 0, 0, 0, time.Local), PreviousAmount: 1000, NewAmount: 1100, Percentage: 10}},
	}
	svc := NewReportService(repo, clock.NewMock(time.Date(2025, 3, 10, 0, 0, 0, 0, time.Local)), 10)
	ctx := context.Background()

	fees, err := svc.FeeReportPDF(ctx)
	if err != nil {
		t.Fatalf("ошибка генерации PDF: %v", err)
	}
	rents, err := svc.RentReportPDF(ctx)
	if err != nil {
		t.Fatalf("ошибка генерации PDF: %v", err)
	}
	increases, err := svc.IncreaseReportPDF(ctx, 6)
	if err != nil {
		t.Fatalf("ошибка генерации PDF: %v", err)
	}

	for _, doc := range [][]byte{fees, rents, increases} {
		if !bytes.HasPrefix(doc, []byte("%PDF")) {
			t.Fatal("результат не похож на PDF-документ")
		}
	}
}
