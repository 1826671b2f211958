package repository

import (
	"alquigest/internal/logger"
	"alquigest/internal/models"
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type ReportRepository struct {
	db *pgxpool.Pool
}

func NewReportRepository(db *pgxpool.Pool) *ReportRepository {
	return &ReportRepository{db: db}
}

// GetPaidRentsForMonth — оплаченные аренды месяца по действующим договорам,
// с адресом объекта и именами сторон. Комиссию считает сервис.
func (r *ReportRepository) GetPaidRentsForMonth(ctx context.Context, month, year int) ([]models.FeeReportRow, error) {
	rows, err := r.db.Query(ctx, `
		SELECT p.id, p.address, c.id,
		       o.last_name || ', ' || o.first_name,
		       t.last_name || ', ' || t.first_name,
		       rn.amount
		FROM rents rn
		JOIN contracts c ON c.id = rn.contract_id AND c.status = 'active'
		JOIN properties p ON p.id = c.property_id
		JOIN owners o ON o.id = p.owner_id
		JOIN tenants t ON t.id = c.tenant_id
		WHERE rn.month = $1 AND rn.year = $2 AND rn.paid = true
		ORDER BY p.address`,
		month, year,
	)
	if err != nil {
		logger.Log.Error("Ошибка выборки оплаченных аренд (repo)", zap.Int("month", month), zap.Int("year", year), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var out []models.FeeReportRow
	for rows.Next() {
		var row models.FeeReportRow
		if err := rows.Scan(&row.PropertyID, &row.PropertyAddress, &row.ContractID, &row.OwnerName, &row.TenantName, &row.RentAmount); err != nil {
			logger.Log.Error("Ошибка сканирования строки отчёта (repo)", zap.Error(err))
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// GetRentsForMonth — все аренды месяца (оплаченные и нет) по действующим договорам.
func (r *ReportRepository) GetRentsForMonth(ctx context.Context, month, year int) ([]models.RentReportRow, error) {
	rows, err := r.db.Query(ctx, `
		SELECT p.address, c.id,
		       o.last_name || ', ' || o.first_name,
		       t.last_name || ', ' || t.first_name,
		       rn.amount, rn.paid
		FROM rents rn
		JOIN contracts c ON c.id = rn.contract_id AND c.status = 'active'
		JOIN properties p ON p.id = c.property_id
		JOIN owners o ON o.id = p.owner_id
		JOIN tenants t ON t.id = c.tenant_id
		WHERE rn.month = $1 AND rn.year = $2
		ORDER BY p.address`,
		month, year,
	)
	if err != nil {
		logger.Log.Error("Ошибка выборки аренд за месяц (repo)", zap.Int("month", month), zap.Int("year", year), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var out []models.RentReportRow
	for rows.Next() {
		var row models.RentReportRow
		if err := rows.Scan(&row.PropertyAddress, &row.ContractID, &row.OwnerName, &row.TenantName, &row.Amount, &row.Paid); err != nil {
			logger.Log.Error("Ошибка сканирования строки отчёта (repo)", zap.Error(err))
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// GetIncreasesBetween — повышения аренды за период, отсортированные по
// договору и дате. Группировку по договорам делает сервис.
func (r *ReportRepository) GetIncreasesBetween(ctx context.Context, from, to time.Time) ([]models.IncreaseReportRow, error) {
	rows, err := r.db.Query(ctx, `
		SELECT c.id, p.address,
		       o.last_name || ', ' || o.first_name,
		       t.last_name || ', ' || t.first_name,
		       ri.id, ri.increase_date, ri.previous_amount, ri.new_amount, ri.percentage
		FROM rent_increases ri
		JOIN contracts c ON c.id = ri.contract_id
		JOIN properties p ON p.id = c.property_id
		JOIN owners o ON o.id = p.owner_id
		JOIN tenants t ON t.id = c.tenant_id
		WHERE ri.increase_date >= $1 AND ri.increase_date <= $2
		ORDER BY c.id, ri.increase_date`,
		from, to,
	)
	if err != nil {
		logger.Log.Error("Ошибка выборки повышений за период (repo)", zap.Time("from", from), zap.Time("to", to), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var out []models.IncreaseReportRow
	for rows.Next() {
		var row models.IncreaseReportRow
		if err := rows.Scan(&row.ContractID, &row.PropertyAddress, &row.OwnerName, &row.TenantName,
			&row.IncreaseID, &row.IncreaseDate, &row.PreviousAmount, &row.NewAmount, &row.Percentage); err != nil {
			logger.Log.Error("Ошибка сканирования строки отчёта (repo)", zap.Error(err))
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
