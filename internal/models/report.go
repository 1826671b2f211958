package models

import "time"

// Строки отчётов собираются репозиторием одним join-запросом,
// итоги считает сервис.

type FeeReportRow struct {
	PropertyID      int64   `json:"property_id"`
	PropertyAddress string  `json:"property_address"`
	ContractID      int64   `json:"contract_id"`
	OwnerName       string  `json:"owner_name"`
	TenantName      string  `json:"tenant_name"`
	RentAmount      float64 `json:"rent_amount"`
	Fee             float64 `json:"fee"`
}

type FeeReport struct {
	Period string         `json:"period"` // MM/YYYY
	Rows   []FeeReportRow `json:"rows"`
	Total  float64        `json:"total"`
}

type RentReportRow struct {
	PropertyAddress string  `json:"property_address"`
	ContractID      int64   `json:"contract_id"`
	OwnerName       string  `json:"owner_name"`
	TenantName      string  `json:"tenant_name"`
	Amount          float64 `json:"amount"`
	Paid            bool    `json:"paid"`
}

type RentReport struct {
	Period      string          `json:"period"`
	Rows        []RentReportRow `json:"rows"`
	TotalPaid   float64         `json:"total_paid"`
	TotalUnpaid float64         `json:"total_unpaid"`
}

// IncreaseReportRow — плоская строка из запроса; в группы по договорам
// её складывает сервис.
type IncreaseReportRow struct {
	ContractID      int64     `json:"contract_id"`
	PropertyAddress string    `json:"property_address"`
	OwnerName       string    `json:"owner_name"`
	TenantName      string    `json:"tenant_name"`
	IncreaseID      int64     `json:"increase_id"`
	IncreaseDate    time.Time `json:"increase_date"`
	PreviousAmount  float64   `json:"previous_amount"`
	NewAmount       float64   `json:"new_amount"`
	Percentage      float64   `json:"percentage"`
}

type IncreaseReportItem struct {
	IncreaseID     int64     `json:"increase_id"`
	IncreaseDate   time.Time `json:"increase_date"`
	PreviousAmount float64   `json:"previous_amount"`
	NewAmount      float64   `json:"new_amount"`
	Percentage     float64   `json:"percentage"`
}

type IncreaseReportGroup struct {
	ContractID      int64                `json:"contract_id"`
	PropertyAddress string               `json:"property_address"`
	OwnerName       string               `json:"owner_name"`
	TenantName      string               `json:"tenant_name"`
	Increases       []IncreaseReportItem `json:"increases"`
}

type IncreaseReport struct {
	PeriodFrom string                `json:"period_from"` // MM/YYYY
	PeriodTo   string                `json:"period_to"`
	Months     int                   `json:"months"`
	Groups     []IncreaseReportGroup `json:"groups"`
}
