package models

import "time"

// RentIncrease — зафиксированное повышение арендной платы по договору.
type RentIncrease struct {
	ID             int64     `json:"id"`
	ContractID     int64     `json:"contract_id"`
	IncreaseDate   time.Time `json:"increase_date"`
	PreviousAmount float64   `json:"previous_amount"`
	NewAmount      float64   `json:"new_amount"`
	Percentage     float64   `json:"percentage"`
	Description    string    `json:"description,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

type CreateRentIncreaseRequest struct {
	ContractID  int64   `json:"contract_id"`
	Percentage  float64 `json:"percentage"`
	Description string  `json:"description,omitempty"`
}
