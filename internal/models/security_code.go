package models

import "time"

// SecurityCode — одноразовый код восстановления. В базе хранится только
// bcrypt-хеш, открытый код показывается пользователю один раз при генерации.
type SecurityCode struct {
	ID        int64      `json:"id"`
	UserID    int        `json:"user_id"`
	CodeHash  string     `json:"-"`
	CreatedAt time.Time  `json:"created_at"`
	Used      bool       `json:"used"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
}
