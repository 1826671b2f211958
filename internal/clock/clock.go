package clock

import (
	"sync"
	"time"
)

// Clock — источник текущего времени. Внедряется во все сервисы,
// где считаются сроки (токены восстановления, отчётные периоды,
// окончание договоров), чтобы в тестах время было детерминированным.
type Clock interface {
	Now() time.Time
	// Today возвращает начало текущего дня.
	Today() time.Time
}

// Real — системные часы.
type Real struct{}

func (Real) Now() time.Time { return time.Now() }

func (Real) Today() time.Time {
	y, m, d := time.Now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

// Mock — часы с подменяемым моментом времени для тестов.
// Пока момент не задан (или после Clear), ведут себя как Real.
type Mock struct {
	mu  sync.RWMutex
	at  time.Time
	set bool
}

func NewMock(at time.Time) *Mock {
	return &Mock{at: at, set: true}
}

func (m *Mock) Now() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.set {
		return time.Now()
	}
	return m.at
}

func (m *Mock) Today() time.Time {
	y, mo, d := m.Now().Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, time.Local)
}

// Set фиксирует момент времени.
func (m *Mock) Set(at time.Time) {
	m.mu.Lock()
	m.at = at
	m.set = true
	m.mu.Unlock()
}

// Advance сдвигает зафиксированный момент вперёд.
func (m *Mock) Advance(d time.Duration) {
	m.mu.Lock()
	m.at = m.at.Add(d)
	m.mu.Unlock()
}

// Clear возвращает часы к системному времени.
func (m *Mock) Clear() {
	m.mu.Lock()
	m.set = false
	m.mu.Unlock()
}

// IsSet — задан ли сейчас подменный момент.
func (m *Mock) IsSet() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.set
}
