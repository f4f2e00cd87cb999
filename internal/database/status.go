package database

import (
	"sync"
	"time"
)

// Status records whether the database connection is up.  A single Status is
// created at startup and shared by the connector (writer) and the HTTP
// handlers (readers).  The zero value reports not connected.
type Status struct {
	mu        sync.RWMutex
	connected bool
	driver    string
	address   string
	lastErr   string
	checkedAt time.Time
}

// StatusSnapshot is a point-in-time copy of Status suitable for JSON output.
type StatusSnapshot struct {
	Connected bool       `json:"connected"`
	Driver    string     `json:"driver,omitempty"`
	Address   string     `json:"address,omitempty"`
	Error     string     `json:"error,omitempty"`
	CheckedAt *time.Time `json:"checked_at,omitempty"`
}

func NewStatus() *Status { return &Status{} }

func (s *Status) Connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

func (s *Status) Snapshot() StatusSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := StatusSnapshot{
		Connected: s.connected,
		Driver:    s.driver,
		Address:   s.address,
		Error:     s.lastErr,
	}
	if !s.checkedAt.IsZero() {
		at := s.checkedAt
		snap.CheckedAt = &at
	}
	return snap
}

// MarkConnected flips the status to connected and clears any previous error.
func (s *Status) MarkConnected(driver, address string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = true
	s.driver, s.address = driver, address
	s.lastErr = ""
	s.checkedAt = at.UTC()
}

// MarkFailed records a failed attempt.  The status stays (or becomes) not
// connected.
func (s *Status) MarkFailed(driver, address string, err error, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
	s.driver, s.address = driver, address
	if err != nil {
		s.lastErr = err.Error()
	}
	s.checkedAt = at.UTC()
}
