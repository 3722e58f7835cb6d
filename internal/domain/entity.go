package domain

import (
	"time"
)

// CoinInfo holds locally synced metadata for a currency (icon cache state).
type CoinInfo struct {
	CoinID       int64     `gorm:"primaryKey;autoIncrement:false" json:"coin_id"`
	Symbol       string    `json:"symbol" gorm:"index"`
	Name         string    `json:"name"`
	IconPath     string    `json:"icon_path"`
	IsActive     bool      `json:"is_active" gorm:"index"` // Present in the latest listing
	LastSyncedAt time.Time `json:"last_synced_at"`         // Last icon sync time
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// AppConfig represents user-specific configuration (Key-Value)
type AppConfig struct {
	Key       string    `gorm:"primaryKey" json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Snapshot is an immutable view of one successful market fetch.
// A new Snapshot replaces the previous one; Currencies is never mutated.
type Snapshot struct {
	Currencies []Currency `json:"currencies"`
	FetchedAt  time.Time  `json:"fetched_at"`
}

// Len returns the number of currencies in the snapshot.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Currencies)
}
