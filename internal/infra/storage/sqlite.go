package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"coinwatch/internal/domain"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Storage is the SQLite-backed preference and coin metadata store
type Storage struct {
	db *gorm.DB
}

// NewStorage opens (and migrates) the SQLite database at dbPath.
func NewStorage(dbPath string) (*Storage, error) {
	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create DB directory: %w", err)
	}

	// Connect to SQLite (Pure Go)
	db, err := gorm.Open(sqlite.Open(dbPath+"?_pragma=busy_timeout(5000)"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite allows a single writer; serialize through one connection
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access connection pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&domain.CoinInfo{}, &domain.AppConfig{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Storage{db: db}, nil
}

// DefaultDBPath returns the database location under the data directory.
func DefaultDBPath(dataDir string) string {
	return filepath.Join(dataDir, "data", "coinwatch.db")
}

// Close releases the underlying connection pool.
func (s *Storage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ======================================================================================
// Preference Operations (domain.PreferenceStore)
// ======================================================================================

// Get returns the stored value for key; ok is false when the key was never written.
func (s *Storage) Get(ctx context.Context, key string) (string, bool, error) {
	var cfg domain.AppConfig
	err := s.db.WithContext(ctx).First(&cfg, "`key` = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, &domain.PreferenceError{Op: "get", Key: key, Err: err}
	}
	return cfg.Value, true, nil
}

// Set overwrites the value for key in a single statement.
func (s *Storage) Set(ctx context.Context, key, value string) error {
	cfg := domain.AppConfig{
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now(),
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&cfg).Error
	if err != nil {
		return &domain.PreferenceError{Op: "set", Key: key, Err: err}
	}
	return nil
}

// ======================================================================================
// Coin Operations (domain.CoinRepository)
// ======================================================================================

// UpsertCoin creates or updates coin metadata
func (s *Storage) UpsertCoin(ctx context.Context, coin *domain.CoinInfo) error {
	return s.db.WithContext(ctx).Save(coin).Error
}

// GetCoin retrieves coin metadata by coin ID
func (s *Storage) GetCoin(ctx context.Context, coinID int64) (*domain.CoinInfo, error) {
	var coin domain.CoinInfo
	err := s.db.WithContext(ctx).First(&coin, "coin_id = ?", coinID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil // Not found is not an error
	}
	if err != nil {
		return nil, err
	}
	return &coin, nil
}

// GetAllCoins retrieves all coins ordered by symbol
func (s *Storage) GetAllCoins(ctx context.Context) ([]domain.CoinInfo, error) {
	var coins []domain.CoinInfo
	err := s.db.WithContext(ctx).Order("symbol").Find(&coins).Error
	return coins, err
}

// DeactivateMissing marks coins absent from activeIDs as inactive.
func (s *Storage) DeactivateMissing(ctx context.Context, activeIDs []int64) error {
	q := s.db.WithContext(ctx).Model(&domain.CoinInfo{}).Where("is_active = ?", true)
	if len(activeIDs) > 0 {
		q = q.Where("coin_id NOT IN ?", activeIDs)
	}
	return q.Update("is_active", false).Error
}
