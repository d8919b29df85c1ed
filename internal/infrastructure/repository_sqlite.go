package infrastructure

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ericwooz/yt-fetch-go/internal/domain"
)

// SQLiteHistoryRepository implements domain.HistoryRepository using SQLite
type SQLiteHistoryRepository struct {
	db *gorm.DB
}

// NewSQLiteHistoryRepository opens (or creates) the history database
func NewSQLiteHistoryRepository(dbPath string) (*SQLiteHistoryRepository, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(&domain.HistoryEntry{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &SQLiteHistoryRepository{db: db}, nil
}

// Record upserts the terminal outcome of a job
func (r *SQLiteHistoryRepository) Record(entry *domain.HistoryEntry) error {
	return r.db.Save(entry).Error
}

// Recent returns the most recently finished jobs, newest first
func (r *SQLiteHistoryRepository) Recent(limit int) ([]*domain.HistoryEntry, error) {
	var entries []*domain.HistoryEntry
	err := r.db.Order("finished_at DESC").Limit(limit).Find(&entries).Error
	return entries, err
}

// FindByJobID looks up a single outcome by job id
func (r *SQLiteHistoryRepository) FindByJobID(jobID string) (*domain.HistoryEntry, error) {
	var entry domain.HistoryEntry
	if err := r.db.First(&entry, "job_id = ?", jobID).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// Stats returns outcome counts
func (r *SQLiteHistoryRepository) Stats() (*domain.HistoryStats, error) {
	stats := &domain.HistoryStats{}

	if err := r.db.Model(&domain.HistoryEntry{}).Count(&stats.Total).Error; err != nil {
		return nil, err
	}

	statusCounts := []struct {
		Status domain.HistoryStatus
		Count  int64
	}{}
	if err := r.db.Model(&domain.HistoryEntry{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&statusCounts).Error; err != nil {
		return nil, err
	}

	for _, sc := range statusCounts {
		switch sc.Status {
		case domain.HistoryCompleted:
			stats.Completed = sc.Count
		case domain.HistoryFailed:
			stats.Failed = sc.Count
		}
	}

	return stats, nil
}

// Close closes the database connection
func (r *SQLiteHistoryRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
