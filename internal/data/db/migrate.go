package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/titlememory-backend/internal/domain/titlememory"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		&titlememory.TitleMemory{},
	)
}

// EnsureTitleMemoryIndexes adds the composite index backing the listing
// order (active records by year desc, then name).
func EnsureTitleMemoryIndexes(db *gorm.DB) error {
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_title_memory_listing
		ON title_memory (status, year_delivery DESC, name);
	`).Error; err != nil {
		return fmt.Errorf("create idx_title_memory_listing: %w", err)
	}
	return nil
}

func (s *Service) AutoMigrateAll() error {
	s.log.Info("Auto migrating tables...", "driver", s.driver)
	if err := AutoMigrateAll(s.db); err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	if err := EnsureTitleMemoryIndexes(s.db); err != nil {
		s.log.Error("Title memory index migration failed", "error", err)
		return err
	}
	return nil
}
