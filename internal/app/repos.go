package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/titlememory-backend/internal/data/repos/titlememory"
	"github.com/yungbote/titlememory-backend/internal/platform/logger"
)

type Repos struct {
	TitleMemory titlememory.TitleMemoryRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		TitleMemory: titlememory.NewTitleMemoryRepo(db, log),
	}
}
