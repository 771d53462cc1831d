package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/titlememory-backend/internal/modules/competency"
	"github.com/yungbote/titlememory-backend/internal/observability"
	"github.com/yungbote/titlememory-backend/internal/platform/logger"
	"github.com/yungbote/titlememory-backend/internal/services"
)

type Services struct {
	Merger      *competency.Merger
	Cascader    *competency.Cascader
	TitleMemory services.TitleMemoryService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, repos Repos, clients Clients, metrics *observability.Metrics) Services {
	log.Info("Wiring services...")

	merger := competency.NewMerger(clients.Catalog, log)
	cascader := competency.NewCascader(clients.Subjects, log,
		competency.WithPolicy(cfg.CascadePolicy),
		competency.WithTimeout(cfg.CascadeTimeout),
		competency.WithRecorder(metrics),
	)
	log.Info("Cascade trigger configured", "policy", string(cascader.Policy()), "timeout", cfg.CascadeTimeout.String())

	return Services{
		Merger:   merger,
		Cascader: cascader,
		TitleMemory: services.NewTitleMemoryService(
			db,
			log,
			repos.TitleMemory,
			merger,
			cascader,
			clients.Catalog,
			clients.Permissions,
			metrics,
			cfg.PageMaxLimit,
		),
	}
}
