package app

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/titlememory-backend/internal/clients/catalog"
	"github.com/yungbote/titlememory-backend/internal/clients/identity"
	"github.com/yungbote/titlememory-backend/internal/clients/permissions"
	"github.com/yungbote/titlememory-backend/internal/clients/subjects"
	"github.com/yungbote/titlememory-backend/internal/modules/competency"
	"github.com/yungbote/titlememory-backend/internal/observability"
	"github.com/yungbote/titlememory-backend/internal/platform/logger"
	"github.com/yungbote/titlememory-backend/internal/platform/redis"
	"github.com/yungbote/titlememory-backend/internal/services"
)

type Clients struct {
	Redis       *goredis.Client
	Identity    *identity.Client
	Catalog     *catalog.Client
	Permissions services.PermissionSource
	Subjects    competency.StatusNotifier
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config, metrics *observability.Metrics) (Clients, error) {
	log.Info("Wiring clients...")

	rdb, err := redis.New(ctx, log, cfg.Redis)
	if err != nil {
		return Clients{}, fmt.Errorf("init redis: %w", err)
	}

	idc, err := identity.New(log, identity.Config{
		BaseURL:  cfg.IdentityURL,
		Timeout:  cfg.UpstreamTimeout,
		CacheTTL: cfg.IdentityCache,
	}, rdb, metrics, metrics)
	if err != nil {
		closeRedis(rdb)
		return Clients{}, fmt.Errorf("init identity client: %w", err)
	}

	cat, err := catalog.New(log, catalog.Config{BaseURL: cfg.CatalogURL, Timeout: cfg.UpstreamTimeout}, metrics)
	if err != nil {
		closeRedis(rdb)
		return Clients{}, fmt.Errorf("init catalog client: %w", err)
	}

	out := Clients{Redis: rdb, Identity: idc, Catalog: cat}

	if cfg.PermissionsURL != "" {
		pc, err := permissions.New(log, permissions.Config{BaseURL: cfg.PermissionsURL, Timeout: cfg.UpstreamTimeout}, metrics)
		if err != nil {
			closeRedis(rdb)
			return Clients{}, fmt.Errorf("init permissions client: %w", err)
		}
		out.Permissions = pc
	} else {
		log.Warn("PERMISSIONS_SERVICE_URL not set; permitted listing disabled")
	}

	if cfg.SubjectsURL != "" {
		sc, err := subjects.New(log, subjects.Config{BaseURL: cfg.SubjectsURL, Timeout: cfg.UpstreamTimeout}, metrics)
		if err != nil {
			closeRedis(rdb)
			return Clients{}, fmt.Errorf("init subjects client: %w", err)
		}
		out.Subjects = sc
	} else {
		log.Warn("SUBJECTS_SERVICE_URL not set; competency drift will not reach subjects")
	}

	return out, nil
}

func closeRedis(rdb *goredis.Client) {
	if rdb != nil {
		_ = rdb.Close()
	}
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	closeRedis(c.Redis)
}
