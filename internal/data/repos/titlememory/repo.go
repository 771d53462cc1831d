package titlememory

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/titlememory-backend/internal/data/repos/pagination"
	domain "github.com/yungbote/titlememory-backend/internal/domain/titlememory"
	"github.com/yungbote/titlememory-backend/internal/platform/ctxutil"
	"github.com/yungbote/titlememory-backend/internal/platform/dbctx"
	"github.com/yungbote/titlememory-backend/internal/platform/logger"
)

type TitleMemoryRepo interface {
	Create(dbc dbctx.Context, rows []*domain.TitleMemory) ([]*domain.TitleMemory, error)
	// GetByID returns (nil, nil) when the id is unknown. Soft-deleted
	// records are returned.
	GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.TitleMemory, error)
	Search(dbc dbctx.Context, f domain.Filter, page pagination.Request) (*pagination.Result[domain.TitleMemory], error)
	Save(dbc dbctx.Context, row *domain.TitleMemory) error
	// SoftDelete reports false when no record has the id.
	SoftDelete(dbc dbctx.Context, id uuid.UUID) (bool, error)
	Ping(dbc dbctx.Context) error
}

type titleMemoryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTitleMemoryRepo(db *gorm.DB, baseLog *logger.Logger) TitleMemoryRepo {
	return &titleMemoryRepo{db: db, log: baseLog.With("repo", "TitleMemoryRepo")}
}

// Create inserts every row in one statement, so a batch lands entirely or
// not at all.
func (r *titleMemoryRepo) Create(dbc dbctx.Context, rows []*domain.TitleMemory) ([]*domain.TitleMemory, error) {
	if len(rows) == 0 {
		return []*domain.TitleMemory{}, nil
	}
	if err := dbc.DB(r.db).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *titleMemoryRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.TitleMemory, error) {
	var out domain.TitleMemory
	err := dbc.DB(r.db).Where("id = ?", id).Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *titleMemoryRepo) Search(dbc dbctx.Context, f domain.Filter, page pagination.Request) (*pagination.Result[domain.TitleMemory], error) {
	query := ApplyFilter(dbc.DB(r.db).Model(&domain.TitleMemory{}), f)
	return pagination.Paginate[domain.TitleMemory](ctxutil.Default(dbc.Ctx), query, page, ListingOrder...)
}

func (r *titleMemoryRepo) Save(dbc dbctx.Context, row *domain.TitleMemory) error {
	if row == nil || row.ID == uuid.Nil {
		return errors.New("save: row id required")
	}
	return dbc.DB(r.db).Save(row).Error
}

func (r *titleMemoryRepo) SoftDelete(dbc dbctx.Context, id uuid.UUID) (bool, error) {
	res := dbc.DB(r.db).
		Model(&domain.TitleMemory{}).
		Where("id = ?", id).
		UpdateColumns(map[string]any{
			"status":     domain.StatusDeleted,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *titleMemoryRepo) Ping(dbc dbctx.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctxutil.Default(dbc.Ctx))
}
