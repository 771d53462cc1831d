package titlememory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	dbpkg "github.com/yungbote/titlememory-backend/internal/data/db"
	"github.com/yungbote/titlememory-backend/internal/data/repos/pagination"
	"github.com/yungbote/titlememory-backend/internal/data/repos/testutil"
	domain "github.com/yungbote/titlememory-backend/internal/domain/titlememory"
	"github.com/yungbote/titlememory-backend/internal/platform/dbctx"
)

func TestTitleMemoryRepoLifecycle(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	dbc := dbctx.Of(ctx)
	repo := NewTitleMemoryRepo(db, testutil.Logger(t))

	a := testutil.Record("1001", "Grado en Informática", 2020)
	b := testutil.Record("1002", "Grado en Física", 2021)
	created, err := repo.Create(dbc, []*domain.TitleMemory{a, b})
	require.NoError(t, err)
	require.Len(t, created, 2)
	require.NotEqual(t, uuid.Nil, a.ID)

	got, err := repo.GetByID(dbc, a.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "Grado en Informática", got.Name)
	require.Equal(t, []string{"s1"}, []string(got.Skills))
	require.Equal(t, "o1", got.LearningOutcomes[0].OutcomeID)
	require.Equal(t, 60, got.DistributedCredits.Data()["basic"])

	missing, err := repo.GetByID(dbc, uuid.New())
	require.NoError(t, err)
	require.Nil(t, missing)

	got.Name = "Grado en Ingeniería Informática"
	require.NoError(t, repo.Save(dbc, got))
	reloaded, err := repo.GetByID(dbc, a.ID)
	require.NoError(t, err)
	require.Equal(t, "Grado en Ingeniería Informática", reloaded.Name)

	ok, err := repo.SoftDelete(dbc, a.ID)
	require.NoError(t, err)
	require.True(t, ok)

	deleted, err := repo.GetByID(dbc, a.ID)
	require.NoError(t, err)
	require.NotNil(t, deleted, "soft-deleted records stay retrievable by id")
	require.Equal(t, domain.StatusDeleted, deleted.Status)

	res, err := repo.Search(dbc, domain.Filter{}, pagination.Request{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Equal(t, int64(1), res.Pagination.Total)
	require.Equal(t, b.ID, res.Data[0].ID)

	ok, err = repo.SoftDelete(dbc, uuid.New())
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, repo.Ping(dbc))
}

func TestTitleMemoryRepoDuplicateTitleCode(t *testing.T) {
	db := testutil.DB(t)
	dbc := dbctx.Of(context.Background())
	repo := NewTitleMemoryRepo(db, testutil.Logger(t))

	first := testutil.Record("2001", "A", 2020)
	_, err := repo.Create(dbc, []*domain.TitleMemory{first})
	require.NoError(t, err)

	_, err = repo.Create(dbc, []*domain.TitleMemory{testutil.Record("2001", "B", 2020)})
	require.Error(t, err)
	require.True(t, dbpkg.IsDuplicateKey(err))

	// a batch containing a duplicate inserts nothing
	_, err = repo.Create(dbc, []*domain.TitleMemory{testutil.Record("2002", "C", 2020), testutil.Record("2001", "D", 2020)})
	require.Error(t, err)
	res, err := repo.Search(dbc, domain.Filter{}, pagination.Request{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Equal(t, int64(1), res.Pagination.Total)

	// the code is free again once the holder is soft-deleted
	_, err = repo.SoftDelete(dbc, first.ID)
	require.NoError(t, err)
	_, err = repo.Create(dbc, []*domain.TitleMemory{testutil.Record("2001", "E", 2022)})
	require.NoError(t, err)
}

func TestTitleMemoryRepoSoftDeleteTargetsOneRecord(t *testing.T) {
	db := testutil.DB(t)
	dbc := dbctx.Of(context.Background())
	repo := NewTitleMemoryRepo(db, testutil.Logger(t))

	gone := testutil.Record("4001", "Grado en Historia", 2019)
	kept := testutil.Record("4002", "Grado en Historia del Arte", 2019)
	_, err := repo.Create(dbc, []*domain.TitleMemory{gone, kept})
	require.NoError(t, err)
	before, err := repo.GetByID(dbc, gone.ID)
	require.NoError(t, err)

	ok, err := repo.SoftDelete(dbc, gone.ID)
	require.NoError(t, err)
	require.True(t, ok)

	after, err := repo.GetByID(dbc, gone.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusDeleted, after.Status)
	require.False(t, after.UpdatedAt.Before(before.UpdatedAt))

	other, err := repo.GetByID(dbc, kept.ID)
	require.NoError(t, err)
	require.Equal(t, "active", other.Status)

	res, err := repo.Search(dbc, domain.Filter{
		Name:         "Historia",
		Universities: []string{"UV"},
		YearFrom:     testutil.PtrInt(2019),
		YearTo:       testutil.PtrInt(2019),
		AllowedIDs:   []uuid.UUID{gone.ID, kept.ID},
	}, pagination.Request{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{kept.ID}, ids(res.Data))
}
