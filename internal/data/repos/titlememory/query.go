package titlememory

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	domain "github.com/yungbote/titlememory-backend/internal/domain/titlememory"
)

// ListingOrder is the fixed ordering of every listing and search.
var ListingOrder = []string{"year_delivery DESC", "name ASC"}

// ApplyFilter narrows q to the records matching f. Soft-deleted records are
// always excluded. The any-of predicates over JSON array columns are
// rendered per dialect.
func ApplyFilter(q *gorm.DB, f domain.Filter) *gorm.DB {
	dialect := q.Dialector.Name()

	q = q.Where("title_memory.status <> ?", domain.StatusDeleted)

	if name := strings.TrimSpace(f.Name); name != "" {
		q = q.Where(nameContains(dialect, "title_memory.name"), "%"+escapeLike(name)+"%")
	}
	if code := strings.TrimSpace(string(f.TitleCode)); code != "" {
		q = q.Where("title_memory.title_code = ?", code)
	}
	if len(f.Universities) > 0 {
		q = q.Where(jsonArrayAnyOf(dialect, "title_memory.universities"), f.Universities)
	}
	if len(f.Centers) > 0 {
		q = q.Where(jsonArrayAnyOf(dialect, "title_memory.centers"), f.Centers)
	}
	if len(f.AcademicLevels) > 0 {
		q = q.Where("title_memory.academic_level IN ?", f.AcademicLevels)
	}
	if len(f.Branches) > 0 {
		q = q.Where("title_memory.branch IN ?", f.Branches)
	}
	if len(f.AcademicFields) > 0 {
		q = q.Where("title_memory.academic_field IN ?", f.AcademicFields)
	}

	from, to := f.YearFrom, f.YearTo
	if from != nil && to != nil && *from > *to {
		from, to = to, from
	}
	if from != nil {
		q = q.Where("title_memory.year_delivery >= ?", *from)
	}
	if to != nil {
		q = q.Where("title_memory.year_delivery <= ?", *to)
	}

	if f.AllowedIDs != nil {
		if len(f.AllowedIDs) == 0 {
			q = q.Where("1 = 0")
		} else {
			q = q.Where("title_memory.id IN ?", f.AllowedIDs)
		}
	}
	if uid := strings.TrimSpace(f.UserID); uid != "" {
		q = q.Where("title_memory.user_id = ?", uid)
	}
	return q
}

// jsonArrayAnyOf matches rows whose JSON array column shares at least one
// element with the bound value list.
func jsonArrayAnyOf(dialect, column string) string {
	if dialect == "postgres" {
		return fmt.Sprintf("EXISTS (SELECT 1 FROM jsonb_array_elements_text(%s) AS elem(value) WHERE elem.value IN ?)", column)
	}
	return fmt.Sprintf("EXISTS (SELECT 1 FROM json_each(%s) AS elem WHERE elem.value IN ?)", column)
}

// nameContains is a case-insensitive substring match. Postgres folds every
// letter through ILIKE; sqlite's LIKE folds ASCII letters only, so accented
// capitals match only themselves there.
func nameContains(dialect, column string) string {
	if dialect == "postgres" {
		return fmt.Sprintf(`%s ILIKE ? ESCAPE '\'`, column)
	}
	return fmt.Sprintf(`%s LIKE ? ESCAPE '\'`, column)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
