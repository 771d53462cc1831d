package testutil

import (
	"context"
	"testing"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/titlememory-backend/internal/domain/titlememory"
)

// Record returns a complete record; callers override what they test.
func Record(code, name string, year int) *titlememory.TitleMemory {
	return &titlememory.TitleMemory{
		TitleCode:          titlememory.TitleCode(code),
		Universities:       datatypes.NewJSONSlice([]string{"UV"}),
		Centers:            datatypes.NewJSONSlice([]string{"ETSE"}),
		Name:               name,
		AcademicLevel:      "Grado",
		Branch:             "Ingeniería",
		AcademicField:      "Informática",
		Status:             "active",
		YearDelivery:       year,
		TotalCredits:       240,
		DistributedCredits: datatypes.NewJSONType(map[string]int{"basic": 60}),
		Skills:             datatypes.NewJSONSlice([]string{"s1"}),
		LearningOutcomes: datatypes.NewJSONSlice([]titlememory.OutcomeLink{
			{OutcomeID: "o1", SkillIDs: []string{"s1"}},
		}),
		UserID: "user-1",
	}
}

func SeedTitleMemory(tb testing.TB, ctx context.Context, tx *gorm.DB, rec *titlememory.TitleMemory) *titlememory.TitleMemory {
	tb.Helper()
	if err := tx.WithContext(ctx).Create(rec).Error; err != nil {
		tb.Fatalf("seed title memory: %v", err)
	}
	return rec
}

func PtrInt(v int) *int { return &v }
