package competency

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks Catalog,StatusNotifier

import (
	"context"

	"github.com/yungbote/titlememory-backend/internal/domain/titlememory"
)

// Catalog is the competency catalog as seen by the merge engine. Bulk
// creates return one durable id per input, in input order.
type Catalog interface {
	ValidateSkills(ctx context.Context, ids []string) (bool, error)
	ValidateLearningOutcomes(ctx context.Context, ids []string) (bool, error)
	CreateSkills(ctx context.Context, defs []titlememory.SkillDefinition) ([]string, error)
	CreateLearningOutcomes(ctx context.Context, defs []titlememory.OutcomeDefinition) ([]string, error)
}

// StatusNotifier delivers status changes to the subjects service.
type StatusNotifier interface {
	ChangeStatus(ctx context.Context, token string, change titlememory.StatusChange) error
}
