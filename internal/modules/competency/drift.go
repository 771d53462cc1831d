package competency

import (
	"sort"
	"strings"

	"github.com/yungbote/titlememory-backend/internal/domain/titlememory"
)

// Drift says which competency sets differ between two versions of a record.
type Drift struct {
	Skills   bool
	Outcomes bool
}

func (d Drift) Any() bool { return d.Skills || d.Outcomes }

// Detect compares skills and outcome mappings ignoring order, both of the
// lists and of the skills inside each mapping. Duplicates count.
func Detect(current, proposed titlememory.Competencies) Drift {
	return Drift{
		Skills:   !equalStrings(sortedCopy(current.Skills), sortedCopy(proposed.Skills)),
		Outcomes: !equalStrings(canonicalLinks(current.LearningOutcomes), canonicalLinks(proposed.LearningOutcomes)),
	}
}

func sortedCopy(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}

// canonicalLinks renders each mapping as "<outcome>\x00<sorted skills>" and
// sorts the result, so two mapping lists compare equal iff they hold the
// same pairs.
func canonicalLinks(links []titlememory.OutcomeLink) []string {
	out := make([]string, 0, len(links))
	for _, l := range links {
		out = append(out, l.OutcomeID+"\x00"+strings.Join(sortedCopy(l.SkillIDs), "\x00"))
	}
	sort.Strings(out)
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
