package titlememory

import (
	"strings"

	"github.com/google/uuid"
)

// Filter is the structured search criteria understood by the query builder.
// Empty fields impose no constraint.
type Filter struct {
	Name           string
	TitleCode      TitleCode
	Universities   []string
	Centers        []string
	AcademicLevels []string
	Branches       []string
	AcademicFields []string
	YearFrom       *int
	YearTo         *int
	UserID         string
	// AllowedIDs restricts results to these ids when non-nil. A non-nil
	// empty slice matches nothing.
	AllowedIDs []uuid.UUID
}

// SearchFilters is the wire shape of a search request's "filters" object.
type SearchFilters struct {
	TitleName      []string  `json:"titleName"`
	TitleCode      TitleCode `json:"titleCode"`
	AcademicLevel  []string  `json:"academicLevel"`
	AcademicFields []string  `json:"academicFields"`
	BranchAcademic []string  `json:"branchAcademic"`
	Universities   []string  `json:"universities"`
	Centers        []string  `json:"centers"`
	Year           []int     `json:"year"`
}

type SearchRequest struct {
	Filters  *SearchFilters `json:"filters"`
	Page     int            `json:"page"`
	Limit    int            `json:"limit"`
	FromUser bool           `json:"fromUser"`
}

// Filter converts the wire filters. Only the first titleName is used, and
// the year range applies only when exactly two years are given; the pair is
// ordered so the smaller one is the lower bound.
func (f SearchFilters) Filter() Filter {
	out := Filter{
		TitleCode:      TitleCode(strings.TrimSpace(string(f.TitleCode))),
		Universities:   compact(f.Universities),
		Centers:        compact(f.Centers),
		AcademicLevels: compact(f.AcademicLevel),
		Branches:       compact(f.BranchAcademic),
		AcademicFields: compact(f.AcademicFields),
	}
	if len(f.TitleName) > 0 {
		out.Name = strings.TrimSpace(f.TitleName[0])
	}
	if len(f.Year) == 2 {
		lo, hi := f.Year[0], f.Year[1]
		if lo > hi {
			lo, hi = hi, lo
		}
		out.YearFrom, out.YearTo = &lo, &hi
	}
	return out
}

func compact(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
