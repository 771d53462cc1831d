package titlememory

import (
	"strings"

	"gorm.io/datatypes"
)

// Input is the create payload. Competencies may arrive split across the
// explicit "existing" lists and the mixed "skills"/"learningOutcomes" lists.
type Input struct {
	TitleCode          TitleCode      `json:"titleCode" validate:"notblank"`
	Universities       []string       `json:"universities" validate:"required,dive,notblank"`
	Centers            []string       `json:"centers" validate:"required,dive,notblank"`
	Name               string         `json:"name" validate:"notblank"`
	AcademicLevel      string         `json:"academicLevel" validate:"notblank"`
	Branch             string         `json:"branch" validate:"notblank"`
	AcademicField      string         `json:"academicField" validate:"notblank"`
	Status             string         `json:"status" validate:"notblank"`
	YearDelivery       int            `json:"yearDelivery" validate:"required"`
	TotalCredits       int            `json:"totalCredits" validate:"gte=0"`
	DistributedCredits map[string]int `json:"distributedCredits" validate:"required"`

	ExistingSkills           []string      `json:"existingSkills,omitempty" validate:"omitempty,dive,notblank"`
	Skills                   []SkillRef    `json:"skills,omitempty" validate:"omitempty,dive"`
	ExistingLearningOutcomes []OutcomeLink `json:"existinglearningOutcomes,omitempty" validate:"omitempty,dive"`
	LearningOutcomes         []OutcomeRef  `json:"learningOutcomes,omitempty" validate:"omitempty,dive"`
}

// Competencies splits the competency fields into existing references and
// new definitions. Plain ids in "skills" join the existing skills after the
// explicit list; mappings in "learningOutcomes" likewise.
func (in Input) Competencies() CompetencyInput {
	return splitCompetencies(in.ExistingSkills, in.Skills, in.ExistingLearningOutcomes, in.LearningOutcomes)
}

// Record builds the stored row. Competency fields are filled in separately
// once they have been merged.
func (in Input) Record(ownerUserID string, merged Competencies) *TitleMemory {
	return &TitleMemory{
		TitleCode:          TitleCode(strings.TrimSpace(string(in.TitleCode))),
		Universities:       datatypes.NewJSONSlice(trimAll(in.Universities)),
		Centers:            datatypes.NewJSONSlice(trimAll(in.Centers)),
		Name:               strings.TrimSpace(in.Name),
		AcademicLevel:      strings.TrimSpace(in.AcademicLevel),
		Branch:             strings.TrimSpace(in.Branch),
		AcademicField:      strings.TrimSpace(in.AcademicField),
		Status:             strings.TrimSpace(in.Status),
		YearDelivery:       in.YearDelivery,
		TotalCredits:       in.TotalCredits,
		DistributedCredits: datatypes.NewJSONType(cloneCredits(in.DistributedCredits)),
		Skills:             datatypes.NewJSONSlice(merged.Skills),
		LearningOutcomes:   datatypes.NewJSONSlice(merged.LearningOutcomes),
		UserID:             ownerUserID,
	}
}

// Patch is the update payload. Nil means "leave unchanged".
type Patch struct {
	TitleCode          *TitleCode     `json:"titleCode,omitempty" validate:"omitempty,notblank"`
	Universities       []string       `json:"universities,omitempty" validate:"omitempty,dive,notblank"`
	Centers            []string       `json:"centers,omitempty" validate:"omitempty,dive,notblank"`
	Name               *string        `json:"name,omitempty" validate:"omitempty,notblank"`
	AcademicLevel      *string        `json:"academicLevel,omitempty" validate:"omitempty,notblank"`
	Branch             *string        `json:"branch,omitempty" validate:"omitempty,notblank"`
	AcademicField      *string        `json:"academicField,omitempty" validate:"omitempty,notblank"`
	Status             *string        `json:"status,omitempty" validate:"omitempty,notblank"`
	YearDelivery       *int           `json:"yearDelivery,omitempty" validate:"omitempty,gt=0"`
	TotalCredits       *int           `json:"totalCredits,omitempty" validate:"omitempty,gte=0"`
	DistributedCredits map[string]int `json:"distributedCredits,omitempty"`

	ExistingSkills           []string      `json:"existingSkills,omitempty" validate:"omitempty,dive,notblank"`
	Skills                   []SkillRef    `json:"skills,omitempty" validate:"omitempty,dive"`
	ExistingLearningOutcomes []OutcomeLink `json:"existinglearningOutcomes,omitempty" validate:"omitempty,dive"`
	LearningOutcomes         []OutcomeRef  `json:"learningOutcomes,omitempty" validate:"omitempty,dive"`
}

// TouchesSkills reports whether the patch replaces the skill set.
func (p Patch) TouchesSkills() bool {
	return p.ExistingSkills != nil || p.Skills != nil
}

// TouchesOutcomes reports whether the patch replaces the outcome mappings.
func (p Patch) TouchesOutcomes() bool {
	return p.ExistingLearningOutcomes != nil || p.LearningOutcomes != nil
}

func (p Patch) Competencies() CompetencyInput {
	return splitCompetencies(p.ExistingSkills, p.Skills, p.ExistingLearningOutcomes, p.LearningOutcomes)
}

// Apply copies every set scalar field onto rec.
func (p Patch) Apply(rec *TitleMemory) {
	if p.TitleCode != nil {
		rec.TitleCode = TitleCode(strings.TrimSpace(string(*p.TitleCode)))
	}
	if p.Universities != nil {
		rec.Universities = datatypes.NewJSONSlice(trimAll(p.Universities))
	}
	if p.Centers != nil {
		rec.Centers = datatypes.NewJSONSlice(trimAll(p.Centers))
	}
	setString(&rec.Name, p.Name)
	setString(&rec.AcademicLevel, p.AcademicLevel)
	setString(&rec.Branch, p.Branch)
	setString(&rec.AcademicField, p.AcademicField)
	setString(&rec.Status, p.Status)
	if p.YearDelivery != nil {
		rec.YearDelivery = *p.YearDelivery
	}
	if p.TotalCredits != nil {
		rec.TotalCredits = *p.TotalCredits
	}
	if p.DistributedCredits != nil {
		rec.DistributedCredits = datatypes.NewJSONType(cloneCredits(p.DistributedCredits))
	}
}

// CompetencyInput is the merge engine's view of a submission.
type CompetencyInput struct {
	ExistingSkills   []string
	NewSkills        []SkillDefinition
	ExistingOutcomes []OutcomeLink
	NewOutcomes      []OutcomeDefinition
}

func (c CompetencyInput) Empty() bool {
	return len(c.ExistingSkills) == 0 && len(c.NewSkills) == 0 && len(c.ExistingOutcomes) == 0 && len(c.NewOutcomes) == 0
}

func splitCompetencies(existingSkills []string, skills []SkillRef, existingOutcomes []OutcomeLink, outcomes []OutcomeRef) CompetencyInput {
	out := CompetencyInput{
		ExistingSkills:   trimAll(existingSkills),
		ExistingOutcomes: CloneLinks(existingOutcomes),
	}
	for _, ref := range skills {
		switch {
		case ref.New != nil:
			out.NewSkills = append(out.NewSkills, *ref.New)
		case strings.TrimSpace(ref.ID) != "":
			out.ExistingSkills = append(out.ExistingSkills, strings.TrimSpace(ref.ID))
		}
	}
	for _, ref := range outcomes {
		switch {
		case ref.New != nil:
			out.NewOutcomes = append(out.NewOutcomes, *ref.New)
		case ref.Link != nil:
			out.ExistingOutcomes = append(out.ExistingOutcomes, OutcomeLink{
				OutcomeID: ref.Link.OutcomeID,
				SkillIDs:  append([]string(nil), ref.Link.SkillIDs...),
			})
		}
	}
	return out
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, strings.TrimSpace(s))
	}
	return out
}

func cloneCredits(in map[string]int) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
