package titlememory

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	// StatusDeleted marks a soft-deleted record. It is excluded from every
	// listing and search but stays retrievable by id.
	StatusDeleted = "deleted"
	// StatusIncomplete is what downstream subjects are moved to when a
	// record's competencies drift.
	StatusIncomplete = "incomplete"
)

type TitleMemory struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"_id"`
	TitleCode TitleCode `gorm:"column:title_code;not null;uniqueIndex:idx_title_memory_code_active,where:status <> 'deleted'" json:"titleCode"`

	Universities datatypes.JSONSlice[string] `gorm:"column:universities;not null" json:"universities"`
	Centers      datatypes.JSONSlice[string] `gorm:"column:centers;not null" json:"centers"`

	Name          string `gorm:"column:name;not null;index" json:"name"`
	AcademicLevel string `gorm:"column:academic_level;not null;index" json:"academicLevel"`
	Branch        string `gorm:"column:branch;not null;index" json:"branch"`
	AcademicField string `gorm:"column:academic_field;not null;index" json:"academicField"`
	Status        string `gorm:"column:status;not null;index" json:"status"`
	YearDelivery  int    `gorm:"column:year_delivery;not null;index" json:"yearDelivery"`
	TotalCredits  int    `gorm:"column:total_credits;not null" json:"totalCredits"`

	DistributedCredits datatypes.JSONType[map[string]int] `gorm:"column:distributed_credits;not null" json:"distributedCredits"`
	Skills             datatypes.JSONSlice[string]        `gorm:"column:skills;not null" json:"skills"`
	LearningOutcomes   datatypes.JSONSlice[OutcomeLink]   `gorm:"column:learning_outcomes;not null" json:"learningOutcomes"`

	UserID    string    `gorm:"column:user_id;index" json:"userId"`
	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`
}

func (TitleMemory) TableName() string { return "title_memory" }

func (t *TitleMemory) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// BeforeSave keeps JSON columns non-null so the stored shape is always
// arrays/objects.
func (t *TitleMemory) BeforeSave(tx *gorm.DB) error {
	if t.Universities == nil {
		t.Universities = datatypes.JSONSlice[string]{}
	}
	if t.Centers == nil {
		t.Centers = datatypes.JSONSlice[string]{}
	}
	if t.Skills == nil {
		t.Skills = datatypes.JSONSlice[string]{}
	}
	if t.LearningOutcomes == nil {
		t.LearningOutcomes = datatypes.JSONSlice[OutcomeLink]{}
	}
	if t.DistributedCredits.Data() == nil {
		t.DistributedCredits = datatypes.NewJSONType(map[string]int{})
	}
	return nil
}

// Snapshot is the competency view of a record used for drift detection.
func (t *TitleMemory) Snapshot() Competencies {
	return Competencies{
		Skills:           append([]string{}, t.Skills...),
		LearningOutcomes: CloneLinks(t.LearningOutcomes),
	}
}

// Competencies is the canonical persisted competency shape: durable skill ids
// and outcome→skills mappings.
type Competencies struct {
	Skills           []string      `json:"skills"`
	LearningOutcomes []OutcomeLink `json:"learningOutcomes"`
}

// StatusChange is sent to the subjects service when competencies drift.
type StatusChange struct {
	TitleMemoryID    string        `json:"titleMemoryId"`
	Status           string        `json:"status"`
	Skills           []string      `json:"skills"`
	LearningOutcomes []OutcomeLink `json:"learningOutcomes"`
}
