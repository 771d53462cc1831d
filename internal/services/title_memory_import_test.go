package services

import (
	"context"
	"strings"
	"testing"

	"github.com/yungbote/titlememory-backend/internal/data/repos/pagination"
	"github.com/yungbote/titlememory-backend/internal/platform/apierr"
)

const importJSON = `[
  {
    "titleCode": 9001,
    "universities": ["UV"],
    "centers": ["ETSE"],
    "name": "Grado en Física",
    "academicLevel": "Grado",
    "branch": "Ciencias",
    "academicField": "Física",
    "status": "active",
    "yearDelivery": 2022,
    "totalCredits": 240,
    "distributedCredits": {"basic": 60},
    "skills": ["s1", {"name": "Optics", "generated_id": "g1"}],
    "learningOutcomes": [{"o1": ["s1"]}, {"name": "Lens design", "skills_id": ["g1"]}]
  }
]`

const importYAML = `
- titleCode: "9002"
  universities: [UV]
  centers: [ETSE]
  name: Grado en Química
  academicLevel: Grado
  branch: Ciencias
  academicField: Química
  status: active
  yearDelivery: 2021
  totalCredits: 240
  distributedCredits:
    basic: 60
  skills: [s2]
  learningOutcomes: []
`

func TestBulkImportFromFiles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rows, err := f.svc.BulkImportFromFiles(ctx, []ImportFile{
		{Name: "physics.json", Content: []byte(importJSON)},
		{Name: "chemistry.yaml", Content: []byte(importYAML)},
	}, "importer")
	if err != nil {
		t.Fatalf("BulkImportFromFiles: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows: want=2 got=%d", len(rows))
	}
	physics := rows[0]
	if physics.TitleCode != "9001" {
		t.Fatalf("titleCode: want=9001 got=%s", physics.TitleCode)
	}
	if strings.Join(physics.Skills, ",") != "s1,skill-1" {
		t.Fatalf("skills: got=%v", physics.Skills)
	}
	if len(physics.LearningOutcomes) != 2 || strings.Join(physics.LearningOutcomes[1].SkillIDs, ",") != "skill-1" {
		t.Fatalf("outcomes: got=%+v", physics.LearningOutcomes)
	}
	if rows[1].UserID != "importer" || strings.Join(rows[1].Skills, ",") != "s2" {
		t.Fatalf("yaml row: got=%+v", rows[1])
	}
	if f.metrics.writes["import"] != 2 {
		t.Fatalf("metrics: want import=2 got=%v", f.metrics.writes)
	}
}

func TestBulkImportRejectsWholeBatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	broken := `[{"titleCode": 9100, "name": "Missing most fields"}]`

	_, err := f.svc.BulkImportFromFiles(ctx, []ImportFile{
		{Name: "good.json", Content: []byte(importJSON)},
		{Name: "broken.json", Content: []byte(broken)},
		{Name: "garbage.json", Content: []byte(`{not json`)},
	}, "importer")
	apiErr := apierr.As(err)
	if apiErr.Code != apierr.CodeValidation {
		t.Fatalf("code: want=%s got=%s (%v)", apierr.CodeValidation, apiErr.Code, err)
	}
	joined := strings.Join(apiErr.Details, "\n")
	for _, want := range []string{
		"broken.json[0] universities is required",
		"broken.json[0] learningOutcomes is required",
		"garbage.json: ",
	} {
		if !strings.Contains(joined, want) {
			t.Fatalf("details missing %q:\n%s", want, joined)
		}
	}
	if strings.Contains(joined, "good.json") {
		t.Fatalf("valid file reported:\n%s", joined)
	}
	if len(f.catalog.createdSkills) != 0 {
		t.Fatalf("catalog touched before validation finished: %+v", f.catalog.createdSkills)
	}
	page, err := f.svc.ListAll(ctx, pagination.Request{})
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if page.Pagination.Total != 0 {
		t.Fatalf("total: want=0 got=%d", page.Pagination.Total)
	}
}

func TestBulkImportNoFiles(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.BulkImportFromFiles(context.Background(), nil, "importer"); errCode(err) != apierr.CodeValidation {
		t.Fatalf("want validation got=%v", err)
	}
}
