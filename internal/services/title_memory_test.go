package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/yungbote/titlememory-backend/internal/data/repos/pagination"
	"github.com/yungbote/titlememory-backend/internal/data/repos/testutil"
	repo "github.com/yungbote/titlememory-backend/internal/data/repos/titlememory"
	"github.com/yungbote/titlememory-backend/internal/domain/titlememory"
	"github.com/yungbote/titlememory-backend/internal/modules/competency"
	"github.com/yungbote/titlememory-backend/internal/platform/apierr"
	"github.com/yungbote/titlememory-backend/internal/platform/logger"
)

type fakeCatalog struct {
	mu            sync.Mutex
	skills        map[string]bool
	outcomes      map[string]bool
	createdSkills []titlememory.SkillDefinition
	createdLOs    []titlememory.OutcomeDefinition
	failCreate    error
}

func newFakeCatalog(skills, outcomes []string) *fakeCatalog {
	c := &fakeCatalog{skills: map[string]bool{}, outcomes: map[string]bool{}}
	for _, s := range skills {
		c.skills[s] = true
	}
	for _, o := range outcomes {
		c.outcomes[o] = true
	}
	return c
}

func (c *fakeCatalog) ValidateSkills(ctx context.Context, ids []string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		if !c.skills[id] {
			return false, nil
		}
	}
	return true, nil
}

func (c *fakeCatalog) ValidateLearningOutcomes(ctx context.Context, ids []string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		if !c.outcomes[id] {
			return false, nil
		}
	}
	return true, nil
}

func (c *fakeCatalog) CreateSkills(ctx context.Context, defs []titlememory.SkillDefinition) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failCreate != nil {
		return nil, c.failCreate
	}
	ids := make([]string, 0, len(defs))
	for _, d := range defs {
		c.createdSkills = append(c.createdSkills, d)
		id := fmt.Sprintf("skill-%d", len(c.createdSkills))
		c.skills[id] = true
		ids = append(ids, id)
	}
	return ids, nil
}

func (c *fakeCatalog) CreateLearningOutcomes(ctx context.Context, defs []titlememory.OutcomeDefinition) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failCreate != nil {
		return nil, c.failCreate
	}
	ids := make([]string, 0, len(defs))
	for _, d := range defs {
		c.createdLOs = append(c.createdLOs, d)
		id := fmt.Sprintf("lo-%d", len(c.createdLOs))
		c.outcomes[id] = true
		ids = append(ids, id)
	}
	return ids, nil
}

func (c *fakeCatalog) GetSkillsByIDs(ctx context.Context, ids []string) ([]map[string]any, error) {
	out := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		out = append(out, map[string]any{"_id": id, "name": "skill " + id})
	}
	return out, nil
}

func (c *fakeCatalog) GetLearningOutcomesByIDs(ctx context.Context, ids []string) ([]map[string]any, error) {
	out := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		out = append(out, map[string]any{"_id": id, "name": "outcome " + id})
	}
	return out, nil
}

type fakeNotifier struct {
	mu      sync.Mutex
	changes []titlememory.StatusChange
	err     error
}

func (n *fakeNotifier) ChangeStatus(ctx context.Context, token string, change titlememory.StatusChange) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.changes = append(n.changes, change)
	return n.err
}

type fakePermissions struct {
	ids []string
	err error
}

func (p fakePermissions) TitleMemoryIDs(ctx context.Context, token string) ([]string, error) {
	return p.ids, p.err
}

type countingRecorder struct {
	mu     sync.Mutex
	writes map[string]int
}

func (r *countingRecorder) RecordWrite(op string, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.writes == nil {
		r.writes = map[string]int{}
	}
	r.writes[op] += n
}

type fixture struct {
	svc      TitleMemoryService
	catalog  *fakeCatalog
	notifier *fakeNotifier
	perms    *fakePermissions
	metrics  *countingRecorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.DB(t)
	log := logger.Nop()
	f := &fixture{
		catalog:  newFakeCatalog([]string{"s1", "s2", "s3"}, []string{"o1", "o2"}),
		notifier: &fakeNotifier{},
		perms:    &fakePermissions{},
		metrics:  &countingRecorder{},
	}
	f.svc = NewTitleMemoryService(
		db,
		log,
		repo.NewTitleMemoryRepo(db, log),
		competency.NewMerger(f.catalog, log),
		competency.NewCascader(f.notifier, log, competency.WithPolicy(competency.PolicyReport)),
		f.catalog,
		f.perms,
		f.metrics,
		100,
	)
	return f
}

func validInput(code string) titlememory.Input {
	return titlememory.Input{
		TitleCode:          titlememory.TitleCode(code),
		Universities:       []string{"UV"},
		Centers:            []string{"ETSE"},
		Name:               "Grado en Informática " + code,
		AcademicLevel:      "Grado",
		Branch:             "Ingeniería",
		AcademicField:      "Informática",
		Status:             "active",
		YearDelivery:       2023,
		TotalCredits:       240,
		DistributedCredits: map[string]int{"basic": 60},
		ExistingSkills:     []string{"s1"},
		ExistingLearningOutcomes: []titlememory.OutcomeLink{
			{OutcomeID: "o1", SkillIDs: []string{"s1"}},
		},
	}
}

func errCode(err error) string {
	if err == nil {
		return ""
	}
	return apierr.As(err).Code
}

func TestCreateResolvesGeneratedSkillReferences(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	in := validInput("1001")
	in.Skills = []titlememory.SkillRef{
		{New: &titlememory.SkillDefinition{Name: "Testing", GeneratedID: "gen-a"}},
		{ID: "s2"},
	}
	in.LearningOutcomes = []titlememory.OutcomeRef{
		{New: &titlememory.OutcomeDefinition{Name: "Writes tests", SkillsID: []string{"gen-a", "s1"}}},
	}

	rec, err := f.svc.Create(ctx, in, "owner-1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rec.UserID != "owner-1" {
		t.Fatalf("owner: want=owner-1 got=%q", rec.UserID)
	}
	wantSkills := []string{"s1", "s2", "skill-1"}
	if got := []string(rec.Skills); strings.Join(got, ",") != strings.Join(wantSkills, ",") {
		t.Fatalf("skills: want=%v got=%v", wantSkills, got)
	}
	if len(f.catalog.createdLOs) != 1 || strings.Join(f.catalog.createdLOs[0].SkillsID, ",") != "skill-1,s1" {
		t.Fatalf("outcome created with unresolved skills: %+v", f.catalog.createdLOs)
	}
	for _, link := range rec.LearningOutcomes {
		for _, sid := range link.SkillIDs {
			if strings.HasPrefix(sid, "gen") {
				t.Fatalf("generated id leaked into stored record: %+v", rec.LearningOutcomes)
			}
		}
	}

	stored, err := f.svc.GetByID(ctx, rec.ID.String())
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if len(stored.LearningOutcomes) != 2 || stored.LearningOutcomes[1].OutcomeID != "lo-1" {
		t.Fatalf("stored outcomes: got=%+v", stored.LearningOutcomes)
	}
	if f.metrics.writes["create"] != 1 {
		t.Fatalf("metrics: want create=1 got=%v", f.metrics.writes)
	}
}

func TestCreateUnknownSkillCreatesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	in := validInput("1002")
	in.ExistingSkills = []string{"missing"}
	in.Skills = []titlememory.SkillRef{{New: &titlememory.SkillDefinition{Name: "New"}}}

	_, err := f.svc.Create(ctx, in, "owner-1")
	if got := errCode(err); got != apierr.CodeValidation {
		t.Fatalf("code: want=%s got=%s (%v)", apierr.CodeValidation, got, err)
	}
	if len(f.catalog.createdSkills) != 0 {
		t.Fatalf("skills created despite invalid reference: %+v", f.catalog.createdSkills)
	}
	page, err := f.svc.ListAll(ctx, pagination.Request{})
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if page.Pagination.Total != 0 {
		t.Fatalf("records stored: want=0 got=%d", page.Pagination.Total)
	}
}

func TestCreateListsEveryViolation(t *testing.T) {
	f := newFixture(t)
	in := validInput("1003")
	in.Name = " "
	in.Status = ""

	_, err := f.svc.Create(context.Background(), in, "owner-1")
	apiErr := apierr.As(err)
	if apiErr == nil || apiErr.Code != apierr.CodeValidation {
		t.Fatalf("want validation error got=%v", err)
	}
	joined := strings.Join(apiErr.Details, "|")
	for _, want := range []string{"name is required", "status is required"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("details missing %q: %v", want, apiErr.Details)
		}
	}
}

func TestCreateCatalogFailureIsUpstream(t *testing.T) {
	f := newFixture(t)
	f.catalog.failCreate = errors.New("catalog down")
	in := validInput("1004")
	in.Skills = []titlememory.SkillRef{{New: &titlememory.SkillDefinition{Name: "New"}}}

	_, err := f.svc.Create(context.Background(), in, "owner-1")
	if got := errCode(err); got != apierr.CodeUpstream {
		t.Fatalf("code: want=%s got=%s", apierr.CodeUpstream, got)
	}
}

func TestCreateDuplicateTitleCodeConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.svc.Create(ctx, validInput("2001"), "owner-1"); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := f.svc.Create(ctx, validInput("2001"), "owner-1")
	if got := errCode(err); got != apierr.CodeConflict {
		t.Fatalf("code: want=%s got=%s (%v)", apierr.CodeConflict, got, err)
	}
}

func TestBulkCreateRejectsDuplicateCodesInBatch(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.BulkCreate(context.Background(), []titlememory.Input{validInput("3001"), validInput("3001")}, "owner-1")
	apiErr := apierr.As(err)
	if apiErr.Code != apierr.CodeValidation {
		t.Fatalf("code: want=%s got=%s", apierr.CodeValidation, apiErr.Code)
	}
	if len(apiErr.Details) != 1 || !strings.HasPrefix(apiErr.Details[0], "[1] ") {
		t.Fatalf("details: got=%v", apiErr.Details)
	}
}

func TestBulkCreateValidatesEveryInputBeforeCreating(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	good := validInput("3201")
	good.Skills = []titlememory.SkillRef{{New: &titlememory.SkillDefinition{Name: "Python"}}}
	bad := validInput("3202")
	bad.ExistingSkills = []string{"nope"}

	_, err := f.svc.BulkCreate(ctx, []titlememory.Input{good, bad}, "owner-1")
	apiErr := apierr.As(err)
	if apiErr == nil || apiErr.Code != apierr.CodeValidation {
		t.Fatalf("want validation error got=%v", err)
	}
	if !strings.HasPrefix(apiErr.PublicMessage(), "[1] ") {
		t.Fatalf("message: want prefix [1] got=%q", apiErr.PublicMessage())
	}
	if len(f.catalog.createdSkills) != 0 {
		t.Fatalf("createdSkills: want=0 got=%d", len(f.catalog.createdSkills))
	}
	page, err := f.svc.ListAll(ctx, pagination.Request{})
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if page.Pagination.Total != 0 {
		t.Fatalf("records stored: want=0 got=%d", page.Pagination.Total)
	}
}

func TestBulkCreateStoresAll(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rows, err := f.svc.BulkCreate(ctx, []titlememory.Input{validInput("3101"), validInput("3102")}, "owner-1")
	if err != nil {
		t.Fatalf("BulkCreate: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows: want=2 got=%d", len(rows))
	}
	page, err := f.svc.ListByUser(ctx, "owner-1", pagination.Request{})
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if page.Pagination.Total != 2 {
		t.Fatalf("total: want=2 got=%d", page.Pagination.Total)
	}
}

func TestUpdateCascadesOnlyOnCompetencyDrift(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	in := validInput("4001")
	in.ExistingSkills = []string{"s1", "s2"}
	rec, err := f.svc.Create(ctx, in, "owner-1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	id := rec.ID.String()

	name := "Renamed"
	res, err := f.svc.Update(ctx, id, titlememory.Patch{Name: &name}, "tok")
	if err != nil {
		t.Fatalf("Update name: %v", err)
	}
	if res.Record.Name != "Renamed" || res.Cascade != nil {
		t.Fatalf("name update: got name=%q cascade=%+v", res.Record.Name, res.Cascade)
	}

	res, err = f.svc.Update(ctx, id, titlememory.Patch{ExistingSkills: []string{"s2", "s1"}}, "tok")
	if err != nil {
		t.Fatalf("Update reorder: %v", err)
	}
	if res.Cascade != nil || len(f.notifier.changes) != 0 {
		t.Fatalf("reordered skills must not cascade: cascade=%+v changes=%d", res.Cascade, len(f.notifier.changes))
	}

	res, err = f.svc.Update(ctx, id, titlememory.Patch{ExistingSkills: []string{"s1", "s3"}}, "tok")
	if err != nil {
		t.Fatalf("Update skills: %v", err)
	}
	if res.Cascade == nil || !res.Cascade.Delivered {
		t.Fatalf("cascade: want delivered got=%+v", res.Cascade)
	}
	if len(f.notifier.changes) != 1 {
		t.Fatalf("changes: want=1 got=%d", len(f.notifier.changes))
	}
	change := f.notifier.changes[0]
	if change.TitleMemoryID != id || change.Status != titlememory.StatusIncomplete {
		t.Fatalf("change: got=%+v", change)
	}
	got := append([]string(nil), change.Skills...)
	sort.Strings(got)
	if strings.Join(got, ",") != "s1,s3" {
		t.Fatalf("change skills: got=%v", change.Skills)
	}
	if len(change.LearningOutcomes) != 1 || change.LearningOutcomes[0].OutcomeID != "o1" {
		t.Fatalf("untouched outcomes must be carried: got=%+v", change.LearningOutcomes)
	}
}

func TestUpdateFailedCascadeStillPersists(t *testing.T) {
	f := newFixture(t)
	f.notifier.err = errors.New("subjects down")
	ctx := context.Background()
	rec, err := f.svc.Create(ctx, validInput("4101"), "owner-1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	res, err := f.svc.Update(ctx, rec.ID.String(), titlememory.Patch{ExistingSkills: []string{"s2"}}, "tok")
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if res.Cascade == nil || res.Cascade.Delivered || res.Cascade.Error == "" {
		t.Fatalf("cascade: want failed outcome got=%+v", res.Cascade)
	}
	stored, err := f.svc.GetByID(ctx, rec.ID.String())
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if strings.Join(stored.Skills, ",") != "s2" {
		t.Fatalf("skills: want=s2 got=%v", stored.Skills)
	}
}

func TestUpdateMissingRecord(t *testing.T) {
	f := newFixture(t)
	name := "x"
	_, err := f.svc.Update(context.Background(), "5b0f7c9e-0000-4000-8000-000000000000", titlememory.Patch{Name: &name}, "tok")
	if got := errCode(err); got != apierr.CodeNotFound {
		t.Fatalf("code: want=%s got=%s", apierr.CodeNotFound, got)
	}
}

func TestSoftDeleteHidesFromListings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rec, err := f.svc.Create(ctx, validInput("5001"), "owner-1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := f.svc.SoftDelete(ctx, rec.ID.String()); err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}
	page, err := f.svc.ListAll(ctx, pagination.Request{})
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if page.Pagination.Total != 0 {
		t.Fatalf("total: want=0 got=%d", page.Pagination.Total)
	}
	stored, err := f.svc.GetByID(ctx, rec.ID.String())
	if err != nil {
		t.Fatalf("GetByID after delete: %v", err)
	}
	if stored.Status != titlememory.StatusDeleted {
		t.Fatalf("status: want=%s got=%s", titlememory.StatusDeleted, stored.Status)
	}
	if err := f.svc.SoftDelete(ctx, "not-a-uuid"); errCode(err) != apierr.CodeNotFound {
		t.Fatalf("bad id: want not found got=%v", err)
	}
	if _, err := f.svc.Create(ctx, validInput("5001"), "owner-1"); err != nil {
		t.Fatalf("reuse titleCode after delete: %v", err)
	}
}

func TestSearchRequiresFilters(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Search(context.Background(), titlememory.SearchRequest{}, "")
	if got := errCode(err); got != apierr.CodeValidation {
		t.Fatalf("code: want=%s got=%s", apierr.CodeValidation, got)
	}
	_, err = f.svc.Search(context.Background(), titlememory.SearchRequest{Filters: &titlememory.SearchFilters{}, FromUser: true}, "")
	if got := errCode(err); got != apierr.CodeUnauthorized {
		t.Fatalf("fromUser without user: want=%s got=%s", apierr.CodeUnauthorized, got)
	}
}

func TestSearchClampsLimit(t *testing.T) {
	f := newFixture(t)
	page, err := f.svc.Search(context.Background(), titlememory.SearchRequest{Filters: &titlememory.SearchFilters{}, Page: -3, Limit: 1000}, "")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if page.Pagination.Page != 1 || page.Pagination.Limit != 100 {
		t.Fatalf("pagination: want page=1 limit=100 got=%+v", page.Pagination)
	}
}

func TestListPermitted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, err := f.svc.Create(ctx, validInput("6001"), "owner-1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := f.svc.Create(ctx, validInput("6002"), "owner-1"); err != nil {
		t.Fatalf("Create: %v", err)
	}

	f.perms.ids = []string{a.ID.String(), "garbage"}
	page, err := f.svc.ListPermitted(ctx, "tok", pagination.Request{})
	if err != nil {
		t.Fatalf("ListPermitted: %v", err)
	}
	if page.Pagination.Total != 1 || page.Data[0].ID != a.ID {
		t.Fatalf("permitted: got=%+v", page.Pagination)
	}

	f.perms.ids = nil
	page, err = f.svc.ListPermitted(ctx, "tok", pagination.Request{})
	if err != nil {
		t.Fatalf("ListPermitted empty: %v", err)
	}
	if page.Pagination.Total != 0 {
		t.Fatalf("no grants must list nothing, got=%d", page.Pagination.Total)
	}

	f.perms.err = errors.New("permissions down")
	if _, err := f.svc.ListPermitted(ctx, "tok", pagination.Request{}); errCode(err) != apierr.CodeUpstream {
		t.Fatalf("want upstream got=%v", err)
	}
}

func TestOwnershipAndMembership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rec, err := f.svc.Create(ctx, validInput("7001"), "owner-1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	id := rec.ID.String()

	cases := []struct {
		user string
		want bool
	}{
		{"owner-1", true},
		{"someone-else", false},
		{"", false},
	}
	for _, tc := range cases {
		got, err := f.svc.CheckOwnership(ctx, id, tc.user)
		if err != nil || got != tc.want {
			t.Fatalf("CheckOwnership(%q): want=%v got=%v err=%v", tc.user, tc.want, got, err)
		}
	}
	if got, err := f.svc.CheckOwnership(ctx, "5b0f7c9e-0000-4000-8000-000000000000", "owner-1"); err != nil || got {
		t.Fatalf("absent record: want false got=%v err=%v", got, err)
	}

	if ok, err := f.svc.HasSkills(ctx, id, []string{"s1"}); err != nil || !ok {
		t.Fatalf("HasSkills present: ok=%v err=%v", ok, err)
	}
	_, err = f.svc.HasSkills(ctx, id, []string{"s1", "s9"})
	apiErr := apierr.As(err)
	if apiErr.Code != apierr.CodeValidation || len(apiErr.Details) != 1 || apiErr.Details[0] != "s9" {
		t.Fatalf("HasSkills missing: got=%v details=%v", err, apiErr.Details)
	}
	if ok, err := f.svc.HasOutcomes(ctx, id, []string{"o1"}); err != nil || !ok {
		t.Fatalf("HasOutcomes present: ok=%v err=%v", ok, err)
	}
	if _, err := f.svc.HasOutcomes(ctx, id, []string{"o2"}); errCode(err) != apierr.CodeValidation {
		t.Fatalf("HasOutcomes missing: got=%v", err)
	}
	if _, err := f.svc.HasSkills(ctx, "5b0f7c9e-0000-4000-8000-000000000000", []string{"s1"}); errCode(err) != apierr.CodeNotFound {
		t.Fatalf("HasSkills absent record: got=%v", err)
	}
}

func TestGetCompetenciesExpands(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rec, err := f.svc.Create(ctx, validInput("8001"), "owner-1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	out, err := f.svc.GetCompetencies(ctx, rec.ID.String())
	if err != nil {
		t.Fatalf("GetCompetencies: %v", err)
	}
	if len(out.Skills) != 1 || out.Skills[0]["_id"] != "s1" {
		t.Fatalf("skills: got=%v", out.Skills)
	}
	if len(out.LearningOutcomes) != 1 || out.LearningOutcomes[0]["_id"] != "o1" {
		t.Fatalf("outcomes: got=%v", out.LearningOutcomes)
	}
}
