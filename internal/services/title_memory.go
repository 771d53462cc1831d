package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/titlememory-backend/internal/data/db"
	"github.com/yungbote/titlememory-backend/internal/data/repos/pagination"
	repo "github.com/yungbote/titlememory-backend/internal/data/repos/titlememory"
	"github.com/yungbote/titlememory-backend/internal/domain/titlememory"
	"github.com/yungbote/titlememory-backend/internal/modules/competency"
	"github.com/yungbote/titlememory-backend/internal/platform/apierr"
	"github.com/yungbote/titlememory-backend/internal/platform/dbctx"
	"github.com/yungbote/titlememory-backend/internal/platform/logger"
	"github.com/yungbote/titlememory-backend/internal/platform/validate"
)

const msgNotFound = "Title memory not found"

var tracer = otel.Tracer("github.com/yungbote/titlememory-backend/internal/services")

type (
	Page = pagination.Result[titlememory.TitleMemory]

	CompetencyMerger interface {
		Merge(ctx context.Context, in titlememory.CompetencyInput) (titlememory.Competencies, error)
		MergeAll(ctx context.Context, in []titlememory.CompetencyInput) ([]titlememory.Competencies, error)
	}
	CascadeTrigger interface {
		Trigger(ctx context.Context, token, recordID string, drift competency.Drift, final titlememory.Competencies) *competency.Outcome
	}
	CompetencyLookup interface {
		GetSkillsByIDs(ctx context.Context, ids []string) ([]map[string]any, error)
		GetLearningOutcomesByIDs(ctx context.Context, ids []string) ([]map[string]any, error)
	}
	PermissionSource interface {
		TitleMemoryIDs(ctx context.Context, token string) ([]string, error)
	}
	WriteRecorder interface {
		RecordWrite(op string, n int)
	}
)

// UpdateResult carries the stored record and, when the cascade policy
// reports, what happened to the subject status notification.
type UpdateResult struct {
	Record  *titlememory.TitleMemory
	Cascade *competency.Outcome
}

// ExpandedCompetencies are a record's skills and outcomes as catalog documents.
type ExpandedCompetencies struct {
	Skills           []map[string]any `json:"skills"`
	LearningOutcomes []map[string]any `json:"learningOutcomes"`
}

type TitleMemoryService interface {
	ListAll(ctx context.Context, page pagination.Request) (*Page, error)
	GetByID(ctx context.Context, id string) (*titlememory.TitleMemory, error)
	GetCompetencies(ctx context.Context, id string) (*ExpandedCompetencies, error)
	Search(ctx context.Context, req titlememory.SearchRequest, userID string) (*Page, error)
	ListByUser(ctx context.Context, userID string, page pagination.Request) (*Page, error)
	ListPermitted(ctx context.Context, token string, page pagination.Request) (*Page, error)
	Create(ctx context.Context, in titlememory.Input, ownerUserID string) (*titlememory.TitleMemory, error)
	BulkCreate(ctx context.Context, in []titlememory.Input, ownerUserID string) ([]*titlememory.TitleMemory, error)
	BulkImportFromFiles(ctx context.Context, files []ImportFile, ownerUserID string) ([]*titlememory.TitleMemory, error)
	Update(ctx context.Context, id string, patch titlememory.Patch, token string) (*UpdateResult, error)
	SoftDelete(ctx context.Context, id string) error
	CheckOwnership(ctx context.Context, id, userID string) (bool, error)
	HasSkills(ctx context.Context, id string, skillIDs []string) (bool, error)
	HasOutcomes(ctx context.Context, id string, outcomeIDs []string) (bool, error)
}

type titleMemoryService struct {
	db           *gorm.DB
	log          *logger.Logger
	repo         repo.TitleMemoryRepo
	merger       CompetencyMerger
	cascade      CascadeTrigger
	lookup       CompetencyLookup
	permissions  PermissionSource
	metrics      WriteRecorder
	maxPageLimit int
}

func NewTitleMemoryService(
	db *gorm.DB,
	baseLog *logger.Logger,
	titleMemoryRepo repo.TitleMemoryRepo,
	merger CompetencyMerger,
	cascade CascadeTrigger,
	lookup CompetencyLookup,
	permissions PermissionSource,
	metrics WriteRecorder,
	maxPageLimit int,
) TitleMemoryService {
	return &titleMemoryService{
		db:           db,
		log:          baseLog.With("service", "TitleMemoryService"),
		repo:         titleMemoryRepo,
		merger:       merger,
		cascade:      cascade,
		lookup:       lookup,
		permissions:  permissions,
		metrics:      metrics,
		maxPageLimit: maxPageLimit,
	}
}

func (s *titleMemoryService) ListAll(ctx context.Context, page pagination.Request) (*Page, error) {
	return s.search(ctx, "ListAll", titlememory.Filter{}, page)
}

func (s *titleMemoryService) GetByID(ctx context.Context, id string) (*titlememory.TitleMemory, error) {
	rec, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *titleMemoryService) GetCompetencies(ctx context.Context, id string) (*ExpandedCompetencies, error) {
	rec, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	out := &ExpandedCompetencies{Skills: []map[string]any{}, LearningOutcomes: []map[string]any{}}
	if s.lookup == nil {
		return nil, apierr.Upstream("competency catalog not configured", nil)
	}
	g, gctx := errgroup.WithContext(ctx)
	if len(rec.Skills) > 0 {
		g.Go(func() error {
			docs, err := s.lookup.GetSkillsByIDs(gctx, rec.Skills)
			if err == nil {
				out.Skills = docs
			}
			return err
		})
	}
	if ids := titlememory.OutcomeIDs(rec.LearningOutcomes); len(ids) > 0 {
		g.Go(func() error {
			docs, err := s.lookup.GetLearningOutcomesByIDs(gctx, ids)
			if err == nil {
				out.LearningOutcomes = docs
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, apierr.Upstream("competency catalog request failed", err)
	}
	return out, nil
}

func (s *titleMemoryService) Search(ctx context.Context, req titlememory.SearchRequest, userID string) (*Page, error) {
	if req.Filters == nil {
		return nil, apierr.Validation("filters object is required")
	}
	f := req.Filters.Filter()
	if req.FromUser {
		if strings.TrimSpace(userID) == "" {
			return nil, apierr.Unauthorized("authentication required to search your own title memories")
		}
		f.UserID = userID
	}
	return s.search(ctx, "Search", f, pagination.Request{Page: req.Page, Limit: req.Limit})
}

func (s *titleMemoryService) ListByUser(ctx context.Context, userID string, page pagination.Request) (*Page, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apierr.Unauthorized("authentication required")
	}
	return s.search(ctx, "ListByUser", titlememory.Filter{UserID: userID}, page)
}

func (s *titleMemoryService) ListPermitted(ctx context.Context, token string, page pagination.Request) (*Page, error) {
	if s.permissions == nil {
		return nil, apierr.Upstream("permissions service not configured", nil)
	}
	granted, err := s.permissions.TitleMemoryIDs(ctx, token)
	if err != nil {
		return nil, apierr.Upstream("permissions service request failed", err)
	}
	allowed := make([]uuid.UUID, 0, len(granted))
	for _, raw := range granted {
		if id, err := uuid.Parse(raw); err == nil {
			allowed = append(allowed, id)
		}
	}
	return s.search(ctx, "ListPermitted", titlememory.Filter{AllowedIDs: allowed}, page)
}

func (s *titleMemoryService) search(ctx context.Context, op string, f titlememory.Filter, page pagination.Request) (*Page, error) {
	ctx, span := tracer.Start(ctx, "TitleMemoryService."+op)
	defer span.End()

	page = page.Normalize(s.maxPageLimit)
	res, err := s.repo.Search(dbctx.Of(ctx), f, page)
	if err != nil {
		return nil, s.fail(span, apierr.Internal(fmt.Errorf("search title memories: %w", err)))
	}
	span.SetAttributes(attribute.Int64("total", res.Pagination.Total))
	return res, nil
}

func (s *titleMemoryService) Create(ctx context.Context, in titlememory.Input, ownerUserID string) (*titlememory.TitleMemory, error) {
	rows, err := s.createAll(ctx, "create", []titlememory.Input{in}, []string{""}, ownerUserID)
	if err != nil {
		return nil, err
	}
	return rows[0], nil
}

func (s *titleMemoryService) BulkCreate(ctx context.Context, in []titlememory.Input, ownerUserID string) ([]*titlememory.TitleMemory, error) {
	labels := make([]string, len(in))
	for i := range in {
		labels[i] = fmt.Sprintf("[%d] ", i)
	}
	return s.createAll(ctx, "create", in, labels, ownerUserID)
}

// createAll validates every input up front, merges each input's
// competencies, then inserts all rows at once. labels prefix validation
// messages per input.
func (s *titleMemoryService) createAll(ctx context.Context, op string, in []titlememory.Input, labels []string, ownerUserID string) ([]*titlememory.TitleMemory, error) {
	ctx, span := tracer.Start(ctx, "TitleMemoryService.Create", trace.WithAttributes(attribute.Int("count", len(in))))
	defer span.End()

	if len(in) == 0 {
		return nil, s.fail(span, apierr.Validation("at least one title memory is required"))
	}
	if details := validateInputs(in, labels); len(details) > 0 {
		return nil, s.fail(span, apierr.Validation("invalid title memory", details...))
	}

	competencies := make([]titlememory.CompetencyInput, 0, len(in))
	for _, input := range in {
		competencies = append(competencies, input.Competencies())
	}
	merged, err := s.merger.MergeAll(ctx, competencies)
	if err != nil {
		var inErr *competency.InputError
		if errors.As(err, &inErr) {
			s.log.Warn("competency merge failed", "index", inErr.Index, "title_code", string(in[inErr.Index].TitleCode), "error", inErr.Err)
			return nil, s.fail(span, mergeError(inErr.Err, labels[inErr.Index]))
		}
		s.log.Warn("competency merge failed", "error", err)
		return nil, s.fail(span, mergeError(err, ""))
	}
	rows := make([]*titlememory.TitleMemory, 0, len(in))
	for i, input := range in {
		rows = append(rows, input.Record(ownerUserID, merged[i]))
	}

	created, err := s.repo.Create(dbctx.Of(ctx), rows)
	if err != nil {
		return nil, s.fail(span, storeError("create title memories", err))
	}
	if s.metrics != nil {
		s.metrics.RecordWrite(op, len(created))
	}
	s.log.Info("title memories created", "op", op, "count", len(created), "user_id", ownerUserID)
	return created, nil
}

func validateInputs(in []titlememory.Input, labels []string) []string {
	var details []string
	seenCodes := map[string]int{}
	for i, input := range in {
		msgs, err := validate.Struct(input)
		if err != nil {
			msgs = append(msgs, err.Error())
		}
		for _, m := range msgs {
			details = append(details, labels[i]+m)
		}
		code := strings.TrimSpace(string(input.TitleCode))
		if code == "" {
			continue
		}
		if first, dup := seenCodes[code]; dup {
			details = append(details, fmt.Sprintf("%stitleCode %s duplicates %s", labels[i], code, strings.TrimSpace(labels[first])))
			continue
		}
		seenCodes[code] = i
	}
	return details
}

func (s *titleMemoryService) Update(ctx context.Context, id string, patch titlememory.Patch, token string) (*UpdateResult, error) {
	ctx, span := tracer.Start(ctx, "TitleMemoryService.Update", trace.WithAttributes(attribute.String("title_memory_id", id)))
	defer span.End()

	if msgs, err := validate.Struct(patch); err != nil || len(msgs) > 0 {
		if err != nil {
			msgs = append(msgs, err.Error())
		}
		return nil, s.fail(span, apierr.Validation("invalid title memory update", msgs...))
	}
	rec, err := s.load(ctx, id)
	if err != nil {
		return nil, s.fail(span, err)
	}

	before := rec.Snapshot()
	final := rec.Snapshot()
	if patch.TouchesSkills() || patch.TouchesOutcomes() {
		merged, err := s.merger.Merge(ctx, patch.Competencies())
		if err != nil {
			s.log.Warn("competency merge failed", "title_memory_id", id, "error", err)
			return nil, s.fail(span, mergeError(err, ""))
		}
		if patch.TouchesSkills() {
			final.Skills = merged.Skills
		}
		if patch.TouchesOutcomes() {
			final.LearningOutcomes = merged.LearningOutcomes
		}
	}

	patch.Apply(rec)
	rec.Skills = datatypes.NewJSONSlice(final.Skills)
	rec.LearningOutcomes = datatypes.NewJSONSlice(final.LearningOutcomes)
	if err := s.repo.Save(dbctx.Of(ctx), rec); err != nil {
		return nil, s.fail(span, storeError("update title memory", err))
	}
	if s.metrics != nil {
		s.metrics.RecordWrite("update", 1)
	}

	drift := competency.Detect(before, final)
	span.SetAttributes(attribute.Bool("drift", drift.Any()))
	result := &UpdateResult{Record: rec}
	if s.cascade != nil {
		result.Cascade = s.cascade.Trigger(ctx, token, rec.ID.String(), drift, final)
	}
	return result, nil
}

func (s *titleMemoryService) SoftDelete(ctx context.Context, id string) error {
	uid, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return apierr.NotFound(msgNotFound)
	}
	ok, err := s.repo.SoftDelete(dbctx.Of(ctx), uid)
	if err != nil {
		return apierr.Internal(fmt.Errorf("soft delete title memory: %w", err))
	}
	if !ok {
		return apierr.NotFound(msgNotFound)
	}
	if s.metrics != nil {
		s.metrics.RecordWrite("delete", 1)
	}
	s.log.Info("title memory soft-deleted", "title_memory_id", uid.String())
	return nil
}

// CheckOwnership is false for unknown ids rather than an error.
func (s *titleMemoryService) CheckOwnership(ctx context.Context, id, userID string) (bool, error) {
	rec, err := s.load(ctx, id)
	if err != nil {
		var apiErr *apierr.Error
		if errors.As(err, &apiErr) && apiErr.Code == apierr.CodeNotFound {
			return false, nil
		}
		return false, err
	}
	userID = strings.TrimSpace(userID)
	return userID != "" && rec.UserID == userID, nil
}

func (s *titleMemoryService) HasSkills(ctx context.Context, id string, skillIDs []string) (bool, error) {
	rec, err := s.load(ctx, id)
	if err != nil {
		return false, err
	}
	if missing := missingFrom(rec.Skills, skillIDs); len(missing) > 0 {
		return false, apierr.Validation("skills are not part of the title memory", missing...)
	}
	return true, nil
}

func (s *titleMemoryService) HasOutcomes(ctx context.Context, id string, outcomeIDs []string) (bool, error) {
	rec, err := s.load(ctx, id)
	if err != nil {
		return false, err
	}
	if missing := missingFrom(titlememory.OutcomeIDs(rec.LearningOutcomes), outcomeIDs); len(missing) > 0 {
		return false, apierr.Validation("learning outcomes are not part of the title memory", missing...)
	}
	return true, nil
}

func (s *titleMemoryService) load(ctx context.Context, id string) (*titlememory.TitleMemory, error) {
	uid, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return nil, apierr.NotFound(msgNotFound)
	}
	rec, err := s.repo.GetByID(dbctx.Of(ctx), uid)
	if err != nil {
		return nil, apierr.Internal(fmt.Errorf("load title memory: %w", err))
	}
	if rec == nil {
		return nil, apierr.NotFound(msgNotFound)
	}
	return rec, nil
}

func (s *titleMemoryService) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func missingFrom(have, want []string) []string {
	set := make(map[string]struct{}, len(have))
	for _, h := range have {
		set[h] = struct{}{}
	}
	var missing []string
	for _, w := range want {
		if _, ok := set[strings.TrimSpace(w)]; !ok {
			missing = append(missing, w)
		}
	}
	return missing
}

// mergeError maps a merge failure; label prefixes the message of a batch input.
func mergeError(err error, label string) error {
	if errors.Is(err, competency.ErrUnknownSkills) || errors.Is(err, competency.ErrUnknownOutcomes) {
		return apierr.Validation(label + err.Error())
	}
	return apierr.Upstream("competency catalog request failed", err)
}

func storeError(op string, err error) error {
	if db.IsDuplicateKey(err) {
		return apierr.Conflict("a title memory with this titleCode already exists")
	}
	return apierr.Internal(fmt.Errorf("%s: %w", op, err))
}
