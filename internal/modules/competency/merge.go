package competency

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/yungbote/titlememory-backend/internal/domain/titlememory"
	"github.com/yungbote/titlememory-backend/internal/platform/logger"
)

var tracer = otel.Tracer("github.com/yungbote/titlememory-backend/internal/modules/competency")

var (
	ErrUnknownSkills   = errors.New("one or more existing skills do not exist in the catalog")
	ErrUnknownOutcomes = errors.New("one or more existing learning outcomes do not exist in the catalog")
)

// UpstreamError wraps a catalog failure during a merge.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string { return fmt.Sprintf("catalog %s: %v", e.Op, e.Err) }
func (e *UpstreamError) Unwrap() error { return e.Err }

// InputError locates a batch merge failure.
type InputError struct {
	Index int
	Err   error
}

func (e *InputError) Error() string { return fmt.Sprintf("input %d: %v", e.Index, e.Err) }
func (e *InputError) Unwrap() error { return e.Err }

// Merger turns a submission's mix of existing references and new
// definitions into the canonical persisted shape.
type Merger struct {
	catalog Catalog
	log     *logger.Logger
}

func NewMerger(catalog Catalog, log *logger.Logger) *Merger {
	return &Merger{catalog: catalog, log: log.With("module", "CompetencyMerger")}
}

// Merge validates every existing reference before creating anything, then
// creates new skills, rewrites skill references through the reconciler and
// creates new outcomes. The result holds durable ids only. Creation
// failures are returned as *UpstreamError and are not retried; entities
// created before the failure are left in the catalog.
func (m *Merger) Merge(ctx context.Context, in titlememory.CompetencyInput) (titlememory.Competencies, error) {
	ctx, span := tracer.Start(ctx, "competency.Merge")
	defer span.End()
	span.SetAttributes(
		attribute.Int("existing_skills", len(in.ExistingSkills)),
		attribute.Int("new_skills", len(in.NewSkills)),
		attribute.Int("existing_outcomes", len(in.ExistingOutcomes)),
		attribute.Int("new_outcomes", len(in.NewOutcomes)),
	)

	out, err := m.merge(ctx, in)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return out, err
}

// MergeAll merges a batch. Existing references of every input are validated
// before the first catalog create, so an invalid input anywhere in the batch
// leaves the catalog untouched. A failing input is reported as *InputError.
func (m *Merger) MergeAll(ctx context.Context, in []titlememory.CompetencyInput) ([]titlememory.Competencies, error) {
	ctx, span := tracer.Start(ctx, "competency.MergeAll")
	defer span.End()
	span.SetAttributes(attribute.Int("inputs", len(in)))

	for i, input := range in {
		if input.Empty() {
			continue
		}
		if err := m.validateExisting(ctx, input); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, &InputError{Index: i, Err: err}
		}
	}
	out := make([]titlememory.Competencies, 0, len(in))
	for i, input := range in {
		merged, err := m.create(ctx, input)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, &InputError{Index: i, Err: err}
		}
		out = append(out, merged)
	}
	return out, nil
}

func (m *Merger) merge(ctx context.Context, in titlememory.CompetencyInput) (titlememory.Competencies, error) {
	if in.Empty() {
		return titlememory.Competencies{Skills: []string{}, LearningOutcomes: []titlememory.OutcomeLink{}}, nil
	}
	if err := m.validateExisting(ctx, in); err != nil {
		return titlememory.Competencies{}, err
	}
	return m.create(ctx, in)
}

// create assumes the existing references of in were validated.
func (m *Merger) create(ctx context.Context, in titlememory.CompetencyInput) (titlememory.Competencies, error) {
	rec := NewReconciler()
	skills := append([]string{}, in.ExistingSkills...)
	if len(in.NewSkills) > 0 {
		defs := rec.Assign(in.NewSkills)
		ids, err := m.catalog.CreateSkills(ctx, defs)
		if err != nil {
			return titlememory.Competencies{}, &UpstreamError{Op: "create skills", Err: err}
		}
		if err := rec.Bind(ids); err != nil {
			return titlememory.Competencies{}, &UpstreamError{Op: "create skills", Err: err}
		}
		skills = append(skills, ids...)
		m.log.Debug("created skills", "count", len(ids))
	}

	outcomes := make([]titlememory.OutcomeLink, 0, len(in.ExistingOutcomes)+len(in.NewOutcomes))
	for _, link := range in.ExistingOutcomes {
		outcomes = append(outcomes, titlememory.OutcomeLink{
			OutcomeID: strings.TrimSpace(link.OutcomeID),
			SkillIDs:  rec.ResolveAll(link.SkillIDs),
		})
	}

	if len(in.NewOutcomes) > 0 {
		defs := make([]titlememory.OutcomeDefinition, 0, len(in.NewOutcomes))
		for _, d := range in.NewOutcomes {
			d.SkillsID = rec.ResolveAll(d.SkillsID)
			defs = append(defs, d)
		}
		ids, err := m.catalog.CreateLearningOutcomes(ctx, defs)
		if err != nil {
			return titlememory.Competencies{}, &UpstreamError{Op: "create learning outcomes", Err: err}
		}
		if len(ids) != len(defs) {
			return titlememory.Competencies{}, &UpstreamError{
				Op:  "create learning outcomes",
				Err: fmt.Errorf("%d ids for %d outcomes", len(ids), len(defs)),
			}
		}
		for i, id := range ids {
			outcomes = append(outcomes, titlememory.OutcomeLink{OutcomeID: id, SkillIDs: defs[i].SkillsID})
		}
		m.log.Debug("created learning outcomes", "count", len(ids))
	}

	return titlememory.Competencies{Skills: skills, LearningOutcomes: outcomes}, nil
}

func (m *Merger) validateExisting(ctx context.Context, in titlememory.CompetencyInput) error {
	if len(in.ExistingSkills) > 0 {
		ok, err := m.catalog.ValidateSkills(ctx, in.ExistingSkills)
		if err != nil {
			return &UpstreamError{Op: "validate skills", Err: err}
		}
		if !ok {
			return ErrUnknownSkills
		}
	}
	if len(in.ExistingOutcomes) > 0 {
		ok, err := m.catalog.ValidateLearningOutcomes(ctx, titlememory.OutcomeIDs(in.ExistingOutcomes))
		if err != nil {
			return &UpstreamError{Op: "validate learning outcomes", Err: err}
		}
		if !ok {
			return ErrUnknownOutcomes
		}
	}
	return nil
}
