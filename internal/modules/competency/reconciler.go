package competency

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/titlememory-backend/internal/domain/titlememory"
)

// Reconciler lets a single submission reference skills that do not exist
// yet. New skills get a request-scoped generated id; once the catalog has
// created them, every reference (generated id or skill name) resolves to
// the durable id. A Reconciler serves one request and is not safe for
// concurrent use.
type Reconciler struct {
	newID    func() string
	assigned []string
	durable  map[string]string
	byName   map[string]string
}

func NewReconciler() *Reconciler {
	return &Reconciler{
		newID:   func() string { return "gen_" + uuid.NewString() },
		durable: map[string]string{},
		byName:  map[string]string{},
	}
}

// Assign gives every definition a generated id (keeping one the client
// already supplied) and records its name. It returns the definitions in
// submission order, which is the order Bind expects ids back in.
func (r *Reconciler) Assign(defs []titlememory.SkillDefinition) []titlememory.SkillDefinition {
	out := make([]titlememory.SkillDefinition, 0, len(defs))
	for _, d := range defs {
		gen := strings.TrimSpace(d.GeneratedID)
		if gen == "" {
			gen = r.newID()
		}
		d.GeneratedID = gen
		r.assigned = append(r.assigned, gen)
		if name := strings.TrimSpace(d.Name); name != "" {
			if _, taken := r.byName[name]; !taken {
				r.byName[name] = gen
			}
		}
		out = append(out, d)
	}
	return out
}

// Bind maps the generated ids from Assign to the catalog's durable ids,
// positionally.
func (r *Reconciler) Bind(durableIDs []string) error {
	if len(durableIDs) != len(r.assigned) {
		return fmt.Errorf("reconcile: %d durable ids for %d new skills", len(durableIDs), len(r.assigned))
	}
	for i, gen := range r.assigned {
		r.durable[gen] = durableIDs[i]
	}
	return nil
}

// Resolve maps a reference to a durable id: generated ids first, then
// skill names, and anything else is taken to be durable already.
func (r *Reconciler) Resolve(ref string) string {
	ref = strings.TrimSpace(ref)
	if id, ok := r.durable[ref]; ok {
		return id
	}
	if gen, ok := r.byName[ref]; ok {
		if id, ok := r.durable[gen]; ok {
			return id
		}
	}
	return ref
}

func (r *Reconciler) ResolveAll(refs []string) []string {
	out := make([]string, 0, len(refs))
	for _, ref := range refs {
		out = append(out, r.Resolve(ref))
	}
	return out
}
