package titlememory

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// TitleCode is stored as text but accepted as either a JSON number or string.
type TitleCode string

func (c *TitleCode) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*c = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*c = TitleCode(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("titleCode must be a number or string")
	}
	*c = TitleCode(n.String())
	return nil
}

func (c TitleCode) String() string { return string(c) }

// OutcomeLink maps one learning outcome to the skills it exercises. On the
// wire it is a single-key object: {"<outcomeId>": ["<skillId>", ...]}.
type OutcomeLink struct {
	OutcomeID string
	SkillIDs  []string
}

func (l OutcomeLink) MarshalJSON() ([]byte, error) {
	skills := l.SkillIDs
	if skills == nil {
		skills = []string{}
	}
	return json.Marshal(map[string][]string{l.OutcomeID: skills})
}

func (l *OutcomeLink) UnmarshalJSON(b []byte) error {
	var m map[string][]string
	if err := json.Unmarshal(b, &m); err != nil {
		return fmt.Errorf("learning outcome mapping must be {\"<id>\": [skillIds]}: %w", err)
	}
	if len(m) != 1 {
		return fmt.Errorf("learning outcome mapping must have exactly one key, got %d", len(m))
	}
	for k, v := range m {
		l.OutcomeID = k
		l.SkillIDs = v
	}
	return nil
}

func CloneLinks(in []OutcomeLink) []OutcomeLink {
	out := make([]OutcomeLink, 0, len(in))
	for _, l := range in {
		out = append(out, OutcomeLink{OutcomeID: l.OutcomeID, SkillIDs: append([]string(nil), l.SkillIDs...)})
	}
	return out
}

// OutcomeIDs lists the outcome ids of links in order.
func OutcomeIDs(links []OutcomeLink) []string {
	out := make([]string, 0, len(links))
	for _, l := range links {
		out = append(out, l.OutcomeID)
	}
	return out
}

// SkillDefinition is a skill that does not exist in the catalog yet.
// GeneratedID is a request-scoped token other definitions may reference
// before the skill has a durable id.
type SkillDefinition struct {
	Name        string `json:"name" validate:"notblank"`
	Description string `json:"description,omitempty"`
	Type        string `json:"type,omitempty"`
	GeneratedID string `json:"generated_id,omitempty"`
}

// OutcomeDefinition is a learning outcome to be created in the catalog.
// SkillsID may mix durable skill ids, generated ids and skill names.
type OutcomeDefinition struct {
	Name        string   `json:"name" validate:"notblank"`
	Description string   `json:"description,omitempty"`
	SkillsID    []string `json:"skills_id"`
}

// SkillRef is one entry of the "skills" input: a durable id (JSON string)
// or a new definition (JSON object).
type SkillRef struct {
	ID  string
	New *SkillDefinition
}

func (r SkillRef) MarshalJSON() ([]byte, error) {
	if r.New != nil {
		return json.Marshal(r.New)
	}
	return json.Marshal(r.ID)
}

func (r *SkillRef) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return errors.New("empty skill entry")
	}
	switch b[0] {
	case '"':
		var id string
		if err := json.Unmarshal(b, &id); err != nil {
			return err
		}
		*r = SkillRef{ID: strings.TrimSpace(id)}
		return nil
	case '{':
		var def SkillDefinition
		if err := json.Unmarshal(b, &def); err != nil {
			return err
		}
		*r = SkillRef{New: &def}
		return nil
	default:
		return errors.New("skill entry must be an id string or a skill object")
	}
}

// OutcomeRef is one entry of the "learningOutcomes" input: an existing
// mapping ({"<id>": [...]}) or a new definition.
type OutcomeRef struct {
	Link *OutcomeLink
	New  *OutcomeDefinition
}

func (r OutcomeRef) MarshalJSON() ([]byte, error) {
	if r.New != nil {
		return json.Marshal(r.New)
	}
	if r.Link != nil {
		return json.Marshal(r.Link)
	}
	return []byte("null"), nil
}

func (r *OutcomeRef) UnmarshalJSON(b []byte) error {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(b, &probe); err != nil {
		return errors.New("learning outcome entry must be an object")
	}
	if len(probe) == 1 {
		for k, v := range probe {
			trimmed := bytes.TrimSpace(v)
			if len(trimmed) > 0 && trimmed[0] == '[' && k != "skills_id" {
				var link OutcomeLink
				if err := json.Unmarshal(b, &link); err != nil {
					return err
				}
				*r = OutcomeRef{Link: &link}
				return nil
			}
		}
	}
	var def OutcomeDefinition
	if err := json.Unmarshal(b, &def); err != nil {
		return err
	}
	*r = OutcomeRef{New: &def}
	return nil
}
