package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/yungbote/titlememory-backend/internal/domain/titlememory"
	"github.com/yungbote/titlememory-backend/internal/platform/httpx"
	"github.com/yungbote/titlememory-backend/internal/platform/logger"
)

type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client talks to the competency catalog (skills and learning outcomes).
type Client struct {
	http *httpx.Client
	log  *logger.Logger
}

func New(log *logger.Logger, cfg Config, obs httpx.Observer) (*Client, error) {
	hc, err := httpx.New("catalog", cfg.BaseURL, cfg.Timeout, log, obs)
	if err != nil {
		return nil, err
	}
	return &Client{http: hc, log: log.With("client", "CatalogClient")}, nil
}

// ValidateSkills reports whether every id exists in the catalog. A client
// error from the catalog means "not all exist"; anything else is a failure.
func (c *Client) ValidateSkills(ctx context.Context, ids []string) (bool, error) {
	return c.validate(ctx, "skills.validate", "/api/skills/validate", map[string][]string{"skillIds": ids})
}

func (c *Client) ValidateLearningOutcomes(ctx context.Context, ids []string) (bool, error) {
	return c.validate(ctx, "outcomes.validate", "/api/learning-outcomes/validate", map[string][]string{"learningOutcomesIds": ids})
}

func (c *Client) validate(ctx context.Context, op, path string, body any) (bool, error) {
	err := c.http.Do(ctx, httpx.Request{Op: op, Method: http.MethodPost, Path: path, Body: body}, nil)
	switch {
	case err == nil:
		return true, nil
	case httpx.HasStatus(err, http.StatusBadRequest, http.StatusNotFound, http.StatusUnprocessableEntity):
		return false, nil
	default:
		return false, err
	}
}

type skillPayload struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Type        string `json:"type,omitempty"`
}

type outcomePayload struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	SkillsID    []string `json:"skills_id"`
}

// CreateSkills creates defs and returns their durable ids in input order.
func (c *Client) CreateSkills(ctx context.Context, defs []titlememory.SkillDefinition) ([]string, error) {
	payload := make([]skillPayload, 0, len(defs))
	for _, d := range defs {
		payload = append(payload, skillPayload{Name: d.Name, Description: d.Description, Type: d.Type})
	}
	var raw json.RawMessage
	if err := c.http.Do(ctx, httpx.Request{
		Op:     "skills.create",
		Method: http.MethodPost,
		Path:   "/api/skills/bulk",
		Body:   map[string]any{"skills": payload},
	}, &raw); err != nil {
		return nil, err
	}
	return createdIDs(raw, len(defs))
}

// CreateLearningOutcomes creates defs, whose skill references must already
// be durable, and returns their ids in input order.
func (c *Client) CreateLearningOutcomes(ctx context.Context, defs []titlememory.OutcomeDefinition) ([]string, error) {
	payload := make([]outcomePayload, 0, len(defs))
	for _, d := range defs {
		skills := d.SkillsID
		if skills == nil {
			skills = []string{}
		}
		payload = append(payload, outcomePayload{Name: d.Name, Description: d.Description, SkillsID: skills})
	}
	var raw json.RawMessage
	if err := c.http.Do(ctx, httpx.Request{
		Op:     "outcomes.create",
		Method: http.MethodPost,
		Path:   "/api/learning-outcomes/bulk",
		Body:   payload,
	}, &raw); err != nil {
		return nil, err
	}
	return createdIDs(raw, len(defs))
}

// GetSkillsByIDs returns the catalog documents as-is.
func (c *Client) GetSkillsByIDs(ctx context.Context, ids []string) ([]map[string]any, error) {
	return c.getAll(ctx, "skills.get", "/api/skills/getAll", map[string][]string{"skillIds": ids})
}

func (c *Client) GetLearningOutcomesByIDs(ctx context.Context, ids []string) ([]map[string]any, error) {
	return c.getAll(ctx, "outcomes.get", "/api/learning-outcomes/getAll", map[string][]string{"learningOutcomesIds": ids})
}

func (c *Client) getAll(ctx context.Context, op, path string, body any) ([]map[string]any, error) {
	var raw json.RawMessage
	if err := c.http.Do(ctx, httpx.Request{Op: op, Method: http.MethodPost, Path: path, Body: body}, &raw); err != nil {
		return nil, err
	}
	docs, err := unwrapList[map[string]any](raw)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", op, err)
	}
	return docs, nil
}

type createdDoc struct {
	MongoID string `json:"_id"`
	ID      string `json:"id"`
}

func (d createdDoc) id() string {
	if s := strings.TrimSpace(d.MongoID); s != "" {
		return s
	}
	return strings.TrimSpace(d.ID)
}

// createdIDs extracts ids from a bulk-create response and enforces the
// one-id-per-input contract.
func createdIDs(raw json.RawMessage, want int) ([]string, error) {
	docs, err := unwrapList[createdDoc](raw)
	if err != nil {
		return nil, fmt.Errorf("catalog bulk create: %w", err)
	}
	if len(docs) != want {
		return nil, fmt.Errorf("catalog bulk create: returned %d records for %d inputs", len(docs), want)
	}
	out := make([]string, 0, len(docs))
	for i, d := range docs {
		id := d.id()
		if id == "" {
			return nil, fmt.Errorf("catalog bulk create: record %d has no id", i)
		}
		out = append(out, id)
	}
	return out, nil
}

// unwrapList accepts either a bare JSON array or an object wrapping it
// under "data".
func unwrapList[T any](raw json.RawMessage) ([]T, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return []T{}, nil
	}
	if strings.HasPrefix(trimmed, "[") {
		var out []T
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, err
		}
		return out, nil
	}
	var env struct {
		Data []T `json:"data"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, err
	}
	if env.Data == nil {
		return []T{}, nil
	}
	return env.Data, nil
}
