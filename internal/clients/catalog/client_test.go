package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/titlememory-backend/internal/domain/titlememory"
	"github.com/yungbote/titlememory-backend/internal/platform/logger"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(logger.Nop(), Config{BaseURL: srv.URL, Timeout: time.Second}, nil)
	require.NoError(t, err)
	return c
}

func TestValidateSkillsStatusMapping(t *testing.T) {
	cases := []struct {
		status  int
		want    bool
		wantErr bool
	}{
		{http.StatusOK, true, false},
		{http.StatusBadRequest, false, false},
		{http.StatusNotFound, false, false},
		{http.StatusInternalServerError, false, true},
	}
	for _, tc := range cases {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/skills/validate", r.URL.Path)
			var body map[string][]string
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, []string{"s1", "s2"}, body["skillIds"])
			w.WriteHeader(tc.status)
		})
		ok, err := c.ValidateSkills(context.Background(), []string{"s1", "s2"})
		if tc.wantErr {
			require.Error(t, err, "status %d", tc.status)
			continue
		}
		require.NoError(t, err, "status %d", tc.status)
		require.Equal(t, tc.want, ok, "status %d", tc.status)
	}
}

func TestCreateSkillsPreservesOrderAndStripsGeneratedIDs(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/skills/bulk", r.URL.Path)
		var body struct {
			Skills []map[string]any `json:"skills"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Len(t, body.Skills, 2)
		_, leaked := body.Skills[0]["generated_id"]
		assert.False(t, leaked)
		_ = json.NewEncoder(w).Encode([]map[string]string{{"_id": "d1"}, {"id": "d2"}})
	})
	ids, err := c.CreateSkills(context.Background(), []titlememory.SkillDefinition{
		{Name: "Go", GeneratedID: "g1"},
		{Name: "SQL", GeneratedID: "g2"},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"d1", "d2"}, ids)
}

func TestCreateLearningOutcomesRejectsCountMismatch(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/learning-outcomes/bulk", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{"data": []map[string]string{{"_id": "o1"}}})
	})
	_, err := c.CreateLearningOutcomes(context.Background(), []titlememory.OutcomeDefinition{
		{Name: "a", SkillsID: []string{"s1"}},
		{Name: "b"},
	})
	require.ErrorContains(t, err, "returned 1 records for 2 inputs")
}

func TestGetSkillsByIDs(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/skills/getAll", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{"data": []map[string]string{{"_id": "s1", "name": "Go"}}})
	})
	docs, err := c.GetSkillsByIDs(context.Background(), []string{"s1"})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Equal(t, "Go", docs[0]["name"])
}
