package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/titlememory-backend/internal/domain/titlememory"
	"github.com/yungbote/titlememory-backend/internal/platform/apierr"
	"github.com/yungbote/titlememory-backend/internal/platform/validate"
)

// ImportFile is one uploaded or on-disk import document: a JSON (or YAML)
// array of title memory records.
type ImportFile struct {
	Name    string
	Content []byte
}

// importRequired is the field set every imported record must carry.
var importRequired = []string{
	"titleCode", "universities", "centers", "name", "academicLevel", "branch",
	"academicField", "status", "yearDelivery", "totalCredits", "distributedCredits",
	"skills", "learningOutcomes",
}

// BulkImportFromFiles checks every record of every file before creating
// anything. One bad record rejects the whole batch.
func (s *titleMemoryService) BulkImportFromFiles(ctx context.Context, files []ImportFile, ownerUserID string) ([]*titlememory.TitleMemory, error) {
	if len(files) == 0 {
		return nil, apierr.Validation("no import files provided")
	}
	var (
		inputs  []titlememory.Input
		labels  []string
		details []string
	)
	for i, f := range files {
		name := f.Name
		if strings.TrimSpace(name) == "" {
			name = fmt.Sprintf("file %d", i)
		}
		records, err := decodeImportFile(f)
		if err != nil {
			details = append(details, fmt.Sprintf("%s: %v", name, err))
			continue
		}
		if len(records) == 0 {
			details = append(details, fmt.Sprintf("%s: no records", name))
			continue
		}
		for j, raw := range records {
			label := fmt.Sprintf("%s[%d] ", name, j)
			in, violations := decodeImportRecord(raw)
			for _, v := range violations {
				details = append(details, label+v)
			}
			if len(violations) == 0 {
				inputs = append(inputs, in)
				labels = append(labels, label)
			}
		}
	}
	if len(details) > 0 {
		s.log.Warn("import rejected", "files", len(files), "violations", len(details))
		return nil, apierr.Validation("invalid import files", details...)
	}
	return s.createAll(ctx, "import", inputs, labels, ownerUserID)
}

func decodeImportFile(f ImportFile) ([]json.RawMessage, error) {
	content := bytes.TrimSpace(f.Content)
	if len(content) == 0 {
		return nil, fmt.Errorf("file is empty")
	}
	if isYAML(f.Name, content) {
		var doc any
		if err := yaml.Unmarshal(content, &doc); err != nil {
			return nil, fmt.Errorf("invalid YAML: %w", err)
		}
		converted, err := json.Marshal(jsonCompatible(doc))
		if err != nil {
			return nil, fmt.Errorf("invalid YAML: %w", err)
		}
		content = converted
	}
	var records []json.RawMessage
	if err := json.Unmarshal(content, &records); err != nil {
		return nil, fmt.Errorf("expected an array of records: %w", err)
	}
	return records, nil
}

func isYAML(name string, content []byte) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return true
	case ".json":
		return false
	}
	return content[0] != '[' && content[0] != '{'
}

// jsonCompatible turns yaml.v3's generic maps into string-keyed maps.
func jsonCompatible(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			t[k] = jsonCompatible(val)
		}
		return t
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = jsonCompatible(val)
		}
		return out
	case []any:
		for i, val := range t {
			t[i] = jsonCompatible(val)
		}
		return t
	default:
		return v
	}
}

func decodeImportRecord(raw json.RawMessage) (titlememory.Input, []string) {
	var in titlememory.Input
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return in, []string{"record must be an object"}
	}
	var violations []string
	for _, key := range importRequired {
		v, ok := fields[key]
		if !ok || string(bytes.TrimSpace(v)) == "null" {
			violations = append(violations, key+" is required")
		}
	}
	if len(violations) > 0 {
		return in, violations
	}
	if err := json.Unmarshal(raw, &in); err != nil {
		return in, []string{fmt.Sprintf("malformed record: %v", err)}
	}
	msgs, err := validate.Struct(in)
	if err != nil {
		msgs = append(msgs, err.Error())
	}
	return in, msgs
}
