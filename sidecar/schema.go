package sidecar

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	_ "embed"
)

// schemaDocument is the single source of truth for the sidecar field set.
// Components must consult the loaded schema rather than hard-code field
// names; additionalProperties is false at both levels.
//
//go:embed schema.json
var schemaDocument []byte

const schemaResourceName = "sidecar.schema.json"

// Schema wraps the parsed sidecar schema document together with its compiled
// validator.
type Schema struct {
	doc      map[string]interface{}
	compiled *jsonschema.Schema
}

// LoadSchema parses and compiles the embedded sidecar schema document.
func LoadSchema() (*Schema, error) {
	var doc map[string]interface{}
	if err := json.Unmarshal(schemaDocument, &doc); err != nil {
		return nil, fmt.Errorf("sidecar: failed to parse embedded schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaResourceName, bytes.NewReader(schemaDocument)); err != nil {
		return nil, fmt.Errorf("sidecar: failed to register schema resource: %w", err)
	}
	compiled, err := compiler.Compile(schemaResourceName)
	if err != nil {
		return nil, fmt.Errorf("sidecar: failed to compile schema: %w", err)
	}

	return &Schema{doc: doc, compiled: compiled}, nil
}

// MustLoadSchema is LoadSchema for wiring paths where a broken embedded
// schema is unrecoverable.
func MustLoadSchema() *Schema {
	s, err := LoadSchema()
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Schema) properties() map[string]interface{} {
	props, _ := s.doc["properties"].(map[string]interface{})
	return props
}

// Fields returns the top-level field names defined by the schema document.
func (s *Schema) Fields() []string {
	props := s.properties()
	fields := make([]string, 0, len(props))
	for name := range props {
		fields = append(fields, name)
	}
	return fields
}

// RequiredFields returns the schema's required top-level keys.
func (s *Schema) RequiredFields() []string {
	raw, _ := s.doc["required"].([]interface{})
	fields := make([]string, 0, len(raw))
	for _, v := range raw {
		if name, ok := v.(string); ok {
			fields = append(fields, name)
		}
	}
	return fields
}

// Validate checks a record against the compiled schema.
func (s *Schema) Validate(rec Record) error {
	return s.compiled.Validate(map[string]interface{}(rec))
}

// ApplyDefaults backfills every missing field from the schema's declared
// defaults (falling back to the zero value for the declared type) and coerces
// the handful of stringly-typed values older sidecars are known to contain.
// The record is modified in place and returned for chaining.
func (s *Schema) ApplyDefaults(rec Record) Record {
	if rec == nil {
		rec = Record{}
	}
	props := s.properties()
	for name, rawSpec := range props {
		spec, _ := rawSpec.(map[string]interface{})
		if _, present := rec[name]; present {
			continue
		}
		if def, ok := spec["default"]; ok {
			rec[name] = cloneValue(def)
			continue
		}
		switch spec["type"] {
		case "string":
			rec[name] = ""
		case "boolean":
			rec[name] = false
		case "number":
			rec[name] = 0.0
		case "object":
			rec[name] = map[string]interface{}{}
		case "array":
			rec[name] = []interface{}{}
		}
	}

	if v, ok := rec["reviewed"].(string); ok {
		rec["reviewed"] = coerceBool(v, false)
	}
	if v, ok := rec["ai_generated"].(string); ok {
		rec["ai_generated"] = coerceBool(v, false)
	}
	if v, ok := rec["detected_at"].(string); ok {
		var f float64
		if err := json.Unmarshal([]byte(strings.TrimSpace(v)), &f); err == nil {
			rec["detected_at"] = f
		} else {
			rec["detected_at"] = float64(time.Now().Unix())
		}
	}
	rec["tags"] = NormalizeTags(rec["tags"])

	details, _ := rec["ai_details"].(map[string]interface{})
	if details == nil {
		details = map[string]interface{}{}
	}
	if spec, ok := props["ai_details"].(map[string]interface{}); ok {
		if subProps, ok := spec["properties"].(map[string]interface{}); ok {
			for subName, rawSubSpec := range subProps {
				subSpec, _ := rawSubSpec.(map[string]interface{})
				if _, present := details[subName]; present {
					continue
				}
				if def, ok := subSpec["default"]; ok {
					details[subName] = cloneValue(def)
				}
			}
		}
	}
	rec["ai_details"] = details

	return rec
}

// Prune drops any top-level or ai_details key the schema does not define.
// Only the migration path uses this, after a validation failure: the schema
// closes its property set (additionalProperties false), so a record carrying
// stray keys can never validate until they are removed.
func (s *Schema) Prune(rec Record) Record {
	props := s.properties()
	for key := range rec {
		if _, known := props[key]; !known {
			delete(rec, key)
		}
	}
	details, ok := rec["ai_details"].(map[string]interface{})
	if !ok {
		return rec
	}
	spec, _ := props["ai_details"].(map[string]interface{})
	subProps, _ := spec["properties"].(map[string]interface{})
	for key := range details {
		if _, known := subProps[key]; !known {
			delete(details, key)
		}
	}
	return rec
}

// NewRecord builds a schema-defaulted record with detected_at stamped to the
// current time.
func (s *Schema) NewRecord() Record {
	rec := s.ApplyDefaults(Record{})
	rec["detected_at"] = float64(time.Now().Unix())
	return rec
}

// NormalizeTags canonicalizes the tags field: a comma-separated string or a
// JSON list both become a list of trimmed, non-empty strings.
func NormalizeTags(v interface{}) []interface{} {
	switch tags := v.(type) {
	case string:
		return splitTags(tags)
	case []interface{}:
		out := make([]interface{}, 0, len(tags))
		for _, t := range tags {
			str, ok := t.(string)
			if !ok {
				continue
			}
			if trimmed := strings.TrimSpace(str); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		return out
	case []string:
		out := make([]interface{}, 0, len(tags))
		for _, t := range tags {
			if trimmed := strings.TrimSpace(t); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		return out
	default:
		return []interface{}{}
	}
}

func splitTags(raw string) []interface{} {
	parts := strings.Split(raw, ",")
	out := make([]interface{}, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func coerceBool(raw string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "1", "yes", "y":
		return true
	case "false", "0", "no", "n":
		return false
	}
	return fallback
}

// cloneValue deep-copies schema default values so records never alias the
// parsed schema document.
func cloneValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, item := range val {
			out[k] = cloneValue(item)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return val
	}
}
