package sidecar

import "encoding/json"

// Record is one image's sidecar metadata document. It is deliberately backed
// by a map rather than a struct so the schema document stays the only place
// the field set is defined.
type Record map[string]interface{}

func (r Record) stringField(key string) string {
	v, _ := r[key].(string)
	return v
}

func (r Record) boolField(key string) bool {
	v, _ := r[key].(bool)
	return v
}

func (r Record) Title() string       { return r.stringField("title") }
func (r Record) Description() string { return r.stringField("description") }
func (r Record) Caption() string     { return r.stringField("caption") }
func (r Record) Author() string      { return r.stringField("author") }
func (r Record) Copyright() string   { return r.stringField("copyright") }

func (r Record) Reviewed() bool    { return r.boolField("reviewed") }
func (r Record) AIGenerated() bool { return r.boolField("ai_generated") }

func (r Record) DetectedAt() float64 {
	v, _ := r["detected_at"].(float64)
	return v
}

// Tags returns the tags field as strings, skipping anything non-string.
func (r Record) Tags() []string {
	raw, _ := r["tags"].([]interface{})
	out := make([]string, 0, len(raw))
	for _, t := range raw {
		if s, ok := t.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// AIDetails returns the embedded enrichment attempt record, never nil.
func (r Record) AIDetails() map[string]interface{} {
	if details, ok := r["ai_details"].(map[string]interface{}); ok {
		return details
	}
	return map[string]interface{}{}
}

// AIStatus returns the status of the last recorded enrichment attempt.
func (r Record) AIStatus() string {
	v, _ := r.AIDetails()["status"].(string)
	return v
}

func (r Record) SetField(key, value string) { r[key] = value }
func (r Record) SetReviewed(v bool)         { r["reviewed"] = v }
func (r Record) SetAIGenerated(v bool)      { r["ai_generated"] = v }

func (r Record) SetTags(tags []string) {
	out := make([]interface{}, len(tags))
	for i, t := range tags {
		out[i] = t
	}
	r["tags"] = out
}

func (r Record) SetAIDetails(details map[string]interface{}) {
	r["ai_details"] = details
}

// Clone deep-copies the record so callers can mutate freely.
func (r Record) Clone() Record {
	if r == nil {
		return Record{}
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = cloneValue(v)
	}
	return out
}

// Canonical returns a stable serialized form used for changed-detection
// (json.Marshal sorts map keys).
func (r Record) Canonical() string {
	data, err := json.Marshal(map[string]interface{}(r))
	if err != nil {
		return ""
	}
	return string(data)
}
