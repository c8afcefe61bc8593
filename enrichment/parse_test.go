package enrichment

import "testing"

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name       string
		content    string
		wantStatus string
		wantKey    string
		wantValue  string
	}{
		{
			name:       "plain object",
			content:    `{"title": "Sunset"}`,
			wantStatus: StatusSuccess,
			wantKey:    "title",
			wantValue:  "Sunset",
		},
		{
			name:       "fenced json",
			content:    "```json\n{\"title\": \"Sunset\"}\n```",
			wantStatus: StatusSuccess,
			wantKey:    "title",
			wantValue:  "Sunset",
		},
		{
			name:       "bare fence",
			content:    "```\n{\"title\": \"Sunset\"}\n```",
			wantStatus: StatusSuccess,
			wantKey:    "title",
			wantValue:  "Sunset",
		},
		{
			name:       "object inside prose",
			content:    `Here is the metadata you asked for: {"title": "Sunset"} hope that helps!`,
			wantStatus: StatusSuccess,
			wantKey:    "title",
			wantValue:  "Sunset",
		},
		{
			name:       "braces inside string values",
			content:    `result: {"title": "a {weird} name", "description": "uses \" quotes"}`,
			wantStatus: StatusSuccess,
			wantKey:    "title",
			wantValue:  "a {weird} name",
		},
		{
			name:       "json array is not an object",
			content:    `["one", "two"]`,
			wantStatus: StatusNoJSON,
		},
		{
			name:       "bare string is not an object",
			content:    `"just text"`,
			wantStatus: StatusNoJSON,
		},
		{
			name:       "no json at all",
			content:    `I could not produce metadata for this image.`,
			wantStatus: StatusErrorParse,
		},
		{
			name:       "unbalanced braces",
			content:    `{"title": "Sunset"`,
			wantStatus: StatusErrorParse,
		},
		{
			name:       "empty content",
			content:    "",
			wantStatus: StatusErrorParse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj, status := ExtractJSONObject(tt.content)
			if status != tt.wantStatus {
				t.Fatalf("status = %q, want %q", status, tt.wantStatus)
			}
			if tt.wantStatus != StatusSuccess {
				return
			}
			got, _ := obj[tt.wantKey].(string)
			if got != tt.wantValue {
				t.Errorf("obj[%q] = %q, want %q", tt.wantKey, got, tt.wantValue)
			}
		})
	}
}

func TestFirstBalancedObject_NestedObjects(t *testing.T) {
	content := `noise {"outer": {"inner": 1}, "next": 2} trailing {"second": true}`
	candidate, ok := firstBalancedObject(content)
	if !ok {
		t.Fatal("expected to find an object")
	}
	want := `{"outer": {"inner": 1}, "next": 2}`
	if candidate != want {
		t.Errorf("candidate = %q, want %q", candidate, want)
	}
}
