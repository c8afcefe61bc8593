package gallery

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/artazzen/gallerybackend/sidecar"
)

func newTestScanner(t *testing.T) (*Scanner, string) {
	t.Helper()
	dir := t.TempDir()
	store := sidecar.NewStore(dir, sidecar.MustLoadSchema())
	return NewScanner(dir, store), dir
}

func touch(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte("not a real image"), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestIsAllowedImage(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"cat.jpg", true},
		{"cat.JPG", true},
		{"cat.jpeg", true},
		{"cat.png", true},
		{"cat.webp", true},
		{"cat.svg", true},
		{"cat.tiff", true},
		{"cat.json", false},
		{"cat.txt", false},
		{"cat", false},
		{"cat.jpg.bak", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsAllowedImage(tt.name); got != tt.want {
				t.Errorf("IsAllowedImage(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestListImages_FiltersAndSorts(t *testing.T) {
	scanner, dir := newTestScanner(t)
	for _, name := range []string{"img10.png", "img2.png", "notes.txt", "img1.PNG", "art.json"} {
		touch(t, dir, name)
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.jpg"), 0755); err != nil {
		t.Fatal(err)
	}

	images := scanner.ListImages()
	var names []string
	for _, img := range images {
		names = append(names, img.Name)
	}

	want := []string{"img1.PNG", "img2.png", "img10.png"}
	if len(names) != len(want) {
		t.Fatalf("ListImages = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("ListImages[%d] = %q, want %q (natural order)", i, names[i], want[i])
		}
	}
}

func TestListImages_MissingDirectory(t *testing.T) {
	store := sidecar.NewStore("/nonexistent/dir", sidecar.MustLoadSchema())
	scanner := NewScanner("/nonexistent/dir", store)
	if images := scanner.ListImages(); len(images) != 0 {
		t.Errorf("expected empty result for missing directory, got %v", images)
	}
}

func TestLoadMetadata_Idempotent(t *testing.T) {
	scanner, dir := newTestScanner(t)
	touch(t, dir, "cat.jpg")
	store := sidecar.NewStore(dir, sidecar.MustLoadSchema())
	if err := store.EnsureExists("cat.jpg", sidecar.Record{"title": "Whiskers"}); err != nil {
		t.Fatal(err)
	}

	first := scanner.LoadMetadata("cat.jpg")
	second := scanner.LoadMetadata("cat.jpg")
	if first.Canonical() != second.Canonical() {
		t.Errorf("LoadMetadata is not idempotent:\n first=%s\nsecond=%s", first.Canonical(), second.Canonical())
	}
}

func TestLoadMetadata_AppliesDefaults(t *testing.T) {
	scanner, dir := newTestScanner(t)
	touch(t, dir, "cat.jpg")

	rec := scanner.LoadMetadata("cat.jpg")
	if rec.Title() != "" || rec.Reviewed() {
		t.Errorf("unexpected defaults: title=%q reviewed=%v", rec.Title(), rec.Reviewed())
	}
	if rec.DetectedAt() == 0 {
		t.Error("LoadMetadata did not stamp detected_at for an undiscovered image")
	}
	if _, ok := rec["ai_details"].(map[string]interface{}); !ok {
		t.Errorf("ai_details = %T, want map", rec["ai_details"])
	}
}

func TestLoadMetadata_RespectsExplicitEmptyOverride(t *testing.T) {
	scanner, dir := newTestScanner(t)
	touch(t, dir, "cat.jpg")
	store := sidecar.NewStore(dir, sidecar.MustLoadSchema())

	// a present-but-empty title is an explicit override; no hint may
	// replace it
	rec := store.Schema().NewRecord()
	if err := store.Write("cat.jpg", rec); err != nil {
		t.Fatal(err)
	}

	loaded := scanner.LoadMetadata("cat.jpg")
	if loaded.Title() != "" {
		t.Errorf("title = %q, want empty (explicit override)", loaded.Title())
	}
}

func TestExtractFallbackHints_NonImage(t *testing.T) {
	scanner, dir := newTestScanner(t)
	touch(t, dir, "cat.jpg")

	// garbage bytes must produce no hints and no panic
	hints := ExtractFallbackHints(scanner.ImagePath("cat.jpg"))
	if hints.Title != "" || hints.Description != "" {
		t.Errorf("expected no hints from non-image bytes, got %+v", hints)
	}

	hints = ExtractFallbackHints(filepath.Join(dir, "missing.jpg"))
	if hints.Title != "" || hints.Description != "" {
		t.Errorf("expected no hints from missing file, got %+v", hints)
	}
}
