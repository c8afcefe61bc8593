package media

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSave(t *testing.T) {
	dir := t.TempDir()
	ls, err := NewLocalStorage(dir)
	if err != nil {
		t.Fatal(err)
	}

	name, err := ls.Save("cat.png", strings.NewReader("png-bytes"))
	if err != nil {
		t.Fatal(err)
	}
	if name != "cat.png" {
		t.Errorf("saved name = %q, want cat.png", name)
	}
	data, err := os.ReadFile(filepath.Join(dir, "cat.png"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "png-bytes" {
		t.Errorf("file contents = %q", data)
	}
}

func TestSaveCollisionGetsNewName(t *testing.T) {
	ls, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	first, err := ls.Save("cat.png", strings.NewReader("one"))
	if err != nil {
		t.Fatal(err)
	}
	second, err := ls.Save("cat.png", strings.NewReader("two"))
	if err != nil {
		t.Fatal(err)
	}
	if second == first {
		t.Fatal("collision reused the original name")
	}
	if !strings.HasPrefix(second, "cat-") || !strings.HasSuffix(second, ".png") {
		t.Errorf("collision name = %q, want cat-<suffix>.png", second)
	}

	// the original is untouched
	path, err := ls.FullPath(first)
	if err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "one" {
		t.Errorf("original contents = %q, want one", data)
	}
}

func TestSaveRejectsUnsupportedType(t *testing.T) {
	ls, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ls.Save("script.sh", strings.NewReader("#!/bin/sh")); err == nil {
		t.Error("unsupported extension was accepted")
	}
}

func TestSaveStripsDirectoryComponents(t *testing.T) {
	dir := t.TempDir()
	ls, err := NewLocalStorage(dir)
	if err != nil {
		t.Fatal(err)
	}
	name, err := ls.Save("../../escape.png", strings.NewReader("x"))
	if err != nil {
		t.Fatal(err)
	}
	if name != "escape.png" {
		t.Errorf("saved name = %q, want escape.png", name)
	}
	if _, err := os.Stat(filepath.Join(dir, "escape.png")); err != nil {
		t.Errorf("file not stored inside the images directory: %v", err)
	}
}

func TestFullPathRejectsTraversal(t *testing.T) {
	ls, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ls.FullPath("../outside.png"); err == nil {
		t.Error("traversal path was resolved")
	}
}

func TestDeleteMissingFileIsNotAnError(t *testing.T) {
	ls, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := ls.Delete("never-existed.png"); err != nil {
		t.Errorf("Delete returned %v for a missing file", err)
	}
}
