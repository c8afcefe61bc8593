package sidecar

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Store reads and writes one JSON sidecar document per image, atomically.
// Writes from multiple goroutines in this process are serialized by a local
// mutex; cross-process safety comes only from the atomic temp-file + rename,
// where the last rename wins.
type Store struct {
	imagesDir string
	schema    *Schema
	writeMu   sync.Mutex
}

func NewStore(imagesDir string, schema *Schema) *Store {
	return &Store{imagesDir: imagesDir, schema: schema}
}

// SidecarPath derives the sidecar location for an image: same stem, .json
// extension, adjacent to the image file.
func (s *Store) SidecarPath(imageName string) string {
	stem := strings.TrimSuffix(imageName, filepath.Ext(imageName))
	return filepath.Join(s.imagesDir, stem+".json")
}

// Schema exposes the schema the store validates against.
func (s *Store) Schema() *Schema { return s.schema }

// Read returns the parsed sidecar for an image. A missing file and an
// unparseable file both yield an empty record; the caller is expected to
// reapply schema defaults either way. The second return reports whether a
// sidecar file is present on disk at all.
func (s *Store) Read(imageName string) (Record, bool) {
	path := s.SidecarPath(imageName)
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("sidecar: error reading %s: %v", path, err)
			return Record{}, true
		}
		return Record{}, false
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		log.Printf("sidecar: %s contains invalid JSON, treating as empty: %v", path, err)
		return Record{}, true
	}
	if rec == nil {
		rec = Record{}
	}
	return rec, true
}

// EnsureExists creates a sidecar from schema defaults overlaid with the known
// fields of seed if none exists yet. It never touches an existing file, no
// matter what that file contains.
func (s *Store) EnsureExists(imageName string, seed Record) error {
	path := s.SidecarPath(imageName)
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("sidecar: failed to stat %s: %w", path, err)
	}

	rec := s.schema.NewRecord()
	for key, value := range seed {
		if value == nil {
			continue
		}
		rec[key] = cloneValue(value)
	}
	rec["tags"] = NormalizeTags(rec["tags"])

	return s.Write(imageName, rec)
}

// Write serializes the full record and atomically replaces the sidecar file:
// the document is written to a uniquely named temp file in the same
// directory, flushed, then renamed over the destination. A reader can never
// observe a half-written sidecar.
func (s *Store) Write(imageName string, rec Record) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	path := s.SidecarPath(imageName)
	data, err := json.MarshalIndent(map[string]interface{}(rec), "", "  ")
	if err != nil {
		return fmt.Errorf("sidecar: failed to serialize record for %s: %w", imageName, err)
	}
	data = append(data, '\n')

	tmpPath := filepath.Join(s.imagesDir, fmt.Sprintf(".%s.%s.tmp", filepath.Base(path), uuid.NewString()))
	tmp, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return fmt.Errorf("sidecar: failed to create temp file for %s: %w", path, err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("sidecar: failed to write temp file for %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("sidecar: failed to flush temp file for %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("sidecar: failed to close temp file for %s: %w", path, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("sidecar: failed to replace %s: %w", path, err)
	}
	return nil
}

// Delete removes the sidecar for an image. A missing sidecar is not an error.
func (s *Store) Delete(imageName string) error {
	path := s.SidecarPath(imageName)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("sidecar: failed to delete %s: %w", path, err)
	}
	return nil
}
