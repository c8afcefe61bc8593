package gallery

import (
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/facette/natsort"

	"github.com/artazzen/gallerybackend/sidecar"
)

// allowedExtensions is the fixed, case-insensitive allow-list of image file
// extensions the gallery serves.
var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".svg":  true,
	".bmp":  true,
	".tiff": true,
}

// IsAllowedImage reports whether the filename carries an allow-listed image
// extension.
func IsAllowedImage(filename string) bool {
	return allowedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// ImageFile describes one image discovered in the gallery directory.
type ImageFile struct {
	Name    string
	Size    int64
	ModTime int64
}

// Scanner enumerates candidate images and derives fallback metadata for them.
type Scanner struct {
	imagesDir string
	store     *sidecar.Store
}

func NewScanner(imagesDir string, store *sidecar.Store) *Scanner {
	return &Scanner{imagesDir: imagesDir, store: store}
}

// ImagesDir returns the directory the scanner enumerates.
func (s *Scanner) ImagesDir() string { return s.imagesDir }

// ImagePath returns the absolute path of a named image.
func (s *Scanner) ImagePath(name string) string {
	return filepath.Join(s.imagesDir, name)
}

// ListImages lists the gallery directory and keeps only regular files whose
// extension is allow-listed, in natural sort order. A listing failure yields
// an empty result, never an error to the caller.
func (s *Scanner) ListImages() []ImageFile {
	entries, err := os.ReadDir(s.imagesDir)
	if err != nil {
		log.Printf("gallery: error reading image directory %s: %v", s.imagesDir, err)
		return nil
	}

	images := make([]ImageFile, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !IsAllowedImage(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			log.Printf("gallery: error stating %s: %v", entry.Name(), err)
			continue
		}
		if !info.Mode().IsRegular() {
			continue
		}
		images = append(images, ImageFile{
			Name:    entry.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime().Unix(),
		})
	}

	sort.Slice(images, func(i, j int) bool {
		return natsort.Compare(images[i].Name, images[j].Name)
	})
	return images
}

// LoadMetadata reads the stored sidecar for an image, overlays EXIF fallback
// hints for title and description when those keys are missing entirely (an
// explicit empty string in the sidecar is respected as an override), and
// applies schema defaults. It performs no writes and is idempotent.
func (s *Scanner) LoadMetadata(imageName string) sidecar.Record {
	rec, exists := s.store.Read(imageName)

	_, hasTitle := rec["title"]
	_, hasDescription := rec["description"]
	if !hasTitle || !hasDescription {
		hints := ExtractFallbackHints(s.ImagePath(imageName))
		if !hasTitle && hints.Title != "" {
			rec["title"] = hints.Title
		}
		if !hasDescription && hints.Description != "" {
			rec["description"] = hints.Description
		}
	}

	rec = s.store.Schema().ApplyDefaults(rec)
	if !exists && rec.DetectedAt() == 0 {
		rec["detected_at"] = float64(time.Now().Unix())
	}
	return rec
}
