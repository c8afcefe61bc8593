package media

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/artazzen/gallerybackend/gallery"
)

// Store saves and removes gallery image files. The sidecar lifecycle is the
// reconciliation pipeline's job, not the store's; callers pair a Save with a
// sidecar EnsureExists themselves.
type Store interface {
	// Save stores uploaded data under the images directory and returns the
	// filename actually used (which may differ from the hint on collision).
	Save(filenameHint string, data io.Reader) (string, error)
	// Delete removes an image file. A missing file is not an error.
	Delete(filename string) error
	// FullPath resolves a filename to an absolute path inside the images
	// directory, rejecting traversal attempts.
	FullPath(filename string) (string, error)
}

// LocalStorage implements Store on the local filesystem.
type LocalStorage struct {
	basePath string
}

func NewLocalStorage(imagesPath string) (*LocalStorage, error) {
	absBasePath, err := filepath.Abs(imagesPath)
	if err != nil {
		return nil, fmt.Errorf("invalid images path '%s': %w", imagesPath, err)
	}
	if err := os.MkdirAll(absBasePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create images directory '%s': %w", absBasePath, err)
	}
	return &LocalStorage{basePath: absBasePath}, nil
}

func (ls *LocalStorage) Save(filenameHint string, data io.Reader) (string, error) {
	name := filepath.Base(filenameHint)
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "", fmt.Errorf("invalid filename '%s'", filenameHint)
	}
	if !gallery.IsAllowedImage(name) {
		return "", fmt.Errorf("unsupported image type '%s'", filepath.Ext(name))
	}

	fullSavePath := filepath.Join(ls.basePath, name)
	if _, err := os.Stat(fullSavePath); err == nil {
		ext := filepath.Ext(name)
		stem := strings.TrimSuffix(name, ext)
		name = fmt.Sprintf("%s-%s%s", stem, uuid.NewString()[:8], ext)
		fullSavePath = filepath.Join(ls.basePath, name)
	}

	outFile, err := os.Create(fullSavePath)
	if err != nil {
		return "", fmt.Errorf("failed to create destination file '%s': %w", fullSavePath, err)
	}
	defer outFile.Close()

	if _, err := io.Copy(outFile, data); err != nil {
		outFile.Close()
		os.Remove(fullSavePath)
		return "", fmt.Errorf("failed to write data to '%s': %w", fullSavePath, err)
	}

	log.Printf("media: saved image %s", fullSavePath)
	return name, nil
}

func (ls *LocalStorage) Delete(filename string) error {
	fullPath, err := ls.FullPath(filename)
	if err != nil {
		return err
	}
	err = os.Remove(fullPath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete image '%s': %w", filename, err)
	}
	if err == nil {
		log.Printf("media: deleted image %s", fullPath)
	}
	return nil
}

func (ls *LocalStorage) FullPath(filename string) (string, error) {
	cleaned := filepath.Clean(filename)
	fullPath := filepath.Join(ls.basePath, cleaned)

	absFullPath, err := filepath.Abs(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path for '%s': %w", filename, err)
	}
	if !strings.HasPrefix(absFullPath, ls.basePath+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid path: access denied for '%s'", filename)
	}
	return absFullPath, nil
}
