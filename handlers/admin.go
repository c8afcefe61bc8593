package handlers

import (
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/artazzen/gallerybackend/media"
	"github.com/artazzen/gallerybackend/recon"
)

const maxUploadMemory = 32 << 20 // 32 MiB before multipart spills to disk

// AdminHandler serves the review workflow: the pending list, uploads,
// metadata saves, and deletions.
type AdminHandler struct {
	Orch  *recon.Orchestrator
	Media media.Store
	Title string
}

type adminPageData struct {
	GalleryTitle string
	Pending      []recon.Item
}

// Page runs a synchronous reconciliation pass (sidecar creation allowed,
// enrichment left to the watcher so page loads stay bounded) and renders the
// pending-review list.
func (h *AdminHandler) Page(w http.ResponseWriter, r *http.Request) {
	pending := h.Orch.Scan(r.Context(), recon.ScanOptions{CreateSidecars: true})
	renderPage(w, "admin.html", adminPageData{
		GalleryTitle: h.Title,
		Pending:      pending,
	})
}

// Upload accepts one or more image files, stores them in the gallery
// directory, and seeds a sidecar for each.
func (h *AdminHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_upload", "failed to parse multipart form")
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		WriteAPIError(w, http.StatusBadRequest, "invalid_upload", "no files submitted")
		return
	}

	for _, header := range files {
		file, err := header.Open()
		if err != nil {
			log.Printf("handlers: error opening uploaded file %s: %v", header.Filename, err)
			continue
		}
		savedName, err := h.Media.Save(header.Filename, file)
		file.Close()
		if err != nil {
			log.Printf("handlers: error saving uploaded file %s: %v", header.Filename, err)
			continue
		}
		if err := h.Orch.Store().EnsureExists(savedName, nil); err != nil {
			log.Printf("handlers: error creating sidecar for upload %s: %v", savedName, err)
		}
	}

	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

// Update records an administrator's review of one image: the submitted
// fields are stored and the record is marked reviewed.
func (h *AdminHandler) Update(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "filename")
	if _, ok := h.Orch.Get(name); !ok {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_form", "failed to parse form")
		return
	}

	fields := map[string]string{}
	for _, f := range []string{"title", "description", "caption", "author", "copyright"} {
		if r.PostForm.Has(f) {
			fields[f] = strings.TrimSpace(r.PostForm.Get(f))
		}
	}
	var tags []string
	if r.PostForm.Has("tags") {
		tags = []string{} // explicit empty clears the field
		for _, t := range strings.Split(r.PostForm.Get("tags"), ",") {
			if trimmed := strings.TrimSpace(t); trimmed != "" {
				tags = append(tags, trimmed)
			}
		}
	}

	if err := h.Orch.ApplyReview(name, fields, tags); err != nil {
		log.Printf("handlers: error saving review for %s: %v", name, err)
		WriteAPIError(w, http.StatusInternalServerError, "save_failed", "failed to save metadata")
		return
	}

	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

// Delete removes an image and its sidecar.
func (h *AdminHandler) Delete(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "filename")

	if err := h.Media.Delete(name); err != nil {
		log.Printf("handlers: error deleting image %s: %v", name, err)
		WriteAPIError(w, http.StatusInternalServerError, "delete_failed", "failed to delete image")
		return
	}
	if err := h.Orch.Store().Delete(name); err != nil {
		log.Printf("handlers: error deleting sidecar for %s: %v", name, err)
	}

	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}
