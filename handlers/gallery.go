package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/artazzen/gallerybackend/recon"
)

// GalleryHandler serves the public, read-only gallery pages.
type GalleryHandler struct {
	Orch  *recon.Orchestrator
	Title string
}

type galleryPageData struct {
	GalleryTitle  string
	UntitledLabel string
	Artwork       []recon.Item
}

type artworkPageData struct {
	GalleryTitle  string
	UntitledLabel string
	Item          recon.Item
}

// Index renders the gallery front page with every image and its metadata.
func (h *GalleryHandler) Index(w http.ResponseWriter, r *http.Request) {
	renderPage(w, "index.html", galleryPageData{
		GalleryTitle:  h.Title,
		UntitledLabel: untitledLabel,
		Artwork:       h.Orch.All(),
	})
}

// Artwork renders a single artwork highlight page.
func (h *GalleryHandler) Artwork(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "filename")
	item, ok := h.Orch.Get(name)
	if !ok {
		http.NotFound(w, r)
		return
	}
	renderPage(w, "artwork.html", artworkPageData{
		GalleryTitle:  h.Title,
		UntitledLabel: untitledLabel,
		Item:          item,
	})
}
