package recon

import (
	"context"
	"log"
	"path"
	"sync"

	"github.com/artazzen/gallerybackend/config"
	"github.com/artazzen/gallerybackend/enrichment"
	"github.com/artazzen/gallerybackend/gallery"
	"github.com/artazzen/gallerybackend/lockfile"
	"github.com/artazzen/gallerybackend/sidecar"
	"github.com/artazzen/gallerybackend/workers"
)

// ScanOptions controls one reconciliation pass.
type ScanOptions struct {
	// CreateSidecars allows the pass to synthesize missing sidecars,
	// subject to the cross-process slot limiter.
	CreateSidecars bool
	// Enrich allows the pass to call the enrichment client for blank
	// fields (also gated by the AI settings enable flag).
	Enrich bool
}

// Item is one image in a scan result, carrying the merged record plus the
// derived presentation fields.
type Item struct {
	Name       string         `json:"name"`
	URL        string         `json:"url"`
	HasSidecar bool           `json:"has_sidecar"`
	State      string         `json:"state"`
	Size       int64          `json:"size"`
	ModTime    int64          `json:"mod_time"`
	Record     sidecar.Record `json:"record"`
}

// Orchestrator ties the scanner, metadata store, and enrichment client
// together. It is the explicit dependency object handed to the HTTP layer;
// there is no ambient process state.
type Orchestrator struct {
	scanner  *gallery.Scanner
	store    *sidecar.Store
	client   *enrichment.Client
	settings *config.Settings
	slots    *lockfile.SlotLimiter
	urlBase  string

	pool *workers.EnrichmentPool
}

func NewOrchestrator(scanner *gallery.Scanner, store *sidecar.Store, client *enrichment.Client, settings *config.Settings, slots *lockfile.SlotLimiter, urlBase string) *Orchestrator {
	return &Orchestrator{
		scanner:  scanner,
		store:    store,
		client:   client,
		settings: settings,
		slots:    slots,
		urlBase:  urlBase,
	}
}

// SetPool wires the enrichment worker pool; without one enrichment runs
// inline on the scanning goroutine.
func (o *Orchestrator) SetPool(pool *workers.EnrichmentPool) { o.pool = pool }

// Store exposes the metadata store for the HTTP layer's direct writes.
func (o *Orchestrator) Store() *sidecar.Store { return o.store }

// Scanner exposes the inventory scanner.
func (o *Orchestrator) Scanner() *gallery.Scanner { return o.scanner }

func (o *Orchestrator) imageURL(name string) string {
	return path.Join(o.urlBase, name)
}

// Scan runs one full reconciliation pass and returns every image whose
// reviewed flag is false. It never fails: a per-image problem degrades that
// image's entry to best-effort defaults and the pass continues.
func (o *Orchestrator) Scan(ctx context.Context, opts ScanOptions) []Item {
	images := o.scanner.ListImages()

	creationAllowed := false
	if opts.CreateSidecars {
		if release, ok := o.slots.Acquire(); ok {
			creationAllowed = true
			defer release()
		} else {
			log.Printf("recon: all sidecar-creation slots busy, skipping creation this pass")
		}
	}

	enrich := opts.Enrich && o.settings.AI().Enabled

	var batch sync.WaitGroup
	for _, img := range images {
		_, hasSidecar := o.store.Read(img.Name)
		if !hasSidecar && creationAllowed {
			seed := o.scanner.LoadMetadata(img.Name)
			if err := o.store.EnsureExists(img.Name, seed); err != nil {
				log.Printf("recon: failed to create sidecar for %s: %v", img.Name, err)
				continue
			}
			hasSidecar = true
		}
		if !enrich || !hasSidecar {
			continue
		}
		rec := o.scanner.LoadMetadata(img.Name)
		if rec.Reviewed() || len(missingFields(rec)) == 0 {
			continue
		}
		if o.pool != nil {
			o.pool.Submit(ctx, img.Name, &batch)
		} else {
			o.EnrichImage(ctx, img.Name)
		}
	}
	batch.Wait()

	items := make([]Item, 0, len(images))
	for _, img := range images {
		rec := o.scanner.LoadMetadata(img.Name)
		_, hasSidecar := o.store.Read(img.Name)
		if rec.Reviewed() {
			continue
		}
		items = append(items, Item{
			Name:       img.Name,
			URL:        o.imageURL(img.Name),
			HasSidecar: hasSidecar,
			State:      StateOf(rec, hasSidecar).String(),
			Size:       img.Size,
			ModTime:    img.ModTime,
			Record:     rec,
		})
	}
	return items
}

// All returns every image with its merged record, reviewed or not, for the
// public gallery surface. It performs no writes.
func (o *Orchestrator) All() []Item {
	images := o.scanner.ListImages()
	items := make([]Item, 0, len(images))
	for _, img := range images {
		rec := o.scanner.LoadMetadata(img.Name)
		_, hasSidecar := o.store.Read(img.Name)
		items = append(items, Item{
			Name:       img.Name,
			URL:        o.imageURL(img.Name),
			HasSidecar: hasSidecar,
			State:      StateOf(rec, hasSidecar).String(),
			Size:       img.Size,
			ModTime:    img.ModTime,
			Record:     rec,
		})
	}
	return items
}

// Get returns one image's entry, or ok=false when it does not exist.
func (o *Orchestrator) Get(imageName string) (Item, bool) {
	for _, item := range o.All() {
		if item.Name == imageName {
			return item, true
		}
	}
	return Item{}, false
}

// EnrichImage runs the enrichment pipeline for one image: load, determine
// blank fields, call the client, copy only the requested fields that are
// still blank, and replace ai_details wholesale with the attempt record.
// Implements workers.Enricher.
func (o *Orchestrator) EnrichImage(ctx context.Context, imageName string) {
	rec := o.scanner.LoadMetadata(imageName)
	if rec.Reviewed() {
		return
	}
	missing := missingFields(rec)
	if len(missing) == 0 {
		return
	}
	ai := o.settings.AI()
	if !ai.Enabled {
		return
	}

	result := o.client.Enrich(ctx, enrichment.Request{
		ImageName: imageName,
		ImagePath: o.scanner.ImagePath(imageName),
		Known:     knownFields(rec),
		Missing:   missing,
		Settings:  ai,
	})

	// a skip already recorded on the sidecar is not re-recorded; the
	// attempt trail only changes when the credential state changes
	if result.Status == enrichment.StatusSkippedNoAPIKey && rec.AIStatus() == enrichment.StatusSkippedNoAPIKey {
		return
	}

	filled := false
	for field, value := range result.Fields {
		if field == "tags" {
			if len(rec.Tags()) != 0 {
				continue
			}
			if tags := sidecar.NormalizeTags(value); len(tags) > 0 {
				rec["tags"] = tags
				filled = true
			}
			continue
		}
		current, _ := rec[field].(string)
		if current != "" {
			continue
		}
		if text, ok := value.(string); ok && text != "" {
			rec[field] = text
			filled = true
		}
	}
	if result.Status == enrichment.StatusSuccess && filled {
		rec.SetAIGenerated(true)
	}
	rec.SetAIDetails(result.Attempt.Details())

	if err := o.store.Write(imageName, rec); err != nil {
		log.Printf("recon: failed to write sidecar for %s after enrichment: %v", imageName, err)
	}
}

// MigrateAll ensures every image has a sidecar, reapplies schema defaults,
// validates, and rewrites any record that changed. It never deletes a record
// and always degrades toward schema-conformant defaults.
func (o *Orchestrator) MigrateAll() (total, changed int) {
	schema := o.store.Schema()
	for _, img := range o.scanner.ListImages() {
		total++
		if err := o.store.EnsureExists(img.Name, nil); err != nil {
			log.Printf("recon: failed to ensure sidecar for %s: %v", img.Name, err)
			continue
		}

		rec, _ := o.store.Read(img.Name)
		before := rec.Canonical()
		rec = schema.ApplyDefaults(rec)
		if err := schema.Validate(rec); err != nil {
			log.Printf("recon: %s failed schema validation, reapplying defaults: %v", img.Name, err)
			rec = schema.ApplyDefaults(schema.Prune(rec))
		}
		if after := rec.Canonical(); after != before {
			if err := o.store.Write(img.Name, rec); err != nil {
				log.Printf("recon: failed to rewrite sidecar for %s: %v", img.Name, err)
				continue
			}
			changed++
		}
	}
	log.Printf("recon: validated %d images; updated %d sidecars", total, changed)
	return total, changed
}

// ApplyReview records an administrator's save: the submitted fields replace
// the stored ones, reviewed flips to true, and any AI attribution is cleared.
func (o *Orchestrator) ApplyReview(imageName string, fields map[string]string, tags []string) error {
	rec := o.scanner.LoadMetadata(imageName)
	for _, f := range []string{"title", "description", "caption", "author", "copyright"} {
		if v, ok := fields[f]; ok {
			rec[f] = v
		}
	}
	if tags != nil {
		rec.SetTags(tags)
		rec["tags"] = sidecar.NormalizeTags(rec["tags"])
	}
	rec.SetReviewed(true)
	rec.SetAIGenerated(false)
	return o.store.Write(imageName, rec)
}
