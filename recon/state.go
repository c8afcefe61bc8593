package recon

import (
	"strings"

	"github.com/artazzen/gallerybackend/sidecar"
)

// ImageState is the explicit per-image reconciliation state, derived fresh
// from disk on every pass. Nothing intermediate is persisted: review
// completion is a single flag flip performed by the admin surface.
type ImageState int

const (
	// Undiscovered: the image has no sidecar yet.
	Undiscovered ImageState = iota
	// NeedsEnrichment: a sidecar exists but at least one enrichable field
	// is blank.
	NeedsEnrichment
	// PendingReview: all fields are filled but no administrator has
	// reviewed the record.
	PendingReview
	// Reviewed: the administrator approved the record.
	Reviewed
)

func (s ImageState) String() string {
	switch s {
	case Undiscovered:
		return "undiscovered"
	case NeedsEnrichment:
		return "needs_enrichment"
	case PendingReview:
		return "pending_review"
	case Reviewed:
		return "reviewed"
	}
	return "unknown"
}

// enrichableFields are the sidecar fields the enrichment client may fill.
// copyright is deliberately excluded: it is only ever set by hand.
var enrichableFields = []string{"title", "description", "caption", "author", "tags"}

// missingFields returns the enrichable fields that are still blank.
func missingFields(rec sidecar.Record) []string {
	var missing []string
	for _, f := range enrichableFields {
		if f == "tags" {
			if len(rec.Tags()) == 0 {
				missing = append(missing, f)
			}
			continue
		}
		if v, _ := rec[f].(string); strings.TrimSpace(v) == "" {
			missing = append(missing, f)
		}
	}
	return missing
}

// knownFields returns the non-blank enrichable fields, used to ground the
// enrichment prompt.
func knownFields(rec sidecar.Record) map[string]string {
	known := make(map[string]string)
	for _, f := range enrichableFields {
		if f == "tags" {
			if tags := rec.Tags(); len(tags) > 0 {
				known[f] = strings.Join(tags, ", ")
			}
			continue
		}
		if v, _ := rec[f].(string); strings.TrimSpace(v) != "" {
			known[f] = strings.TrimSpace(v)
		}
	}
	return known
}

// StateOf classifies one image from its record and sidecar presence.
func StateOf(rec sidecar.Record, hasSidecar bool) ImageState {
	switch {
	case !hasSidecar:
		return Undiscovered
	case rec.Reviewed():
		return Reviewed
	case len(missingFields(rec)) > 0:
		return NeedsEnrichment
	default:
		return PendingReview
	}
}
