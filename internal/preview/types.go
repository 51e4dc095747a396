// Package preview defines core types shared across subsystems.
package preview

import "time"

// Kind discriminates the preview variants.
type Kind string

// Preview variant tags.
const (
	KindNone  Kind = "none"
	KindBasic Kind = "basic"
	KindPhoto Kind = "photo"
	KindVideo Kind = "video"
)

// Preview is the unified resolution result for one URL. The zero value is
// the none variant: resolution was attempted and found nothing usable.
type Preview struct {
	Kind        Kind   `json:"kind"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
	HTML        string `json:"html,omitempty"`
}

// None returns the explicit "resolved to nothing" marker.
func None() Preview {
	return Preview{Kind: KindNone}
}

// NewBasic returns a basic preview. All fields are optional; an all-empty
// basic preview is still a resolved result, not none.
func NewBasic(title, description, image string) Preview {
	return Preview{
		Kind:        KindBasic,
		Title:       title,
		Description: description,
		Image:       image,
	}
}

// NewPhoto returns a photo preview. A photo without an image collapses to none.
func NewPhoto(image, title, description string) Preview {
	if image == "" {
		return None()
	}
	return Preview{
		Kind:        KindPhoto,
		Title:       title,
		Description: description,
		Image:       image,
	}
}

// NewVideo returns a video preview. A video needs both embed markup and a
// thumbnail; missing either collapses to none.
func NewVideo(image, html, title, description string) Preview {
	if image == "" || html == "" {
		return None()
	}
	return Preview{
		Kind:        KindVideo,
		Title:       title,
		Description: description,
		Image:       image,
		HTML:        html,
	}
}

// IsNone reports whether the preview is the none variant. An unset Kind is
// treated as none so that zero values round-tripped through storage behave.
func (p Preview) IsNone() bool {
	return p.Kind == KindNone || p.Kind == ""
}

// Request is one queued reconciliation: re-render a content item with
// previews for the URLs it mentioned, unless the item changed meanwhile.
type Request struct {
	ItemID          string   `json:"item_id"`
	RealmID         string   `json:"realm_id"`
	URLs            []string `json:"urls"`
	Snapshot        string   `json:"content_snapshot"`
	SenderAutomated bool     `json:"sender_automated"`
	Attempt         int      `json:"attempt"`
	Submitted       int64    `json:"submitted"`
}

// ContentItem is the current state of a stored content item.
type ContentItem struct {
	ID       string `json:"id"`
	RealmID  string `json:"realm_id"`
	Content  string `json:"content"`
	Rendered string `json:"rendered"`
	Snapshot string `json:"snapshot"`
}

// ApplyOutcome reports what the content store did with a re-render.
type ApplyOutcome string

// ApplyPreview outcomes.
const (
	ApplyApplied ApplyOutcome = "applied"
	ApplyStale   ApplyOutcome = "stale"
)

// ReconcileState is the terminal state of one reconciliation pass.
type ReconcileState string

// Terminal reconciliation states, used for logging and metrics.
const (
	ReconcileApplied   ReconcileState = "applied"
	ReconcileDiscarded ReconcileState = "discarded"
	ReconcileSkipped   ReconcileState = "skipped"
	ReconcileFailed    ReconcileState = "failed"
)

// FetchRequest captures everything needed to fetch a URL.
type FetchRequest struct {
	URL     string
	Headers map[string][]string
}

// FetchResponse is the result returned by a Fetcher implementation.
type FetchResponse struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        []byte
	Duration    time.Duration
}
