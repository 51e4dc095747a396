package preview

import (
	"context"
	"errors"
	"time"
)

// ErrItemNotFound is returned by ContentStore when the item was deleted or
// never existed. The worker treats it as a stale request, not a failure.
var ErrItemNotFound = errors.New("content item not found")

// Queue provides enqueue/dequeue semantics for reconciliation requests.
// Dequeue blocks until a request is available or the context finishes.
type Queue interface {
	Enqueue(ctx context.Context, req Request) error
	Dequeue(ctx context.Context) (Request, error)
}

// Cache maps an exact URL string to a resolved preview. The none variant is
// cached like any other value. Entries have no expiry.
type Cache interface {
	Get(ctx context.Context, url string) (Preview, bool, error)
	Put(ctx context.Context, url string, p Preview) error
}

// ContentStore reads the current state of a content item and conditionally
// applies a re-render. ApplyPreview succeeds only when the stored snapshot
// still equals expectedSnapshot; otherwise it reports ApplyStale without
// mutating anything.
type ContentStore interface {
	ReadItem(ctx context.Context, itemID string) (ContentItem, error)
	ApplyPreview(ctx context.Context, itemID, expectedSnapshot, rendered string) (ApplyOutcome, error)
}

// Fetcher fetches a URL and returns the body plus metadata. Implementations
// must follow redirects, enforce a timeout, and cap the response size.
type Fetcher interface {
	Fetch(ctx context.Context, request FetchRequest) (FetchResponse, error)
}

// Resolver turns one URL into a preview. Fetch failures are swallowed and
// reported as the none variant, never as errors.
type Resolver interface {
	Resolve(ctx context.Context, url string) Preview
}

// Policy decides, before any network I/O, whether a request is eligible for
// preview resolution at all (tenant feature flag, automated senders).
type Policy interface {
	AllowPreview(ctx context.Context, req Request) (bool, error)
}

// Renderer produces the item's rendered content with the resolved preview
// inlined. A none preview renders the plain content with no embed block.
type Renderer interface {
	Render(item ContentItem, p Preview) (string, error)
}

// Hasher computes the content-identity snapshot for a content body.
type Hasher interface {
	Hash(data []byte) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces request IDs (UUIDs).
type IDGenerator interface {
	NewID() (string, error)
}
