// Package worker implements the reconciliation execution loop.
//
// Each dequeued request makes a single pass: policy check, resolution of
// the request's URLs, then a compare-and-apply against the content store.
// There are no retries at this layer; a request that lost the race with
// an edit is discarded, not requeued.
package worker

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/previewd/previewd/internal/metrics"
	"github.com/previewd/previewd/internal/preview"
)

// Worker consumes reconciliation requests and applies resolved previews.
type Worker struct {
	queue    preview.Queue
	resolver preview.Resolver
	store    preview.ContentStore
	policy   preview.Policy
	renderer preview.Renderer
	logger   *zap.Logger
}

// New constructs a Worker.
func New(
	queue preview.Queue,
	resolver preview.Resolver,
	store preview.ContentStore,
	policy preview.Policy,
	renderer preview.Renderer,
	logger *zap.Logger,
) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{
		queue:    queue,
		resolver: resolver,
		store:    store,
		policy:   policy,
		renderer: renderer,
		logger:   logger,
	}
}

// Run blocks, consuming requests until the context finishes.
func (w *Worker) Run(ctx context.Context) {
	for {
		req, err := w.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.logger.Error("queue dequeue failed", zap.Error(err))
			continue
		}
		w.logger.Debug("dequeued request", zap.String("item_id", req.ItemID))

		metrics.IncActiveWorkers()
		state := w.Process(ctx, req)
		metrics.DecActiveWorkers()
		metrics.ObserveReconciliation(string(state))
	}
}

// Process runs the reconciliation state machine for one request and
// returns its terminal state. Processing the same request twice is safe:
// cache lookups short-circuit repeat fetches and a second apply with
// identical rendered output is a no-op for the content store.
func (w *Worker) Process(ctx context.Context, req preview.Request) preview.ReconcileState {
	allowed, err := w.policy.AllowPreview(ctx, req)
	if err != nil {
		w.logger.Error("policy check failed", zap.String("item_id", req.ItemID), zap.Error(err))
		return preview.ReconcileFailed
	}
	if !allowed {
		w.logger.Debug("request skipped by policy", zap.String("item_id", req.ItemID))
		return preview.ReconcileSkipped
	}

	resolved := w.resolveFirst(ctx, req)

	item, err := w.store.ReadItem(ctx, req.ItemID)
	if err != nil {
		if errors.Is(err, preview.ErrItemNotFound) {
			// The item was removed while we were fetching. The cache is
			// already populated, so the fetch cost is not wasted.
			w.logger.Debug("item removed before apply", zap.String("item_id", req.ItemID))
			return preview.ReconcileDiscarded
		}
		w.logger.Error("read item failed", zap.String("item_id", req.ItemID), zap.Error(err))
		return preview.ReconcileFailed
	}
	if item.Snapshot != req.Snapshot {
		w.logger.Debug("content changed since enqueue",
			zap.String("item_id", req.ItemID))
		return preview.ReconcileDiscarded
	}

	// Apply even when every URL resolved to nothing: the item has to
	// leave its preview-pending state either way.
	rendered, err := w.renderer.Render(item, resolved)
	if err != nil {
		w.logger.Error("render failed", zap.String("item_id", req.ItemID), zap.Error(err))
		return preview.ReconcileFailed
	}
	outcome, err := w.store.ApplyPreview(ctx, req.ItemID, req.Snapshot, rendered)
	if err != nil {
		w.logger.Error("apply preview failed", zap.String("item_id", req.ItemID), zap.Error(err))
		return preview.ReconcileFailed
	}
	if outcome == preview.ApplyStale {
		return preview.ReconcileDiscarded
	}

	w.logger.Info("preview applied",
		zap.String("item_id", req.ItemID),
		zap.String("kind", string(resolved.Kind)),
	)
	return preview.ReconcileApplied
}

// resolveFirst resolves the request's URLs in order and returns the first
// non-none preview. Duplicate URLs are only resolved once, and every
// resolution outcome lands in the cache through the resolver, including
// the empty ones.
func (w *Worker) resolveFirst(ctx context.Context, req preview.Request) preview.Preview {
	seen := make(map[string]struct{}, len(req.URLs))
	for _, url := range req.URLs {
		if _, dup := seen[url]; dup {
			continue
		}
		seen[url] = struct{}{}
		if p := w.resolver.Resolve(ctx, url); !p.IsNone() {
			return p
		}
	}
	return preview.None()
}
