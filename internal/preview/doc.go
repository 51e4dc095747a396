// Package preview defines the domain types and collaborator contracts for
// the link-preview resolution pipeline: the unified preview variant, the
// reconciliation request, and the queue, cache, content-store, fetcher, and
// policy interfaces implemented by the other internal packages.
package preview
