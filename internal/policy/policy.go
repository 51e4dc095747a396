// Package policy decides whether a reconciliation request may fetch at all.
// The check runs before any network I/O so excluded senders and realms
// never trigger outbound requests.
package policy

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/previewd/previewd/internal/preview"
)

// Gate excludes automated senders and realms with previews disabled.
type Gate struct {
	mu             sync.RWMutex
	disabledRealms map[string]struct{}
	logger         *zap.Logger
}

// NewGate builds a gate from the configured realm list.
func NewGate(disabledRealms []string, logger *zap.Logger) *Gate {
	if logger == nil {
		logger = zap.NewNop()
	}
	disabled := make(map[string]struct{}, len(disabledRealms))
	for _, realm := range disabledRealms {
		disabled[realm] = struct{}{}
	}
	return &Gate{disabledRealms: disabled, logger: logger}
}

// AllowPreview reports whether the request should be processed.
func (g *Gate) AllowPreview(_ context.Context, req preview.Request) (bool, error) {
	if req.SenderAutomated {
		g.logger.Debug("skipping request from automated sender",
			zap.String("item_id", req.ItemID))
		return false, nil
	}
	g.mu.RLock()
	_, disabled := g.disabledRealms[req.RealmID]
	g.mu.RUnlock()
	if disabled {
		g.logger.Debug("skipping request for realm with previews disabled",
			zap.String("item_id", req.ItemID),
			zap.String("realm_id", req.RealmID))
		return false, nil
	}
	return true, nil
}

// SetRealmDisabled toggles previews for one realm at runtime.
func (g *Gate) SetRealmDisabled(realmID string, disabled bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if disabled {
		g.disabledRealms[realmID] = struct{}{}
		return
	}
	delete(g.disabledRealms, realmID)
}
