// Package private maintains the group of handlers for node to node access.
package private

import (
	"context"
	"net/http"

	"github.com/ardanlabs/powledger/foundation/blockchain/replicator"
	"github.com/ardanlabs/powledger/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of node to node endpoints.
type Handlers struct {
	Log        *zap.SugaredLogger
	Replicator *replicator.Replicator
}

// Status returns the network status of the node.
func (h Handlers) Status(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.Replicator.Status(), http.StatusOK)
}

// P2P upgrades the request into a peer connection. The connection is owned
// by the replicator once the upgrade succeeds.
func (h Handlers) P2P(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if err := h.Replicator.Accept(w, r); err != nil {
		h.Log.Infow("p2p", "traceid", web.GetTraceID(ctx), "remoteaddr", r.RemoteAddr, "ERROR", err)
		return nil
	}

	web.SetStatusCode(ctx, http.StatusSwitchingProtocols)
	h.Log.Infow("p2p", "traceid", web.GetTraceID(ctx), "status", "peer connected", "remoteaddr", r.RemoteAddr)

	return nil
}
