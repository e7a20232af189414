// Package hub multiplexes job status updates to every observer subscribed to
// an owner. It owns the subscriber registry exclusively; connections are
// registered by the transport layer (WebSocket clients, test channels) and
// dropped as soon as a delivery errors.
package hub

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Conn is the push-channel collaborator: any transport capable of delivering
// an update to one connected observer. Send returning an error marks the
// connection dead; delivery is never retried.
type Conn interface {
	Send(update *Update) error
}

// Handle identifies one attached observer connection
type Handle struct {
	ID      string
	OwnerID string
	conn    Conn
}

// Hub maintains owner to subscriber-connection mappings and pushes updates.
// Delivery order across handles for the same owner is unspecified; delivery
// is at-most-once per handle per update.
type Hub struct {
	mu      sync.RWMutex
	byOwner map[string]map[string]*Handle // owner id -> handle id -> handle
	logger  *zap.SugaredLogger
}

// New creates an empty hub
func New(logger *zap.SugaredLogger) *Hub {
	return &Hub{
		byOwner: make(map[string]map[string]*Handle),
		logger:  logger,
	}
}

// Attach registers a connection for an owner and returns its handle
func (h *Hub) Attach(ownerID string, conn Conn) *Handle {
	handle := &Handle{
		ID:      uuid.NewString(),
		OwnerID: ownerID,
		conn:    conn,
	}

	h.mu.Lock()
	owner, ok := h.byOwner[ownerID]
	if !ok {
		owner = make(map[string]*Handle)
		h.byOwner[ownerID] = owner
	}
	owner[handle.ID] = handle
	h.mu.Unlock()

	h.logger.Debugw("Observer attached", "owner_id", ownerID, "handle_id", handle.ID)
	return handle
}

// Detach removes a connection from the registry. Safe to call twice.
func (h *Hub) Detach(handle *Handle) {
	if handle == nil {
		return
	}

	h.mu.Lock()
	h.removeLocked(handle)
	h.mu.Unlock()

	h.logger.Debugw("Observer detached", "owner_id", handle.OwnerID, "handle_id", handle.ID)
}

// PublishUpdate delivers update to every live handle registered for ownerID.
// A handle that errors during delivery is treated as dead and removed.
func (h *Hub) PublishUpdate(ownerID string, update *Update) {
	h.mu.RLock()
	handles := make([]*Handle, 0, len(h.byOwner[ownerID]))
	for _, handle := range h.byOwner[ownerID] {
		handles = append(handles, handle)
	}
	h.mu.RUnlock()

	h.deliver(handles, update)
}

// BroadcastAll delivers update to every live handle regardless of owner,
// used for system-wide notices.
func (h *Hub) BroadcastAll(update *Update) {
	h.mu.RLock()
	var handles []*Handle
	for _, owner := range h.byOwner {
		for _, handle := range owner {
			handles = append(handles, handle)
		}
	}
	h.mu.RUnlock()

	h.deliver(handles, update)
}

// SubscriberCount returns the number of live handles for an owner
func (h *Hub) SubscriberCount(ownerID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byOwner[ownerID])
}

func (h *Hub) deliver(handles []*Handle, update *Update) {
	for _, handle := range handles {
		if err := handle.conn.Send(update); err != nil {
			h.mu.Lock()
			h.removeLocked(handle)
			h.mu.Unlock()

			h.logger.Debugw("Dropping dead observer connection",
				"owner_id", handle.OwnerID,
				"handle_id", handle.ID,
				"error", err,
			)
		}
	}
}

// removeLocked deletes a handle from the registry. Requires h.mu held.
func (h *Hub) removeLocked(handle *Handle) {
	owner, ok := h.byOwner[handle.OwnerID]
	if !ok {
		return
	}
	delete(owner, handle.ID)
	if len(owner) == 0 {
		delete(h.byOwner, handle.OwnerID)
	}
}
