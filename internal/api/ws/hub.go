package ws

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"

	"github.com/papanlab/papan/internal/domain"
	"github.com/papanlab/papan/internal/event"
	"github.com/papanlab/papan/internal/server/middleware"
)

// Hub serves board events over WebSocket as an alternative to the SSE
// stream, for clients that want a duplex connection. Frames and scope
// rules are identical.
type Hub struct {
	bus        *event.Bus
	workspaces domain.WorkspaceRepository
}

func NewHub(bus *event.Bus, workspaces domain.WorkspaceRepository) *Hub {
	return &Hub{bus: bus, workspaces: workspaces}
}

// ServeBoard handles WebSocket connections for board updates of one
// workspace. Membership is verified before the upgrade.
func (h *Hub) ServeBoard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	slug := chi.URLParam(r, "slug")
	ws, err := h.workspaces.GetBySlug(ctx, slug)
	if err != nil {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}
	if _, err := h.workspaces.GetMember(ctx, ws.ID, userID); err != nil {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket accept")
		return
	}
	defer conn.CloseNow()

	workspaceID := ws.ID.String()
	frames := make(chan event.Event, 64)
	unsubscribe := h.bus.Subscribe(func(evt event.Event) {
		if evt.WorkspaceID != workspaceID {
			return
		}
		select {
		case frames <- evt:
		default:
			// Best-effort delivery; the client resyncs via full fetch.
		}
	})
	defer unsubscribe()

	if writeErr := writeEvent(r, conn, event.Event{Type: event.TypeConnected}); writeErr != nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusNormalClosure, "connection closed")
			return
		case evt := <-frames:
			if writeErr := writeEvent(r, conn, evt); writeErr != nil {
				log.Debug().Err(writeErr).Msg("websocket write")
				return
			}
		}
	}
}

func writeEvent(r *http.Request, conn *websocket.Conn, evt event.Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return conn.Write(r.Context(), websocket.MessageText, payload)
}
