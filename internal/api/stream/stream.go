package stream

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/papanlab/papan/internal/domain"
	"github.com/papanlab/papan/internal/event"
	"github.com/papanlab/papan/internal/server/middleware"
)

// Handler exposes the event bus as long-lived server-sent event streams.
// A caller subscribes to one scope: a workspace board (workspace=<slug>)
// or their own user channel (user=me). Delivery is best-effort with no
// replay; clients resynchronize through a full board fetch on (re)connect.
type Handler struct {
	bus        *event.Bus
	workspaces domain.WorkspaceRepository
	heartbeat  time.Duration
	buffer     int
}

func NewHandler(bus *event.Bus, workspaces domain.WorkspaceRepository, heartbeat time.Duration, buffer int) *Handler {
	return &Handler{
		bus:        bus,
		workspaces: workspaces,
		heartbeat:  heartbeat,
		buffer:     buffer,
	}
}

// ServeEvents handles GET /events?workspace=<slug> and GET /events?user=me.
// Authorization happens before the first frame: workspace scope requires
// membership and is rejected with 403 otherwise.
func (h *Handler) ServeEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, `{"message":"unauthorized"}`, http.StatusUnauthorized)
		return
	}

	slug := r.URL.Query().Get("workspace")
	userScope := r.URL.Query().Get("user")

	var workspaceID string
	if slug != "" {
		ws, err := h.workspaces.GetBySlug(ctx, slug)
		if err != nil {
			// Unknown slug and non-member look identical to the caller.
			http.Error(w, `{"message":"forbidden"}`, http.StatusForbidden)
			return
		}
		if _, err := h.workspaces.GetMember(ctx, ws.ID, userID); err != nil {
			http.Error(w, `{"message":"forbidden"}`, http.StatusForbidden)
			return
		}
		workspaceID = ws.ID.String()
	} else if userScope == "" {
		http.Error(w, `{"message":"workspace or user required"}`, http.StatusBadRequest)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, `{"message":"streaming unsupported"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache, no-transform")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	// The stream is long-lived by design; drop the server write deadline.
	rc := http.NewResponseController(w)
	_ = rc.SetWriteDeadline(time.Time{})

	// The bus dispatches synchronously, so the listener must never block.
	// Events beyond the buffer are dropped; the client's next full fetch
	// corrects any divergence.
	frames := make(chan event.Event, h.buffer)
	self := userID.String()
	unsubscribe := h.bus.Subscribe(func(evt event.Event) {
		if workspaceID != "" && evt.WorkspaceID == workspaceID {
			enqueue(frames, evt)
		}
		if userScope != "" && evt.UserID == self {
			enqueue(frames, evt)
		}
	})
	defer unsubscribe()

	// Synthetic frame so the client can tell "open, no data yet" from
	// "still connecting".
	if err := writeFrame(w, event.Event{Type: event.TypeConnected}); err != nil {
		return
	}
	flusher.Flush()

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C:
			if _, err := w.Write([]byte(": keep-alive\n\n")); err != nil {
				log.Debug().Err(err).Msg("stream heartbeat write")
				return
			}
			flusher.Flush()
		case evt := <-frames:
			if err := writeFrame(w, evt); err != nil {
				log.Debug().Err(err).Msg("stream event write")
				return
			}
			flusher.Flush()
		}
	}
}

func enqueue(frames chan event.Event, evt event.Event) {
	select {
	case frames <- evt:
	default:
		log.Warn().Str("event_type", string(evt.Type)).Msg("stream buffer full, dropping event")
	}
}

func writeFrame(w http.ResponseWriter, evt event.Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	if _, err := w.Write([]byte("data: ")); err != nil {
		return err
	}
	if _, err := w.Write(payload); err != nil {
		return err
	}
	_, err = w.Write([]byte("\n\n"))
	return err
}
