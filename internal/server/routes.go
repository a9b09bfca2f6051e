package server

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	v1 "github.com/papanlab/papan/internal/api/v1"
	"github.com/papanlab/papan/internal/api/ws"
	"github.com/papanlab/papan/internal/auth"
	"github.com/papanlab/papan/internal/event"
	"github.com/papanlab/papan/internal/store/postgres"
)

func registerAuthRoutes(api huma.API, authSvc *auth.Service) {
	v1.RegisterAuthRoutes(api, authSvc)
}

func registerAPIRoutes(api huma.API, store *postgres.Store, bus *event.Bus, authSvc *auth.Service) {
	v1.RegisterMeRoutes(api, authSvc)
	v1.RegisterWorkspaceRoutes(api, store, bus)
	v1.RegisterBoardRoutes(api, store)
	v1.RegisterTaskRoutes(api, store, bus)
	v1.RegisterCommentRoutes(api, store, bus)
	v1.RegisterLabelRoutes(api, store)
	v1.RegisterNotificationRoutes(api, store)
}

func registerWSRoutes(r chi.Router, hub *ws.Hub) {
	r.Get("/board/{slug}", hub.ServeBoard)
}
