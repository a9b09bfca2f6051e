package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/papanlab/papan/internal/domain"
)

type ListNotificationsInput struct {
	Limit int `query:"limit" default:"50" minimum:"1" maximum:"200" doc:"Maximum notifications to return"`
}

type ListNotificationsOutput struct {
	Body struct {
		Notifications []*domain.Notification `json:"notifications"`
		Unread        int                    `json:"unread"`
	}
}

type MarkNotificationsReadInput struct {
	Body struct {
		IDs []uuid.UUID `json:"ids,omitempty" doc:"Notification IDs to mark read; empty marks all"`
	}
}

func RegisterNotificationRoutes(api huma.API, store DataStore) {
	huma.Register(api, huma.Operation{
		OperationID: "list-notifications",
		Method:      http.MethodGet,
		Path:        "/notifications",
		Summary:     "List the caller's notifications",
		Tags:        []string{"Notifications"},
	}, func(ctx context.Context, input *ListNotificationsInput) (*ListNotificationsOutput, error) {
		userID, err := currentUser(ctx)
		if err != nil {
			return nil, err
		}

		notifications, err := store.Notifications().ListByUser(ctx, userID, input.Limit)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list notifications", err)
		}
		unread, err := store.Notifications().CountUnread(ctx, userID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to count unread", err)
		}

		out := &ListNotificationsOutput{}
		out.Body.Notifications = notifications
		if out.Body.Notifications == nil {
			out.Body.Notifications = []*domain.Notification{}
		}
		out.Body.Unread = unread
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "mark-notifications-read",
		Method:      http.MethodPost,
		Path:        "/notifications/read",
		Summary:     "Mark notifications as read",
		Tags:        []string{"Notifications"},
	}, func(ctx context.Context, input *MarkNotificationsReadInput) (*struct{}, error) {
		userID, err := currentUser(ctx)
		if err != nil {
			return nil, err
		}

		if len(input.Body.IDs) == 0 {
			if err := store.Notifications().MarkAllRead(ctx, userID); err != nil {
				return nil, huma.Error500InternalServerError("failed to mark all read", err)
			}
			return nil, nil
		}

		if err := store.Notifications().MarkRead(ctx, userID, input.Body.IDs); err != nil {
			return nil, huma.Error500InternalServerError("failed to mark read", err)
		}
		return nil, nil
	})
}
