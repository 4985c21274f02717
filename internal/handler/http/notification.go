package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/cmlabs-hris/staff-hours-go/internal/domain/notification"
	"github.com/cmlabs-hris/staff-hours-go/internal/domain/user"
	"github.com/cmlabs-hris/staff-hours-go/internal/handler/http/response"
	"github.com/cmlabs-hris/staff-hours-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/staff-hours-go/internal/pkg/sse"
	"github.com/go-chi/chi/v5"
)

const streamKeepalive = 30 * time.Second

// NotificationHandler defines the notification handler interface
type NotificationHandler interface {
	// Inbox
	List(w http.ResponseWriter, r *http.Request)
	UnreadCount(w http.ResponseWriter, r *http.Request)
	MarkAsRead(w http.ResponseWriter, r *http.Request)
	MarkAllAsRead(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)

	// SSE
	GetSSEToken(w http.ResponseWriter, r *http.Request)
	Stream(w http.ResponseWriter, r *http.Request)
}

type notificationHandlerImpl struct {
	notifService notification.Service
	jwtService   jwt.Service
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(notifService notification.Service, jwtService jwt.Service) NotificationHandler {
	return &notificationHandlerImpl{
		notifService: notifService,
		jwtService:   jwtService,
	}
}

// currentActor writes 401 and returns false when the request carries no caller
func currentActor(w http.ResponseWriter, r *http.Request) (user.Actor, bool) {
	actor, err := user.ActorFromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return user.Actor{}, false
	}
	return actor, true
}

// getIntQueryParam gets an int query parameter with a default value
func getIntQueryParam(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}
	intVal, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return intVal
}

// getBoolQueryParam gets a bool query parameter with a default value
func getBoolQueryParam(r *http.Request, key string, defaultVal bool) bool {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}
	return val == "true" || val == "1"
}

// List returns the caller's inbox; ?type= narrows it to one notification type
func (h *notificationHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}

	filter := notification.ListFilter{
		Page:       getIntQueryParam(r, "page", 1),
		PageSize:   getIntQueryParam(r, "page_size", 20),
		UnreadOnly: getBoolQueryParam(r, "unread_only", false),
	}
	if t := r.URL.Query().Get("type"); t != "" {
		nt := notification.NotificationType(t)
		filter.Type = &nt
	}

	result, err := h.notifService.GetNotifications(r.Context(), actor.UserID, filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, result)
}

func (h *notificationHandlerImpl) UnreadCount(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}

	count, err := h.notifService.GetUnreadCount(r.Context(), actor.UserID)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, notification.UnreadCountResponse{UnreadCount: count})
}

func (h *notificationHandlerImpl) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}

	var req notification.MarkAsReadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	if len(req.NotificationIDs) == 0 {
		response.ValidationError(w, map[string]string{"notification_ids": "at least one id is required"})
		return
	}

	if err := h.notifService.MarkAsRead(r.Context(), actor.UserID, req); err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Notifications marked as read", nil)
}

func (h *notificationHandlerImpl) MarkAllAsRead(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}

	if err := h.notifService.MarkAllAsRead(r.Context(), actor.UserID); err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "All notifications marked as read", nil)
}

func (h *notificationHandlerImpl) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}

	if err := h.notifService.Delete(r.Context(), actor.UserID, chi.URLParam(r, "id")); err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Notification deleted", nil)
}

// GetSSEToken mints the short-lived token the event stream is opened with
func (h *notificationHandlerImpl) GetSSEToken(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}

	token, expiresIn, err := h.jwtService.GenerateSSEToken(actor.UserID, actor.Role)
	if err != nil {
		slog.Error("Failed to generate SSE token", "user_id", actor.UserID, "error", err)
		response.InternalServerError(w, "Failed to generate SSE token")
		return
	}

	response.Success(w, notification.SSETokenResponse{
		Token:     token,
		ExpiresIn: expiresIn,
	})
}

// writeEvent writes one SSE frame; id is omitted when empty
func writeEvent(w http.ResponseWriter, flusher http.Flusher, id, event string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if id != "" {
		fmt.Fprintf(w, "id: %s\n", id)
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload)
	flusher.Flush()
	return nil
}

// Stream pushes notifications and cache invalidations to the caller.
// EventSource cannot send headers, so the SSE token comes in ?token=.
func (h *notificationHandlerImpl) Stream(w http.ResponseWriter, r *http.Request) {
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		response.Unauthorized(w, "Missing token")
		return
	}

	userID, role, err := h.jwtService.ValidateSSEToken(tokenStr)
	if err != nil {
		response.Unauthorized(w, "Invalid token")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		response.InternalServerError(w, "Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	// Approvers also receive management-wide cache invalidations
	var channels []string
	if user.HasPermission(role, user.PermissionHoursViewAll) {
		channels = append(channels, sse.AdminChannel)
	}

	events, cleanup := h.notifService.Subscribe(r.Context(), userID, channels...)
	defer cleanup()

	writeEvent(w, flusher, "", "connected", map[string]string{"status": "connected", "user_id": userID})

	keepalive := time.NewTicker(streamKeepalive)
	defer keepalive.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := writeEvent(w, flusher, event.ID, event.Event, event.Data); err != nil {
				slog.Warn("Dropping unencodable SSE event", "event", event.Event, "error", err)
			}

		case <-keepalive.C:
			writeEvent(w, flusher, "", "ping", map[string]int64{"timestamp": time.Now().Unix()})

		case <-r.Context().Done():
			return
		}
	}
}
