package services

import (
	"fmt"
	"sync"
	"time"

	"retail_pos_backend/internal/models"
	"retail_pos_backend/internal/repositories"
	"retail_pos_backend/pkg/utils"

	evbus "github.com/asaskevich/EventBus"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

const (
	// maxNotifications caps the per-account list; oldest entries are evicted.
	maxNotifications = 100
	// displayWindow is how long a non-persistent notification stays visible.
	displayWindow = 5 * time.Second
	// webhookTimeout bounds the optional outbound webhook call.
	webhookTimeout = 5 * time.Second
)

// NotificationRequest describes a new notification. Type defaults to "info"
// and Priority to "medium" when empty.
type NotificationRequest struct {
	Type       string `json:"type"`
	Title      string `json:"title" binding:"required"`
	Message    string `json:"message" binding:"required"`
	Priority   string `json:"priority"`
	Category   string `json:"category"`
	Persistent bool   `json:"persistent"`
}

// NotificationService keeps a capped, most-recent-first notification list per
// account. Non-persistent entries expire after a short display window;
// subscribers get the full list replayed on every change. High-priority
// notifications are additionally forwarded to the account's webhook, if set.
type NotificationService interface {
	Notify(userID int64, req NotificationRequest) (*models.Notification, error)
	List(userID int64) ([]models.Notification, error)
	UnreadCount(userID int64) (int, error)
	MarkAsRead(userID int64, id string) error
	MarkAllAsRead(userID int64) error
	Remove(userID int64, id string) error
	ClearAll(userID int64) error
	Subscribe(userID int64, fn func([]models.Notification)) (func(), error)
	Stop()
}

type notificationService struct {
	store    repositories.Store
	settings SettingsService
	bus      evbus.Bus
	webhook  *resty.Client

	mu      sync.Mutex
	lists   map[int64][]models.Notification // newest first
	timers  map[string]*time.Timer
	stopped bool
}

func NewNotificationService(store repositories.Store, settings SettingsService, bus evbus.Bus) NotificationService {
	client := resty.New().
		SetTimeout(webhookTimeout).
		SetRetryCount(1)
	return &notificationService{
		store:    store,
		settings: settings,
		bus:      bus,
		webhook:  client,
		lists:    make(map[int64][]models.Notification),
		timers:   make(map[string]*time.Timer),
	}
}

func notificationTopic(userID int64) string {
	return fmt.Sprintf("notifications:%d", userID)
}

// ensureLoaded lazily hydrates an account's list from the store. Only
// persistent entries survive a restart; transient toasts are dropped.
// Caller must hold s.mu.
func (s *notificationService) ensureLoaded(userID int64) error {
	if _, ok := s.lists[userID]; ok {
		return nil
	}
	saved, err := s.store.Notifications().LoadAll(userID)
	if err != nil {
		return err
	}
	list := make([]models.Notification, 0, len(saved))
	for _, n := range saved {
		if n.Persistent {
			list = append(list, n)
		}
	}
	s.lists[userID] = list
	return nil
}

func (s *notificationService) Notify(userID int64, req NotificationRequest) (*models.Notification, error) {
	if req.Title == "" || req.Message == "" {
		return nil, fmt.Errorf("%w: notification title and message are required", ErrValidation)
	}
	if req.Type == "" {
		req.Type = models.NotificationInfo
	}
	if req.Priority == "" {
		req.Priority = models.PriorityMedium
	}

	n := models.Notification{
		ID:         uuid.NewString(),
		UserID:     userID,
		Type:       req.Type,
		Title:      req.Title,
		Message:    req.Message,
		Priority:   req.Priority,
		Category:   req.Category,
		Persistent: req.Persistent,
		CreatedAt:  time.Now(),
	}

	s.mu.Lock()
	if err := s.ensureLoaded(userID); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	list := append([]models.Notification{n}, s.lists[userID]...)
	if len(list) > maxNotifications {
		for _, evicted := range list[maxNotifications:] {
			s.cancelTimer(evicted.ID)
		}
		list = list[:maxNotifications]
	}
	s.lists[userID] = list
	if !n.Persistent && !s.stopped {
		id := n.ID
		s.timers[id] = time.AfterFunc(displayWindow, func() {
			s.expire(userID, id)
		})
	}
	snapshot := s.snapshotLocked(userID)
	s.mu.Unlock()

	if err := s.persist(userID, snapshot); err != nil {
		utils.LogWarn("failed to persist notifications", map[string]interface{}{"user_id": userID, "error": err.Error()})
	}
	s.bus.Publish(notificationTopic(userID), snapshot)

	if n.Priority == models.PriorityHigh {
		s.postWebhook(userID, n)
	}
	return &n, nil
}

func (s *notificationService) List(userID int64) ([]models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(userID); err != nil {
		return nil, err
	}
	return s.snapshotLocked(userID), nil
}

func (s *notificationService) UnreadCount(userID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(userID); err != nil {
		return 0, err
	}
	count := 0
	for _, n := range s.lists[userID] {
		if !n.Read {
			count++
		}
	}
	return count, nil
}

func (s *notificationService) MarkAsRead(userID int64, id string) error {
	s.mu.Lock()
	if err := s.ensureLoaded(userID); err != nil {
		s.mu.Unlock()
		return err
	}
	found := false
	changed := false
	list := s.lists[userID]
	for i := range list {
		if list[i].ID == id {
			found = true
			if !list[i].Read {
				list[i].Read = true
				changed = true
			}
			break
		}
	}
	var snapshot []models.Notification
	if changed {
		snapshot = s.snapshotLocked(userID)
	}
	s.mu.Unlock()

	if !found {
		return ErrNotificationNotFound
	}
	if changed {
		s.saveAndPublish(userID, snapshot)
	}
	return nil
}

// MarkAllAsRead flips every unread entry. If nothing was unread, nothing is
// persisted or published.
func (s *notificationService) MarkAllAsRead(userID int64) error {
	s.mu.Lock()
	if err := s.ensureLoaded(userID); err != nil {
		s.mu.Unlock()
		return err
	}
	changed := false
	list := s.lists[userID]
	for i := range list {
		if !list[i].Read {
			list[i].Read = true
			changed = true
		}
	}
	var snapshot []models.Notification
	if changed {
		snapshot = s.snapshotLocked(userID)
	}
	s.mu.Unlock()

	if changed {
		s.saveAndPublish(userID, snapshot)
	}
	return nil
}

func (s *notificationService) Remove(userID int64, id string) error {
	s.mu.Lock()
	if err := s.ensureLoaded(userID); err != nil {
		s.mu.Unlock()
		return err
	}
	list := s.lists[userID]
	found := false
	for i := range list {
		if list[i].ID == id {
			s.lists[userID] = append(list[:i], list[i+1:]...)
			s.cancelTimer(id)
			found = true
			break
		}
	}
	var snapshot []models.Notification
	if found {
		snapshot = s.snapshotLocked(userID)
	}
	s.mu.Unlock()

	if !found {
		return ErrNotificationNotFound
	}
	s.saveAndPublish(userID, snapshot)
	return nil
}

func (s *notificationService) ClearAll(userID int64) error {
	s.mu.Lock()
	if err := s.ensureLoaded(userID); err != nil {
		s.mu.Unlock()
		return err
	}
	for _, n := range s.lists[userID] {
		s.cancelTimer(n.ID)
	}
	s.lists[userID] = nil
	s.mu.Unlock()

	s.saveAndPublish(userID, []models.Notification{})
	return nil
}

// Subscribe registers fn for an account's notification list. The current list
// is replayed synchronously so new subscribers never start blank. A panicking
// callback is recovered and logged, never taking the bus down.
func (s *notificationService) Subscribe(userID int64, fn func([]models.Notification)) (func(), error) {
	wrapped := func(list []models.Notification) {
		defer func() {
			if r := recover(); r != nil {
				utils.LogWarn("notification subscriber panicked", map[string]interface{}{"user_id": userID, "panic": fmt.Sprint(r)})
			}
		}()
		fn(list)
	}
	topic := notificationTopic(userID)
	if err := s.bus.Subscribe(topic, wrapped); err != nil {
		return nil, err
	}

	current, err := s.List(userID)
	if err == nil {
		wrapped(current)
	}
	return func() {
		if err := s.bus.Unsubscribe(topic, wrapped); err != nil {
			utils.LogDebug("notification unsubscribe", map[string]interface{}{"user_id": userID, "error": err.Error()})
		}
	}, nil
}

// Stop cancels all pending expiry timers. In-flight webhook calls are left to
// their own timeout.
func (s *notificationService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}

// expire removes a non-persistent notification after its display window.
func (s *notificationService) expire(userID int64, id string) {
	s.mu.Lock()
	delete(s.timers, id)
	list := s.lists[userID]
	found := false
	for i := range list {
		if list[i].ID == id {
			s.lists[userID] = append(list[:i], list[i+1:]...)
			found = true
			break
		}
	}
	var snapshot []models.Notification
	if found {
		snapshot = s.snapshotLocked(userID)
	}
	s.mu.Unlock()

	if found {
		s.saveAndPublish(userID, snapshot)
	}
}

func (s *notificationService) cancelTimer(id string) {
	if t, ok := s.timers[id]; ok {
		t.Stop()
		delete(s.timers, id)
	}
}

// snapshotLocked copies the current list. Caller must hold s.mu.
func (s *notificationService) snapshotLocked(userID int64) []models.Notification {
	list := s.lists[userID]
	out := make([]models.Notification, len(list))
	copy(out, list)
	return out
}

func (s *notificationService) saveAndPublish(userID int64, snapshot []models.Notification) {
	if err := s.persist(userID, snapshot); err != nil {
		utils.LogWarn("failed to persist notifications", map[string]interface{}{"user_id": userID, "error": err.Error()})
	}
	s.bus.Publish(notificationTopic(userID), snapshot)
}

// persist rewrites the account's saved list as one atomic unit.
func (s *notificationService) persist(userID int64, snapshot []models.Notification) error {
	return s.store.WithinTx(func(tx repositories.Store) error {
		return tx.Notifications().SaveAll(userID, snapshot)
	})
}

type webhookPayload struct {
	Title    string `json:"title"`
	Message  string `json:"message"`
	Type     string `json:"type"`
	Priority string `json:"priority"`
	Category string `json:"category,omitempty"`
}

// postWebhook forwards a high-priority notification to the account's
// configured endpoint. Best effort: failures are logged, never surfaced.
func (s *notificationService) postWebhook(userID int64, n models.Notification) {
	url := s.settings.LowStockWebhookURL(userID)
	if url == "" {
		return
	}
	go func() {
		resp, err := s.webhook.R().
			SetHeader("Content-Type", "application/json").
			SetBody(webhookPayload{
				Title:    n.Title,
				Message:  n.Message,
				Type:     n.Type,
				Priority: n.Priority,
				Category: n.Category,
			}).
			Post(url)
		if err != nil {
			utils.LogWarn("webhook delivery failed", map[string]interface{}{"user_id": userID, "error": err.Error()})
			return
		}
		if resp.IsError() {
			utils.LogWarn("webhook returned error status", map[string]interface{}{"user_id": userID, "status": resp.StatusCode()})
		}
	}()
}
