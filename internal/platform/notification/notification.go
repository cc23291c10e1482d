// Package notification provides the SMS/push notification system with
// template rendering, quiet-hours suppression, in-memory delivery records,
// retry logic, and Echo HTTP handlers.
package notification

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// Type represents the channel used to deliver a notification.
type Type string

const (
	TypeSMS  Type = "sms"
	TypePush Type = "push"
)

// Notification represents a single outbound notification.
type Notification struct {
	ID           string            `json:"id"`
	Type         Type              `json:"type"`
	Recipient    string            `json:"recipient"`
	Body         string            `json:"body"`
	TemplateID   string            `json:"template_id,omitempty"`
	TemplateData map[string]string `json:"template_data,omitempty"`
	Priority     string            `json:"priority"`
	Status       string            `json:"status"`
	CreatedAt    time.Time         `json:"created_at"`
	SentAt       *time.Time        `json:"sent_at,omitempty"`
	Error        string            `json:"error,omitempty"`
}

// SMSSender is the interface for sending SMS messages.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// PushSender is the interface for sending push notifications.
type PushSender interface {
	SendPush(ctx context.Context, deviceToken, body string) error
}

// Template defines a reusable notification template.
type Template struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Body string `json:"body"`
	Type Type   `json:"type"`
}

// TemplateEngine manages notification templates and renders them with data.
type TemplateEngine struct {
	mu        sync.RWMutex
	templates map[string]*Template
}

// NewTemplateEngine creates a TemplateEngine with the built-in templates
// pre-registered.
func NewTemplateEngine() *TemplateEngine {
	e := &TemplateEngine{
		templates: make(map[string]*Template),
	}
	e.registerBuiltIn()
	return e
}

func (e *TemplateEngine) registerBuiltIn() {
	builtIn := []Template{
		{
			ID:   "dose-reminder",
			Name: "Dose Reminder",
			Body: "Reminder: {{elder_name}} is due for {{medication}} ({{dosage}}) at {{time}}.",
			Type: TypeSMS,
		},
		{
			ID:   "dose-missed",
			Name: "Dose Missed",
			Body: "{{elder_name}} missed the {{time}} dose of {{medication}}. Please check in.",
			Type: TypeSMS,
		},
		{
			ID:   "alert-critical",
			Name: "Critical Alert",
			Body: "CRITICAL: {{alert_type}} alert for {{elder_name}}: {{message}}",
			Type: TypeSMS,
		},
		{
			ID:   "shift-handoff",
			Name: "Shift Handoff",
			Body: "Shift handoff for {{elder_name}}: {{summary}}",
			Type: TypePush,
		},
		{
			ID:   "weekly-summary",
			Name: "Weekly Summary",
			Body: "Your weekly care summary for {{elder_name}} is ready: adherence {{adherence}}%, {{alert_count}} alerts.",
			Type: TypeSMS,
		},
	}
	for i := range builtIn {
		t := builtIn[i]
		e.templates[t.ID] = &t
	}
}

// RegisterTemplate adds or replaces a template in the engine.
func (e *TemplateEngine) RegisterTemplate(t Template) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.templates[t.ID] = &t
}

// Render looks up a template by ID and performs {{key}} replacement using the
// supplied data map. Keys present in the template but absent from data are
// left as-is.
func (e *TemplateEngine) Render(templateID string, data map[string]string) (body string, typ Type, err error) {
	e.mu.RLock()
	t, ok := e.templates[templateID]
	e.mu.RUnlock()
	if !ok {
		return "", "", fmt.Errorf("template %q not found", templateID)
	}

	body = t.Body
	for k, v := range data {
		body = strings.ReplaceAll(body, "{{"+k+"}}", v)
	}
	return body, t.Type, nil
}

// QuietHours suppresses non-urgent notifications during a recipient's night
// window. Start and End are hours in [0,24); a window may wrap midnight.
type QuietHours struct {
	Start int
	End   int
}

// Contains reports whether the given time falls inside the quiet window.
func (q QuietHours) Contains(t time.Time) bool {
	if q.Start == q.End {
		return false
	}
	h := t.Hour()
	if q.Start < q.End {
		return h >= q.Start && h < q.End
	}
	// wraps midnight
	return h >= q.Start || h < q.End
}

// QuietHoursSource resolves a recipient's quiet window at send time, so
// windows survive restarts. Satisfied by the identity service, which keys
// windows by phone number.
type QuietHoursSource interface {
	QuietWindow(ctx context.Context, recipient string) (start, end int, ok bool)
}

// Manager orchestrates sending, storage, and retrieval of notifications.
type Manager struct {
	smsSender  SMSSender
	pushSender PushSender
	templates  *TemplateEngine
	source     QuietHoursSource

	mu            sync.RWMutex
	notifications map[string]*Notification
	quiet         map[string]QuietHours // recipient -> window
	now           func() time.Time
}

// NewManager constructs a Manager.
func NewManager(sms SMSSender, push PushSender, tpl *TemplateEngine) *Manager {
	return &Manager{
		smsSender:     sms,
		pushSender:    push,
		templates:     tpl,
		notifications: make(map[string]*Notification),
		quiet:         make(map[string]QuietHours),
		now:           time.Now,
	}
}

// SetQuietHours registers a quiet window for a recipient. Notifications with
// priority "urgent" bypass quiet hours.
func (m *Manager) SetQuietHours(recipient string, q QuietHours) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quiet[recipient] = q
}

// SetQuietSource wires the lookup consulted for recipients without an
// explicitly registered window.
func (m *Manager) SetQuietSource(src QuietHoursSource) {
	m.source = src
}

func (m *Manager) dispatch(ctx context.Context, n *Notification) error {
	switch n.Type {
	case TypeSMS:
		if m.smsSender == nil {
			return errors.New("no SMS sender configured")
		}
		return m.smsSender.SendSMS(ctx, n.Recipient, n.Body)
	case TypePush:
		if m.pushSender == nil {
			return errors.New("no push sender configured")
		}
		return m.pushSender.SendPush(ctx, n.Recipient, n.Body)
	default:
		return fmt.Errorf("unsupported notification type: %s", n.Type)
	}
}

// Send dispatches a notification through the appropriate channel, assigns an
// ID and timestamps, and persists the result in-memory. Non-urgent sends
// inside the recipient's quiet hours are recorded with status "suppressed"
// and not delivered.
func (m *Manager) Send(ctx context.Context, n *Notification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	now := m.now().UTC()
	n.CreatedAt = now
	n.Status = "pending"
	if n.Priority == "" {
		n.Priority = "normal"
	}

	m.mu.RLock()
	q, hasQuiet := m.quiet[n.Recipient]
	m.mu.RUnlock()
	if !hasQuiet && m.source != nil {
		if start, end, ok := m.source.QuietWindow(ctx, n.Recipient); ok {
			q, hasQuiet = QuietHours{Start: start, End: end}, true
		}
	}

	if hasQuiet && n.Priority != "urgent" && q.Contains(m.now()) {
		n.Status = "suppressed"
		m.mu.Lock()
		m.notifications[n.ID] = n
		m.mu.Unlock()
		return nil
	}

	sendErr := m.dispatch(ctx, n)
	if sendErr != nil {
		n.Status = "failed"
		n.Error = sendErr.Error()
	} else {
		n.Status = "sent"
		sentAt := m.now().UTC()
		n.SentAt = &sentAt
	}

	m.mu.Lock()
	m.notifications[n.ID] = n
	m.mu.Unlock()

	return sendErr
}

// SendFromTemplate renders a template and sends the resulting notification.
func (m *Manager) SendFromTemplate(ctx context.Context, templateID string, data map[string]string, recipient, priority string) (*Notification, error) {
	body, typ, err := m.templates.Render(templateID, data)
	if err != nil {
		return nil, fmt.Errorf("render template: %w", err)
	}

	n := &Notification{
		Type:         typ,
		Recipient:    recipient,
		Body:         body,
		TemplateID:   templateID,
		TemplateData: data,
		Priority:     priority,
	}

	if err := m.Send(ctx, n); err != nil {
		return n, err
	}
	return n, nil
}

// Get retrieves a notification by ID.
func (m *Manager) Get(_ context.Context, id string) (*Notification, error) {
	m.mu.RLock()
	n, ok := m.notifications[id]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("notification %q not found", id)
	}
	return n, nil
}

// ListByRecipient returns notifications for a given recipient, up to limit.
func (m *Manager) ListByRecipient(_ context.Context, recipient string, limit int) ([]*Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*Notification
	for _, n := range m.notifications {
		if n.Recipient == recipient {
			result = append(result, n)
			if len(result) >= limit {
				break
			}
		}
	}
	return result, nil
}

// Retry re-sends a failed notification. Returns an error if the notification
// is not in "failed" status.
func (m *Manager) Retry(ctx context.Context, id string) error {
	m.mu.RLock()
	n, ok := m.notifications[id]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("notification %q not found", id)
	}
	if n.Status != "failed" {
		return fmt.Errorf("notification %q is not in failed status (current: %s)", id, n.Status)
	}

	sendErr := m.dispatch(ctx, n)

	m.mu.Lock()
	if sendErr != nil {
		n.Status = "failed"
		n.Error = sendErr.Error()
	} else {
		n.Status = "sent"
		sentAt := m.now().UTC()
		n.SentAt = &sentAt
		n.Error = ""
	}
	m.mu.Unlock()

	return sendErr
}

// Stats returns counts of notifications grouped by status.
func (m *Manager) Stats(_ context.Context) map[string]int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := make(map[string]int)
	for _, n := range m.notifications {
		stats[n.Status]++
	}
	return stats
}

// Handler exposes notification operations over HTTP via Echo.
type Handler struct {
	manager *Manager
}

// NewHandler creates a new Handler.
func NewHandler(mgr *Manager) *Handler {
	return &Handler{manager: mgr}
}

// RegisterRoutes registers all notification routes on the given Echo group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/notifications/send", h.HandleSend)
	g.POST("/notifications/send-template", h.HandleSendTemplate)
	g.GET("/notifications/stats", h.HandleStats)
	g.GET("/notifications/:id", h.HandleGet)
	g.GET("/notifications", h.HandleList)
	g.POST("/notifications/:id/retry", h.HandleRetry)
}

type sendRequest struct {
	Type      Type   `json:"type"`
	Recipient string `json:"recipient"`
	Body      string `json:"body"`
	Priority  string `json:"priority"`
}

// HandleSend handles POST /notifications/send.
func (h *Handler) HandleSend(c echo.Context) error {
	var req sendRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	n := &Notification{
		Type:      req.Type,
		Recipient: req.Recipient,
		Body:      req.Body,
		Priority:  req.Priority,
	}

	// Return the notification even on send failure so the caller sees the
	// ID and error.
	_ = h.manager.Send(c.Request().Context(), n)
	return c.JSON(http.StatusCreated, n)
}

type sendTemplateRequest struct {
	TemplateID string            `json:"template_id"`
	Recipient  string            `json:"recipient"`
	Priority   string            `json:"priority"`
	Data       map[string]string `json:"data"`
}

// HandleSendTemplate handles POST /notifications/send-template.
func (h *Handler) HandleSendTemplate(c echo.Context) error {
	var req sendTemplateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	n, err := h.manager.SendFromTemplate(c.Request().Context(), req.TemplateID, req.Data, req.Recipient, req.Priority)
	if err != nil && n == nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusCreated, n)
}

// HandleGet handles GET /notifications/:id.
func (h *Handler) HandleGet(c echo.Context) error {
	n, err := h.manager.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, n)
}

// HandleList handles GET /notifications?recipient=...
func (h *Handler) HandleList(c echo.Context) error {
	recipient := c.QueryParam("recipient")
	if recipient == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "recipient query parameter is required"})
	}

	list, err := h.manager.ListByRecipient(c.Request().Context(), recipient, 100)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, list)
}

// HandleRetry handles POST /notifications/:id/retry.
func (h *Handler) HandleRetry(c echo.Context) error {
	id := c.Param("id")
	if err := h.manager.Retry(c.Request().Context(), id); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	n, _ := h.manager.Get(c.Request().Context(), id)
	return c.JSON(http.StatusOK, n)
}

// HandleStats handles GET /notifications/stats.
func (h *Handler) HandleStats(c echo.Context) error {
	return c.JSON(http.StatusOK, h.manager.Stats(c.Request().Context()))
}
