package plantlinesdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a minimal Plantline HTTP API client.
type Client struct {
	BaseURL     string
	APIKey      string
	BearerToken string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
	}
}

// WorkOrder represents the API work order model (partial).
type WorkOrder struct {
	ID          string         `json:"id"`
	WONumber    string         `json:"wo_number"`
	MachineID   string         `json:"machine_id"`
	MachineName string         `json:"machine_name,omitempty"`
	ComponentID *string        `json:"component_id,omitempty"`
	Type        string         `json:"type"`
	Priority    string         `json:"priority"`
	Description string         `json:"description"`
	Status      string         `json:"status"`
	Assignee    *string        `json:"assignee,omitempty"`
	History     []HistoryEntry `json:"history,omitempty"`
	CreatedAt   string         `json:"created_at"`
	CreatedBy   string         `json:"created_by"`
}

// HistoryEntry is one status change in a work order's log.
type HistoryEntry struct {
	Status    string `json:"status"`
	By        string `json:"by"`
	Note      string `json:"note,omitempty"`
	Timestamp string `json:"timestamp"`
}

// Schedule represents a preventive schedule with derived due fields.
type Schedule struct {
	ID            string `json:"id"`
	MachineID     string `json:"machine_id"`
	MachineName   string `json:"machine_name"`
	Task          string `json:"task"`
	FrequencyDays int    `json:"frequency_days"`
	LastDone      string `json:"last_done"`
	NextDue       string `json:"next_due"`
	DaysLeft      int    `json:"days_left"`
	DueStatus     string `json:"due_status"`
}

// Event represents a log entry.
type Event struct {
	ID         int64          `json:"id"`
	TS         string         `json:"ts"`
	Type       string         `json:"type"`
	EntityKind string         `json:"entity_kind"`
	EntityID   string         `json:"entity_id"`
	ActorID    string `json:"actor_id"`
	Payload    string `json:"payload_json"`
}

// Stats mirrors the /stats response.
type Stats struct {
	SchedulesTotal  int            `json:"schedules_total"`
	Overdue         int            `json:"overdue"`
	DueToday        int            `json:"due_today"`
	UpcomingSoon    int            `json:"upcoming_soon"`
	WorkOrdersTotal int            `json:"workorders_total"`
	WorkOrderCounts map[string]int `json:"workorders_by_status"`
	MachinesTotal   int            `json:"machines_total"`
	ComponentsTotal int            `json:"components_total"`
}

// APIError wraps non-2xx responses. Code carries the machine-readable
// value from the error envelope when the body parses as one.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error: status=%d code=%s message=%s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// CreateWorkOrder opens a new work order against a machine.
func (c *Client) CreateWorkOrder(ctx context.Context, machineID, woType, priority, description string) (WorkOrder, error) {
	body := map[string]any{
		"machine_id":  machineID,
		"type":        woType,
		"priority":    priority,
		"description": description,
	}
	var resp WorkOrder
	err := c.do(ctx, http.MethodPost, "v0/workorders", body, &resp)
	return resp, err
}

// GetWorkOrder fetches a work order, live or archived, with history.
func (c *Client) GetWorkOrder(ctx context.Context, id string) (WorkOrder, error) {
	var resp WorkOrder
	err := c.do(ctx, http.MethodGet, "v0/workorders/"+url.PathEscape(id), nil, &resp)
	return resp, err
}

// ListWorkOrders returns live work orders, optionally filtered by status.
func (c *Client) ListWorkOrders(ctx context.Context, status string) ([]WorkOrder, error) {
	endpoint := "v0/workorders"
	if status != "" {
		endpoint += "?status=" + url.QueryEscape(status)
	}
	var resp []WorkOrder
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// SetWorkOrderStatus advances a work order one lifecycle step.
func (c *Client) SetWorkOrderStatus(ctx context.Context, id, status, note string) (WorkOrder, error) {
	body := map[string]any{"status": status}
	if note != "" {
		body["note"] = note
	}
	var resp WorkOrder
	err := c.do(ctx, http.MethodPut, "v0/workorders/"+url.PathEscape(id)+"/status", body, &resp)
	return resp, err
}

// ClaimWorkOrder assigns an open work order to the caller and starts it.
func (c *Client) ClaimWorkOrder(ctx context.Context, id string) (WorkOrder, error) {
	var resp WorkOrder
	err := c.do(ctx, http.MethodPost, "v0/workorders/"+url.PathEscape(id)+"/claim", nil, &resp)
	return resp, err
}

// ArchiveWorkOrder moves a closed work order to the archive.
func (c *Client) ArchiveWorkOrder(ctx context.Context, id string) (WorkOrder, error) {
	var resp WorkOrder
	err := c.do(ctx, http.MethodPost, "v0/workorders/"+url.PathEscape(id)+"/archive", nil, &resp)
	return resp, err
}

// RestoreWorkOrder brings an archived work order back, still closed.
func (c *Client) RestoreWorkOrder(ctx context.Context, id string) (WorkOrder, error) {
	var resp WorkOrder
	err := c.do(ctx, http.MethodPost, "v0/workorders/archive/"+url.PathEscape(id)+"/restore", nil, &resp)
	return resp, err
}

// CreateSchedule registers a recurring maintenance schedule.
func (c *Client) CreateSchedule(ctx context.Context, machineID, task string, frequencyDays int, lastDone string) (Schedule, error) {
	body := map[string]any{
		"machine_id":     machineID,
		"task":           task,
		"frequency_days": frequencyDays,
		"last_done":      lastDone,
	}
	var resp Schedule
	err := c.do(ctx, http.MethodPost, "v0/schedules", body, &resp)
	return resp, err
}

// ListSchedules returns schedules sorted most urgent first. due may be
// empty or one of overdue, due_soon, on_track.
func (c *Client) ListSchedules(ctx context.Context, due string) ([]Schedule, error) {
	endpoint := "v0/schedules"
	if due != "" {
		endpoint += "?due=" + url.QueryEscape(due)
	}
	var resp []Schedule
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// MarkScheduleDone records a completed cycle dated today.
func (c *Client) MarkScheduleDone(ctx context.Context, id string) (Schedule, error) {
	var resp Schedule
	err := c.do(ctx, http.MethodPost, "v0/schedules/"+url.PathEscape(id)+"/done", nil, &resp)
	return resp, err
}

// Stats returns the maintenance dashboard numbers.
func (c *Client) Stats(ctx context.Context) (Stats, error) {
	var resp Stats
	err := c.do(ctx, http.MethodGet, "v0/stats", nil, &resp)
	return resp, err
}

// Events returns recent events.
func (c *Client) Events(ctx context.Context, limit int) ([]Event, error) {
	endpoint := "v0/events"
	if limit > 0 {
		endpoint = fmt.Sprintf("%s?limit=%d", endpoint, limit)
	}
	var resp []Event
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	switch {
	case c.BearerToken != "":
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	case c.APIKey != "":
		req.Header.Set("X-Api-Key", c.APIKey)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		apiErr := &APIError{StatusCode: resp.StatusCode, Body: string(b)}
		var envelope struct {
			Error struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.Unmarshal(b, &envelope) == nil {
			apiErr.Code = envelope.Error.Code
			apiErr.Message = envelope.Error.Message
		}
		return apiErr
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
