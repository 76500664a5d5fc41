package domain

type Machine struct {
	ID          string `json:"id"`
	Code        string `json:"code"`
	Name        string `json:"name"`
	Type        string `json:"type,omitempty"`
	Location    string `json:"location,omitempty"`
	InstallDate string `json:"install_date,omitempty" format:"date"`
	Status      string `json:"status" enum:"active,inactive,retired"`
	CreatedAt   string `json:"created_at" format:"date-time"`
}

type Component struct {
	ID        string `json:"id"`
	MachineID string `json:"machine_id"`
	Code      string `json:"code"`
	Name      string `json:"name"`
	Status    string `json:"status" enum:"good,warning,critical"`
	Notes     string `json:"notes,omitempty"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

// HistoryEntry records one status change of a work order. Entries are
// append-only; the first entry is always the "open" entry written at
// creation time.
type HistoryEntry struct {
	Status    string `json:"status"`
	By        string `json:"by"`
	Note      string `json:"note,omitempty"`
	Timestamp string `json:"timestamp" format:"date-time"`
}

type WorkOrder struct {
	ID            string         `json:"id"`
	WONumber      string         `json:"wo_number"`
	MachineID     string         `json:"machine_id"`
	MachineName   string         `json:"machine_name,omitempty"`
	ComponentID   *string        `json:"component_id,omitempty"`
	ComponentName string         `json:"component_name,omitempty"`
	Type          string         `json:"type" enum:"preventive,corrective,breakdown"`
	Priority      string         `json:"priority" enum:"low,medium,high,emergency"`
	Description   string         `json:"description,omitempty"`
	Status        string         `json:"status" enum:"open,in_progress,completed,closed"`
	Assignee      *string        `json:"assignee,omitempty"`
	AssignedAt    *string        `json:"assigned_at,omitempty" format:"date-time"`
	CreatedAt     string         `json:"created_at" format:"date-time"`
	CreatedBy     string         `json:"created_by"`
	History       []HistoryEntry `json:"history"`
}

type Schedule struct {
	ID            string `json:"id"`
	MachineID     string `json:"machine_id"`
	MachineName   string `json:"machine_name"`
	Task          string `json:"task"`
	FrequencyDays int    `json:"frequency_days"`
	LastDone      string `json:"last_done" format:"date"`
	CreatedAt     string `json:"created_at" format:"date-time"`
	CreatedBy     string `json:"created_by,omitempty"`
}

// ScheduleWithDue is a schedule annotated with values derived against the
// current date. The derived fields are never persisted.
type ScheduleWithDue struct {
	Schedule
	NextDue  string `json:"next_due" format:"date"`
	DaysLeft int    `json:"days_left"`
	Due      string `json:"due_status" enum:"overdue,due_soon,on_track"`
}

type Event struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts" format:"date-time"`
	Type       string `json:"type"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id,omitempty"`
	ActorID    string `json:"actor_id"`
	Payload    string `json:"payload_json"`
}

type APIKey struct {
	ID        string `json:"id"`
	ActorID   string `json:"actor_id"`
	Name      string `json:"name,omitempty"`
	KeyHash   string `json:"key_hash"`
	CreatedAt string `json:"created_at" format:"date-time"`
}
