package server

// Request payloads

type CreateWorkOrderRequest struct {
	MachineID   string  `json:"machine_id"`
	ComponentID *string `json:"component_id,omitempty"`
	Type        string  `json:"type,omitempty" enum:"preventive,corrective,breakdown"`
	Priority    string  `json:"priority,omitempty" enum:"low,medium,high,emergency"`
	Description string  `json:"description,omitempty"`
	Assignee    *string `json:"assignee,omitempty"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" enum:"open,in_progress,completed,closed"`
	Note   string `json:"note,omitempty"`
}

type ClaimRequest struct {
	Note string `json:"note,omitempty"`
}

type CreateScheduleRequest struct {
	MachineID     string `json:"machine_id"`
	Task          string `json:"task"`
	FrequencyDays int    `json:"frequency_days" minimum:"1"`
	LastDone      string `json:"last_done,omitempty" format:"date"`
}

type UpdateScheduleRequest struct {
	MachineID     *string `json:"machine_id,omitempty"`
	Task          *string `json:"task,omitempty"`
	FrequencyDays *int    `json:"frequency_days,omitempty" minimum:"1"`
	LastDone      *string `json:"last_done,omitempty" format:"date"`
}