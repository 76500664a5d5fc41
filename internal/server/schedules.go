package server

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"plantline/internal/domain"
	"plantline/internal/engine"
)

type schedulePath struct {
	ID string `path:"id"`
}

type scheduleBody struct {
	Body domain.ScheduleWithDue `json:"body"`
}

func registerSchedules(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-schedule",
		Method:        http.MethodPost,
		Path:          "/schedules",
		Summary:       "Create maintenance schedule",
		DefaultStatus: http.StatusCreated,
		Errors: []int{
			http.StatusBadRequest,
			http.StatusUnprocessableEntity,
		},
	}, func(ctx context.Context, input *struct {
		Body CreateScheduleRequest `json:"body"`
	}) (*scheduleBody, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		s, err := e.CreateSchedule(ctx, engine.ScheduleCreateOptions{
			MachineID:     input.Body.MachineID,
			Task:          input.Body.Task,
			FrequencyDays: input.Body.FrequencyDays,
			LastDone:      input.Body.LastDone,
			ActorID:       actorID,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &scheduleBody{Body: s}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-schedules",
		Method:      http.MethodGet,
		Path:        "/schedules",
		Summary:     "List schedules with due status",
	}, func(ctx context.Context, input *struct {
		MachineID string `query:"machine_id" required:"false"`
		Due       string `query:"due" enum:"overdue,due_soon,on_track" required:"false"`
	}) (*struct {
		Body []domain.ScheduleWithDue `json:"body"`
	}, error) {
		items, err := e.ListSchedules(ctx, input.MachineID, input.Due)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.ScheduleWithDue `json:"body"`
		}{Body: items}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-schedule",
		Method:      http.MethodGet,
		Path:        "/schedules/{id}",
		Summary:     "Get schedule",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *schedulePath) (*scheduleBody, error) {
		s, err := e.GetSchedule(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &scheduleBody{Body: s}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-schedule",
		Method:      http.MethodPut,
		Path:        "/schedules/{id}",
		Summary:     "Update schedule",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID   string                `path:"id"`
		Body UpdateScheduleRequest `json:"body"`
	}) (*scheduleBody, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		s, err := e.UpdateSchedule(ctx, input.ID, engine.ScheduleUpdateOptions{
			MachineID:     input.Body.MachineID,
			Task:          input.Body.Task,
			FrequencyDays: input.Body.FrequencyDays,
			LastDone:      input.Body.LastDone,
			ActorID:       actorID,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &scheduleBody{Body: s}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "mark-schedule-done",
		Method:      http.MethodPost,
		Path:        "/schedules/{id}/done",
		Summary:     "Record a completed maintenance cycle",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *schedulePath) (*scheduleBody, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		s, err := e.MarkScheduleDone(ctx, input.ID, actorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &scheduleBody{Body: s}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-schedule",
		Method:        http.MethodDelete,
		Path:          "/schedules/{id}",
		Summary:       "Delete schedule",
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusNotFound},
	}, func(ctx context.Context, input *schedulePath) (*struct{}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		if err := e.DeleteSchedule(ctx, input.ID, actorID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})
}
