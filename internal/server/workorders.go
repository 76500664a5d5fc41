package server

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"plantline/internal/domain"
	"plantline/internal/engine"
	"plantline/internal/repo"
)

type workOrderPath struct {
	ID string `path:"id"`
}

type workOrderBody struct {
	Body domain.WorkOrder `json:"body"`
}

func registerWorkOrders(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-workorder",
		Method:        http.MethodPost,
		Path:          "/workorders",
		Summary:       "Create work order",
		DefaultStatus: http.StatusCreated,
		Errors: []int{
			http.StatusBadRequest,
			http.StatusUnauthorized,
			http.StatusUnprocessableEntity,
			http.StatusServiceUnavailable,
		},
	}, func(ctx context.Context, input *struct {
		Body CreateWorkOrderRequest `json:"body"`
	}) (*workOrderBody, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		opts := engine.WorkOrderCreateOptions{
			MachineID:   input.Body.MachineID,
			Type:        input.Body.Type,
			Priority:    input.Body.Priority,
			Description: input.Body.Description,
			ActorID:     actorID,
		}
		if input.Body.ComponentID != nil {
			opts.ComponentID = *input.Body.ComponentID
		}
		if input.Body.Assignee != nil {
			opts.Assignee = *input.Body.Assignee
		}
		wo, err := e.CreateWorkOrder(ctx, opts)
		if err != nil {
			return nil, handleError(err)
		}
		return &workOrderBody{Body: wo}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-workorders",
		Method:      http.MethodGet,
		Path:        "/workorders",
		Summary:     "List work orders",
	}, func(ctx context.Context, input *struct {
		Status    string `query:"status" enum:"open,in_progress,completed,closed" required:"false"`
		MachineID string `query:"machine_id" required:"false"`
		Assignee  string `query:"assignee" required:"false"`
		Limit     int    `query:"limit" required:"false"`
	}) (*struct {
		Body []domain.WorkOrder `json:"body"`
	}, error) {
		items, err := e.ListWorkOrders(ctx, repo.WorkOrderFilters{
			Status:    input.Status,
			MachineID: input.MachineID,
			Assignee:  input.Assignee,
			Limit:     input.Limit,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.WorkOrder `json:"body"`
		}{Body: items}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-archived-workorders",
		Method:      http.MethodGet,
		Path:        "/workorders/archive",
		Summary:     "List archived work orders",
	}, func(ctx context.Context, input *struct {
		MachineID string `query:"machine_id" required:"false"`
		Limit     int    `query:"limit" required:"false"`
	}) (*struct {
		Body []domain.WorkOrder `json:"body"`
	}, error) {
		items, err := e.ListArchivedWorkOrders(ctx, repo.WorkOrderFilters{
			MachineID: input.MachineID,
			Limit:     input.Limit,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.WorkOrder `json:"body"`
		}{Body: items}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-workorder",
		Method:      http.MethodGet,
		Path:        "/workorders/{id}",
		Summary:     "Get work order",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *workOrderPath) (*struct {
		Body struct {
			domain.WorkOrder
			Archived bool `json:"archived"`
		} `json:"body"`
	}, error) {
		wo, archived, err := e.GetWorkOrder(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		out := &struct {
			Body struct {
				domain.WorkOrder
				Archived bool `json:"archived"`
			} `json:"body"`
		}{}
		out.Body.WorkOrder = wo
		out.Body.Archived = archived
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "set-workorder-status",
		Method:      http.MethodPut,
		Path:        "/workorders/{id}/status",
		Summary:     "Advance work order status",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusNotFound,
			http.StatusConflict,
		},
	}, func(ctx context.Context, input *struct {
		ID   string              `path:"id"`
		Body UpdateStatusRequest `json:"body"`
	}) (*workOrderBody, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		wo, err := e.SetWorkOrderStatus(ctx, input.ID, input.Body.Status, actorID, input.Body.Note)
		if err != nil {
			return nil, handleError(err)
		}
		return &workOrderBody{Body: wo}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "claim-workorder",
		Method:      http.MethodPost,
		Path:        "/workorders/{id}/claim",
		Summary:     "Claim an open work order",
		Errors:      []int{http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *struct {
		ID   string        `path:"id"`
		Body *ClaimRequest `json:"body,omitempty" required:"false"`
	}) (*workOrderBody, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		note := ""
		if input.Body != nil {
			note = input.Body.Note
		}
		wo, err := e.ClaimWorkOrder(ctx, input.ID, actorID, note)
		if err != nil {
			return nil, handleError(err)
		}
		return &workOrderBody{Body: wo}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "archive-workorder",
		Method:      http.MethodPost,
		Path:        "/workorders/{id}/archive",
		Summary:     "Archive a closed work order",
		Errors:      []int{http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *workOrderPath) (*workOrderBody, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		wo, err := e.ArchiveWorkOrder(ctx, input.ID, actorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &workOrderBody{Body: wo}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "restore-workorder",
		Method:      http.MethodPost,
		Path:        "/workorders/archive/{id}/restore",
		Summary:     "Restore an archived work order",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *workOrderPath) (*workOrderBody, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		wo, err := e.RestoreWorkOrder(ctx, input.ID, actorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &workOrderBody{Body: wo}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-workorder",
		Method:        http.MethodDelete,
		Path:          "/workorders/{id}",
		Summary:       "Delete an open work order",
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *workOrderPath) (*struct{}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		if err := e.DeleteWorkOrder(ctx, input.ID, actorID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})
}
