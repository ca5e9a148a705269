package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kalambet/relay/internal/engine"
	"github.com/kalambet/relay/internal/storage"
)

type CreateWorkflowRequest struct {
	Name         string              `json:"name"`
	Type         string              `json:"type"`
	Description  string              `json:"description"`
	TriggerType  string              `json:"trigger_type"`
	TriggerValue string              `json:"trigger_value"`
	Steps        []WorkflowStepInput `json:"steps"`
}

type WorkflowStepInput struct {
	StepNumber    int    `json:"step_number"`
	ActionType    string `json:"action_type"`
	TemplateID    string `json:"template_id"`
	WaitDuration  int    `json:"wait_duration"`
	NextOnSuccess int    `json:"next_step_on_success"`
	NextOnFailure int    `json:"next_step_on_failure"`
}

type WorkflowResponse struct {
	storage.Workflow
	Steps []storage.WorkflowStep `json:"steps"`
}

func handleCreateWorkflow(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		var req CreateWorkflowRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.Name == "" || len(req.Steps) == 0 {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "name and steps are required")
			return
		}
		for _, s := range req.Steps {
			if s.StepNumber <= 0 {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "step_number must be positive")
				return
			}
			switch s.ActionType {
			case storage.ActionSendMessage, storage.ActionWait, storage.ActionCheckResponse, storage.ActionEscalate:
			default:
				httpError(w, http.StatusBadRequest, "invalid_request_error", "unknown action_type %q", s.ActionType)
				return
			}
			if s.ActionType == storage.ActionSendMessage && s.TemplateID == "" {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "send_message steps require template_id")
				return
			}
		}
		if req.TriggerType == "" {
			req.TriggerType = "manual"
		}

		workflow := storage.Workflow{
			ID:           uuid.NewString(),
			Name:         req.Name,
			Type:         req.Type,
			Description:  req.Description,
			TriggerType:  req.TriggerType,
			TriggerValue: req.TriggerValue,
			IsActive:     true,
			CreatedAt:    time.Now().UTC(),
		}
		steps := make([]storage.WorkflowStep, len(req.Steps))
		for i, s := range req.Steps {
			steps[i] = storage.WorkflowStep{
				ID:            uuid.NewString(),
				WorkflowID:    workflow.ID,
				StepNumber:    s.StepNumber,
				ActionType:    s.ActionType,
				TemplateID:    s.TemplateID,
				WaitDuration:  s.WaitDuration,
				NextOnSuccess: s.NextOnSuccess,
				NextOnFailure: s.NextOnFailure,
			}
		}

		if err := deps.Store.CreateWorkflow(workflow, steps); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to create workflow: %v", err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		writeJSON(w, WorkflowResponse{Workflow: workflow, Steps: steps})
	}
}

func handleListWorkflows(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		workflows, err := deps.Store.ListWorkflows()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list workflows: %v", err)
			return
		}
		if workflows == nil {
			workflows = []storage.Workflow{}
		}
		writeJSON(w, workflows)
	}
}

func handleGetWorkflow(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		workflow, err := deps.Store.GetWorkflow(id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "workflow not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to get workflow: %v", err)
			return
		}

		steps, err := deps.Store.ListSteps(id)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list steps: %v", err)
			return
		}
		writeJSON(w, WorkflowResponse{Workflow: workflow, Steps: steps})
	}
}

type StartWorkflowRequest struct {
	UserID string `json:"user_id"`
}

func handleStartWorkflow(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		workflowID := chi.URLParam(r, "id")

		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		var req StartWorkflowRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.UserID == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "user_id is required")
			return
		}

		inst, err := deps.Engine.Start(r.Context(), workflowID, req.UserID)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			httpError(w, http.StatusBadRequest, "invalid_request_error", "unknown workflow or user")
			return
		case errors.Is(err, engine.ErrWorkflowInactive):
			httpError(w, http.StatusBadRequest, "invalid_request_error", "workflow is not active")
			return
		case err != nil:
			httpError(w, http.StatusInternalServerError, "api_error", "failed to start workflow: %v", err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		writeJSON(w, inst)
	}
}

func handleListInstances(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := parseIntParam(r, "limit", 50, 200)

		instances, err := deps.Store.ListActiveInstances(limit)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list instances: %v", err)
			return
		}
		if instances == nil {
			instances = []storage.WorkflowInstance{}
		}
		writeJSON(w, instances)
	}
}

func handleExecuteStep(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		res, err := deps.Engine.ExecuteNext(r.Context(), id)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			httpError(w, http.StatusNotFound, "not_found", "instance not found")
			return
		case errors.Is(err, engine.ErrTerminalState):
			httpError(w, http.StatusConflict, "terminal_state_error", "instance is in a terminal state")
			return
		case errors.Is(err, engine.ErrNoStep):
			httpError(w, http.StatusBadRequest, "invalid_request_error", "no step exists at the instance cursor")
			return
		case err != nil:
			httpError(w, http.StatusInternalServerError, "api_error", "failed to execute step: %v", err)
			return
		}

		inst, err := deps.Store.GetInstance(id)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to reload instance: %v", err)
			return
		}

		writeJSON(w, map[string]any{
			"result":   res,
			"instance": inst,
		})
	}
}
