package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/sdwr/cowprofit/internal/logger"
	"github.com/sdwr/cowprofit/internal/service"
)

// Engine is the application service behind the HTTP API.
type Engine interface {
	Plan(ctx context.Context, in service.PlanInput) (service.PlanOutput, error)
	Estimate(ctx context.Context, in service.EstimateInput) (service.EstimateOutput, error)
}

// HealthResponse represents the response for health endpoints
type HealthResponse struct {
	Status string `json:"status"`
}

// HandleHealthz provides a basic liveness check
func HandleHealthz() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
	}
}

// HandlePlan handles POST /v1/plan
func HandlePlan(e Engine) http.HandlerFunc {
	return handleJSON("Plan", e.Plan)
}

// HandleEstimate handles POST /v1/estimate
func HandleEstimate(e Engine) http.HandlerFunc {
	return handleJSON("Estimate", e.Estimate)
}

// handleJSON decodes a request body, runs action and writes its result.
// Unknown fields are rejected.
func handleJSON[REQ any, RES any](opName string, action func(context.Context, REQ) (RES, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := service.WithTransport(r.Context(), "http")
		log := logger.FromContext(ctx)

		var req REQ
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			log.Warn("Failed to decode request", "action", opName, "error", err)
			respondError(w, http.StatusBadRequest, ErrMsgInvalidRequest)
			return
		}

		res, err := action(ctx, req)
		if err != nil {
			log.Warn("Request failed", "action", opName, "error", err)
			respondServiceError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, res)
	}
}
