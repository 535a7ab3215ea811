package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sdwr/cowprofit/internal/drops"
	"github.com/sdwr/cowprofit/internal/enhance"
	"github.com/sdwr/cowprofit/internal/game"
	"github.com/sdwr/cowprofit/internal/service"
)

type MockEngine struct {
	mock.Mock
}

func (m *MockEngine) Plan(ctx context.Context, in service.PlanInput) (service.PlanOutput, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(service.PlanOutput), args.Error(1)
}

func (m *MockEngine) Estimate(ctx context.Context, in service.EstimateInput) (service.EstimateOutput, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(service.EstimateOutput), args.Error(1)
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHandleHealthz(t *testing.T) {
	w := do(t, NewRouter(&MockEngine{}), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `{"status":"ok"}`+"\n", w.Body.String())
}

func TestHandlePlan_Success(t *testing.T) {
	e := &MockEngine{}
	e.On("Plan", mock.Anything, service.PlanInput{Item: "/items/cheese_sword", Target: 8, Start: 2}).
		Return(service.PlanOutput{Item: "/items/cheese_sword", BestThreshold: 6, ExpectedCost: 1234.5}, nil)

	w := do(t, NewRouter(e), http.MethodPost, "/v1/plan", `{"item":"/items/cheese_sword","target":8,"start":2}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(HeaderRequestID))

	var out service.PlanOutput
	require.NoError(t, json.NewDecoder(w.Body).Decode(&out))
	assert.Equal(t, 6, out.BestThreshold)
	assert.Equal(t, 1234.5, out.ExpectedCost)
	e.AssertExpectations(t)
}

func TestHandlePlan_BadBodies(t *testing.T) {
	e := &MockEngine{}
	router := NewRouter(e)
	for _, body := range []string{`{`, `{"item":"/items/x","targett":3}`, `[]`} {
		w := do(t, router, http.MethodPost, "/v1/plan", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		assert.Contains(t, w.Body.String(), ErrMsgInvalidRequest)
	}
	e.AssertNotCalled(t, "Plan", mock.Anything, mock.Anything)
}

func TestHandlePlan_ValidationFields(t *testing.T) {
	verr := service.GetValidator().ValidateStruct(service.PlanInput{Target: 3})
	require.Error(t, verr)

	e := &MockEngine{}
	e.On("Plan", mock.Anything, mock.Anything).
		Return(service.PlanOutput{}, fmt.Errorf("%w: %w", service.ErrInvalidInput, verr))

	w := do(t, NewRouter(e), http.MethodPost, "/v1/plan", `{"target":3}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp ValidationErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, ErrMsgInvalidRequestSummary, resp.Error)
	assert.Equal(t, "This field is required", resp.Fields["item"])
}

func TestHandlePlan_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", fmt.Errorf("item: %w", game.ErrNotFound), http.StatusNotFound},
		{"degenerate", fmt.Errorf("solve: %w", enhance.ErrDegenerateSystem), http.StatusUnprocessableEntity},
		{"invalid config", fmt.Errorf("%w: range", enhance.ErrInvalidConfig), http.StatusBadRequest},
		{"invalid session", fmt.Errorf("%w: final", drops.ErrInvalidSession), http.StatusBadRequest},
		{"bad game data", fmt.Errorf("%w: levels", game.ErrValidation), http.StatusBadRequest},
		{"unknown", assert.AnError, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &MockEngine{}
			e.On("Plan", mock.Anything, mock.Anything).Return(service.PlanOutput{}, tt.err)

			w := do(t, NewRouter(e), http.MethodPost, "/v1/plan", `{"item":"/items/x","target":3}`)
			assert.Equal(t, tt.status, w.Code)

			var resp ErrorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			assert.NotEmpty(t, resp.Error)
			if tt.status == http.StatusInternalServerError {
				assert.Equal(t, ErrMsgGenericServerError, resp.Error)
			}
		})
	}
}

func TestHandleEstimate_DecodesHistogram(t *testing.T) {
	e := &MockEngine{}
	e.On("Estimate", mock.Anything, mock.MatchedBy(func(in service.EstimateInput) bool {
		return in.Histogram[0] == 1 && in.Histogram[1] == 2 && in.Final == 1 &&
			in.Threshold != nil && *in.Threshold == 1
	})).Return(service.EstimateOutput{ThresholdSource: service.ThresholdGiven, Attempts: 3}, nil)

	w := do(t, NewRouter(e), http.MethodPost, "/v1/estimate",
		`{"histogram":{"0":1,"1":2},"threshold":1,"final":1}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"threshold_source":"given"`)
	e.AssertExpectations(t)
}

func TestLoggingMiddleware_EchoesRequestID(t *testing.T) {
	e := &MockEngine{}
	e.On("Plan", mock.Anything, mock.Anything).Return(service.PlanOutput{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/plan", strings.NewReader(`{"item":"/items/x","target":1}`))
	req.Header.Set(HeaderRequestID, "req-42")
	w := httptest.NewRecorder()
	NewRouter(e).ServeHTTP(w, req)

	assert.Equal(t, "req-42", w.Header().Get(HeaderRequestID))
}

func TestMetricsEndpoint(t *testing.T) {
	router := NewRouter(&MockEngine{})
	do(t, router, http.MethodGet, "/healthz", "")

	w := do(t, router, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `cowprofit_http_requests_total{method="GET",path="/healthz",status="200"}`)
}

func TestRequestSizeLimit(t *testing.T) {
	e := &MockEngine{}
	body := `{"item":"` + strings.Repeat("x", MaxRequestBytes) + `"}`
	w := do(t, NewRouter(e), http.MethodPost, "/v1/plan", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	e.AssertNotCalled(t, "Plan", mock.Anything, mock.Anything)
}
