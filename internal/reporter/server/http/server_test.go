package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autopeer-io/cpeer-report/internal/remote"
	"github.com/autopeer-io/cpeer-report/internal/report"
	"github.com/autopeer-io/cpeer-report/internal/vehicle"
	"github.com/autopeer-io/cpeer-report/pkg/mqtt/topic"
	"github.com/autopeer-io/cpeer-report/pkg/options"
)

func newTestHandler(ready bool) (http.Handler, *vehicle.Registry) {
	registry := vehicle.NewRegistry(nil)
	opts := options.NewHttpOptions()
	opts.MaxBodyBytes = 512
	return NewServer(opts, Backend{Registry: registry, Ready: func() bool { return ready }}).Handler(), registry
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
	return rec
}

func TestHealthEndpoints(t *testing.T) {
	h, _ := newTestHandler(false)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/healthz", "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, do(t, h, http.MethodGet, "/readyz", "").Code)

	h, _ = newTestHandler(true)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/readyz", "").Code)

	rec := do(t, h, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "cpeer_report_vehicles_tracked")
}

func TestIngestAndGet(t *testing.T) {
	h, _ := newTestHandler(true)

	rec := do(t, h, http.MethodPost, "/api/v1/vehicles/VIN1/state", `{"attributes": {
		"hmiVersion": "ID8", "headUnitType": "MGU", "year": 2021,
		"softwareVersionCurrent": {"iStep": 1234, "puStep": {"month": 11, "year": 21}}
	}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var state vehicle.State
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.Equal(t, "11/2021.234", state.Headunit.SoftwareVersion)

	rec = do(t, h, http.MethodGet, "/api/v1/vehicles/VIN1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.Equal(t, "VIN1", state.VIN)

	rec = do(t, h, http.MethodGet, "/api/v1/vehicles", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []vehicle.State
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/v1/vehicles/VIN2", "").Code)
}

func TestIngestFailures(t *testing.T) {
	h, registry := newTestHandler(true)

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/api/v1/vehicles/VIN1/state", `{bad`).Code)
	assert.Equal(t, http.StatusRequestEntityTooLarge,
		do(t, h, http.MethodPost, "/api/v1/vehicles/VIN1/state", `{"x": "`+strings.Repeat("a", 1024)+`"}`).Code)
	assert.Equal(t, 0, registry.Len())

	rec := do(t, h, http.MethodPost, "/api/v1/vehicles/VIN1/state", `{"state": {
		"requiredServices": [{"type": "OIL", "status": "SOON"}],
		"checkControlMessages": [{"type": "WASHER_FLUID", "severity": "MEDIUM"}]
	}}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error, "SOON")
	require.NotNil(t, resp.Vehicle)
	assert.True(t, resp.Vehicle.CheckControl.HasCheckControlMessages)
}

func TestMethodNotAllowed(t *testing.T) {
	h, _ := newTestHandler(true)
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, h, http.MethodDelete, "/api/v1/vehicles/VIN1", "").Code)
}

func TestIngestPublishesReport(t *testing.T) {
	var (
		mu        sync.Mutex
		published []vehicle.State
	)
	opts := options.NewHttpOptions()
	h := NewServer(opts, Backend{
		Registry: vehicle.NewRegistry(nil),
		Publish: func(_ context.Context, state vehicle.State) error {
			mu.Lock()
			defer mu.Unlock()
			published = append(published, state)
			return nil
		},
	}).Handler()

	rec := do(t, h, http.MethodPost, "/api/v1/vehicles/VIN1/state", `{"state": {
		"checkControlMessages": [{"type": "ENGINE_OIL", "severity": "HIGH"}]
	}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, published, 1)
	assert.Equal(t, "VIN1", published[0].VIN)
	assert.True(t, published[0].CheckControl.HasCheckControlMessages)
}

func TestIngestBusyVehicleTimesOut(t *testing.T) {
	registry := vehicle.NewRegistry(nil)
	opts := options.NewHttpOptions()
	opts.ReadTimeout = 50 * time.Millisecond
	h := NewServer(opts, Backend{Registry: registry}).Handler()

	held := make(chan struct{})
	unblock := make(chan struct{})
	go func() {
		_, _ = registry.Ingest(context.Background(), "VIN1", report.Document{}, func(vehicle.State) {
			close(held)
			<-unblock
		})
	}()
	<-held
	defer close(unblock)

	start := time.Now()
	rec := do(t, h, http.MethodPost, "/api/v1/vehicles/VIN1/state", `{}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code, rec.Body.String())
	assert.Less(t, time.Since(start), 5*time.Second)

	// The API timeout applies to reads as well, but they never wait for a vehicle.
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/api/v1/vehicles/VIN1", "").Code)
}

// fakeVehicle answers every remote service command with the given states.
type fakeVehicle struct {
	commander *remote.Commander
	replies   []string
}

func (v *fakeVehicle) Publish(_ context.Context, _ string, _ int, _ bool, payload []byte) error {
	var cmd remote.Command
	if err := json.Unmarshal(payload, &cmd); err != nil {
		return err
	}
	go func() {
		for _, state := range v.replies {
			v.commander.HandleStatus(context.Background(), "iov/v1/command-status/VIN1",
				fmt.Appendf(nil, `{"eventId": %q, "eventStatus": %q}`, cmd.EventID, state))
		}
	}()
	return nil
}

func newServiceHandler(replies ...string) http.Handler {
	v := &fakeVehicle{replies: replies}
	v.commander = remote.NewCommander(v, topic.NewBuilder("iov/v1"), 1,
		remote.Poller{Interval: time.Millisecond, Timeout: 50 * time.Millisecond})

	opts := options.NewHttpOptions()
	opts.MaxBodyBytes = 512
	return NewServer(opts, Backend{Registry: vehicle.NewRegistry(nil), Commander: v.commander}).Handler()
}

func TestTriggerService(t *testing.T) {
	tests := []struct {
		name    string
		replies []string
		path    string
		body    string
		code    int
		state   remote.ExecutionState
	}{
		{"executed", []string{"PENDING", "EXECUTED"}, "/api/v1/vehicles/VIN1/services/door-lock", "", http.StatusOK, remote.StateExecuted},
		{"climate", []string{"EXECUTED"}, "/api/v1/vehicles/VIN1/services/climate-now", `{"params": {"action": "START"}}`, http.StatusOK, remote.StateExecuted},
		{"vehicle error", []string{"ERROR"}, "/api/v1/vehicles/VIN1/services/horn-blow", "", http.StatusBadGateway, remote.StateError},
		{"timeout", []string{"DELIVERED"}, "/api/v1/vehicles/VIN1/services/light-flash", "", http.StatusGatewayTimeout, remote.StateDelivered},
		{"unknown service", nil, "/api/v1/vehicles/VIN1/services/self-destruct", "", http.StatusBadRequest, ""},
		{"invalid params", nil, "/api/v1/vehicles/VIN1/services/climate-now", `{"params": {"action": "HEAT"}}`, http.StatusBadRequest, ""},
		{"charging target", nil, "/api/v1/vehicles/VIN1/services/CHARGING_SETTINGS", `{"data": {"chargingTarget": 42}}`, http.StatusBadRequest, ""},
		{"bad body", nil, "/api/v1/vehicles/VIN1/services/door-lock", `{bad`, http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, newServiceHandler(tt.replies...), http.MethodPost, tt.path, tt.body)
			require.Equal(t, tt.code, rec.Code, rec.Body.String())
			if tt.state == "" {
				return
			}

			var body struct {
				State  remote.ExecutionState `json:"state"`
				Status remote.Status         `json:"status"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			got := body.State
			if got == "" {
				got = body.Status.State
			}
			assert.Equal(t, tt.state, got)
		})
	}
}

func TestTriggerServiceDisabledWithoutCommander(t *testing.T) {
	h, _ := newTestHandler(true)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodPost, "/api/v1/vehicles/VIN1/services/door-lock", "").Code)
}
