package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/autopeer-io/cpeer-report/internal/pkg/metrics"
	middleware "github.com/autopeer-io/cpeer-report/internal/pkg/middleware/http"
	"github.com/autopeer-io/cpeer-report/internal/remote"
	"github.com/autopeer-io/cpeer-report/internal/report"
	"github.com/autopeer-io/cpeer-report/internal/vehicle"
	"github.com/autopeer-io/cpeer-report/pkg/log"
	"github.com/autopeer-io/cpeer-report/pkg/options"
)

// ReadyFunc reports whether the server can accept traffic.
type ReadyFunc func() bool

// PublishFunc forwards a freshly ingested state, e.g. as the MQTT report.
type PublishFunc func(ctx context.Context, state vehicle.State) error

// Backend is what the HTTP API serves. Only Registry is required.
type Backend struct {
	Registry  *vehicle.Registry
	Commander *remote.Commander
	Ready     ReadyFunc
	Publish   PublishFunc
}

type Server struct {
	server  *http.Server
	options *options.HttpOptions
	backend Backend
	logger  log.Logger
}

type errorResponse struct {
	Error   string         `json:"error"`
	Vehicle *vehicle.State `json:"vehicle,omitempty"`
}

func NewServer(opts *options.HttpOptions, backend Backend) *Server {
	if backend.Ready == nil {
		backend.Ready = func() bool { return true }
	}

	s := &Server{
		options: opts,
		backend: backend,
		logger:  log.WithName("http"),
	}
	s.server = &http.Server{
		Addr:        opts.Addr,
		Handler:     s.Handler(),
		ReadTimeout: opts.ReadTimeout,
	}
	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(middleware.Logging(s.logger))

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	r.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		if !s.backend.Ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("not ready"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	// Remote services wait for the vehicle much longer than the API timeout.
	if s.backend.Commander != nil {
		services := r.PathPrefix("/api/v1/vehicles/{vin}/services").Subrouter()
		services.HandleFunc("/{service}", s.triggerService).Methods(http.MethodPost)
	}

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.Timeout(s.options.ReadTimeout))
	api.HandleFunc("/vehicles", s.listVehicles).Methods(http.MethodGet)
	api.HandleFunc("/vehicles/{vin}", s.getVehicle).Methods(http.MethodGet)
	api.HandleFunc("/vehicles/{vin}/state", s.ingestState).Methods(http.MethodPost)

	return r
}

func (s *Server) listVehicles(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.backend.Registry.List())
}

func (s *Server) getVehicle(w http.ResponseWriter, r *http.Request) {
	vin := mux.Vars(r)["vin"]
	state, ok := s.backend.Registry.Get(vin)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "vehicle " + vin + " not found"})
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) ingestState(w http.ResponseWriter, r *http.Request) {
	vin := mux.Vars(r)["vin"]

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.options.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	doc, err := report.DecodeDocument(body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	state, err := s.backend.Registry.Ingest(r.Context(), vin, doc, s.publish(r.Context()))
	if err != nil {
		switch {
		case errors.Is(err, vehicle.ErrEmptyVIN):
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "vehicle " + vin + " is busy: " + err.Error()})
			return
		}
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Vehicle: &state})
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) publish(ctx context.Context) vehicle.CommitFunc {
	return func(state vehicle.State) {
		if s.backend.Publish == nil {
			return
		}
		if err := s.backend.Publish(ctx, state); err != nil {
			s.logger.Error(err, "Failed to publish report", "vin", state.VIN)
		}
	}
}

type serviceRequest struct {
	Params map[string]string `json:"params,omitempty"`
	Data   json.RawMessage   `json:"data,omitempty"`
}

func (s *Server) triggerService(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	service, err := remote.ParseService(vars["service"])
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	var req serviceRequest
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.options.MaxBodyBytes))
	if err == nil && len(body) > 0 {
		err = json.Unmarshal(body, &req)
	}
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	st, err := s.backend.Commander.Trigger(r.Context(), vars["vin"], remote.Request{
		Service: service,
		Params:  req.Params,
		Data:    req.Data,
	})
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, st)
	case errors.Is(err, remote.ErrInvalidRequest):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, remote.ErrExecutionFailed):
		writeJSON(w, http.StatusBadGateway, serviceError{Error: err.Error(), Status: st})
	case errors.Is(err, remote.ErrTimeout):
		writeJSON(w, http.StatusGatewayTimeout, serviceError{Error: err.Error(), Status: st})
	default:
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
	}
}

type serviceError struct {
	Error  string        `json:"error"`
	Status remote.Status `json:"status"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("Starting HTTP Server", "addr", s.server.Addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeout := s.options.ShutdownTimeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	}
}
