package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/video-system/go-capture-negotiation/pkg/camerror"
	"github.com/video-system/go-capture-negotiation/pkg/engine"
	"github.com/video-system/go-capture-negotiation/pkg/format"
	"github.com/video-system/go-capture-negotiation/pkg/request"
	"github.com/video-system/go-capture-negotiation/pkg/ringbuffer"
	"github.com/video-system/go-capture-negotiation/pkg/session"
)

// Negotiator is the engine surface the API serves
type Negotiator interface {
	Devices() []*engine.Snapshot
	Snapshot(deviceID string) (*engine.Snapshot, error)
	Formats(deviceID string) ([]format.Descriptor, error)
	FormatAt(deviceID string, index int) (format.Descriptor, error)
	SelectFormat(deviceID string, filter format.Filter) (format.Descriptor, error)
	RankFormats(deviceID string, filter format.Filter) ([]format.Candidate, error)
	BuildRepeating(deviceID string, active *format.Descriptor, intent request.Intent) (*request.Parameters, error)
	BuildPhoto(deviceID string, active *format.Descriptor, intent request.PhotoIntent) (*request.Parameters, error)
	SubmitRepeating(ctx context.Context, deviceID string, active *format.Descriptor, intent request.Intent) (*session.Envelope, error)
	Capture(ctx context.Context, deviceID string, active *format.Descriptor, intent request.PhotoIntent) (*session.Envelope, error)
	History(deviceID string) ([]*ringbuffer.Entry, error)
}

// ServerConfig holds API server configuration
type ServerConfig struct {
	Host       string
	Port       int
	Negotiator Negotiator
	Logger     *zap.Logger
}

// Server is the HTTP API server
type Server struct {
	cfg    ServerConfig
	logger *zap.Logger
	server *http.Server
}

// NewServer creates a new API server
func NewServer(cfg ServerConfig) *Server {
	s := &Server{cfg: cfg, logger: cfg.Logger}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/v1/devices", s.handleDevices)
	mux.HandleFunc("GET /api/v1/devices/{id}", s.handleDevice)
	mux.HandleFunc("GET /api/v1/devices/{id}/formats", s.handleFormats)
	mux.HandleFunc("POST /api/v1/devices/{id}/formats/select", s.handleSelectFormat)
	mux.HandleFunc("POST /api/v1/devices/{id}/requests/repeating", s.handleRepeating)
	mux.HandleFunc("POST /api/v1/devices/{id}/requests/photo", s.handlePhoto)
	mux.HandleFunc("GET /api/v1/devices/{id}/requests", s.handleHistory)

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

// Handler returns the route multiplexer.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the API server. It returns nil after Stop.
func (s *Server) Start() error {
	s.logger.Info("API server starting", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop stops the API server
func (s *Server) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		s.logger.Warn("API server shutdown", zap.Error(err))
	}
}

// errorResponse is the body of every failed request.
type errorResponse struct {
	Code    string `json:"code"`
	Kind    string `json:"kind"`
	Param   string `json:"param,omitempty"`
	Message string `json:"message"`
}

// formatRef picks the active format of a build request: an index into the
// device catalog, or a filter to select with. Neither means no format.
type formatRef struct {
	FormatIndex *int          `json:"format_index,omitempty"`
	Filter      format.Filter `json:"filter,omitempty"`
}

type repeatingRequest struct {
	formatRef
	Intent request.Intent `json:"intent"`
	Submit bool           `json:"submit"`
}

type photoRequest struct {
	formatRef
	Intent request.PhotoIntent `json:"intent"`
	Submit bool                `json:"submit"`
}

type deviceSummary struct {
	ID         string `json:"id"`
	Name       string `json:"name,omitempty"`
	SnapshotID string `json:"snapshot_id"`
	Position   string `json:"position"`
	Platform   string `json:"platform"`
	OpenedAt   int64  `json:"opened_at"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "go-capture-negotiation",
	})
}

func (s *Server) handleDevices(w http.ResponseWriter, r *http.Request) {
	snaps := s.cfg.Negotiator.Devices()
	out := make([]deviceSummary, 0, len(snaps))
	for _, snap := range snaps {
		caps := snap.Capabilities
		out = append(out, deviceSummary{
			ID:         caps.ID,
			Name:       caps.Name,
			SnapshotID: snap.ID,
			Position:   string(caps.Position),
			Platform:   caps.Platform,
			OpenedAt:   snap.OpenedAt.UnixMilli(),
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"devices": out})
}

func (s *Server) handleDevice(w http.ResponseWriter, r *http.Request) {
	snap, err := s.cfg.Negotiator.Snapshot(r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"snapshot_id":           snap.ID,
		"opened_at":             snap.OpenedAt.UnixMilli(),
		"capabilities":          snap.Capabilities,
		"stabilization_modes":   snap.Capabilities.StabilizationModes(),
		"device_types":          snap.Capabilities.DeviceTypes(),
		"max_field_of_view":     snap.Capabilities.MaxFieldOfView(),
		"unmapped_constants":    snap.Capabilities.Unmapped(),
		"preview_stabilization": snap.Capabilities.IsPreviewStabilizationSupported(),
	})
}

func (s *Server) handleFormats(w http.ResponseWriter, r *http.Request) {
	formats, err := s.cfg.Negotiator.Formats(r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"formats": formats})
}

func (s *Server) handleSelectFormat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Filter format.Filter `json:"filter"`
		Rank   bool          `json:"rank"`
	}
	if !decode(w, r, &req) {
		return
	}

	ranked, err := s.cfg.Negotiator.RankFormats(r.PathValue("id"), req.Filter)
	if err != nil {
		s.writeError(w, err)
		return
	}
	resp := map[string]interface{}{"selected": ranked[0]}
	if req.Rank {
		resp["ranked"] = ranked
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRepeating(w http.ResponseWriter, r *http.Request) {
	var req repeatingRequest
	if !decode(w, r, &req) {
		return
	}
	id := r.PathValue("id")
	active, err := s.resolveFormat(id, req.formatRef)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if req.Submit {
		env, err := s.cfg.Negotiator.SubmitRepeating(r.Context(), id, active, req.Intent)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, env)
		return
	}

	params, err := s.cfg.Negotiator.BuildRepeating(id, active, req.Intent)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, params)
}

func (s *Server) handlePhoto(w http.ResponseWriter, r *http.Request) {
	var req photoRequest
	if !decode(w, r, &req) {
		return
	}
	id := r.PathValue("id")
	active, err := s.resolveFormat(id, req.formatRef)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if req.Submit {
		env, err := s.cfg.Negotiator.Capture(r.Context(), id, active, req.Intent)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, env)
		return
	}

	params, err := s.cfg.Negotiator.BuildPhoto(id, active, req.Intent)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, params)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := s.cfg.Negotiator.History(r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"requests": entries})
}

func (s *Server) resolveFormat(deviceID string, ref formatRef) (*format.Descriptor, error) {
	switch {
	case ref.FormatIndex != nil:
		d, err := s.cfg.Negotiator.FormatAt(deviceID, *ref.FormatIndex)
		if err != nil {
			return nil, err
		}
		return &d, nil
	case len(ref.Filter) > 0:
		d, err := s.cfg.Negotiator.SelectFormat(deviceID, ref.Filter)
		if err != nil {
			return nil, err
		}
		return &d, nil
	default:
		return nil, nil
	}
}

// statusFor maps an error kind to its HTTP status.
func statusFor(err error) (int, errorResponse) {
	e, ok := camerror.As(err)
	if !ok {
		return http.StatusInternalServerError, errorResponse{
			Code:    "internal",
			Kind:    "internal",
			Message: err.Error(),
		}
	}
	resp := errorResponse{
		Code:    e.Code(),
		Kind:    e.Kind.String(),
		Param:   e.Param,
		Message: e.Error(),
	}
	switch {
	case errors.Is(e, camerror.ErrUnknownDevice):
		return http.StatusNotFound, resp
	case e.Kind == camerror.KindParameter:
		return http.StatusBadRequest, resp
	case e.Kind == camerror.KindDevice:
		return http.StatusUnprocessableEntity, resp
	case e.Kind == camerror.KindSession:
		return http.StatusBadGateway, resp
	default:
		return http.StatusInternalServerError, resp
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status, resp := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Int("status", status), zap.Error(err))
	} else {
		s.logger.Debug("request rejected", zap.Int("status", status), zap.String("code", resp.Code))
	}
	writeJSON(w, status, resp)
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Code:    "request/malformed-body",
			Kind:    camerror.KindParameter.String(),
			Message: err.Error(),
		})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

var _ Negotiator = (*engine.Negotiator)(nil)
