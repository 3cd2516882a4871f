package main

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"careerpilot/internal/apperrors"
	"careerpilot/internal/coordinator"
	"careerpilot/internal/logger"
	"careerpilot/internal/models"
)

// sessionAPI is the coordinator surface behind the admin API.
type sessionAPI interface {
	StartSession(ctx context.Context, req models.StartSessionRequest) (models.SessionState, error)
	StopSession(ctx context.Context, sessionID string) (models.SessionState, error)
	Session(ctx context.Context, sessionID string) (models.SessionState, error)
	Links(ctx context.Context, sessionID string) ([]models.SubmittedLink, error)
	Stats() coordinator.Stats
}

type api struct {
	svc sessionAPI
	log *zap.Logger
}

func newAPI(svc sessionAPI, log *zap.Logger) *api {
	return &api{svc: svc, log: logger.Component(log, "api")}
}

func (a *api) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /sessions", a.handleStart)
	mux.HandleFunc("GET /sessions/{id}", a.handleGet)
	mux.HandleFunc("DELETE /sessions/{id}", a.handleStop)
	mux.HandleFunc("GET /sessions/{id}/links", a.handleLinks)
	mux.HandleFunc("GET /metrics", a.handleMetrics)
	return mux
}

// handleStart creates a session.
//
// Method: POST
// Path:   /sessions
// Example:
//
//	curl -X POST localhost:8080/sessions -d '{"userId":"u1","platform":"ashby","searchConfig":{"limit":5}}'
func (a *api) handleStart(w http.ResponseWriter, r *http.Request) {
	var req models.StartSessionRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		a.writeError(w, errors.Mark(errors.Wrap(err, "decode request"), apperrors.ErrInvalidMessage))
		return
	}
	state, err := a.svc.StartSession(r.Context(), req)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusCreated, state)
}

// handleGet returns a session, live or completed.
func (a *api) handleGet(w http.ResponseWriter, r *http.Request) {
	state, err := a.svc.Session(r.Context(), strings.TrimSpace(r.PathValue("id")))
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, state)
}

// handleStop stops a session and returns its final state.
func (a *api) handleStop(w http.ResponseWriter, r *http.Request) {
	state, err := a.svc.StopSession(r.Context(), strings.TrimSpace(r.PathValue("id")))
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, state)
}

// handleLinks returns the session's submitted links.
func (a *api) handleLinks(w http.ResponseWriter, r *http.Request) {
	links, err := a.svc.Links(r.Context(), strings.TrimSpace(r.PathValue("id")))
	if err != nil {
		a.writeError(w, err)
		return
	}
	if links == nil {
		links = []models.SubmittedLink{}
	}
	a.writeJSON(w, http.StatusOK, links)
}

type errorBody struct {
	Code    apperrors.Code `json:"code"`
	Message string         `json:"message"`
}

func statusFor(code apperrors.Code) int {
	switch code {
	case apperrors.CodeInvalidMessage:
		return http.StatusBadRequest
	case apperrors.CodeNoActiveSession:
		return http.StatusNotFound
	case apperrors.CodeSessionExists, apperrors.CodeAlreadyProcess:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (a *api) writeError(w http.ResponseWriter, err error) {
	code := apperrors.CodeOf(err)
	status := statusFor(code)
	if status == http.StatusInternalServerError {
		a.log.Error("request failed", zap.Error(err))
	}
	a.writeJSON(w, status, errorBody{Code: code, Message: err.Error()})
}

func (a *api) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		a.log.Warn("encode response", zap.Error(err))
	}
}
