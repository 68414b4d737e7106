package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Badar25/Journal-backend/internal/audit"
	"github.com/Badar25/Journal-backend/internal/journal"
	"github.com/Badar25/Journal-backend/internal/logging"
	"github.com/Badar25/Journal-backend/internal/result"
	"github.com/Badar25/Journal-backend/internal/service"
)

// maxBodyBytes bounds request bodies. Entries are capped far below this.
const maxBodyBytes = 64 << 10

// handleCreate handles POST /v1/journals.
func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var d journal.Draft
	if !decodeBody(w, r, &d) {
		return
	}
	res := s.svc.Create(r.Context(), userFromContext(r.Context()), d)
	respond(s, w, r, "create", res, http.StatusCreated, "Journal created")
}

// handleList handles GET /v1/journals?days=N. Without days every entry is
// returned.
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	days, ok := daysParam(w, r)
	if !ok {
		return
	}
	res := s.svc.List(r.Context(), userFromContext(r.Context()), days)
	if !res.IsOk() {
		respond(s, w, r, "list", res, http.StatusOK, "")
		return
	}
	respond(s, w, r, "list", result.Ok(listResponse{Journals: res.Value()}), http.StatusOK, "Journals retrieved successfully")
}

// handleGet handles GET /v1/journals/{id}.
func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	res := s.svc.Get(r.Context(), userFromContext(r.Context()), r.PathValue("id"))
	respond(s, w, r, "get", res, http.StatusOK, "Journal retrieved successfully")
}

// handleUpdate handles PUT /v1/journals/{id}. Absent fields are left
// unchanged.
func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var p journal.Patch
	if !decodeBody(w, r, &p) {
		return
	}
	res := s.svc.Update(r.Context(), userFromContext(r.Context()), r.PathValue("id"), p)
	respond(s, w, r, "update", res, http.StatusOK, "Journal updated")
}

// handleDelete handles DELETE /v1/journals/{id}.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	owner, id := userFromContext(r.Context()), r.PathValue("id")
	res := s.svc.Delete(r.Context(), owner, id)
	if res.IsOk() {
		audit.LogAction(r.Context(), logging.FromContext(r.Context()), audit.ActionDelete, owner, slog.String("journal_id", id))
	}
	respond(s, w, r, "delete", res, http.StatusOK, "Journal deleted")
}

// handleDeleteAccount handles DELETE /v1/journals, erasing every entry the
// caller owns.
func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	owner := userFromContext(r.Context())
	res := s.svc.DeleteAccount(r.Context(), owner)
	if res.IsOk() {
		audit.LogAction(r.Context(), logging.FromContext(r.Context()), audit.ActionDeleteAccount, owner)
	}
	respond(s, w, r, "delete_account", res, http.StatusOK, "All journals deleted")
}

// handleChat handles POST /v1/journals/chat.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req chatRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		respond(s, w, r, "chat", result.Err[struct{}](result.KindMissingParameters, "Message is required"), http.StatusOK, "")
		return
	}
	res := s.svc.Chat(r.Context(), userFromContext(r.Context()), req.Message)
	s.metrics.generationDurationSeconds.WithLabelValues("chat").Observe(time.Since(start).Seconds())
	respond(s, w, r, "chat", res, http.StatusOK, "Chat response generated successfully")
}

// handleSummary handles GET /v1/journals/summary?days=N. Without days the
// last week is summarised.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	days, ok := daysParam(w, r)
	if !ok {
		return
	}
	res := s.svc.Summary(r.Context(), userFromContext(r.Context()), days)
	s.metrics.generationDurationSeconds.WithLabelValues("summary").Observe(time.Since(start).Seconds())
	respond(s, w, r, "summary", res, http.StatusOK, "Summary generated successfully")
}

// respond writes res as an envelope and counts the outcome. An Ok result is
// written with okStatus and okMsg; a failure with the status mapped from its
// kind and its own message.
func respond[T any](s *Server, w http.ResponseWriter, r *http.Request, op string, res result.Result[T], okStatus int, okMsg string) {
	if res.IsOk() {
		s.metrics.operationsTotal.WithLabelValues(op, "ok").Inc()
		writeJSON(w, r, okStatus, envelope{Success: true, Message: okMsg, Data: res.Value()})
		return
	}
	s.metrics.operationsTotal.WithLabelValues(op, string(res.Kind())).Inc()
	writeJSON(w, r, result.HTTPStatus(res.Kind()), envelope{Message: res.Message(), Error: string(res.Kind())})
}

// decodeBody decodes the JSON request body into dst. On failure it writes a
// 400 envelope and returns false.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		msg := "Invalid request body"
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			msg = "Request body too large"
		}
		logging.FromContext(r.Context()).Debug("request body rejected", slog.Any("error", err))
		writeJSON(w, r, http.StatusBadRequest, envelope{Message: msg, Error: string(result.KindMissingFields)})
		return false
	}
	return true
}

// daysParam parses the optional days query parameter. Absent means 0. On a
// malformed or negative value it writes a 400 envelope and returns false.
func daysParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("days")
	if raw == "" {
		return 0, true
	}
	days, err := strconv.Atoi(raw)
	if err != nil || days < 0 {
		writeJSON(w, r, http.StatusBadRequest, envelope{
			Message: "days must be a non-negative integer",
			Error:   string(result.KindMissingParameters),
		})
		return 0, false
	}
	return days, true
}

// writeJSON encodes body with the given status.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.FromContext(r.Context()).Error("response encode error", slog.Any("error", err))
	}
}

var _ journalService = (*service.Service)(nil)
