package handler

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/issue-tracker/internal/apperror"
	"github.com/sakif/issue-tracker/internal/auth"
	"github.com/sakif/issue-tracker/internal/model"
	"github.com/sakif/issue-tracker/internal/repository"
	"github.com/sakif/issue-tracker/internal/service"
)

// maxBodyBytes bounds request bodies. The largest valid patch is a 65535
// character description plus a title and ids.
const maxBodyBytes = 256 << 10

// IssueHandler serves the issues API.
//
//   - HandleList   → GET    /api/issues
//   - HandleCreate → POST   /api/issues
//   - HandleGet    → GET    /api/issues/{id}
//   - HandleUpdate → PATCH  /api/issues/{id}
//   - HandleDelete → DELETE /api/issues/{id}
//
// Mutating handlers resolve the session before touching the body or the id,
// so an anonymous caller always gets 401 regardless of what it sent.
type IssueHandler struct {
	issues   *service.IssueService
	sessions auth.SessionProvider
	logger   *slog.Logger
}

func NewIssueHandler(issues *service.IssueService, sessions auth.SessionProvider, logger *slog.Logger) *IssueHandler {
	return &IssueHandler{
		issues:   issues,
		sessions: sessions,
		logger:   logger,
	}
}

// HandleList returns a page of issues, newest first.
//
// HTTP: GET /api/issues?status=OPEN&limit=20&offset=0
func (h *IssueHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	opts, err := listOptions(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	issues, err := h.issues.List(r.Context(), opts)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, issues)
}

// HandleGet returns one issue.
func (h *IssueHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	issue, err := h.issues.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, issue)
}

// HandleCreate stores a new issue.
//
// HTTP: POST /api/issues
// REQUEST BODY: {"title":"...","description":"..."}
func (h *IssueHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if h.sessions.Session(r) == nil {
		writeError(w, h.logger, apperror.Unauthorized())
		return
	}

	body, err := readBody(w, r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	issue, err := h.issues.Create(r.Context(), body)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, issue)
}

// HandleUpdate applies a partial update.
//
// HTTP: PATCH /api/issues/{id}
// REQUEST BODY: {"title"?:"...","description"?:"...","status"?:"...","assignedToUserId"?:"..."|null}
//
//	401 {}                       no session
//	400 {"_errors":[],...}       body fails the schema
//	400 {"error":"Invalid user."}
//	404 {"error":"Invalid issue"}
//	200 the updated issue
func (h *IssueHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	session := h.sessions.Session(r)
	if session == nil {
		writeError(w, h.logger, apperror.Unauthorized())
		return
	}

	body, err := readBody(w, r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	issue, err := h.issues.Update(r.Context(), chi.URLParam(r, "id"), body)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.logger.Debug("issue patched",
		slog.Int64("id", issue.ID),
		slog.String("by", session.UserID),
	)
	writeJSON(w, http.StatusOK, issue)
}

// HandleDelete removes an issue and answers with an empty object.
//
// HTTP: DELETE /api/issues/{id}
func (h *IssueHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if h.sessions.Session(r) == nil {
		writeError(w, h.logger, apperror.Unauthorized())
		return
	}

	if err := h.issues.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

// readBody reads the whole body so the service can decode and validate it
// in one pass. An oversized body is a schema failure like any other.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var fe apperror.FieldErrors
		fe.Add("", "Invalid JSON body")
		return nil, apperror.SchemaFailed(fe)
	}
	return body, nil
}

func listOptions(r *http.Request) (repository.ListOptions, error) {
	q := r.URL.Query()
	opts := repository.ListOptions{Status: model.IssueStatus(q.Get("status"))}

	var err error
	if opts.Limit, err = intParam(q.Get("limit"), "limit"); err != nil {
		return opts, err
	}
	if opts.Offset, err = intParam(q.Get("offset"), "offset"); err != nil {
		return opts, err
	}
	return opts, nil
}

func intParam(raw, name string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperror.ValidationFailed(name, name+" must be an integer")
	}
	return n, nil
}
