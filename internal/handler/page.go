// Package handler contains the HTTP handlers: the issues JSON API, the GitHub
// login flow and the server-rendered issue list.
//
// Handlers parse the request, call a service and write the response. They
// hold no business rules of their own.
package handler

import (
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/sakif/issue-tracker/internal/apperror"
	"github.com/sakif/issue-tracker/internal/model"
	"github.com/sakif/issue-tracker/internal/repository"
	"github.com/sakif/issue-tracker/internal/service"
)

//go:embed templates/*.html
var templateFS embed.FS

// PageHandler renders HTML pages. Templates are parsed once at startup.
//
// base.html holds the page shell with a {{template "content" .}} slot that
// each page fills with {{define "content"}}.
type PageHandler struct {
	templates *template.Template
	issues    *service.IssueService
	logger    *slog.Logger
}

func NewPageHandler(issues *service.IssueService, logger *slog.Logger) (*PageHandler, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/base.html", "templates/list.html")
	if err != nil {
		return nil, err
	}

	return &PageHandler{
		templates: tmpl,
		issues:    issues,
		logger:    logger,
	}, nil
}

// HandleIssueList renders the issue list. This is where the delete control
// sends the user after a successful delete.
//
// HTTP: GET /issues/list?status=OPEN
func (h *PageHandler) HandleIssueList(w http.ResponseWriter, r *http.Request) {
	opts, err := listOptions(r)
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	opts.Limit = repository.MaxListLimit

	issues, err := h.issues.List(r.Context(), opts)
	if errors.Is(err, apperror.ErrValidation) {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	if err != nil {
		h.logger.Error("issue list page: listing failed", slog.String("error", err.Error()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	data := map[string]any{
		"Title":    "Issues",
		"Issues":   issues,
		"Statuses": []model.IssueStatus{model.StatusOpen, model.StatusInProgress, model.StatusClosed},
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.ExecuteTemplate(w, "base", data); err != nil {
		h.logger.Error("failed to render template", slog.String("error", err.Error()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
