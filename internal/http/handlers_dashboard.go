package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"

	"findash/internal/core"
	"findash/internal/dashboard"
	"findash/internal/ledger"
	"findash/internal/log"
	"findash/internal/middleware/trace"
)

// uploadOverhead is room for multipart framing beyond the file itself.
const uploadOverhead = 1 << 20

func (s *Server) requestLogger(ctx context.Context) *log.Logger {
	if id := trace.GetRequestID(ctx); id != "" {
		return s.logger.With(log.FieldRequestID, id)
	}
	return s.logger
}

// selectFunc computes the view for a year and tab.
type selectFunc func(year int, tab core.Label) (dashboard.View, error)

// applySelection computes the view for the query's selection with pick,
// or returns the status and error to report.
func (s *Server) applySelection(r *http.Request, pick selectFunc) (dashboard.View, int, error) {
	params, err := ParseSelection(r.URL.Query())
	if err != nil {
		return dashboard.View{}, http.StatusBadRequest, err
	}
	if params.Year == 0 && params.Tab == "" {
		return s.controller.Current(), http.StatusOK, nil
	}
	view, err := pick(params.Year, params.Tab)
	switch {
	case errors.Is(err, dashboard.ErrUnknownYear):
		return dashboard.View{}, http.StatusNotFound, fmt.Errorf("no transactions for %d", params.Year)
	case err != nil:
		return dashboard.View{}, http.StatusBadRequest, err
	}
	s.requestLogger(r.Context()).DebugContext(r.Context(), "Selection applied",
		log.FieldYear, view.Year, log.FieldLabel, view.Tab.String(), log.FieldOperation, log.OpSelect)
	return view, http.StatusOK, nil
}

// handleCharts renders the dashboard partial (selectors, summary, pie and
// bar) for the requested selection.
func (s *Server) handleCharts(w http.ResponseWriter, r *http.Request) {
	view, status, err := s.applySelection(r, s.controller.Select)
	if err != nil {
		ErrorResponse(status, err.Error()).Write(w)
		return
	}
	s.renderPartial(w, r, "dashboard", view, nil)
}

// handleChartsJSON serves the same view as JSON. It reads only; the page's
// selection is left as it is.
func (s *Server) handleChartsJSON(w http.ResponseWriter, r *http.Request) {
	view, status, err := s.applySelection(r, s.controller.ViewFor)
	if err != nil {
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleTrend(w http.ResponseWriter, r *http.Request) {
	s.renderPartial(w, r, "trend", s.controller.Trend(), nil)
}

// handleUpload replaces the active dataset with the uploaded file. A
// rejected file leaves the dashboard untouched and answers 422 with the
// reason; the charts on screen stay as they are.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := s.requestLogger(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload+uploadOverhead)
	upload, closeFile, err := ParseUpload(r, s.maxUpload)
	if err != nil {
		logger.WarnContext(ctx, "Upload request rejected", log.FieldError, err, log.FieldOperation, log.OpUpload)
		UnprocessableEntityError(ledger.UserMessage(err)).
			TriggerErrorNotification(ledger.UserMessage(err)).
			Write(w)
		return
	}
	defer closeFile()

	view, err := s.datasets.Upload(ctx, upload)
	if err != nil {
		var upErr *ledger.UploadError
		if errors.As(err, &upErr) {
			msg := ledger.UserMessage(err)
			UnprocessableEntityError(msg).TriggerErrorNotification(msg).Write(w)
			return
		}
		logger.ErrorContext(ctx, "Upload failed", log.FieldError, err,
			log.FieldFilename, upload.Filename, log.FieldOperation, log.OpUpload)
		InternalServerError("the dataset could not be saved").Write(w)
		return
	}

	msg := fmt.Sprintf("Loaded %s: %d transactions", upload.Filename, view.Dataset.Rows)
	s.renderPartial(w, r, "upload_result", uploadResult{Filename: upload.Filename, View: view},
		NewHTMXResponse().
			TriggerDatasetReplaced(view.Version, view.Dataset.Rows, view.Years).
			TriggerSuccessNotification(msg))
}

type uploadResult struct {
	Filename string
	View     dashboard.View
}

// renderPartial executes a named template into a buffer so a failing
// template never leaves a half-written response.
func (s *Server) renderPartial(w http.ResponseWriter, r *http.Request, name string, data any, resp *HTMXResponseBuilder) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.requestLogger(r.Context()).ErrorContext(r.Context(), "Template execution error",
			log.FieldError, err, "template", name, log.FieldOperation, log.OpRender)
		InternalServerError("could not render view").Write(w)
		return
	}
	if resp == nil {
		resp = NewHTMXResponse()
	}
	resp.BodyHTML(buf.String()).Write(w)
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	s.requestLogger(r.Context()).WarnContext(r.Context(), "Upload rate limit exceeded",
		log.FieldOperation, log.OpUpload)
	TooManyRequestsError("Too many uploads. Please try again shortly.").Write(w)
}
