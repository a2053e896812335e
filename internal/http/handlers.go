package http

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"path/filepath"

	"netusage/internal/chart"
	"netusage/internal/core"
	"netusage/internal/log"
	"netusage/internal/report"
	"netusage/internal/session"
	"netusage/internal/source"
)

// currentSession returns the session named by the request cookie.
func (s *Server) currentSession(r *http.Request) (*session.Session, bool) {
	c, err := r.Cookie(s.cfg.Session.CookieName)
	if err != nil || c.Value == "" {
		return nil, false
	}
	return s.sessions.Get(c.Value)
}

func (s *Server) setSessionCookie(w http.ResponseWriter, r *http.Request, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.Session.CookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.Session.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

// load reads src into a new stored session and announces it.
func (s *Server) load(ctx context.Context, src source.Source) (*session.Session, error) {
	logger := log.FromContext(ctx).WithComponent(log.ComponentSession)

	sess, lr, err := session.Load(ctx, src)
	if err != nil {
		s.metrics.Rows(lr)
		s.metrics.LoadFailed(failureReason(err))
		logger.WarnContext(ctx, "Dataset load failed",
			log.NewFields().
				WithOperation(log.OpLoad).
				WithError(err).
				WithLoad("", src.Name(), src.Kind(), lr.RowsRead, lr.RowsKept, lr.RowsDropped, lr.ZeroCoerced).
				ToSlice()...)
		return nil, err
	}

	s.sessions.Put(sess)
	s.metrics.DatasetLoaded(sess.SourceKind, lr)
	logger.InfoContext(ctx, "Dataset loaded",
		log.NewFields().
			WithOperation(log.OpLoad).
			WithLoad(sess.ID, sess.Source, sess.SourceKind, lr.RowsRead, lr.RowsKept, lr.RowsDropped, lr.ZeroCoerced).
			ToSlice()...)

	s.announce(ctx, sess)
	return sess, nil
}

// failureReason maps a load error to a bounded metric label.
func failureReason(err error) string {
	switch {
	case errors.Is(err, core.ErrMissingColumn):
		return "missing_column"
	case errors.Is(err, session.ErrNoValidRows):
		return "no_valid_rows"
	case errors.Is(err, source.ErrEmptyFile):
		return "empty_file"
	case errors.Is(err, source.ErrMissingHeader):
		return "missing_header"
	case errors.Is(err, source.ErrInvalidEncoding):
		return "invalid_encoding"
	default:
		return "read_error"
	}
}

// loadFailureMessage is the text shown to the user for a failed load.
func loadFailureMessage(name string, err error) string {
	switch {
	case errors.Is(err, session.ErrNoValidRows):
		return "No valid rows found in " + name + ". Check the Start Date column."
	case errors.Is(err, core.ErrMissingColumn),
		errors.Is(err, source.ErrEmptyFile),
		errors.Is(err, source.ErrMissingHeader),
		errors.Is(err, source.ErrInvalidEncoding):
		return "Could not load " + name + ": " + err.Error()
	default:
		return "Could not read " + name + "."
	}
}

// loadDefault loads the configured default CSV when it exists.
func (s *Server) loadDefault(ctx context.Context) (*session.Session, *banner) {
	f := source.NamedFile{Path: s.cfg.Data.DefaultCSV}
	if !f.Exists() {
		return nil, nil
	}
	sess, err := s.load(ctx, f)
	if err != nil {
		return nil, &banner{Kind: "error", Message: loadFailureMessage(f.Path, err)}
	}
	return sess, &banner{Kind: "success", Message: "Loaded default file: " + f.Path}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if s.templates == nil {
		log.FromContext(ctx).ErrorContext(ctx, "Templates not loaded")
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	data := s.newPageData()
	status := http.StatusOK

	sel, err := ParseSelection(s.validate, r.URL.Query())
	if err != nil {
		status = http.StatusBadRequest
		data.Banners = append(data.Banners, banner{Kind: "error", Message: err.Error()})
		sel = core.Selection{}
	}

	sess, ok := s.currentSession(r)
	if !ok && r.URL.Query().Get("default") != "off" {
		var b *banner
		sess, b = s.loadDefault(ctx)
		if b != nil {
			data.Banners = append(data.Banners, *b)
		}
		if sess != nil {
			s.setSessionCookie(w, r, sess.ID)
		}
	}

	if sess == nil {
		data.Banners = append(data.Banners, banner{Kind: "info", Message: uploadPrompt})
	} else {
		data.withSession(sess, sess.Resolve(sel, s.cfg.DefaultUnit()))
	}

	s.renderPage(w, r, status, data)
}

func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, status int, data pageData) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "index.html", data); err != nil {
		log.LogError(r.Context(), "Index template execution failed", err, log.OpRender, log.NewFields())
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// handleUpload replaces the caller's session with the uploaded CSV.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.FromContext(ctx)
	clientIP := extractClientIP(r)

	if !s.limiter.allow(clientIP, &s.secMetrics) {
		logger.WithComponent(log.ComponentRateLimit).WarnContext(ctx, "Rate limit exceeded",
			log.FieldClientIP, clientIP, log.FieldPath, r.URL.Path)
		w.Header().Set("Retry-After", "60")
		http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
		return
	}

	if s.templates == nil {
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	fail := func(status int, msg string) {
		data := s.newPageData()
		data.Banners = append(data.Banners, banner{Kind: "error", Message: msg})
		if prev, ok := s.currentSession(r); ok {
			data.withSession(prev, prev.DefaultSelection(s.cfg.DefaultUnit()))
		}
		s.renderPage(w, r, status, data)
	}

	limit := s.cfg.Data.UploadMaxBytes
	tooLarge := func(size int64) {
		s.metrics.LoadFailed("too_large")
		logger.WarnContext(ctx, "Upload too large", log.FieldOperation, log.OpUpload, log.FieldBytes, size)
		fail(http.StatusRequestEntityTooLarge, "File too large. The limit is "+s.newPageData().UploadLimit+".")
	}
	if r.ContentLength > limit {
		tooLarge(r.ContentLength)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(limit); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			tooLarge(maxErr.Limit)
			return
		}
		logger.WarnContext(ctx, "Parse upload form failed", log.FieldOperation, log.OpUpload, log.FieldError, err)
		fail(http.StatusBadRequest, "Invalid upload request.")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, hdr, err := r.FormFile("file")
	if err != nil {
		fail(http.StatusBadRequest, "Choose a CSV file to upload.")
		return
	}
	defer file.Close()

	body, err := io.ReadAll(file)
	if err != nil {
		log.LogError(ctx, "Read upload failed", err, log.OpUpload, nil)
		fail(http.StatusBadRequest, "Could not read the uploaded file.")
		return
	}

	name := sanitizeInput(filepath.Base(hdr.Filename))
	if name == "." || name == string(filepath.Separator) {
		name = ""
	}
	sess, err := s.load(ctx, source.Stream{Filename: name, Data: body})
	if err != nil {
		fail(http.StatusUnprocessableEntity, loadFailureMessage(source.Stream{Filename: name}.Name(), err))
		return
	}

	if prev, ok := s.currentSession(r); ok {
		s.sessions.Delete(prev.ID)
	}
	s.setSessionCookie(w, r, sess.ID)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleClearSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if sess, ok := s.currentSession(r); ok {
		s.sessions.Delete(sess.ID)
		log.FromContext(ctx).WithComponent(log.ComponentSession).InfoContext(ctx, "Session cleared",
			log.FieldOperation, log.OpClear, log.FieldSessionID, sess.ID)
	}
	s.clearSessionCookie(w, r)
	http.Redirect(w, r, "/?default=off", http.StatusSeeOther)
}

// selectionFor resolves the query selection against the caller's session.
func (s *Server) selectionFor(r *http.Request) (*session.Session, core.Selection, error) {
	sel, err := ParseSelection(s.validate, r.URL.Query())
	if err != nil {
		return nil, core.Selection{}, err
	}
	sess, ok := s.currentSession(r)
	if !ok {
		return nil, sel, nil
	}
	return sess, sess.Resolve(sel, s.cfg.DefaultUnit()), nil
}

// handleSummaryPartial renders the metrics, table and chart fragment.
func (s *Server) handleSummaryPartial(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, sel, err := s.selectionFor(r)
	if err != nil {
		BadRequestError(err.Error()).TriggerErrorNotification(err.Error()).Write(w)
		return
	}
	if sess == nil {
		NewHTMXResponse().
			TriggerNotification(NotificationInfo, uploadPrompt, 5000).
			BodyHTML(`<section id="summary" class="summary"><div class="placeholder">No dataset loaded.</div></section>`).
			Write(w)
		return
	}
	if s.templates == nil {
		InternalServerError("templates not loaded").Write(w)
		return
	}

	view := newSummaryView(sess.Summary(sel))
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "summary", view); err != nil {
		log.LogError(ctx, "Summary template execution failed", err, log.OpRender,
			log.NewFields().WithSelection(sel.Year, sel.Month, sel.Unit.String()))
		InternalServerError("Could not render summary").Write(w)
		return
	}

	log.FromContext(ctx).DebugContext(ctx, "Summary rendered",
		log.NewFields().WithOperation(log.OpSummary).WithSelection(sel.Year, sel.Month, sel.Unit.String()).ToSlice()...)

	NewHTMXResponse().
		TriggerSummaryUpdated(sel.Year, sel.Month, sel.Unit.String()).
		PushURL("/?" + selectionQuery(sel)).
		Body(buf.Bytes()).
		Header("Content-Type", "text/html; charset=utf-8").
		Write(w)
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, sel, err := s.selectionFor(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if sess == nil {
		http.Error(w, "no dataset loaded", http.StatusNotFound)
		return
	}

	format := chartFormat(r.URL.Path)
	sum := sess.Summary(sel)
	var buf bytes.Buffer
	if err := chart.Daily(&buf, format, sel.Unit, sum.Daily); err != nil {
		if errors.Is(err, chart.ErrNoData) {
			http.Error(w, "no usage for the selected month", http.StatusNotFound)
			return
		}
		log.LogError(ctx, "Chart render failed", err, log.OpRender,
			log.NewFields().WithSelection(sel.Year, sel.Month, sel.Unit.String()))
		http.Error(w, "chart rendering failed", http.StatusInternalServerError)
		return
	}
	s.metrics.ChartRendered(string(format))

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleAPISummary(w http.ResponseWriter, r *http.Request) {
	sess, sel, err := s.selectionFor(r)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusBadRequest, apiError{Error: "invalid parameters", Fields: verr.Fields})
			return
		}
		writeJSON(w, http.StatusBadRequest, apiError{Error: err.Error()})
		return
	}
	if sess == nil {
		writeJSON(w, http.StatusNotFound, apiError{Error: "no dataset loaded"})
		return
	}
	writeJSON(w, http.StatusOK, report.NewDocument(sess.Source, sess.Summary(sel), sess.Report))
}
