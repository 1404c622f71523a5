// Package server serves the dashboard over HTTP.
package server

import (
	"bytes"
	"context"
	"html/template"
	"io"
	"net/http"

	"go.uber.org/zap"

	"awsview/classifier"
	"awsview/configuration"
	"awsview/errors"
	"awsview/presenter"
)

const (
	packageName = "server"

	staticPrefix = "/static/"
	keyParam     = "key"
)

// Handler renders the dashboard. It keeps no per-request state, so one
// Handler serves any number of concurrent requests.
type Handler struct {
	cfg       *configuration.Config
	fetcher   InstanceFetcher
	presenter *presenter.Presenter
	logger    *zap.Logger
	handler   http.Handler
}

// New wires the routes: "/" for the page, "/static/" for its assets and
// "/healthz" for liveness checks.
func New(cfg *configuration.Config, fetcher InstanceFetcher, p *presenter.Presenter, logger *zap.Logger) *Handler {
	h := &Handler{
		cfg:       cfg,
		fetcher:   fetcher,
		presenter: p,
		logger:    logger.With(zap.String("package", packageName)),
	}

	mux := http.NewServeMux()
	mux.Handle(staticPrefix, presenter.StaticHandler(staticPrefix))
	mux.HandleFunc("/healthz", h.handleHealth)
	mux.HandleFunc("/", h.handleIndex)

	h.handler = h.logRequests(readOnly(mux))
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.handler.ServeHTTP(w, r)
}

// Render writes the page for key to w and returns the matching HTTP status.
// The error is the one shown on the page, if any. A template failure leaves w
// untouched.
func (h *Handler) Render(ctx context.Context, w io.Writer, key string) (int, error) {
	page, status, pageErr := h.buildPage(ctx, key)

	var buf bytes.Buffer
	if err := h.presenter.RenderPage(&buf, page); err != nil {
		return http.StatusInternalServerError, err
	}
	if _, err := buf.WriteTo(w); err != nil {
		return status, err
	}
	return status, pageErr
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	key := r.URL.Query().Get(keyParam)
	page, status, _ := h.buildPage(r.Context(), key)

	var buf bytes.Buffer
	if err := h.presenter.RenderPage(&buf, page); err != nil {
		h.logger.Error("Failed to render page",
			zap.String("operation", "render_page"),
			zap.Error(err),
		)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "ok\n")
}

// buildPage runs the whole pipeline for one request. The keys file is read
// every time so edits show up without a restart. Failures end up in the
// page's error banner; the menu is kept whenever the keys file was readable.
func (h *Handler) buildPage(ctx context.Context, key string) (presenter.Page, int, error) {
	page := presenter.Page{
		Title:     h.cfg.PageTitle,
		StaticURL: h.cfg.StaticURL,
		Selected:  key,
	}

	store, err := configuration.LoadKeyStore(h.cfg.KeysFile)
	if err != nil {
		return h.fail(page, key, err)
	}

	menu, err := h.presenter.RenderMenu(store.Sections(), key)
	if err != nil {
		return h.fail(page, key, err)
	}
	page.Menu = menu

	// A blank key is the same as no key.
	if key == "" {
		return page, http.StatusOK, nil
	}

	tables, count, err := h.tables(ctx, store, key)
	if err != nil {
		return h.fail(page, key, err)
	}
	page.Tables = tables
	page.Instances = count
	return page, http.StatusOK, nil
}

func (h *Handler) tables(ctx context.Context, store *configuration.KeyStore, key string) (template.HTML, int, error) {
	cred, err := store.Credential(key)
	if err != nil {
		return "", 0, err
	}

	instances, err := h.fetcher.FetchInstances(ctx, cred)
	if err != nil {
		return "", 0, err
	}

	groups := classifier.Classify(instances)
	h.logger.Debug("Instances classified",
		zap.String("operation", "classify"),
		zap.String("section", key),
		zap.Int("instances", groups.Count()),
		zap.Int("groups", len(groups)),
	)
	tables, err := h.presenter.RenderTables(groups)
	if err != nil {
		return "", 0, err
	}
	return tables, groups.Count(), nil
}

func (h *Handler) fail(page presenter.Page, key string, err error) (presenter.Page, int, error) {
	status := StatusFor(err)
	page.ErrorTitle = errorTitle(err)
	page.Error = errors.Describe(err)

	fields := []zap.Field{
		zap.String("operation", "build_page"),
		zap.String("section", key),
		zap.Int("status", status),
		zap.Error(err),
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("Failed to build page", fields...)
	} else {
		h.logger.Warn("Failed to build page", fields...)
	}
	return page, status, err
}

// StatusFor maps an error to the HTTP status of the page that reports it.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, errors.ErrConfigMissingSection):
		return http.StatusNotFound
	case errors.IsFetchError(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func errorTitle(err error) string {
	switch {
	case errors.Is(err, errors.ErrConfigMissingSection):
		return "Unknown key section"
	case errors.Is(err, errors.ErrFetchCredentials):
		return "AWS rejected the credentials"
	case errors.IsFetchError(err):
		return "Unable to reach AWS"
	default:
		return "Configuration error"
	}
}
