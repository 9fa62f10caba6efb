// Package relayserver implements the HTTP relay clients submit jobs to and
// poll for results.
//
//	POST /in            submit a job, 202 + Location: /pending/<id>
//	GET  /pending/<id>  200 while waiting, 303 -> /resp/<id> once answered
//	GET  /resp/<id>     the reply, 404 until there is one
//	POST /resp/<id>     store the reply (agents)
package relayserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/h2non/filetype"
	"github.com/rs/zerolog"

	"github.com/httprelay/relaypoll/internal/config"
	"github.com/httprelay/relaypoll/internal/store"
	"github.com/httprelay/relaypoll/internal/types"
)

const (
	PendingPrefix = "/pending/"
	ResultPrefix  = config.DefaultMarker
)

// Server is the relay.
type Server struct {
	store   *store.Store
	echo    *Echo
	metrics *Metrics
	logger  zerolog.Logger
	maxBody int64
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithEchoDelay enables the echo responder.
func WithEchoDelay(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.echo = NewEcho(s.store, d, s.logger)
		}
	}
}

// WithMaxBody limits submissions and replies.
func WithMaxBody(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBody = n
		}
	}
}

// New returns a relay over st.
func New(st *store.Store, opts ...Option) *Server {
	s := &Server{
		store:   st,
		metrics: NewMetrics(),
		logger:  zerolog.Nop(),
		maxBody: config.MB,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.echo != nil {
		s.echo.logger = s.logger
		s.echo.onReply = s.metrics.replied.Inc
	}
	return s
}

// Handler returns the relay's routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /in", s.handleSubmit)
	mux.HandleFunc("GET "+PendingPrefix+"{id}", s.handlePending)
	mux.HandleFunc("GET "+ResultPrefix+"{id}", s.handleResult)
	mux.HandleFunc("POST "+ResultPrefix+"{id}", s.handleReply)
	mux.HandleFunc("GET /jobs", s.handleJobs)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /metrics", s.metrics.WritePrometheus)
	return s.recoverMiddleware(s.metrics.Instrument(mux))
}

// Serve runs the relay on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if s.echo != nil {
		if err := s.echo.Resume(ctx); err != nil {
			return fmt.Errorf("resume pending jobs: %w", err)
		}
		defer s.echo.Stop()
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.logger.Info().Str("addr", ln.Addr().String()).Msg("relay listening")

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// Close stops the echo responder.
func (s *Server) Close() {
	if s.echo != nil {
		s.echo.Stop()
	}
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				s.logger.Error().Interface("panic", rec).Str("path", r.URL.Path).Msg("handler panic")
				http.Error(w, fmt.Sprint(rec), http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// readMessage extracts the submission text: the msg field of a form, or the raw body.
func (s *Server) readMessage(w http.ResponseWriter, r *http.Request) (string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)

	mtype, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mtype {
	case "multipart/form-data":
		if err := r.ParseMultipartForm(s.maxBody); err != nil {
			return "", err
		}
		return r.FormValue("msg"), nil
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return "", err
		}
		return r.FormValue("msg"), nil
	default:
		data, err := io.ReadAll(r.Body)
		if err != nil {
			return "", err
		}
		if len(data) == 0 {
			return r.URL.Query().Get("msg"), nil
		}
		return string(data), nil
	}
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	msg, err := s.readMessage(w, r)
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			http.Error(w, "Payload too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "Invalid payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if msg == "" {
		http.Error(w, "No useful payload. Expected msg from form or query string", http.StatusBadRequest)
		return
	}

	job, err := s.store.Create(r.Context(), msg)
	if err != nil {
		s.logger.Error().Err(err).Msg("submit failed")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.metrics.submitted.Inc()
	s.logger.Info().Str("id", job.ID).Str("size", humanize.Bytes(uint64(len(msg)))).Msg("job submitted")

	if s.echo != nil {
		s.echo.Schedule(job.ID, job.Message)
	}

	link := PendingPrefix + job.ID
	w.Header().Set("Location", link)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusAccepted)
	fmt.Fprintf(w, "<p>Accepted. Poll <a href=%q>%s</a> for the result.</p>\n", link, link)
}

func (s *Server) handlePending(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	job, err := s.store.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		s.metrics.polls.WithLabelValues("missing").Inc()
		http.Error(w, "Job not found.", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if job.Ready() {
		s.metrics.polls.WithLabelValues("ready").Inc()
		http.Redirect(w, r, ResultPrefix+job.ID, http.StatusSeeOther)
		return
	}
	s.metrics.polls.WithLabelValues("pending").Inc()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, "<p>Job %s is still being processed.</p>\n", job.ID)
}

func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	job, err := s.store.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "Job not found.", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !job.Ready() {
		http.Error(w, "Response not yet available.", http.StatusNotFound)
		return
	}

	body := []byte(*job.Reply)
	w.Header().Set("Content-Type", contentType(body))
	w.Header().Set("Content-Length", fmt.Sprint(len(body)))
	_, _ = w.Write(body)
}

// contentType sniffs binary replies and defaults to plain text.
func contentType(body []byte) string {
	if kind, err := filetype.Match(body); err == nil && kind != filetype.Unknown {
		return kind.MIME.Value
	}
	return "text/plain; charset=utf-8"
}

func (s *Server) handleReply(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Payload too large", http.StatusRequestEntityTooLarge)
		return
	}

	err = s.store.Reply(r.Context(), id, string(data))
	switch {
	case errors.Is(err, store.ErrNotFound):
		http.Error(w, "Job not found.", http.StatusNotFound)
	case errors.Is(err, store.ErrAlreadyReplied):
		http.Error(w, "Job already answered.", http.StatusConflict)
	case err != nil:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	default:
		s.metrics.replied.Inc()
		s.logger.Info().Str("id", id).Str("size", humanize.Bytes(uint64(len(data)))).Msg("reply stored")
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.store.List(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	statuses := make([]types.JobStatus, 0, len(jobs))
	for _, j := range jobs {
		st := types.JobStatus{ID: j.ID, Status: "pending", AddedAt: j.CreatedAt.Unix()}
		if j.Ready() {
			st.Status = "ready"
			st.Bytes = len(*j.Reply)
		}
		statuses = append(statuses, st)
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(statuses)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	pending, err := s.store.Pending(r.Context())
	status := "ok"
	if err != nil {
		status = "degraded"
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":  status,
		"pending": len(pending),
		"echo":    s.echo != nil,
	})
}
