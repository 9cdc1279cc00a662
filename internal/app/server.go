package app

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/klabast/wb-services/sagre-kalender/internal/events"
	"github.com/klabast/wb-services/sagre-kalender/internal/storage"
)

const shutdownTimeout = 5 * time.Second

// Server serves the site and its JSON API
type Server struct {
	cfg      *Config
	repo     *storage.Repository
	auth     *Auth
	log      *zap.Logger
	metrics  *Metrics
	validate *validator.Validate
	loc      *time.Location

	// Now returns the current time; replaced in tests
	Now func() time.Time

	// Embedded files (set by main)
	StaticFiles fs.FS
	IndexHTML   []byte
	EditHTML    []byte
}

// NewServer constructs a new Server
func NewServer(cfg *Config, repo *storage.Repository, auth *Auth, log *zap.Logger) (*Server, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:      cfg,
		repo:     repo,
		auth:     auth,
		log:      log,
		metrics:  NewMetrics(),
		validate: validator.New(),
		loc:      loc,
		Now:      time.Now,
	}
	s.metrics.EventsTotal.Set(float64(repo.Count()))
	return s, nil
}

// Metrics returns the server's collectors
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// today returns midnight of the current day in the configured timezone
func (s *Server) today() time.Time {
	return events.Today(s.Now(), s.loc)
}

// Handler returns the routes of the server
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/", s.ServeIndex)
	mux.HandleFunc("/health", s.HandleHealth)
	mux.HandleFunc("/api/config", s.GetConfig)
	mux.HandleFunc("/api/events", s.HandleEvents)
	mux.HandleFunc("/api/events/table", s.HandleEventTable)
	mux.HandleFunc("/api/events/current", s.HandleCurrentEvents)
	mux.HandleFunc("/api/events/upcoming", s.HandleUpcomingEvents)
	mux.HandleFunc("/api/events/featured", s.HandleFeaturedEvents)
	mux.HandleFunc("/api/events/next", s.HandleNextEvent)
	mux.HandleFunc("/api/event/", s.HandleEvent)
	mux.HandleFunc("/api/countdown", s.HandleCountdown)
	mux.HandleFunc("/api/export", s.HandleExport)
	mux.HandleFunc("/api/subscribe", s.HandleSubscribe)
	mux.HandleFunc("/api/theme", s.HandleTheme)
	mux.HandleFunc("/api/login", s.HandleLogin)
	mux.Handle("/metrics", s.metrics.Handler())

	// Edit mode routes (protected with Basic Auth)
	if s.cfg.EditMode {
		mux.HandleFunc("/edit", s.RequireAuth(s.ServeEdit))
		mux.HandleFunc("/api/events/add", s.RequireAuth(s.AddEvent))
		mux.HandleFunc("/api/events/edit", s.RequireAuth(s.EditEvent))
		mux.HandleFunc("/api/events/delete", s.RequireAuth(s.DeleteEvent))
		mux.HandleFunc("/api/events/import", s.RequireAuth(s.ImportEvents))
	}

	if s.StaticFiles != nil {
		mux.Handle("/static/", http.FileServer(http.FS(s.StaticFiles)))
	}

	return mux
}

// Run serves until ctx is canceled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	mode := ModeServe
	if s.cfg.EditMode {
		mode = ModeEdit
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("starting sagre calendar",
			zap.String("mode", mode),
			zap.String("listen", s.cfg.Listen),
			zap.String("data_dir", s.cfg.DataDir),
			zap.String("timezone", s.cfg.Timezone),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.log.Info("shutting down HTTP server")
	return srv.Shutdown(shutdownCtx)
}
