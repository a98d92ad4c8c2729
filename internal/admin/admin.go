// Package admin serves the operator HTTP endpoint: liveness, JSON
// views of the server state and Prometheus metrics.
package admin

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	ierr "iris/internal/errors"
	"iris/internal/irc"
	"iris/internal/metrics"
	"iris/util"
)

// State is the part of the registry the endpoint reports on.
type State interface {
	Channels() []irc.ChannelInfo
	Stats() irc.Stats
}

// Server is the admin HTTP endpoint.
type Server struct {
	state   State
	metrics *metrics.Collector
	logger  *util.Logger

	registry *prometheus.Registry
	requests *prometheus.CounterVec
	router   chi.Router
}

// New builds the router.  Metrics are exported on a private registry
// so that tests and embedders do not collide on the global one.
func New(state State, m *metrics.Collector, logger *util.Logger) (*Server, error) {
	reg := prometheus.NewRegistry()
	if err := m.Register(reg); err != nil {
		return nil, err
	}
	if err := reg.Register(collectors.NewGoCollector()); err != nil {
		return nil, err
	}

	s := &Server{
		state:    state,
		metrics:  m,
		logger:   logger,
		registry: reg,
		requests: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: "admin",
			Name:      "requests_total",
			Help:      "Admin HTTP requests by route and status code.",
		}, []string{"route", "code"}),
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.count)
	r.Get("/healthz", s.healthz)
	r.Get("/stats", s.stats)
	r.Get("/channels", s.channels)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	s.router = r
	return s, nil
}

// Handler returns the router.
func (s *Server) Handler() http.Handler { return s.router }

// Serve listens on addr until ctx is done.
func (s *Server) Serve(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return ierr.Wrap("listen", addr, err)
	}
	return s.serve(ctx, ln)
}

func (s *Server) serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{Handler: s.router, ReadHeaderTimeout: 5 * time.Second}
	s.logger.Info("admin endpoint on http://%s", ln.Addr())

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("OK")) //nolint:errcheck
}

type statsResponse struct {
	Server   metrics.Snapshot `json:"server"`
	Registry irc.Stats        `json:"registry"`
}

func (s *Server) stats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, statsResponse{Server: s.metrics.Snapshot(), Registry: s.state.Stats()})
}

func (s *Server) channels(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.state.Channels())
}

func (s *Server) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
		s.logger.Debug("admin %s %s -> %d", r.Method, r.URL.Path, status)
	})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(v) //nolint:errcheck
}
