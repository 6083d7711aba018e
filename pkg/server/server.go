// Package server exposes analysis over HTTP: every GET /report loads the
// configured snapshot and analyzes it on a fresh Findings value.
package server

import (
    "context"
    "crypto/tls"
    "encoding/json"
    "fmt"
    "log"
    "net"
    "net/http"
    "sync"
    "time"

    "github.com/prometheus/client_golang/prometheus/promhttp"

    "github.com/amirimatin/cluster-doctor/pkg/analysis"
    "github.com/amirimatin/cluster-doctor/pkg/internal/logutil"
    "github.com/amirimatin/cluster-doctor/pkg/observability/tracing"
    "github.com/amirimatin/cluster-doctor/pkg/report"
    "github.com/amirimatin/cluster-doctor/pkg/snapshot"
)

// Server is a small HTTP server for report, health and metrics endpoints.
type Server struct {
    bind   string
    src    snapshot.Source
    engine *analysis.Engine
    logger *log.Logger
    tlsCfg *tls.Config

    mu  sync.Mutex
    srv *http.Server
    ln  net.Listener
}

// New returns a server analyzing snapshots from src.
func New(bind string, src snapshot.Source, logger *log.Logger) *Server {
    if logger == nil { logger = log.Default() }
    return &Server{bind: bind, src: src, engine: analysis.NewEngine(logger), logger: logger}
}

// UseTLS enables TLS using the provided config.
func (s *Server) UseTLS(cfg *tls.Config) *Server { s.tlsCfg = cfg; return s }

// Handler returns the routes of the server.
func (s *Server) Handler() http.Handler {
    mux := http.NewServeMux()
    mux.HandleFunc("/report", func(w http.ResponseWriter, r *http.Request) {
        if r.Method != http.MethodGet { http.Error(w, "method not allowed", http.StatusMethodNotAllowed); return }
        ctx, end := tracing.StartSpan(r.Context(), "http.report")
        defer end()
        snap, err := s.src.Load(ctx)
        if err != nil {
            logutil.Errorf(s.logger, "report: %v", err)
            http.Error(w, fmt.Sprintf("snapshot error: %v", err), http.StatusBadGateway)
            return
        }
        f := s.engine.Run(ctx, snap)
        w.Header().Set("Content-Type", "application/json")
        _ = json.NewEncoder(w).Encode(report.NewDocument(f, snap.Warnings))
    })
    mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
        if r.Method != http.MethodGet { http.Error(w, "method not allowed", http.StatusMethodNotAllowed); return }
        w.WriteHeader(http.StatusOK)
        _, _ = w.Write([]byte("ok"))
    })
    mux.Handle("/metrics", promhttp.Handler())
    return mux
}

// Start listens on the bind address and serves until ctx is canceled or
// Stop is called.
func (s *Server) Start(ctx context.Context) error {
    ln, err := net.Listen("tcp", s.bind)
    if err != nil { return err }
    if s.tlsCfg != nil { ln = tls.NewListener(ln, s.tlsCfg) }
    srv := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}

    s.mu.Lock()
    s.srv, s.ln = srv, ln
    s.mu.Unlock()

    go func() {
        <-ctx.Done()
        _ = s.Stop(context.Background())
    }()
    go func() {
        if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
            logutil.Errorf(s.logger, "server: %v", err)
        }
    }()
    logutil.Infof(s.logger, "serving reports on %s", ln.Addr())
    return nil
}

// Addr returns the listening address once started, else the bind address.
func (s *Server) Addr() string {
    s.mu.Lock()
    defer s.mu.Unlock()
    if s.ln != nil { return s.ln.Addr().String() }
    return s.bind
}

// Stop attempts a graceful shutdown with a short timeout.
func (s *Server) Stop(ctx context.Context) error {
    s.mu.Lock()
    srv := s.srv
    s.srv = nil
    s.mu.Unlock()
    if srv == nil { return nil }
    c, cancel := context.WithTimeout(ctx, 2*time.Second)
    defer cancel()
    return srv.Shutdown(c)
}
