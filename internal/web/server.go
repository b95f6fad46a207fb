// Package web serves the calculator over HTTP and websockets.
package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"

	"github.com/codefionn/calculate42/internal/config"
	"github.com/codefionn/calculate42/internal/consts"
	"github.com/codefionn/calculate42/internal/history"
	"github.com/codefionn/calculate42/internal/logger"
	"github.com/codefionn/calculate42/internal/pprof"
	"github.com/codefionn/calculate42/internal/service"
)

// Evaluator is the subset of *service.Calculator the server needs
type Evaluator interface {
	Evaluate(ctx context.Context, source, text string) service.Outcome
}

// Server represents the web server
type Server struct {
	addr       string
	calc       Evaluator
	store      *history.Store
	hub        *Hub
	router     *httprouter.Router
	pages      *pageRenderer
	upgrader   websocket.Upgrader
	httpServer *http.Server
	listener   net.Listener
	log        *logger.Logger

	// ctx is cancelled on Stop so websocket evaluations unwind
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer creates a new web server and starts its hub. store may be nil
// when history is disabled. Call Stop to release the hub.
func NewServer(calc Evaluator, store *history.Store, cfg *config.Config) (*Server, error) {
	pages, err := newPageRenderer()
	if err != nil {
		return nil, err
	}

	addr := cfg.ListenAddr
	if addr == "" {
		addr = config.DefaultConfig().ListenAddr
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		addr:   addr,
		calc:   calc,
		store:  store,
		hub:    NewHub(),
		router: httprouter.New(),
		pages:  pages,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		log:    logger.Global().WithPrefix("web"),
		ctx:    ctx,
		cancel: cancel,
	}

	s.setupRoutes()
	if cfg.Pprof {
		pprof.Register(s.router)
		s.log.Info("Profiling endpoints mounted at %s", pprof.Prefix)
	}
	go s.hub.Run()
	return s, nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	s.router.GET("/", s.handleIndex)
	s.router.POST("/calculate", s.handleCalculateForm)
	s.router.GET("/history", s.handleHistoryPage)
	s.router.GET("/health", s.handleHealth)

	s.router.POST("/api/calculate", s.handleAPICalculate)
	s.router.GET("/api/history", s.handleAPIHistory)
	s.router.GET("/api/stats", s.handleAPIStats)

	s.router.GET("/ws", s.handleWebSocket)
}

// Handler exposes the router, mainly for httptest
func (s *Server) Handler() http.Handler {
	return s.router
}

// Hub returns the websocket hub
func (s *Server) Hub() *Hub {
	return s.hub
}

// Addr returns the configured address, or the bound one once started
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Start binds the listen address and serves in the background
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	s.listener = ln

	s.httpServer = &http.Server{
		Handler:      s.router,
		ReadTimeout:  consts.Timeout60Seconds,
		WriteTimeout: consts.Timeout60Seconds,
		ErrorLog:     logger.StdLogger(s.log, slog.LevelWarn),
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.log.Info("Web server listening on %s", ln.Addr())
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("HTTP server error: %v", err)
		}
	}()

	return nil
}

// Stop shuts the server down, waiting for in-flight requests until ctx ends
func (s *Server) Stop(ctx context.Context) error {
	s.log.Info("Stopping web server...")

	s.cancel()
	s.hub.Stop()

	if s.httpServer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, consts.Timeout5Seconds)
	defer cancel()

	err := s.httpServer.Shutdown(ctx)
	s.wg.Wait()
	if err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}
	return nil
}

// Run starts the server and stops it when ctx is done
func (s *Server) Run(ctx context.Context) error {
	if err := s.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	return s.Stop(context.Background())
}

// handleWebSocket upgrades the connection and starts the client pumps
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("Failed to upgrade WebSocket: %v", err)
		return
	}

	observer := r.URL.Query().Get("observe") == "1"
	client := NewClient(s.hub, conn, s.calc, observer)
	if !s.hub.Register(client) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(consts.WSWriteWait))
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump(s.ctx)
}

// broadcast tells observers about an evaluation made through HTTP
func (s *Server) broadcast(out service.Outcome) {
	s.hub.Broadcast(newOutcomeMessage(MessageTypeEvaluation, history.SourceHTTP, out))
}
