package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/cbodonnell/snake/pkg/api/handlers"
	"github.com/cbodonnell/snake/pkg/api/middleware"
	"github.com/cbodonnell/snake/pkg/log"
	"github.com/cbodonnell/snake/pkg/queue"
	"github.com/cbodonnell/snake/pkg/state"
	"github.com/gorilla/mux"
)

type APIServer struct {
	server *http.Server
	tls    *TLSConfig
}

type TLSConfig struct {
	CertFile string
	KeyFile  string
}

type NewAPIServerOptions struct {
	Port         int
	TLS          *TLSConfig
	StateManager state.StateManager
	MessageQueue queue.Queue
	// WSHandler is mounted at /ws when set.
	WSHandler http.Handler
}

// NewRouter builds the routes served by the APIServer.
func NewRouter(opts NewAPIServerOptions) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.NewLoggingMiddleware())

	api := r.NewRoute().Subrouter()
	api.Use(middleware.NewCORSMiddleware("GET, POST"))
	api.HandleFunc("/state", handlers.HandleGetState(opts.StateManager)).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/end-game", handlers.HandleEndGame(opts.MessageQueue)).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/version", handlers.HandleVersion()).Methods(http.MethodGet, http.MethodOptions)

	if opts.WSHandler != nil {
		r.Handle("/ws", opts.WSHandler).Methods(http.MethodGet)
	}

	return r
}

// NewAPIServer creates a new http.Server for handling API requests
func NewAPIServer(opts NewAPIServerOptions) *APIServer {
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", opts.Port),
		Handler: NewRouter(opts),
	}
	return &APIServer{
		server: server,
		tls:    opts.TLS,
	}
}

// Start starts the APIServer
func (s *APIServer) Start() {
	var listenAndServe func() error
	if s.tls != nil {
		log.Info("API server listening on %s with TLS", s.server.Addr)
		listenAndServe = func() error {
			return s.server.ListenAndServeTLS(s.tls.CertFile, s.tls.KeyFile)
		}
	} else {
		log.Info("API server listening on %s", s.server.Addr)
		listenAndServe = s.server.ListenAndServe
	}
	if err := listenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			log.Info("API server closed")
			return
		}
		log.Error("API server error: %v", err)
	}
}

// Stop stops the APIServer
func (s *APIServer) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
