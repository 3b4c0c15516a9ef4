package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cbodonnell/angelreaper/pkg/api/handlers"
	"github.com/cbodonnell/angelreaper/pkg/api/middleware"
	authproviders "github.com/cbodonnell/angelreaper/pkg/auth/providers"
	"github.com/cbodonnell/angelreaper/pkg/log"
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
	AuthProvider authproviders.AuthProvider
	Matches      handlers.Matches
	Feed         handlers.FeedServer
}

// NewRouter builds the routes of the match API.
func NewRouter(opts NewAPIServerOptions) *mux.Router {
	authMiddleware := middleware.NewAuthMiddleware(opts.AuthProvider)

	router := mux.NewRouter()
	router.Use(middleware.NewCORSMiddleware())
	router.HandleFunc("/health", handlers.HandleHealth()).Methods(http.MethodGet)

	matches := router.PathPrefix("/matches").Subrouter()
	matches.Use(authMiddleware)
	matches.HandleFunc("", handlers.HandleCreateMatch(opts.Matches)).Methods(http.MethodPost)
	matches.HandleFunc("/{matchID}", handlers.HandleGetMatch(opts.Matches)).Methods(http.MethodGet)
	matches.HandleFunc("/{matchID}", handlers.HandleDeleteMatch(opts.Matches)).Methods(http.MethodDelete)
	matches.HandleFunc("/{matchID}/actions", handlers.HandleSubmitAction(opts.Matches)).Methods(http.MethodPost)
	matches.HandleFunc("/{matchID}/legal", handlers.HandleIsLegal(opts.Matches)).Methods(http.MethodPost)
	matches.HandleFunc("/{matchID}/history", handlers.HandleHistory(opts.Matches)).Methods(http.MethodGet)
	if opts.Feed != nil {
		matches.HandleFunc("/{matchID}/feed", handlers.HandleFeed(opts.Matches, opts.Feed)).Methods(http.MethodGet)
	}
	// preflight requests are answered by the CORS middleware
	router.Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	return router
}

// NewAPIServer creates a new http.Server for handling API requests
func NewAPIServer(opts NewAPIServerOptions) *APIServer {
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", opts.Port),
		Handler:           NewRouter(opts),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return &APIServer{
		server: server,
		tls:    opts.TLS,
	}
}

// Start starts the APIServer and blocks until it is stopped
func (s *APIServer) Start() error {
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
			return nil
		}
		return fmt.Errorf("API server error: %v", err)
	}
	return nil
}

// Stop stops the APIServer
func (s *APIServer) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
