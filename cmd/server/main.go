package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	firebase "firebase.google.com/go"
	"github.com/cbodonnell/angelreaper/pkg/api"
	"github.com/cbodonnell/angelreaper/pkg/auth"
	authproviders "github.com/cbodonnell/angelreaper/pkg/auth/providers"
	"github.com/cbodonnell/angelreaper/pkg/log"
	"github.com/cbodonnell/angelreaper/pkg/matches"
	"github.com/cbodonnell/angelreaper/pkg/network"
	"github.com/cbodonnell/angelreaper/pkg/queue"
	"github.com/cbodonnell/angelreaper/pkg/repositories"
	"github.com/cbodonnell/angelreaper/pkg/throttle"
	"github.com/cbodonnell/angelreaper/pkg/version"
	"github.com/cbodonnell/angelreaper/pkg/workers"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

const envPrefix = "ANGELREAPER_"

func main() {
	port := flag.Int("port", 9090, "port to listen on")
	allowOrigin := flag.String("allow-origin", "", "comma-separated list of allowed feed origins, empty allows any")
	logLevel := flag.String("log-level", "info", "Log level")
	logConsole := flag.Bool("log-console", false, "Write human-readable logs instead of JSON")
	takeoverTimeout := flag.Duration("takeover-timeout", 2*time.Minute, "how long a phase may wait on a player before a default action is taken, 0 disables")
	takeoverInterval := flag.Duration("takeover-interval", 10*time.Second, "how often idle matches are checked")
	ratePerSecond := flag.Float64("rate", 5, "sustained actions per second allowed per user, 0 disables")
	burst := flag.Int("burst", 10, "actions a user may submit at once")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		panic(fmt.Sprintf("Failed to load .env file: %v", err))
	}

	parsedLogLevel, err := log.ParseLogLevel(*logLevel)
	if err != nil {
		panic(fmt.Sprintf("Failed to parse log level: %v", err))
	}

	var logger *log.Logger
	if *logConsole {
		logger = log.NewConsole(os.Stdout, parsedLogLevel)
	} else {
		logger = log.New(os.Stdout, parsedLogLevel)
	}
	log.SetDefaultLogger(logger)
	log.Info("Log level set to %s", parsedLogLevel)

	log.Info("Starting server version %s", version.Get())
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var firebaseApp *firebase.App
	if projectID := getenv("FIREBASE_PROJECT_ID"); projectID != "" {
		firebaseApp, err = auth.NewFirebaseApp(ctx, auth.NewFirebaseAppOptions{
			ProjectID:       projectID,
			CredentialsFile: getenv("FIREBASE_CREDENTIALS_FILE"),
			APIKey:          getenv("FIREBASE_API_KEY"),
		})
		if err != nil {
			panic(fmt.Sprintf("Failed to create Firebase app: %v", err))
		}
	}

	var authProvider authproviders.AuthProvider
	if getenv("INSECURE_AUTH") == "true" {
		log.Warn("Using insecure auth, tokens are trusted as user ids")
		authProvider = authproviders.NewInsecureAuthProvider()
	} else {
		if firebaseApp == nil {
			panic(envPrefix + "FIREBASE_PROJECT_ID environment variable must be set")
		}
		authProvider, err = authproviders.NewFirebaseAuthProvider(ctx, firebaseApp)
		if err != nil {
			panic(fmt.Sprintf("Failed to create Firebase auth provider: %v", err))
		}
	}

	connStr := getenv("DATABASE_URL")
	if connStr == "" {
		connStr = "sqlite://angelreaper.db"
	}
	repository, err := newRepository(ctx, connStr, firebaseApp)
	if err != nil {
		panic(fmt.Sprintf("Failed to create repository: %v", err))
	}
	defer repository.Close(context.Background())

	actionThrottle := throttle.NewThrottle(throttle.NewThrottleOptions{
		PerSecond: *ratePerSecond,
		Burst:     *burst,
	})
	updateQueue := queue.NewInMemoryQueue[matches.Update](queue.QueueBufferSize)
	matchManager := matches.NewMatchManager(matches.NewMatchManagerOptions{
		Repository: repository,
		Throttle:   actionThrottle,
		Updates:    updateQueue,
	})

	clientManager := network.NewClientManager()
	actionQueue := queue.NewInMemoryQueue[network.InboundAction](queue.QueueBufferSize)
	var originPatterns []string
	if *allowOrigin != "" {
		originPatterns = strings.Split(*allowOrigin, ",")
	}
	networkManager := network.NewNetworkManager(network.NewNetworkManagerOptions{
		ClientManager:  clientManager,
		ActionQueue:    actionQueue,
		OriginPatterns: originPatterns,
	})

	apiServerOpts := api.NewAPIServerOptions{
		Port:         *port,
		AuthProvider: authProvider,
		Matches:      matchManager,
		Feed:         networkManager,
	}
	tlsCertFile := getenv("API_TLS_CERT_FILE")
	tlsKeyFile := getenv("API_TLS_KEY_FILE")
	if tlsCertFile != "" && tlsKeyFile != "" {
		apiServerOpts.TLS = &api.TLSConfig{
			CertFile: tlsCertFile,
			KeyFile:  tlsKeyFile,
		}
	}
	apiServer := api.NewAPIServer(apiServerOpts)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(apiServer.Start)
	g.Go(func() error {
		<-ctx.Done()
		log.Info("Shutting down")
		networkManager.CloseAll()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return apiServer.Stop(shutdownCtx)
	})

	actionWorker := workers.NewActionWorker(workers.NewActionWorkerOptions{
		ActionQueue: actionQueue,
		Matches:     matchManager,
		Sender:      networkManager,
	})
	broadcastWorker := workers.NewBroadcastWorker(workers.NewBroadcastWorkerOptions{
		Updates: updateQueue,
		Sender:  networkManager,
	})
	connectionEventWorker := workers.NewConnectionEventWorker(workers.NewConnectionEventWorkerOptions{
		ConnectionEventChan: clientManager.GetClientEventChan(),
		Matches:             matchManager,
		Sender:              networkManager,
	})
	g.Go(func() error { actionWorker.Start(ctx); return nil })
	g.Go(func() error { broadcastWorker.Start(ctx); return nil })
	g.Go(func() error { connectionEventWorker.Start(ctx); return nil })

	if *takeoverTimeout > 0 {
		takeoverWorker := workers.NewTakeoverWorker(workers.NewTakeoverWorkerOptions{
			Lister:   repository,
			Matches:  matchManager,
			Timeout:  *takeoverTimeout,
			Interval: *takeoverInterval,
		})
		g.Go(func() error { takeoverWorker.Start(ctx); return nil })
	}

	g.Go(func() error {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if n := actionThrottle.Prune(10 * time.Minute); n > 0 {
					log.Debug("Pruned %d idle rate limiters", n)
				}
			}
		}
	})

	if err := g.Wait(); err != nil {
		log.Error("Server stopped: %v", err)
		os.Exit(1)
	}
	log.Info("Server stopped")
}

func getenv(key string) string {
	return os.Getenv(envPrefix + key)
}

// newRepository picks the storage backend from the connection string scheme.
func newRepository(ctx context.Context, connStr string, app *firebase.App) (repositories.Repository, error) {
	if connStr == "memory" {
		log.Warn("Using in-memory storage, matches are lost on restart")
		return repositories.NewInMemoryRepository(), nil
	}
	if connStr == "firestore" {
		if app == nil {
			return nil, fmt.Errorf("firestore storage needs %sFIREBASE_PROJECT_ID", envPrefix)
		}
		return repositories.NewFirestoreRepository(ctx, app)
	}

	u, err := url.Parse(connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %v", err)
	}
	switch u.Scheme {
	case "sqlite":
		return repositories.NewSQLiteRepository(ctx, u.Host+u.Path)
	case "postgres", "postgresql":
		return repositories.NewPostgresRepository(ctx, u.String())
	default:
		return nil, fmt.Errorf("unknown database type %s", u.Scheme)
	}
}
