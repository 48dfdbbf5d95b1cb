package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"sup-gateway/auth"
	"sup-gateway/domain/event"
	"sup-gateway/gateway"
	"sup-gateway/internal"
	"sup-gateway/moderation"
	"sup-gateway/repositories"
	"sup-gateway/runtime"
	"sup-gateway/runtime/workers"
	"sup-gateway/services"
	"sup-gateway/sink"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"github.com/samber/lo"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and
// centralizes error reporting so every defer executes before exit.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	charReplacement, err := internal.CharacterRune(config.CharReplacement)
	if err != nil {
		return err
	}

	// 2. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.INFO))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Moderation dictionary
	censoredWords, err := loadWordlist(config.CensoredFilepath)
	if err != nil {
		return fmt.Errorf("loading censored words failed: %w", err)
	}
	moderator, err := moderation.NewModerator(censoredWords, charReplacement, log)
	if err != nil {
		return fmt.Errorf("building moderator failed: %w", err)
	}

	// 4. Sessions, users, auth
	sessionRepository := repositories.NewSessionRepository(db, log)
	userRepository := repositories.NewUserRepository(db)
	codec := auth.NewTokenCodec([]byte(config.JWTSecret))
	validator := auth.NewValidator(codec, sessionRepository, log)
	authService := services.NewAuthService(userRepository, sessionRepository, codec, config.SessionDuration)

	// 5. Presence, routing, dispatch
	registry := runtime.NewRegistry(log)
	authorizer := runtime.NewMembershipAuthorizer(registry, log)
	gate := gateway.NewGate(validator, registry, log)

	incoming := make(chan event.DomainEvent, config.EventBufferSize)
	outgoing := make(chan event.DomainEvent, config.EventBufferSize)

	routes := gateway.NewRoutes()
	handlers := gateway.NewHandlerSet(validator, gate, authorizer, incoming, log)
	if err := handlers.RegisterRoutes(routes); err != nil {
		return fmt.Errorf("route table error: %w", err)
	}
	dispatcher := gateway.NewDispatcher(routes, registry, log)
	server := gateway.NewServer(gate, dispatcher, registry, config.ConnectionBufferSize, log)

	// 6. Background workers under supervision
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	auditSink := sink.NewAuditSink(log, config.AuditBatchSize, config.AuditFlushInterval)
	sup := workers.NewSupervisor(log)
	sup.Add(
		workers.NewModerationWorker(moderator, incoming, outgoing, log),
		workers.NewFanoutNotifier(log, registry, outgoing, auditSink),
		workers.NewHealthWorker(log, config.HealthInterval),
	)
	go sup.Run(ctx)

	// 7. HTTP surface: auth endpoints + websocket entry point
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", server.HandleWS)
	gateway.NewAuthAPI(authService, log).Mount(mux)

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	httpServer := &http.Server{Addr: address, Handler: mux}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting gateway", "address", address, "at", time.Now().UTC())
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 8. Wait for stop or error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 9. Final cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	_ = httpServer.Shutdown(shutdownCtx)
	server.Shutdown()
	sup.Stop()
	log.Info("Program stopped cleanly")

	return nil
}

// loadWordlist reads one censored word per line, skipping blanks.
func loadWordlist(path string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	lines := strings.Split(string(raw), "\n")
	words := lo.FilterMap(lines, func(line string, _ int) (string, bool) {
		trimmed := strings.TrimSpace(line)
		return trimmed, trimmed != ""
	})
	return words, nil
}
