package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"skillarena/config"
	"skillarena/database"
	"skillarena/events"
	"skillarena/game"
	"skillarena/models"
	"skillarena/realtime"
	"skillarena/repository"
	"skillarena/service"
)

// oracles is where per-game rule engines plug in. The settlement core treats
// board state as opaque; each game ships its own Oracle implementation.
var oracles = map[models.GameType]game.Oracle{}

// RegisterOracle installs a rule engine for a game type. Must be called
// before Run.
func RegisterOracle(gameType models.GameType, oracle game.Oracle) {
	oracles[gameType] = oracle
}

// Run initializes and starts the application
func Run(ctx context.Context) error {
	log.Println("Starting skillarena settlement core...")

	// Load configuration
	cfg := config.Get()

	// Initialize database connection
	log.Println("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Println("Database connection established successfully")

	// Initialize event bus
	eventBus := events.NewBus()

	// Initialize unit of work factory
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	// Initialize services
	log.Println("Initializing services...")
	userService := service.NewUserService(uowFactory)
	settlementService := service.NewSettlementService(uowFactory)
	revenueStatsService := service.NewRevenueStatsService(uowFactory)
	log.Println("Services initialized successfully")

	// Initialize the match runtime
	registry := game.NewRegistry()
	manager := game.NewManager(registry, settlementService, eventBus, oracles, nil)
	presence := game.NewPresence(manager)

	// Initialize the realtime hub, subscribe it to engine events, and let it
	// report socket liveness back to the presence supervisor.
	hub := realtime.NewHub()
	hub.SubscribeTo(eventBus)
	hub.SetPresenceListener(presence)

	mux := http.NewServeMux()
	registerAdminRoutes(mux, revenueStatsService)
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		// Authentication is handled by the fronting layer; it forwards the
		// resolved user id.
		userID := r.URL.Query().Get("user_id")
		if userID == "" {
			http.Error(w, "missing user_id", http.StatusBadRequest)
			return
		}
		if _, err := userService.GetOrCreateUser(r.Context(), userID, userID); err != nil {
			http.Error(w, "failed to resolve user", http.StatusInternalServerError)
			return
		}
		if _, err := realtime.ServeWS(hub, userID, w, r); err != nil {
			log.Printf("Websocket upgrade failed: %v", err)
		}
	})

	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: mux,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Printf("Realtime hub listening on %s...", cfg.ListenAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	log.Printf("Settlement core is running in %s mode...", cfg.Environment)

	select {
	case err := <-serverErr:
		db.Close()
		return fmt.Errorf("realtime server failed: %w", err)
	case <-ctx.Done():
	}

	// Cleanup resources
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error shutting down realtime server: %v", err)
	}

	log.Println("Closing database connection...")
	db.Close()

	log.Println("Shutdown completed")
	return nil
}
