package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/inamate/canvas2d/internal/api"
	"github.com/inamate/canvas2d/internal/auth"
	"github.com/inamate/canvas2d/internal/collab"
	"github.com/inamate/canvas2d/internal/config"
	"github.com/inamate/canvas2d/internal/db"
	"github.com/inamate/canvas2d/internal/document"
	mw "github.com/inamate/canvas2d/internal/middleware"
)

func main() {
	// `server hash-password <pw>` prints a value for ADMIN_PASSWORD_HASH.
	if len(os.Args) == 3 && os.Args[1] == "hash-password" {
		hash, err := auth.HashPassword(os.Args[2])
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println(hash)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	store := db.NewStore(pool)

	if cfg.AdminPasswordHash == "" {
		slog.Warn("ADMIN_PASSWORD_HASH not set, login disabled")
	}
	authService := auth.NewService(cfg.JWTSecret, cfg.AdminPasswordHash)
	authHandler := auth.NewHandler(authService)

	sceneHandler := api.NewHandler(api.NewService(store))

	// Document loader for the collaboration hub
	docLoader := func(ctx context.Context, sceneID string) (*document.InDocument, error) {
		snap, err := store.GetLatestSnapshot(ctx, sceneID)
		if err != nil {
			return nil, err
		}
		return snap.Document, nil
	}

	// Document saver for the collaboration hub
	docSaver := func(ctx context.Context, doc *document.InDocument) error {
		snap, err := store.SaveSnapshot(ctx, doc)
		if err != nil {
			return err
		}
		slog.Info("scene saved", "scene", snap.SceneID, "version", snap.Version)
		return nil
	}

	hub := collab.NewHub(docLoader, docSaver)
	go hub.Run()

	r := mux.NewRouter()

	// Auth routes (public)
	r.HandleFunc("/auth/login", authHandler.Login).Methods("POST")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Protected API routes
	apiRouter := r.PathPrefix("/api").Subrouter()
	apiRouter.Use(authService.AuthMiddleware)
	sceneHandler.Routes(apiRouter)

	// WebSocket endpoint
	r.HandleFunc("/ws/scenes/{sceneId}", func(w http.ResponseWriter, r *http.Request) {
		handleWebSocket(w, r, hub, authService, cfg.Origins())
	})

	// Wrapping the router lets CORS answer preflights before route matching.
	handler := mw.Recovery(mw.Logger(mw.CORS(cfg.Origins())(r)))

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")

		// Stop hub first to save all dirty documents
		slog.Info("saving all scenes...")
		hub.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server starting", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

// handleWebSocket joins the caller to a scene room. A valid token grants
// editing; without one the connection is a read-only viewer.
func handleWebSocket(w http.ResponseWriter, r *http.Request, hub *collab.Hub, authSvc *auth.Service, origins []string) {
	sceneID := mux.Vars(r)["sceneId"]

	userID := "anon-" + uuid.New().String()[:8]
	displayName := "Anonymous"
	readOnly := true

	subject, err := authSvc.Authenticate(r)
	switch {
	case errors.Is(err, auth.ErrMissingToken):
	case err != nil:
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	default:
		userID = subject
		displayName = subject
		readOnly = false
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: origins,
	})
	if err != nil {
		slog.Error("websocket accept", "error", err)
		return
	}

	clientID := uuid.New().String()
	client := collab.NewClient(hub, conn, userID, displayName, sceneID, clientID)
	client.ReadOnly = readOnly

	hub.Register(client)

	ctx := r.Context()
	go client.WritePump(ctx)
	client.ReadPump(ctx)
}
