package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/srl-labs/vscode-containerlab-sub006/internal/config"
	"github.com/srl-labs/vscode-containerlab-sub006/internal/handler"
	"github.com/srl-labs/vscode-containerlab-sub006/internal/hub"
	"github.com/srl-labs/vscode-containerlab-sub006/internal/reconcile"
	"github.com/srl-labs/vscode-containerlab-sub006/internal/repository/sqlite"
	"github.com/srl-labs/vscode-containerlab-sub006/internal/service"
	"github.com/srl-labs/vscode-containerlab-sub006/internal/sidecar"
	"github.com/srl-labs/vscode-containerlab-sub006/internal/watcher"
)

func main() {
	topoPath := flag.String("topology", "", "Path to the topology file (required)")
	addr := flag.String("addr", "", "HTTP listen address (overrides config)")
	dbPath := flag.String("db", "", "Lab registry database path (overrides config)")
	noWatch := flag.Bool("no-watch", false, "Disable the external change watcher")
	flag.Parse()

	log.SetFlags(log.LstdFlags | log.Lshortfile)

	if *topoPath == "" {
		log.Fatal("A topology file is required: -topology <path>")
	}
	if _, err := os.Stat(*topoPath); err != nil {
		log.Fatalf("Cannot open topology file: %v", err)
	}

	cfg, cfgPath, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfgPath != "" {
		log.Printf("Config loaded from %s", cfgPath)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}

	log.Printf("Starting topology editor for %s", *topoPath)

	// Lab registry
	registry, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer registry.Close()
	log.Printf("Database opened: %s", cfg.Database.Path)

	// Event bus and SSE hub
	eventBus := service.NewEventBus()
	sseHub := hub.New()
	go sseHub.Run()

	eventChan := make(chan service.Event, 100)
	eventBus.Subscribe(eventChan)
	go func() {
		for event := range eventChan {
			sseHub.Broadcast(event)
		}
	}()

	// Reconciliation machinery
	annotations := sidecar.NewManager().WithTTL(cfg.Editor.SidecarTTLOrDefault())
	guard := watcher.NewWriteGuard(0)
	reconciler := reconcile.New(*topoPath, annotations, guard).
		WithSettleDelay(cfg.Editor.SettleDelayOrDefault())

	topoSvc := service.NewTopologyService(*topoPath, annotations, reconciler, eventBus).
		WithRegistry(registry)

	// External change watcher
	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if !*noWatch {
		w := watcher.New(*topoPath, guard, topoSvc.NotifyExternalChange).
			WithDebounce(cfg.Editor.DebounceOrDefault())
		go func() {
			if err := w.Watch(watchCtx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("Watcher stopped: %v", err)
			}
		}()
	}

	// HTTP surface
	topoHandler := handler.NewTopologyHandler(topoSvc)
	topoHandler.SetRegistry(registry)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/topology", topoHandler.GetElements)
	mux.HandleFunc("POST /api/topology", topoHandler.SaveTopology)

	mux.HandleFunc("GET /api/annotations", topoHandler.GetAnnotations)
	mux.HandleFunc("PUT /api/annotations", topoHandler.PutAnnotations)

	mux.HandleFunc("POST /api/names", topoHandler.AllocateName)
	mux.HandleFunc("GET /api/labs", topoHandler.ListLabs)
	mux.HandleFunc("GET /api/health", topoHandler.Health)

	mux.Handle("GET /events", sseHub)

	finalHandler := handler.Chain(mux,
		handler.Recover,
		handler.CORS,
		handler.Logger,
	)

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      finalHandler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server listening on %s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	watchCancel()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}
