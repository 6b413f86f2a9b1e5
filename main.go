package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"ftpbridge/backend"
	"ftpbridge/config"
	"ftpbridge/logger"
)

func main() {
	configPath := flag.String("config", "", "path to YAML configuration file")
	listenAddr := flag.String("listen", "", "control listen address (overrides config)")
	backendURL := flag.String("backend", "", "record API endpoint URL, or \"memory\" for the in-memory demo backend")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		println("failed to load configuration:", err.Error())
		os.Exit(1)
	}
	if *listenAddr != "" {
		cfg.ListenAddr = *listenAddr
	}
	if *backendURL != "" {
		cfg.Backend.URL = *backendURL
	}

	log := logger.Setup(cfg.Logger, *debug)
	defer log.Sync()

	var be backend.Client
	switch cfg.Backend.URL {
	case "":
		log.Sugar().Fatal("no backend configured; set backend.url or pass -backend")
	case "memory":
		be = backend.NewMemory(cfg.GetNamespaces()...)
	default:
		be = backend.NewHTTPClient(cfg.Backend.URL, cfg.GetBackendTimeout())
	}

	server := NewFTPServer(cfg, be, log)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		s := <-sig
		log.Sugar().Infow("shutting down", "signal", s.String())
		server.Stop()
	}()

	if err := server.ListenAndServe(); err != nil {
		log.Sugar().Fatalw("server exited", "error", err)
	}
}
