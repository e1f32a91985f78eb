package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/menta2k/fashion-search/internal/backend"
	"github.com/menta2k/fashion-search/internal/config"
	"github.com/menta2k/fashion-search/internal/server"
)

func main() {
	var configPath, addr, backendName, url, model string
	var jsonLogs bool

	flag.StringVar(&configPath, "config", config.GetConfigPath(), "config file")
	flag.StringVar(&addr, "addr", "", "listen address (default from config)")
	flag.StringVar(&backendName, "backend", "", "analyzer: heuristic, ollama or llamacpp")
	flag.StringVar(&url, "url", "", "vision server URL")
	flag.StringVar(&model, "model", "", "vision model name")
	flag.BoolVar(&jsonLogs, "json-logs", false, "log as JSON")
	flag.Parse()

	log := logrus.New()
	if jsonLogs {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal(err)
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}
	if backendName != "" {
		cfg.Vision.Backend = strings.ToLower(backendName)
	}
	if url != "" {
		cfg.Vision.URL = url
	}
	if model != "" {
		cfg.Vision.Model = model
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}
	log.SetLevel(cfg.Level())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	analyzer, err := backend.New(cfg.Vision, log)
	if err != nil {
		log.Fatal(err)
	}
	if analyzer.Client != nil {
		if err := analyzer.Client.Ping(ctx); err != nil {
			log.WithError(err).WithField("url", cfg.Vision.URL).Warn("vision backend unreachable, heuristic analysis will be used")
		}
	}

	srv := server.New(server.Options{
		Config:   cfg,
		Analyzer: analyzer,
		Client:   analyzer.Client,
		Backend:  analyzer.Name,
		Logger:   log,
	})

	if err := srv.ListenAndServe(ctx); err != nil {
		log.Fatal(err)
	}
}
