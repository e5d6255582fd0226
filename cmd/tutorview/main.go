package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/csheth/tutorview/internal/api"
	"github.com/csheth/tutorview/internal/logging"
	"github.com/csheth/tutorview/internal/offline"
	"github.com/csheth/tutorview/internal/prefs"
	"github.com/csheth/tutorview/internal/tui"
)

func main() {
	_ = godotenv.Load()

	server := flag.String("server", envOr("TUTORVIEW_SERVER", "http://localhost:5000"), "base URL of the tutorial server")
	startPage := flag.Int("page", 0, "open at this page instead of the last one read")
	logFile := flag.String("log-file", "", "write logs to this file (default: user cache dir)")
	debug := flag.Bool("debug", false, "enable debug logging")
	noAltScreen := flag.Bool("no-alt-screen", false, "disable the alternate screen buffer")
	precache := flag.Bool("precache", true, "cache static assets for offline reading")
	flag.Parse()

	logger, err := logging.New(*logFile, *debug)
	if err != nil {
		fmt.Println("failed to open log file:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	httpClient := &http.Client{Timeout: 15 * time.Second}
	client := api.New(*server, httpClient, logger)

	store, err := prefs.NewStore()
	if err != nil {
		logger.Warn("preference store unavailable", zap.Error(err))
		store = nil
	}
	saved := prefs.Default()
	if store != nil {
		saved = store.Load()
	}
	page := saved.LastPage
	if *startPage > 0 {
		page = *startPage
	}

	if *precache {
		worker, err := offline.NewWorker(*server, httpClient, logger)
		if err != nil {
			logger.Warn("offline cache unavailable", zap.Error(err))
		} else {
			base := strings.TrimRight(*server, "/")
			manifest := offline.Manifest{
				Root: base + "/",
				Assets: []string{
					base + "/static/style.css",
					base + "/static/viewer.js",
				},
			}
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
				defer cancel()
				if err := worker.Install(ctx, manifest); err != nil {
					logger.Warn("offline precache failed", zap.Error(err))
					return
				}
				worker.Messages() <- offline.Message{Type: offline.MsgSkipWaiting}
			}()
		}
	}

	opts := []tea.ProgramOption{tea.WithMouseCellMotion()}
	if !*noAltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	program := tea.NewProgram(
		tui.New(tui.Config{
			Client:    client,
			Prefs:     store,
			Logger:    logger,
			Theme:     saved.Theme,
			StartPage: page,
		}),
		opts...,
	)

	if _, err := program.Run(); err != nil {
		fmt.Println("program error:", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
