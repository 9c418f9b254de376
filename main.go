package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/ncruces/zenity"

	"github.com/jota2rz/led-scroller/internal/audio"
	"github.com/jota2rz/led-scroller/internal/browser"
	"github.com/jota2rz/led-scroller/internal/config"
	"github.com/jota2rz/led-scroller/internal/controls"
	"github.com/jota2rz/led-scroller/internal/db"
	"github.com/jota2rz/led-scroller/internal/effects"
	"github.com/jota2rz/led-scroller/internal/handlers"
	"github.com/jota2rz/led-scroller/internal/present"
	"github.com/jota2rz/led-scroller/internal/presets"
	"github.com/jota2rz/led-scroller/internal/sse"
	"github.com/jota2rz/led-scroller/internal/store"
	"github.com/jota2rz/led-scroller/internal/ws"
)

func main() {
	// A missing .env file is fine; flags and the environment still apply.
	_ = godotenv.Load()

	// ── Flags ───────────────────────────────────────────
	addr := flag.String("addr", envOr("LED_ADDR", ":8090"), "HTTP listen address")
	dbPath := flag.String("db", envOr("LED_DB", "led-scroller.db"), "SQLite database path")
	valkeyAddr := flag.String("valkey", os.Getenv("VALKEY_ADDR"), "Valkey address for user presets (default: SQLite)")
	audioDir := flag.String("audio-dir", os.Getenv("LED_AUDIO_DIR"), "Directory containing audio files (saved to config)")
	corsOrigin := flag.String("cors-origin", os.Getenv("LED_CORS_ORIGIN"), "Origin allowed to call the API from another host")
	pickAudio := flag.Bool("pick-audio", false, "Choose an audio file to react to in a file dialog")
	debug := flag.Bool("debug", false, "Enable debug logging")
	noBrowser := flag.Bool("no-browser", false, "Do not open the preview in a browser on startup")
	flag.Parse()

	// ── Logger ──────────────────────────────────────────
	logLevel := slog.LevelInfo
	if *debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	// ── Database ────────────────────────────────────────
	database, err := db.Open(*dbPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	// ── Config ──────────────────────────────────────────
	cfg := config.New(database)
	if *audioDir != "" {
		if err := cfg.Set(config.KeyAudioDir, *audioDir); err != nil {
			slog.Error("failed to save audio dir", "error", err)
		}
	}

	// ── Audio file picker ───────────────────────────────
	var pickedTrack string
	if *pickAudio {
		path, err := pickAudioFile()
		switch {
		case err != nil:
			slog.Error("audio file dialog failed", "error", err)
		case path != "":
			if err := cfg.Set(config.KeyAudioDir, filepath.Dir(path)); err != nil {
				slog.Error("failed to save audio dir", "error", err)
			}
			pickedTrack = filepath.Base(path)
		}
	}

	// ── Presets + Store ─────────────────────────────────
	var repo presets.Repository = presets.NewSQLiteRepository(database)
	if *valkeyAddr != "" {
		vr, err := presets.NewValkeyRepository(*valkeyAddr)
		if err != nil {
			slog.Error("failed to connect to valkey", "addr", *valkeyAddr, "error", err)
			os.Exit(1)
		}
		defer vr.Close()
		repo = vr
		slog.Info("storing user presets in valkey", "addr", *valkeyAddr)
	}

	registry := presets.NewRegistry()
	st := store.New(registry, store.WithRepository(repo), store.WithLogger(logger))
	restoreCtx, restoreCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := st.Restore(restoreCtx); err != nil {
		slog.Warn("could not restore user presets", "error", err)
	}
	restoreCancel()
	st.LoadPreset(cfg.StartupPreset())

	// ── Hubs ────────────────────────────────────────────
	hub := sse.NewHub()
	go hub.Run()

	wsHub := ws.NewHub()
	go wsHub.Run()

	surface := controls.New(st)
	wsServer := ws.NewServer(wsHub, ws.NewExecutor(st, surface), ws.WithAllowedOrigin(*corsOrigin))

	// ── Audio (scanned after the server starts) ──
	audioCache := audio.NewCache(database)
	library := audio.NewLibrary(cfg.AudioDir(), audioCache)
	meter := audio.NewMeter()

	// ── Effects ─────────────────────────────────────────
	rootCtx, rootCancel := context.WithCancel(context.Background())

	// Cyclers may step before the handlers exist.
	var accent atomic.Pointer[handlers.Handlers]
	animator := effects.NewAnimator(rootCtx, st,
		effects.WithFrameRate(cfg.FrameRate()),
		effects.WithLevel(meter),
		effects.WithFrameHandler(func(f present.Frame) {
			if h := accent.Load(); h != nil {
				h.PublishAccent(f)
			}
		}),
	)

	h := handlers.New(handlers.Deps{
		Config:   cfg,
		Hub:      hub,
		Store:    st,
		Controls: surface,
		Animator: animator,
		Library:  library,
		Meter:    meter,
	})
	accent.Store(h)
	unsubscribe := st.Subscribe(func(ch store.Change) {
		h.PublishChange(ch)
		wsServer.Publish(ch)
	})
	h.PublishSnapshot()

	// ── Routes ──────────────────────────────────────────
	mux := http.NewServeMux()
	h.Routes(mux, wsServer)

	// Graceful shutdown channel (created early so /api/shutdown can use it)
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	mux.HandleFunc("POST /api/shutdown", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"shutting down"}`))
		go func() {
			time.Sleep(500 * time.Millisecond)
			done <- os.Interrupt
		}()
	})

	// ── HTTP Server ────────────────────────────────────────
	srv := &http.Server{
		Addr:         *addr,
		Handler:      handlers.CORS(*corsOrigin, mux),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 0, // SSE needs unlimited write time
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("HTTP server starting", "addr", *addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// ── Auto-open preview ─────────────────────────────────
	if !*noBrowser && !*debug {
		host, port, _ := net.SplitHostPort(*addr)
		if host == "" {
			host = "localhost"
		}
		previewURL := fmt.Sprintf("http://%s/preview", net.JoinHostPort(host, port))
		slog.Info("opening preview in browser", "url", previewURL)
		browser.Open(previewURL)
	}

	// ── Background audio analysis + directory watcher ───
	go func() {
		slog.Info("audio analysis starting", "dir", library.Dir())
		library.Scan()
		audioCache.Cleanup()
		slog.Info("audio analysis complete")

		if pickedTrack != "" {
			if _, env, ok := library.Get(pickedTrack); ok {
				meter.Use(pickedTrack, env)
				slog.Info("reacting to audio file", "track", pickedTrack, "tempo", env.Tempo)
			} else {
				slog.Warn("picked audio file could not be analysed", "track", pickedTrack)
			}
		}
		h.PublishLibrary()

		go library.Watch(rootCtx, cfg.AudioWatchInterval(), h.PublishLibrary)
	}()

	<-done
	slog.Info("shutting down...")

	rootCancel() // stop the watcher and effect loops

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	unsubscribe()
	animator.Close()
	hub.Close()
	wsHub.Close()
	_ = srv.Shutdown(ctx)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// pickAudioFile asks for an audio file. A canceled dialog returns "".
func pickAudioFile() (string, error) {
	var patterns []string
	for ext := range audio.Extensions {
		patterns = append(patterns, "*"+ext)
	}
	slices.Sort(patterns)

	path, err := zenity.SelectFile(
		zenity.Title("Open Audio File"),
		zenity.FileFilters{{
			Name:     "Audio",
			Patterns: patterns,
		}},
	)
	if err != nil {
		if errors.Is(err, zenity.ErrCanceled) {
			return "", nil
		}
		return "", err
	}
	return path, nil
}
