// Command rundown-stub runs a self-contained fake RunDown backend for local
// development of the client.
package main

import (
	"flag"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/rundown-app/rundown/internal/stubserver"
	"github.com/rundown-app/rundown/internal/util"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	}

	addr := flag.String("addr", util.GetEnvDefault("RUNDOWN_STUB_ADDR", ":5000"), "listen address (overrides $RUNDOWN_STUB_ADDR)")
	secret := flag.String("jwt-secret", os.Getenv("RUNDOWN_STUB_SECRET"), "session signing secret (overrides $RUNDOWN_STUB_SECRET)")
	flag.Parse()

	if *secret == "" {
		*secret = util.GenerateRandomHex(32)
		slog.Warn("No signing secret configured, sessions will not survive a restart")
	}

	srv := stubserver.New(stubserver.Config{
		JWTSecret:  []byte(*secret),
		SessionTTL: 24 * time.Hour,
	})

	slog.Info("Stub backend listening", "addr", *addr)
	if err := http.ListenAndServe(*addr, srv.Router()); err != nil {
		slog.Error("Stub backend failed", "error", err)
		os.Exit(1)
	}
}
