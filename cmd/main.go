package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/siguialassane/fact-capture-ai-sub002/internal/compta"
	"github.com/siguialassane/fact-capture-ai-sub002/internal/config"
	"github.com/siguialassane/fact-capture-ai-sub002/internal/httpapi"
	"github.com/siguialassane/fact-capture-ai-sub002/internal/plan"
	"github.com/siguialassane/fact-capture-ai-sub002/internal/storage/memory"
	pgstore "github.com/siguialassane/fact-capture-ai-sub002/internal/storage/postgres"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Logger (slog to stdout). Level via LOG_LEVEL; format via LOG_FORMAT (json|text, default json)
	logger := buildLoggerFromEnv()
	slog.SetDefault(logger)

	cfg := config.Default()
	if path := strings.TrimSpace(os.Getenv("COMPTA_CONFIG")); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			logger.Error("failed to load config", "path", path, "err", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	var store httpapi.Store
	var closeFn func()

	if dsn := strings.TrimSpace(os.Getenv("DATABASE_URL")); dsn != "" {
		pg, err := pgstore.Open(ctx, dsn)
		if err != nil {
			logger.Error("failed to connect to postgres", "err", err)
			os.Exit(1)
		}
		closeFn = pg.Close
		if devSeedEnabled() {
			accs, err := pg.SeedDev(ctx)
			if err != nil {
				logger.Error("dev seed failed", "err", err)
			} else {
				logDevSeed(logger, "postgres", accs)
			}
		}
		store = pg
		logger.Info("storage backend: postgres")
	} else {
		mem := memory.New()
		if devSeedEnabled() {
			accs := seedMemory(mem, cfg)
			logDevSeed(logger, "memory", accs)
		}
		store = mem
		logger.Info("storage backend: memory")
	}

	srv := &http.Server{
		Addr:              listenAddr(),
		Handler:           httpapi.New(store, cfg, logger).Handler(),
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("compta service listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctxShutdown); err != nil {
			logger.Error("server shutdown error", "err", err)
		}
	case err := <-errCh:
		logger.Error("server error", "err", err)
	}
	if closeFn != nil {
		closeFn()
	}
}

func listenAddr() string {
	if addr := strings.TrimSpace(os.Getenv("LISTEN_ADDR")); addr != "" {
		return addr
	}
	return ":8080"
}

func devSeedEnabled() bool {
	dev := strings.ToLower(strings.TrimSpace(os.Getenv("DEV_SEED")))
	return dev == "1" || dev == "true" || dev == "yes"
}

// seedMemory registers the conventional capture-pipeline accounts.
func seedMemory(store *memory.Store, cfg config.Config) []compta.Account {
	seed := map[string]string{
		cfg.Accounts.Client:        "Clients",
		cfg.Accounts.Fournisseur:   "Fournisseurs",
		cfg.Accounts.Vente:         "Ventes de marchandises",
		cfg.Accounts.Achat:         "Achats de marchandises",
		cfg.Accounts.TVACollectee:  "TVA facturée",
		cfg.Accounts.TVADeductible: "TVA récupérable",
		cfg.Accounts.Banque:        "Banques locales",
		cfg.Accounts.Caisse:        "Caisse",
		cfg.Accounts.Resultat:      "Résultat de l'exercice",
	}
	reg := plan.New(cfg)
	accs := make([]compta.Account, 0, len(seed))
	for number, label := range seed {
		a := reg.Resolve(number, label)
		store.SeedAccount(a)
		accs = append(accs, a)
	}
	return accs
}

// logDevSeed emits structured logs with the seeded account numbers
func logDevSeed(l *slog.Logger, backend string, accs []compta.Account) {
	numbers := make([]string, 0, len(accs))
	for _, a := range accs {
		numbers = append(numbers, a.Number)
	}
	l.Info("DEV seed ("+backend+")", "comptes", numbers)
}

// parseLogLevel maps env values to slog.Leveler
func parseLogLevel(s string) slog.Leveler {
	switch s {
	case "DEBUG", "debug":
		return slog.LevelDebug
	case "WARN", "WARNING", "warn", "warning":
		return slog.LevelWarn
	case "ERROR", "ERR", "error", "err":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func buildLoggerFromEnv() *slog.Logger {
	level := parseLogLevel(os.Getenv("LOG_LEVEL"))
	format := strings.ToLower(strings.TrimSpace(os.Getenv("LOG_FORMAT")))
	if format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	}
	// default to JSON
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
