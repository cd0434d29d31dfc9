package main

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	openagenda "github.com/goliatone/go-openagenda"
	"github.com/goliatone/go-openagenda/internal/agendas"
	"github.com/goliatone/go-openagenda/internal/di"
	"github.com/joho/godotenv"
	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/afero"
)

const migrationUp = "data/sql/migrations/20261001000000_openagenda_agendas.up.sql"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("dotenv: %v", err)
	}

	cfg := openagenda.DefaultConfig()
	if path := strings.TrimSpace(os.Getenv("OPENAGENDA_CONFIG")); path != "" {
		loaded, err := openagenda.LoadConfig(afero.NewOsFs(), path)
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
		cfg = loaded
	}
	cfg.ApplyEnv(os.LookupEnv)
	cfg.Storage.Provider = "bun"
	cfg.Features.Logger = true
	cfg.Commands.Enabled = true

	sqlDB, err := sql.Open("sqlite3", envOr("OPENAGENDA_DSN", "file:openagenda.db?cache=shared&_fk=1"))
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer sqlDB.Close()

	db, err := di.NewBunDB(sqlDB, "sqlite3")
	if err != nil {
		log.Fatalf("bun db: %v", err)
	}
	if err := migrate(ctx, db.DB); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	module, err := openagenda.New(cfg, di.WithBunDB(db))
	if err != nil {
		log.Fatalf("openagenda: %v", err)
	}
	defer module.Close(context.Background())

	if uid := strings.TrimSpace(os.Getenv("OPENAGENDA_AGENDA_UID")); uid != "" {
		if err := seedAgenda(ctx, module, uid); err != nil {
			log.Fatalf("seed agenda: %v", err)
		}
	}
	if err := module.Start(); err != nil {
		log.Fatalf("start: %v", err)
	}

	addr := envOr("OPENAGENDA_ADDR", ":8080")
	server := &http.Server{Addr: addr, Handler: module.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.Printf("serving %s on %s", module.AgendaURL("demo"), addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("serve: %v", err)
	}
}

func migrate(ctx context.Context, db *sql.DB) error {
	script, err := fs.ReadFile(openagenda.GetMigrationsFS(), migrationUp)
	if err != nil {
		return err
	}
	for _, stmt := range strings.Split(string(script), ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func seedAgenda(ctx context.Context, module *openagenda.Module, uid string) error {
	_, err := module.Agendas().GetByKey(ctx, "demo")
	if err == nil {
		return nil
	}
	var notFound *agendas.NotFoundError
	if !errors.As(err, &notFound) {
		return err
	}
	_, err = module.Agendas().Create(ctx, openagenda.CreateAgendaRequest{
		Key:           "demo",
		UID:           uid,
		Title:         "Demo agenda",
		EventsPerPage: 20,
		Current:       true,
	})
	return err
}

func envOr(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}
