package cli

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bird-quiz-service/internal/app"
	"bird-quiz-service/internal/config"
	"bird-quiz-service/internal/domain"
	"bird-quiz-service/internal/infra/memory"
	pgstore "bird-quiz-service/internal/infra/postgres"
	rediscache "bird-quiz-service/internal/infra/redis"
	transport "bird-quiz-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	catalogTTL := config.TTLDuration(cfg.Catalog.TTL, 10*time.Minute)

	var (
		games   app.GameRepository
		users   app.UserRepository
		loader  rediscache.CatalogLoader
		catalog app.CatalogRepository
	)
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.URL)))
		db := bun.NewDB(sqldb, pgdialect.New())
		store := pgstore.NewStore(db)
		games, users = store, store
		loader = pgstore.NewCatalogLoader(pool)
	} else {
		store := memory.NewStore()
		games, users = store, store
		loader = memory.NewStaticCatalogLoader(sampleBirds())
	}

	if redisClient != nil {
		catalog = rediscache.NewCatalogRepository(redisClient, loader, catalogTTL)
	} else {
		catalog = memory.NewCatalogRepository(loader, catalogTTL)
	}

	service := app.NewGameService(catalog, games, users)
	router := transport.NewRouter(service)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting bird quiz service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleBirds provides a minimal catalog for running without a database.
func sampleBirds() []domain.Bird {
	return []domain.Bird{
		{
			ID:             1,
			CommonName:     "Red-tailed Hawk",
			ScientificName: "Buteo jamaicensis",
			Family:         "Accipitridae",
			ImageURL:       "https://commons.wikimedia.org/wiki/Special:FilePath/Red-Tailed_Hawk.jpg",
			AudioURL:       "https://xeno-canto.org/413729/download",
		},
		{
			ID:             2,
			CommonName:     "Black-bellied Plover",
			ScientificName: "Pluvialis squatarola",
			Family:         "Charadriidae",
			ImageURL:       "https://commons.wikimedia.org/wiki/Special:FilePath/Pluvialis_squatarola.jpg",
			AudioURL:       "https://xeno-canto.org/629229/download",
		},
		{
			ID:             3,
			CommonName:     "Least Sandpiper",
			ScientificName: "Calidris minutilla",
			Family:         "Scolopacidae",
			ImageURL:       "https://commons.wikimedia.org/wiki/Special:FilePath/Least_sandpiper.jpg",
			AudioURL:       "https://xeno-canto.org/413730/download",
		},
		{
			ID:             4,
			CommonName:     "Northern Cardinal",
			ScientificName: "Cardinalis cardinalis",
			Family:         "Cardinalidae",
			ImageURL:       "https://commons.wikimedia.org/wiki/Special:FilePath/Northern_Cardinal.jpg",
			AudioURL:       "https://xeno-canto.org/413731/download",
		},
	}
}
