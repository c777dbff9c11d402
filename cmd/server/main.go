package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"delivtrack/internal/adapters/cache"
	"delivtrack/internal/adapters/repositories"
	"delivtrack/internal/adapters/routing"
	"delivtrack/internal/api"
	"delivtrack/internal/config"
	"delivtrack/internal/domain"
	"delivtrack/internal/hub"
	"delivtrack/internal/platform/db"
	"delivtrack/internal/ports"
	"delivtrack/internal/services"
	"delivtrack/internal/store"

	"github.com/joho/godotenv"
)

// main is the application composition root.
// It wires concrete adapters (SQL, Redis, routing providers) behind ports and starts the HTTP server.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	cfg := config.Load()

	dialect, err := db.ParseDialect(cfg.DBDriver)
	if err != nil {
		log.Fatal(err)
	}

	conn, err := db.Open(dialect, cfg.DSN())
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Schema creation is idempotent, so local runs need no separate dbtool step.
	if err := repositories.InitSchema(ctx, conn, dialect); err != nil {
		log.Fatal(err)
	}

	repo := repositories.NewSQLRouteStateRepository(conn, dialect)
	if cfg.SeedPath != "" {
		n, err := repositories.SeedFromJSON(ctx, repo, cfg.SeedPath)
		if err != nil {
			log.Fatal(err)
		}
		log.Printf("seeded stops: count=%d path=%s", n, cfg.SeedPath)
	}

	provider, geocoder, err := newRouting(ctx, cfg, conn, dialect)
	if err != nil {
		log.Fatal(err)
	}

	driver := domain.DriverLocation{
		Coordinates: domain.Coordinates{Lat: cfg.DriverStartLat, Lng: cfg.DriverStartLng},
		LastUpdated: time.Now(),
	}
	deliveries, err := store.Open(ctx, repo, driver)
	if err != nil {
		log.Fatal(err)
	}

	wsHub := hub.New()

	svc := services.NewRouteService(deliveries, services.NewEstimator(provider, cfg.OracleTimeout))
	svc.Geocoder = geocoder
	svc.Notifier = wsHub

	if err := applyRouteConfig(ctx, svc, cfg); err != nil {
		log.Fatal(err)
	}

	// Seeded or restored stops may predate the current driver position.
	if _, err := svc.Optimize(ctx); err != nil {
		log.Fatal(err)
	}

	// Timeouts leave room for a cold routing cache on /route/refresh.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.NewRouter(svc, wsHub),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("Server listening addr=:%s routing_provider=%s db_driver=%s", cfg.Port, cfg.RoutingProvider, dialect)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Println("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http server shutdown error: %v", err)
	}
	log.Println("shutdown complete")
}

// newRouting builds the configured route provider behind a leg cache, plus
// a geocoder when the provider offers one.
func newRouting(
	ctx context.Context,
	cfg config.Config,
	conn *sql.DB,
	dialect db.Dialect,
) (ports.RouteProvider, ports.Geocoder, error) {
	var (
		provider ports.RouteProvider
		geocoder ports.Geocoder
	)

	switch cfg.RoutingProvider {
	case "google":
		g, err := routing.NewGoogleDirectionsProvider(cfg.GoogleMapsAPIKey, "")
		if err != nil {
			return nil, nil, err
		}
		provider = g
	case "ors":
		o, err := routing.NewORSProvider(cfg.ORSAPIKey, routing.WithGeocodeCache(cache.NewSQLGeocodeCache(conn, dialect)))
		if err != nil {
			return nil, nil, err
		}
		provider, geocoder = o, o
	case "", "none":
		log.Println("No routing provider configured (all estimates use the fallback model)")
		return nil, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown ROUTING_PROVIDER %q", cfg.RoutingProvider)
	}

	// Google has no geocoder here; ORS can still serve addresses when a key is set.
	if geocoder == nil && cfg.ORSAPIKey != "" {
		o, err := routing.NewORSProvider(cfg.ORSAPIKey, routing.WithGeocodeCache(cache.NewSQLGeocodeCache(conn, dialect)))
		if err != nil {
			return nil, nil, err
		}
		geocoder = o
	}

	var legs ports.LegCache = cache.NewSQLLegCache(conn, dialect, cfg.LegCacheTTL)
	if cfg.Redis.Enabled {
		client, err := cache.DialRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Printf("redis unavailable, using SQL leg cache: %v", err)
		} else {
			legs = cache.NewRedisLegCache(client, cfg.LegCacheTTL)
		}
	}

	return routing.NewCachedRouteProvider(provider, legs), geocoder, nil
}

// applyRouteConfig seeds the route configuration from the environment when
// nothing was saved yet.
func applyRouteConfig(ctx context.Context, svc *services.RouteService, cfg config.Config) error {
	current := svc.State(ctx).Config
	if current.WorkEndTime != "" || current.EndLocation != nil {
		return nil
	}
	if cfg.WorkEndTime == "" && cfg.EndLocationLat == nil {
		return nil
	}

	rc := domain.RouteConfig{WorkEndTime: cfg.WorkEndTime}
	if cfg.EndLocationLat != nil {
		rc.EndLocation = &domain.EndLocation{
			Coordinates: domain.Coordinates{Lat: *cfg.EndLocationLat, Lng: *cfg.EndLocationLng},
			Address:     cfg.EndLocationAddress,
		}
	}

	if _, err := svc.Reconfigure(ctx, rc); err != nil {
		return fmt.Errorf("apply route config from environment: %w", err)
	}
	return nil
}
