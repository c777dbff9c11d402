package main

import (
	"context"
	"database/sql"
	"log"

	"delivtrack/internal/adapters/repositories"
	"delivtrack/internal/config"
	"delivtrack/internal/platform/db"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	cfg := config.Load()

	dialect, err := db.ParseDialect(cfg.DBDriver)
	if err != nil {
		log.Fatal(err)
	}
	if cfg.DSN() == "" {
		log.Fatal("DATABASE_URL or DB_PATH is required")
	}

	conn, err := db.Open(dialect, cfg.DSN())
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	seedPath := config.Get("SEED_PATH", "data/seeds/stops.json")
	initAndSeed(context.Background(), conn, dialect, seedPath)
}

func initAndSeed(ctx context.Context, conn *sql.DB, dialect db.Dialect, seedPath string) {
	log.Println("Initializing database schema...")
	if err := repositories.InitSchema(ctx, conn, dialect); err != nil {
		log.Fatalf("schema initialization failed: %v", err)
	}
	log.Println("Schema ready.")

	log.Println("Seeding database...")
	repo := repositories.NewSQLRouteStateRepository(conn, dialect)
	n, err := repositories.SeedFromJSON(ctx, repo, seedPath)
	if err != nil {
		log.Fatalf("seeding failed: %v", err)
	}
	log.Printf("Seeding complete. added=%d", n)
}
