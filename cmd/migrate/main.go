package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"event-board.backend/internal/config"
	"event-board.backend/internal/infrastructure/migrations"
)

var (
	loadDotenv  = godotenv.Load
	loadCfg     = config.Load
	openDB      = sql.Open
	migrateUp   = migrations.Up
	migrateDown = migrations.Down
	driverName  = "postgres"
	dialect     = "postgres"

	stdout io.Writer = os.Stdout
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	dsn := fs.String("dsn", "", "database URL (defaults to DATABASE_URL / DB_* settings)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	direction := "up"
	if fs.NArg() > 0 {
		direction = fs.Arg(0)
	}
	if direction != "up" && direction != "down" {
		return fmt.Errorf("unknown direction %q (allowed: up, down)", direction)
	}

	if err := loadDotenv(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	if *dsn == "" {
		*dsn = loadCfg().Database.URL()
	}

	db, err := openDB(driverName, *dsn)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if direction == "down" {
		err = migrateDown(ctx, db, dialect)
	} else {
		err = migrateUp(ctx, db, dialect)
	}
	if err != nil {
		return fmt.Errorf("migrate %s: %w", direction, err)
	}
	fmt.Fprintf(stdout, "migrations %s: done\n", direction)
	return nil
}
