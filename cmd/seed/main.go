package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/truber-app/truber-backend/internal/config"
	"github.com/truber-app/truber-backend/internal/db"
	"github.com/truber-app/truber-backend/internal/seed"
)

func main() {
	dataDir := flag.String("data", "./data", "directory holding the seed JSON files")
	flag.Parse()

	_ = godotenv.Load()

	cfg := config.Load()
	gdb, err := db.Connect(cfg.DBDSN, db.Options{LogLevel: cfg.DBLogLevel})
	if err != nil {
		log.Fatal(err)
	}
	if err := db.Migrate(gdb); err != nil {
		log.Fatal(err)
	}

	if _, err := seed.Run(context.Background(), gdb, os.DirFS(*dataDir)); err != nil {
		log.Fatal(err)
	}
	log.Println("Database seeded successfully")
}
