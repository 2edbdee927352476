package main

import (
	"context"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"strconv"
	"time"

	"devmatch/client/internal/config"
	"devmatch/client/internal/models"
	"devmatch/client/internal/storage"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func dsn() string {
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		return v
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
	)
}

func main() {
	config.LoadEnvFile(nil)

	if len(os.Args) < 2 {
		fmt.Println("Usage: admin <migrate|seed|connect> [args]")
		os.Exit(1)
	}

	db, err := gorm.Open(postgres.Open(dsn()), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	storageSvc := storage.NewStorageService(db)
	ctx := context.Background()

	command := os.Args[1]

	switch command {
	case "migrate":
		if err := storageSvc.Migrate(); err != nil {
			log.Fatalf("Error migrating: %v", err)
		}
		fmt.Println("Tables are up to date.")
	case "seed":
		if len(os.Args) < 3 {
			fmt.Println("Usage: admin seed <count> [password]")
			os.Exit(1)
		}
		n, err := strconv.Atoi(os.Args[2])
		if err != nil || n <= 0 {
			fmt.Println("Invalid count. Please provide a positive integer.")
			os.Exit(1)
		}
		password := "devmatch"
		if len(os.Args) > 3 {
			password = os.Args[3]
		}
		if err := storageSvc.Migrate(); err != nil {
			log.Fatalf("Error migrating: %v", err)
		}
		r := rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
		profiles, err := storage.Seed(ctx, storageSvc, n, password, r)
		if err != nil {
			log.Fatalf("Error seeding after %d profiles: %v", len(profiles), err)
		}
		fmt.Printf("Seeded %d profiles (%s .. %s).\n", n, storage.SeedEmail(0), storage.SeedEmail(n-1))
	case "connect":
		if len(os.Args) != 4 {
			fmt.Println("Usage: admin connect <user_id> <user_id>")
			os.Exit(1)
		}
		if err := connect(ctx, storageSvc, os.Args[2], os.Args[3]); err != nil {
			log.Fatalf("Error connecting users: %v", err)
		}
		fmt.Printf("Users %s and %s are now connected.\n", os.Args[2], os.Args[3])
	default:
		fmt.Println("Unknown command")
		os.Exit(1)
	}
}

// connect records an accepted request between a and b, or accepts the one
// that already exists.
func connect(ctx context.Context, s storage.Storage, a, b string) error {
	for _, id := range []string{a, b} {
		if _, err := s.GetProfile(ctx, id); err != nil {
			return fmt.Errorf("user %s: %w", id, err)
		}
	}
	existing, err := s.RequestBetween(ctx, a, b)
	if err == nil {
		return s.UpdateRequestStatus(ctx, existing.ID, models.StatusAccepted)
	}
	return s.SaveRequest(ctx, &models.ConnectionRequest{
		ID:         uuid.NewString(),
		FromUserID: a,
		ToUserID:   b,
		Status:     models.StatusAccepted,
		CreatedAt:  time.Now(),
	})
}
