package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"

	"billed-backend/config"
	"billed-backend/models"
	"billed-backend/repository"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	email := flag.String("email", "employee@test.tld", "employee email")
	name := flag.String("name", "Test Employee", "employee name")
	admin := flag.Bool("admin", false, "create an administrator instead of an employee")
	flag.Parse()

	cfg, err := config.Load(".env", "../../.env")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()
	users, closeDB, err := openUsers(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer closeDB()

	// Check if user already exists
	existing, err := users.GetByEmail(ctx, *email)
	if err == nil {
		log.Printf("User with email %s already exists (ID: %s)", existing.Email, existing.ID)
		return
	}
	if !errors.Is(err, repository.ErrNotFound) {
		log.Fatalf("Failed to look up user: %v", err)
	}

	user := &models.User{Email: *email, Name: *name, Type: models.UserTypeEmployee}
	if *admin {
		user.Type = models.UserTypeAdmin
	}
	if err := users.Create(ctx, user); err != nil {
		log.Fatalf("Failed to create user: %v", err)
	}

	fmt.Printf("✅ %s created successfully!\n", user.Type)
	fmt.Printf("   ID: %s\n", user.ID)
	fmt.Printf("   Email: %s\n", user.Email)
	fmt.Printf("   Name: %s\n", user.Name)
}

func openUsers(ctx context.Context, cfg *config.Config) (repository.UserRepository, func(), error) {
	if cfg.Database.Driver == "postgres" {
		pool, err := pgxpool.New(ctx, cfg.Database.URL)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewPgUserRepository(pool), pool.Close, nil
	}

	db, err := repository.OpenSQL(cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		return nil, nil, err
	}
	if err := repository.Migrate(db, cfg.Database.Driver); err != nil {
		db.Close()
		return nil, nil, err
	}
	return repository.NewSQLUserRepository(db), func() { db.Close() }, nil
}
