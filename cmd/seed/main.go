package main

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/payvault/user-service/config"
	"github.com/payvault/user-service/internal/domain/entity"
	"github.com/payvault/user-service/pkg/helpers"
)

// Seeds a local admin account for development.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := sql.Open("pgx", cfg.PostgresDSN())
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer func() { _ = db.Close() }()

	email := "admin@payvault.dev"
	password := "Admin!2345"
	hash, err := helpers.HashPassword(password)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	var id string
	err = db.QueryRow(`
		INSERT INTO users (email, password_hash, first_name, last_name, role, is_active, is_verified)
		VALUES ($1, $2, $3, $4, $5, TRUE, TRUE)
		ON CONFLICT (email) DO UPDATE SET role = EXCLUDED.role, is_active = TRUE
		RETURNING id
	`, email, hash, "Admin", "User", entity.RoleAdmin).Scan(&id)
	if err != nil {
		log.Fatalf("failed to seed admin: %v", err)
	}
	fmt.Printf("seeded admin: id=%s email=%s password=%s\n", id, email, password)
}
