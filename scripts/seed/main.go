package main

import (
	"context"
	"flag"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"github.com/solidario/donation-api/pkg/config"
	"github.com/solidario/donation-api/pkg/database"
)

var defaultCategories = []struct {
	Name        string
	Description string
}{
	{"Alimentos", "Non-perishable food and staples"},
	{"Roupas", "Clothing and footwear"},
	{"Higiene", "Personal hygiene and cleaning products"},
	{"Medicamentos", "Over-the-counter medicine and first aid"},
	{"Moveis", "Furniture and household goods"},
	{"Brinquedos", "Toys and school supplies"},
}

func main() {
	var (
		adminEmail    string
		adminPassword string
		adminName     string
		timeout       time.Duration
	)

	flag.StringVar(&adminEmail, "admin-email", "admin@solidario.org", "Initial admin email")
	flag.StringVar(&adminPassword, "admin-password", "", "Initial admin password (required to seed the admin)")
	flag.StringVar(&adminName, "admin-name", "Administrator", "Initial admin display name")
	flag.DurationVar(&timeout, "timeout", 30*time.Second, "Seed timeout")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer db.Close() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	seeded, err := seedCategories(ctx, db)
	if err != nil {
		log.Fatalf("failed to seed categories: %v", err)
	}
	log.Printf("categories seeded: %d new", seeded)

	if strings.TrimSpace(adminPassword) != "" {
		if err := seedAdmin(ctx, db, adminEmail, adminPassword, adminName); err != nil {
			log.Fatalf("failed to seed admin user: %v", err)
		}
		log.Printf("admin user ready: %s", adminEmail)
	}
}

func seedCategories(ctx context.Context, db *sqlx.DB) (int, error) {
	const query = `
		INSERT INTO donation_categories (id, name, description, is_active, deleted, created_at, updated_at)
		VALUES ($1, $2, $3, TRUE, FALSE, NOW(), NOW())
		ON CONFLICT (name) DO NOTHING`

	seeded := 0
	for _, category := range defaultCategories {
		result, err := db.ExecContext(ctx, query, uuid.NewString(), category.Name, category.Description)
		if err != nil {
			return seeded, err
		}
		if rows, err := result.RowsAffected(); err == nil && rows > 0 {
			seeded++
		}
	}
	return seeded, nil
}

func seedAdmin(ctx context.Context, db *sqlx.DB, email, password, name string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	const query = `
		INSERT INTO users (id, email, password_hash, full_name, role, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 'ADMIN', TRUE, NOW(), NOW())
		ON CONFLICT (email) DO UPDATE SET password_hash = EXCLUDED.password_hash, active = TRUE, updated_at = NOW()`

	_, err = db.ExecContext(ctx, query, uuid.NewString(), strings.ToLower(email), string(hash), name)
	return err
}
