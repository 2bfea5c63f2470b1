package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"codeberg.org/dishdash/server/dishdash/users"
	"codeberg.org/dishdash/server/internal/auth"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

// issues a bearer token for local testing; with -password it also seeds the
// account so POST /api/v1/auth/login works against it
func main() {
	role := flag.String("role", string(auth.RoleCustomer), "role claim (CUSTOMER, RESTAURANT_OWNER, DRIVER, SUPPORT, ADMIN)")
	email := flag.String("email", "test@dishdash.app", "email claim")
	subject := flag.String("subject", "", "subject id (random uuid when empty)")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	password := flag.String("password", "", "seed the user in DATABASE_URL with this password")
	flag.Parse()

	// load environment
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found")
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET not set")
	}

	parsed, ok := auth.ParseRole(strings.ToUpper(*role))
	if !ok {
		log.Fatalf("unknown role %q", *role)
	}

	userID := *subject
	if userID == "" {
		userID = uuid.New().String()
	}

	if *password != "" {
		seeded, err := seedUser(userID, *email, parsed, *password)
		if err != nil {
			log.Fatalf("Failed to seed user: %v", err)
		}

		userID = seeded

		fmt.Printf("Seeded user %s (ID: %s)\n", *email, userID)
	}

	issuerName := os.Getenv("JWT_ISSUER")
	if issuerName == "" {
		issuerName = "dishdash"
	}

	issuer, err := auth.NewIssuer(auth.Config{Secret: secret, Issuer: issuerName, TTL: *ttl})
	if err != nil {
		log.Fatalf("Failed to create issuer: %v", err)
	}

	token, expiresAt, err := issuer.Sign(auth.Principal{SubjectID: userID, Email: *email, Role: parsed})
	if err != nil {
		log.Fatalf("Failed to generate JWT: %v", err)
	}

	fmt.Printf("\nTest JWT (%s, expires %s):\n%s\n\n", parsed, expiresAt.Format(time.RFC3339), token)
	fmt.Printf("Export this token for testing:\nexport TEST_TOKEN=\"%s\"\n", token)
}

// upserts by email and returns the stored id
func seedUser(userID, email string, role auth.Role, password string) (string, error) {
	dbConnString := os.Getenv("DATABASE_URL")
	if dbConnString == "" {
		return "", fmt.Errorf("DATABASE_URL not set")
	}

	ctx := context.Background()

	dbPool, err := pgxpool.New(ctx, dbConnString)
	if err != nil {
		return "", fmt.Errorf("failed to connect to database: %w", err)
	}
	defer dbPool.Close()

	hash, err := users.HashPassword(password)
	if err != nil {
		return "", err
	}

	var id string

	err = dbPool.QueryRow(ctx, `
		INSERT INTO users (id, email, name, role, password_hash, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, TRUE, NOW(), NOW())
		ON CONFLICT (email) DO UPDATE SET role = EXCLUDED.role, password_hash = EXCLUDED.password_hash, active = TRUE, updated_at = NOW()
		RETURNING id
	`, userID, strings.ToLower(email), "Test User", string(role), hash).Scan(&id)

	return id, err
}
