package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/vinodhj/cf-jwt-auth/internal/auth"
	"github.com/vinodhj/cf-jwt-auth/internal/ids"
	"github.com/vinodhj/cf-jwt-auth/internal/migrate"
	"github.com/vinodhj/cf-jwt-auth/internal/store/pg"
)

func main() {
	log.SetFlags(0)
	var (
		dsn            = flag.String("dsn", os.Getenv("AUTH_PG_DSN"), "PostgreSQL DSN")
		migrationsPath = flag.String("migrations", "db/migrations", "Path to SQL migrations")
		seedsPath      = flag.String("seeds", "", "Path to SQL seeds (optional)")
	)
	flag.Parse()

	if *dsn == "" {
		log.Fatal("missing DSN: provide via -dsn or AUTH_PG_DSN")
	}
	if len(flag.Args()) == 0 {
		log.Fatal("usage: migrate [up|down|seed|seed-admin|status]")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := sql.Open("pgx", *dsn)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	var seeds fs.FS
	if *seedsPath != "" {
		seeds = os.DirFS(*seedsPath)
	}
	runner := migrate.NewRunner(db, os.DirFS(*migrationsPath), seeds)

	switch flag.Arg(0) {
	case "up":
		err = runner.Up(ctx)
	case "down":
		err = runner.Down(ctx)
	case "seed":
		err = runner.Seed(ctx)
	case "seed-admin":
		err = seedAdmin(ctx, db)
	case "status":
		var history []string
		history, err = runner.Status(ctx)
		if err == nil {
			for _, item := range history {
				fmt.Println(item)
			}
		}
	default:
		log.Fatalf("unknown command %q", flag.Arg(0))
	}
	if err != nil {
		log.Fatalf("migrate %s: %v", flag.Arg(0), err)
	}
}

// seedAdmin bootstraps the first ADMIN principal. Signup refuses to mint
// admins without an admin actor, so the very first one has to come from
// here. Credentials arrive via environment, never the command line.
func seedAdmin(ctx context.Context, db *sql.DB) error {
	email := os.Getenv("AUTH_SEED_ADMIN_EMAIL")
	password := os.Getenv("AUTH_SEED_ADMIN_PASSWORD")
	name := os.Getenv("AUTH_SEED_ADMIN_NAME")
	if email == "" || password == "" {
		return fmt.Errorf("AUTH_SEED_ADMIN_EMAIL and AUTH_SEED_ADMIN_PASSWORD are required")
	}
	if name == "" {
		name = "Admin"
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	user := &auth.User{
		ID:           ids.New(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         auth.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := pg.NewStore(db).Users().Create(ctx, user); err != nil {
		return err
	}
	log.Printf("seeded admin %s (%s)", user.ID, email)
	return nil
}
