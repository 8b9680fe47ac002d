package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Temutjin2k/taxi-fleet-system/config"
	"github.com/Temutjin2k/taxi-fleet-system/pkg/passhash"
	"github.com/Temutjin2k/taxi-fleet-system/pkg/postgres"
)

var (
	configPath = flag.String("config-path", "config.yaml", "Path to the config yaml file")
)

func main() {
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.NewConfig(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	client, err := postgres.New(ctx, cfg.Database)
	if err != nil {
		log.Fatal(err)
	}

	seedDefaults(client.Pool)
}

// seedDefaults наполняет пустую базу минимальным набором для локальной
// разработки: суперадмин, демо-парк и его диспетчер.
func seedDefaults(db *pgxpool.Pool) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	passwordHash, err := passhash.HashPassword("password")
	if err != nil {
		log.Fatalf("seedDefaults: hash password: %v", err)
	}

	tx, err := db.Begin(ctx)
	if err != nil {
		log.Fatalf("seedDefaults: begin tx: %v", err)
	}
	// ensure rollback if commit doesn't happen
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	const insertSuperadmin = `
INSERT INTO superadmins (login, password_hash, full_name)
VALUES ($1, $2, $3)
ON CONFLICT (login) DO NOTHING;
`
	if _, err := tx.Exec(ctx, insertSuperadmin,
		"superadmin", passwordHash, "Default Superadmin",
	); err != nil {
		log.Fatalf("seedDefaults: insert superadmin: %v", err)
	}

	const insertPark = `
INSERT INTO taxiparks (name, city, contact_phone, commission_percent, is_active)
VALUES ($1, $2, $3, $4, true)
ON CONFLICT (name) DO NOTHING;
`
	if _, err := tx.Exec(ctx, insertPark,
		"Demo Park", "Almaty", "+77770000000", 15.0,
	); err != nil {
		log.Fatalf("seedDefaults: insert taxipark: %v", err)
	}

	const insertDispatcher = `
INSERT INTO dispatchers (login, password_hash, full_name, taxipark_id, is_active)
SELECT $1, $2, $3, id, true FROM taxiparks WHERE name = $4
ON CONFLICT (login) DO NOTHING;
`
	if _, err := tx.Exec(ctx, insertDispatcher,
		"dispatcher", passwordHash, "Demo Dispatcher", "Demo Park",
	); err != nil {
		log.Fatalf("seedDefaults: insert dispatcher: %v", err)
	}

	if err := tx.Commit(ctx); err != nil {
		log.Fatalf("seedDefaults: commit: %v", err)
	}

	log.Print("seedDefaults: default superadmin, taxipark and dispatcher ensured")
}
