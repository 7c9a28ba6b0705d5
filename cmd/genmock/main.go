// Command genmock creates a SQLite database with the locations, ml_data and
// location_phones tables filled with reproducible random readings, for local
// runs with DB_DRIVER=sqlite.
//
// Usage:
//
//	go run ./cmd/genmock -db coastal.db -locations 10 -seed 1
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand/v2"
	"sort"

	"github.com/couchcryptid/coastal-alert-service/internal/adapter/database"
	"github.com/couchcryptid/coastal-alert-service/internal/config"
	"github.com/couchcryptid/coastal-alert-service/internal/domain"
)

var siteNames = []string{
	"Sundarbans", "Pichavaram", "Bhitarkanika", "Gulf of Mannar", "Chilika Lagoon",
	"Coringa", "Vembanad", "Gulf of Kutch", "Andaman Creek", "Ratnagiri Estuary",
	"Muthupet", "Kundapura", "Mahanadi Delta", "Godavari Mouth", "Palk Bay",
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	dbPath := flag.String("db", "coastal.db", "sqlite database file to create or refill")
	locations := flag.Int("locations", 10, "number of monitored locations")
	seed := flag.Uint64("seed", 1, "random seed")
	flag.Parse()

	if *locations <= 0 {
		flag.Usage()
		return fmt.Errorf("-locations must be positive")
	}

	ctx := context.Background()
	db, err := sql.Open(config.DriverSQLite, *dbPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", *dbPath, err)
	}
	defer db.Close()

	if err := database.CreateSchema(ctx, db); err != nil {
		return err
	}

	rng := rand.New(rand.NewPCG(*seed, *seed))
	rows := make([]domain.MetricRow, *locations)
	for i := range rows {
		rows[i] = randomRow(rng, fmt.Sprintf("LOC%03d", i+1))
	}

	if err := fill(ctx, db, rng, rows); err != nil {
		return err
	}
	log.Printf("wrote %d locations to %s", len(rows), *dbPath)

	printStats(rows)
	return nil
}

func randomRow(rng *rand.Rand, id string) domain.MetricRow {
	return domain.MetricRow{
		LocationID:      id,
		DumpingQuantity: round2(rng.Float64() * 300),
		CycloneCategory: cycloneCategory(rng),
		SeaLevelRise:    round2(rng.Float64() * 30),
		BloomRiskScore:  round2(rng.Float64() * 100),
		RiskScore:       round2(rng.Float64()),
	}
}

// cycloneCategory favours calm conditions: about half the sites see no cyclone.
func cycloneCategory(rng *rand.Rand) int {
	if rng.IntN(2) == 0 {
		return 0
	}
	return 1 + rng.IntN(5)
}

func randomPhone(rng *rand.Rand) string {
	return fmt.Sprintf("+91 9%04d %05d", rng.IntN(10000), rng.IntN(100000))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// fill replaces the contents of all three tables in one transaction.
func fill(ctx context.Context, db *sql.DB, rng *rand.Rand, rows []domain.MetricRow) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for _, table := range []string{"location_phones", "ml_data", "locations"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for i, r := range rows {
		name := siteNames[i%len(siteNames)]
		if i >= len(siteNames) {
			name = fmt.Sprintf("%s %d", name, i/len(siteNames)+1)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO locations (location_id, location) VALUES (?, ?)`,
			r.LocationID, name); err != nil {
			return fmt.Errorf("insert location %s: %w", r.LocationID, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO ml_data (location_id, dumping_quantity, saffir_simpson_category, sea_level_rise, bloom_risk_score, risk_score) VALUES (?, ?, ?, ?, ?, ?)`,
			r.LocationID, r.DumpingQuantity, r.CycloneCategory, r.SeaLevelRise, r.BloomRiskScore, r.RiskScore); err != nil {
			return fmt.Errorf("insert ml_data %s: %w", r.LocationID, err)
		}
		for n := 1 + rng.IntN(3); n > 0; n-- {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO location_phones (location_id, phone_number) VALUES (?, ?)`,
				r.LocationID, randomPhone(rng)); err != nil {
				return fmt.Errorf("insert phone for %s: %w", r.LocationID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// printStats reports the advisories the generated readings will trigger.
func printStats(rows []domain.MetricRow) {
	counts := map[string]int{}
	total := 0
	for _, r := range rows {
		for _, ev := range domain.Evaluate(r) {
			counts[string(ev.Group)+"/"+string(ev.Tier)]++
			total++
		}
	}

	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Printf("\n=== Expected alerts: %d ===\n", total)
	for _, k := range keys {
		fmt.Printf("  %-20s %d\n", k, counts[k])
	}
}
