// Command preview evaluates the current readings and writes the alert report
// without messaging anyone. It reads the same environment as alerter.
//
// Usage:
//
//	go run ./cmd/preview -out ml_data.json
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/coastal-alert-service/internal/adapter/database"
	"github.com/couchcryptid/coastal-alert-service/internal/adapter/report"
	"github.com/couchcryptid/coastal-alert-service/internal/config"
	"github.com/couchcryptid/coastal-alert-service/internal/observability"
	"github.com/couchcryptid/coastal-alert-service/internal/routine"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "ml_data.json", "output path for the alert report")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := observability.NewLogger(cfg)

	connector, err := database.NewConnector(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r, err := routine.Preview(ctx, routine.Connector(connector.Connect), logger)
	if err != nil {
		return err
	}

	if err := report.NewFileWriter(*out).Publish(ctx, r); err != nil {
		return err
	}

	withAlerts := 0
	for _, l := range r.Locations {
		if len(l.Alerts) > 0 {
			withAlerts++
		}
	}
	fmt.Fprintf(os.Stdout, "wrote %s: %d locations, %d with alerts, %d alerts total\n",
		*out, len(r.Locations), withAlerts, r.AlertCount())
	return nil
}
