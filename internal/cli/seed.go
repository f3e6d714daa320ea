package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ledgerpane/ledgerpane/internal/cli/output"
	"github.com/ledgerpane/ledgerpane/internal/config"
	"github.com/ledgerpane/ledgerpane/internal/logging"
	"github.com/ledgerpane/ledgerpane/internal/messaging"
	"github.com/ledgerpane/ledgerpane/internal/messaging/nats"
	"github.com/ledgerpane/ledgerpane/internal/repository"
	"github.com/ledgerpane/ledgerpane/internal/seeder"
)

var (
	seedCount   int
	seedWindow  time.Duration
	seedTenants []string
	seedSeed    int64
	seedPublish bool
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Generate demo billing events",
	Long: `Generates billing events spread over a time window and writes them
to the database. With --publish, events are also published on the bus so
connected consoles see them arrive live.`,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().IntVar(&seedCount, "count", 100, "number of events to generate")
	seedCmd.Flags().DurationVar(&seedWindow, "window", 24*time.Hour, "time window to spread events over")
	seedCmd.Flags().StringSliceVar(&seedTenants, "tenants", nil, "tenant IDs to generate events for")
	seedCmd.Flags().Int64Var(&seedSeed, "seed", 0, "random seed (0 = time-based)")
	seedCmd.Flags().BoolVar(&seedPublish, "publish", false, "also publish generated events on the bus")
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := logging.New(logging.ParseLevel(cfg.Logging.Level), cfg.Logging.Format)

	repo, err := repository.NewPostgresRepository(cmd.Context(), cfg.Database.Postgres.ConnString())
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer repo.Close()

	var publisher messaging.Publisher
	if seedPublish {
		natsCfg := nats.DefaultConfig()
		natsCfg.URL = cfg.NATS.URL
		bus, err := nats.NewClient(natsCfg)
		if err != nil {
			return fmt.Errorf("connect to nats: %w", err)
		}
		defer bus.Drain()
		publisher = bus
	}

	runner := seeder.NewRunner(repo, publisher, logger)
	n, err := runner.Run(cmd.Context(), seeder.Config{
		Count:      seedCount,
		TimeWindow: seedWindow,
		Tenants:    seedTenants,
		Seed:       seedSeed,
	})
	if err != nil {
		output.Error("seeding failed after %d events: %v", n, err)
		return err
	}

	output.Success("seeded %d billing events over %s", n, seedWindow)
	return nil
}
