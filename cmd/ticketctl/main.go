// Command ticketctl verifies tickets, repairs the ticket ledger and grants
// account roles from the command line. It reads the same environment as the service.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/config"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/database"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/lock"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/log"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/repository"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/service"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/ticket"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "ticketctl",
		Short:         "Ticket verification and ledger maintenance",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(verifyCmd())
	root.AddCommand(repairCmd())
	root.AddCommand(roleCmd())
	return root
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(nil)
	if err != nil {
		return config.Config{}, err
	}
	log.Init(cfg.LogLevel)
	return cfg, nil
}

func newCodec(cfg config.Config) (*ticket.Codec, error) {
	return ticket.NewCodec(cfg.Ticket.Secret, cfg.Ticket.Algorithm, cfg.Ticket.ValidityAfterEvent)
}

// newLocker shares the service's registration locks when Redis is configured.
func newLocker(cfg config.Config) (service.Locker, func()) {
	if cfg.RedisAddr == "" {
		return lock.NewLocal(), func() {}
	}
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	return lock.NewRedis(rdb, cfg.LockTTL), func() { _ = rdb.Close() }
}

func verifyCmd() *cobra.Command {
	var eventID string

	cmd := &cobra.Command{
		Use:   "verify [token]",
		Short: "Verify a ticket token and print its claims",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			codec, err := newCodec(cfg)
			if err != nil {
				return err
			}

			claims, err := ticket.NewVerifier(codec).VerifyFor(args[0], eventID)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), claims)
		},
	}

	cmd.Flags().StringVar(&eventID, "event", "", "reject tickets issued for another event")
	return cmd
}

func repairCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "repair",
		Short: "Issue tickets to attendees missing from the ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			codec, err := newCodec(cfg)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			pool, err := database.NewPool(ctx, cfg.DB)
			if err != nil {
				return fmt.Errorf("database: %w", err)
			}
			defer pool.Close()

			locker, closeLocker := newLocker(cfg)
			defer closeLocker()

			users := repository.NewUserRepository(pool)
			repairer := service.NewRepairService(repository.NewEventRepository(pool), users, users, codec, locker)

			repaired, err := repairer.Sweep(ctx, limit)
			fmt.Fprintf(cmd.OutOrStdout(), "repaired %d ledger entries\n", repaired)
			return err
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 100, "maximum attendees to repair")
	return cmd
}

func roleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "role [user-id] [role]",
		Short: "Set the role of a user, e.g. admin to allow creating events",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := model.ParseRole(args[1]); err != nil {
				return err
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			pool, err := database.NewPool(ctx, cfg.DB)
			if err != nil {
				return fmt.Errorf("database: %w", err)
			}
			defer pool.Close()

			events := service.NewEventService(repository.NewEventRepository(pool), repository.NewUserRepository(pool))
			user, err := events.SetRole(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), user)
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
