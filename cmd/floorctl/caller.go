package main

import (
	"fmt"

	"floorchat-backend/handlers"
	"floorchat-backend/models"
	"floorchat-backend/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	callerName     string
	callerRole     string
	callerFactory  string
	callerFeatures []string
)

var createCallerCmd = &cobra.Command{
	Use:   "create-caller",
	Short: "Create an API caller and print its key",
	Long: `Creates an API caller. The key is printed once and cannot be recovered;
send it as the X-API-Key header.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		caller := &models.Caller{
			Name:     callerName,
			Role:     callerRole,
			Features: callerFeatures,
		}
		if callerFactory != "" {
			id, err := uuid.Parse(callerFactory)
			if err != nil {
				return fmt.Errorf("invalid --factory: %w", err)
			}
			caller.FactoryID = &id
		}

		secret, hash, err := handlers.NewAPISecret()
		if err != nil {
			return err
		}
		caller.APIKeyHash = hash

		ctx, cancel := commandContext()
		defer cancel()

		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pool.Close()

		if err := repository.NewCallerRepository(pool).Create(ctx, caller); err != nil {
			return err
		}

		logger.Info("caller created",
			zap.String("caller_id", caller.ID.String()),
			zap.String("role", caller.Role))
		fmt.Fprintf(cmd.OutOrStdout(), "API key: %s\n", handlers.FormatAPIKey(caller.ID, secret))
		return nil
	},
}

func init() {
	createCallerCmd.Flags().StringVar(&callerName, "name", "", "Caller name (required)")
	createCallerCmd.Flags().StringVar(&callerRole, "role", "supervisor", "Role: admin, manager, supervisor or viewer")
	createCallerCmd.Flags().StringVar(&callerFactory, "factory", "", "Factory ID the caller reads")
	createCallerCmd.Flags().StringSliceVar(&callerFeatures, "features", nil, "Permitted features")
	_ = createCallerCmd.MarkFlagRequired("name")
}
