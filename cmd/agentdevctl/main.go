// Command agentdevctl manages the projects table and issues tokens for
// local development.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"agentdev-backend/infrastructure/config"
	"agentdev-backend/infrastructure/di"
	"agentdev-backend/infrastructure/persistence/dynamodb"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app carries what every subcommand needs. client is resolved lazily so that
// commands which never touch DynamoDB do not load AWS credentials.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	client func(ctx context.Context) (dynamodb.Client, error)
}

func main() {
	if err := newRootCmd(&app{}).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	var verbose bool
	root := &cobra.Command{
		Use:           "agentdevctl",
		Short:         "AgentDev platform administration",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(verbose)
		},
	}
	root.PersistentFlags().BoolVar(&verbose, "verbose", false, "log at debug level")

	root.AddCommand(tableCmd(a), projectsCmd(a), tokenCmd(a))
	return root
}

func (a *app) init(verbose bool) error {
	if a.cfg == nil {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}
		a.cfg = cfg
	}
	if verbose {
		a.cfg.LogLevel = "debug"
	}
	if a.logger == nil {
		logger, err := di.ProvideLogger(a.cfg)
		if err != nil {
			return err
		}
		a.logger = logger
	}
	if a.client == nil {
		a.client = func(ctx context.Context) (dynamodb.Client, error) {
			awsCfg, err := di.ProvideAWSConfig(ctx, a.cfg, di.ProvideTracer(a.cfg))
			if err != nil {
				return nil, err
			}
			return di.ProvideDynamoDBClient(awsCfg, a.cfg), nil
		}
	}
	return nil
}

func (a *app) repository(ctx context.Context) (*dynamodb.ProjectRepository, error) {
	client, err := a.client(ctx)
	if err != nil {
		return nil, err
	}
	return dynamodb.NewProjectRepository(client, a.cfg.ProjectsTable, a.cfg.UserProjectsIndex, a.logger), nil
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
