package main

import (
	"agentdev-backend/infrastructure/persistence/dynamodb"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/spf13/cobra"
)

type tableStatus struct {
	Table     string   `json:"table"`
	Status    string   `json:"status"`
	ItemCount int64    `json:"item_count"`
	Indexes   []string `json:"indexes,omitempty"`
	Created   *bool    `json:"created,omitempty"`
}

func tableCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "table", Short: "Manage the projects table"}
	cmd.AddCommand(tableCreateCmd(a), tableDescribeCmd(a))
	return cmd
}

func tableCreateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "create",
		Short: "Create the projects table and its indexes if missing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			client, err := a.client(ctx)
			if err != nil {
				return err
			}
			def := dynamodb.TableDefinition(a.cfg.ProjectsTable, a.cfg.UserProjectsIndex)
			created, err := dynamodb.EnsureTable(ctx, client, def, a.logger)
			if err != nil {
				return err
			}
			return printJSON(cmd, tableStatus{
				Table:   a.cfg.ProjectsTable,
				Status:  "ACTIVE",
				Created: &created,
			})
		},
	}
}

func tableDescribeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "describe",
		Short: "Show the projects table status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			client, err := a.client(ctx)
			if err != nil {
				return err
			}
			out, err := client.DescribeTable(ctx, &awsdynamodb.DescribeTableInput{
				TableName: aws.String(a.cfg.ProjectsTable),
			})
			if err != nil {
				return err
			}

			status := tableStatus{
				Table:     aws.ToString(out.Table.TableName),
				Status:    string(out.Table.TableStatus),
				ItemCount: aws.ToInt64(out.Table.ItemCount),
			}
			for _, gsi := range out.Table.GlobalSecondaryIndexes {
				status.Indexes = append(status.Indexes, aws.ToString(gsi.IndexName))
			}
			return printJSON(cmd, status)
		},
	}
}
