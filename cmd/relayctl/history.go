package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/nahidhasan98/ghe-as3-relay/internal/store"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent deployments recorded by the relay",
	RunE: func(cmd *cobra.Command, args []string) error {
		dsn, _ := cmd.Flags().GetString("dsn")
		limit, _ := cmd.Flags().GetInt("limit")
		return runHistory(cmd.Context(), cmd.OutOrStdout(), dsn, limit)
	},
}

func init() {
	historyCmd.Flags().String("dsn", "file:relay.db?_foreign_keys=on", "SQLite DSN of the relay database")
	historyCmd.Flags().Int("limit", 20, "Maximum number of records")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(ctx context.Context, w io.Writer, dsn string, limit int) error {
	if limit < 1 {
		return fmt.Errorf("limit must be positive")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	st, err := store.Open(ctx, "sqlite3", dsn)
	if err != nil {
		return err
	}
	defer st.Close()

	if last, err := st.LastPush(ctx); err != nil {
		return err
	} else if last != nil {
		fmt.Fprintf(w, "last push: %s %s at %s\n\n", last.Repository, last.HeadCommitID, last.ReceivedAt.Format(time.RFC3339))
	}

	records, err := st.RecentDeployments(ctx, limit)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tACTION\tSTATE\tTENANT\tPATH\tMESSAGE")
	for _, r := range records {
		tenant := r.Tenant
		if tenant == "" {
			tenant = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.CreatedAt.Format(time.RFC3339), r.Action, r.State, tenant, r.FilePath, r.Message)
	}
	return tw.Flush()
}
