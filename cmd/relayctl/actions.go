package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nahidhasan98/ghe-as3-relay/internal/commit"
	"github.com/nahidhasan98/ghe-as3-relay/internal/config"
	"github.com/nahidhasan98/ghe-as3-relay/internal/models"
	"github.com/nahidhasan98/ghe-as3-relay/internal/validation"
)

var actionsCmd = &cobra.Command{
	Use:   "actions",
	Short: "List the change actions derived from a push payload",
	Long:  `Reads a GitHub push event payload and prints one line per change action, in the order the relay would dispatch them.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		payload, _ := cmd.Flags().GetString("payload")
		policy, _ := cmd.Flags().GetString("policy")
		return runActions(cmd.OutOrStdout(), payload, policy)
	},
}

func init() {
	actionsCmd.Flags().String("payload", "", "Path to the push event JSON payload")
	actionsCmd.Flags().String("policy", config.PathPolicyPrefix, "Path policy: prefix or all")
	_ = actionsCmd.MarkFlagRequired("payload")
	rootCmd.AddCommand(actionsCmd)
}

func runActions(w io.Writer, payloadPath, policy string) error {
	if policy != config.PathPolicyPrefix && policy != config.PathPolicyAll {
		return fmt.Errorf("unknown policy %q", policy)
	}

	data, err := os.ReadFile(payloadPath)
	if err != nil {
		return fmt.Errorf("failed to read payload: %w", err)
	}

	var ev models.PushEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return fmt.Errorf("failed to decode payload: %w", err)
	}
	if err := validation.New().ValidatePushEvent(&ev); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tCATEGORY\tPATH\tADDRESS")
	for action := range commit.New(policy).Actions(&ev) {
		category := string(action.Category)
		if category == "" {
			category = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", action.Kind, category, action.FilePath, action.ContentAddress())
	}
	return tw.Flush()
}
