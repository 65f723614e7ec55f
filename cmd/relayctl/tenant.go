package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/nahidhasan98/ghe-as3-relay/internal/declaration"
)

var tenantCmd = &cobra.Command{
	Use:   "tenant",
	Short: "Print the tenant of a service declaration",
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")
		return runTenant(cmd.OutOrStdout(), file)
	},
}

func init() {
	tenantCmd.Flags().String("file", "", "Path to the declaration (JSON or YAML)")
	_ = tenantCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(tenantCmd)
}

func runTenant(w io.Writer, file string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("failed to read declaration: %w", err)
	}

	decl, err := declaration.Parse(data)
	if err != nil {
		return err
	}

	tenant, err := declaration.Tenant(decl)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, tenant)
	return err
}
