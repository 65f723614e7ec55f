package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "relayctl",
	Short: "Inspect what the GHE to AS3 relay would do",
	Long: `relayctl runs the relay's interpretation steps offline: it lists the change
actions a push payload produces, resolves the tenant of a declaration file and
prints the deployment history kept by a running relay.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
