package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:     "ticketctl",
		Short:   "Operator tools for the ticket storefront",
		Version: Version,
	}

	rootCmd.AddCommand(orderCmd())
	rootCmd.AddCommand(webhookCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
