package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath *string
	username   *string
	password   *string
	verbose    *bool
)

var rootCmd = &cobra.Command{
	Use:   "attendtrack-cli",
	Short: "attendtrack-cli scrapes attendance from samvidha and prints it as tables.",
}

func init() {
	flags := rootCmd.PersistentFlags()
	configPath = flags.String("config", "config.json5", "The config file to read credentials and the portal url from.")
	username = flags.String("username", "", "The roll number to log in with, overrides the config.")
	password = flags.String("password", "", "The password to log in with, overrides the config.")
	verbose = flags.BoolP("verbose", "v", false, "Enable verbose logging and dump http exchanges to .dev/resty.")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
