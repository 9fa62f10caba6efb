package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var submitCmd = &cobra.Command{
	Use:   "submit <message>",
	Short: "Submit a job to the relay and print its pending location",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		initializeGlobalState()

		settings := loadSettings()
		server, _ := cmd.Flags().GetString("server")
		server = resolveServerURL(server, settings)

		pending, err := newClient(settings).Submit(context.Background(), server, strings.Join(args, " "))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(ExitError)
		}
		fmt.Println(pending)
	},
}

func init() {
	rootCmd.AddCommand(submitCmd)
	submitCmd.Flags().StringP("server", "s", "", "Relay base URL (default from settings)")
}
