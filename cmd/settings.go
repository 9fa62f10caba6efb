package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/httprelay/relaypoll/internal/config"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Print the settings file path and the effective settings",
	Run: func(cmd *cobra.Command, args []string) {
		initFlag, _ := cmd.Flags().GetBool("init")
		describe, _ := cmd.Flags().GetBool("describe")

		if initFlag {
			if err := initSettings(config.GetSettingsPath()); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(ExitError)
			}
		}

		settings, err := config.LoadSettings()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", config.GetSettingsPath(), err)
			os.Exit(ExitError)
		}

		fmt.Println(config.GetSettingsPath())
		if describe {
			describeSettings(os.Stdout)
			return
		}
		if err := printSettings(os.Stdout, settings); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(ExitError)
		}
	},
}

func init() {
	rootCmd.AddCommand(settingsCmd)
	settingsCmd.Flags().Bool("init", false, "Write the default settings file if none exists")
	settingsCmd.Flags().Bool("describe", false, "List every setting with its description")
}

// initSettings writes the defaults to path unless a file is already there
func initSettings(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	return config.SaveSettingsTo(path, config.DefaultSettings())
}

func printSettings(w io.Writer, s *config.Settings) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func describeSettings(w io.Writer) {
	meta := config.GetSettingsMetadata()
	for _, category := range config.CategoryOrder() {
		fmt.Fprintf(w, "\n[%s]\n", category)
		for _, m := range meta[category] {
			fmt.Fprintf(w, "  %-20s %-9s %s\n", m.Key, m.Type, m.Description)
		}
	}
}
