package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/httprelay/relaypoll/internal/config"
	"github.com/httprelay/relaypoll/internal/relay"
	"github.com/httprelay/relaypoll/internal/tui"
	"github.com/httprelay/relaypoll/internal/utils"
)

// Version information - set via ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "relaypoll [target-url]",
	Short: "Poll an HTTP relay for the result of a long-running job",
	Long: `relaypoll fetches a relay location once per refresh, animates a progress bar
while the request is outstanding, and shows the result in place once the relay
answers. With --message it submits the job first and polls the location the
relay hands back.`,
	Version: Version,
	Args:    cobra.MaximumNArgs(1),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		noColor, _ := cmd.Flags().GetBool("no-color")
		applyTheme(noColor)
	},
	Run: func(cmd *cobra.Command, args []string) {
		initializeGlobalState()

		settings := loadSettings()
		opts, err := resolvePollOptions(cmd, args, settings)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(ExitError)
		}

		startTUI(newClient(settings), opts)
	},
}

// startTUI initializes and runs the TUI program
func startTUI(client *relay.Client, opts tui.Options) {
	m := tui.NewRootModel(client, opts)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error running program: %v\n", err)
		os.Exit(ExitError)
	}
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(ExitError)
	}
}

func init() {
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colors and styling")
	addPollFlags(rootCmd)
	rootCmd.SetVersionTemplate("relaypoll version {{.Version}}\n")
}

// addPollFlags registers the flags shared by every command that polls the relay
func addPollFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("message", "m", "", "Submit this message to the relay first and poll its pending location")
	cmd.Flags().StringP("server", "s", "", "Relay base URL for submissions (default from settings)")
	cmd.Flags().String("marker", "", "Path segment identifying a finished result (default from settings)")
}

// resolvePollOptions merges arguments, flags and settings into TUI options
func resolvePollOptions(cmd *cobra.Command, args []string, settings *config.Settings) (tui.Options, error) {
	message, _ := cmd.Flags().GetString("message")
	server, _ := cmd.Flags().GetString("server")
	marker, _ := cmd.Flags().GetString("marker")

	opts := tui.Options{
		Target:   settings.General.TargetLocation,
		Server:   resolveServerURL(server, settings),
		Message:  message,
		Marker:   settings.General.ResponseMarker,
		Interval: settings.General.TickInterval,
		Settings: settings,
	}
	if len(args) > 0 {
		opts.Target = args[0]
	}
	if marker != "" {
		opts.Marker = marker
	}

	if opts.Message != "" && opts.Server == "" {
		return opts, fmt.Errorf("--message needs a relay server (--server or settings)")
	}
	return opts, nil
}

// applyTheme sets the lipgloss color profile from flags and settings
func applyTheme(noColor bool) {
	if noColor || os.Getenv("NO_COLOR") != "" {
		lipgloss.SetColorProfile(termenv.Ascii)
		return
	}
	settings, err := config.LoadSettings()
	if err != nil {
		return
	}
	switch settings.General.Theme {
	case config.ThemeLight:
		lipgloss.SetHasDarkBackground(false)
	case config.ThemeDark:
		lipgloss.SetHasDarkBackground(true)
	}
}

func loadSettings() *config.Settings {
	settings, err := config.LoadSettings()
	if err != nil {
		utils.Debug("Error loading settings, using defaults: %v", err)
		return config.DefaultSettings()
	}
	return settings
}

func newClient(settings *config.Settings) *relay.Client {
	return relay.NewClient(settings.Network.UserAgent, settings.Network.RequestTimeout)
}

// initializeGlobalState sets up the directories and logging
func initializeGlobalState() {
	if err := config.EnsureDirs(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create %s: %v\n", config.GetRelayDir(), err)
	}

	// Config logging
	utils.ConfigureDebug(config.GetLogsDir())

	// Clean up old logs
	retention := config.DefaultSettings().General.LogRetentionCount
	if settings, err := config.LoadSettings(); err == nil {
		retention = settings.General.LogRetentionCount
	}
	utils.CleanupLogs(retention)
}

// jobDBPath returns the relay server's job database
func jobDBPath() string {
	return filepath.Join(config.GetStateDir(), "relay.db")
}
