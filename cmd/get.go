package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/httprelay/relaypoll/internal/relay"
	"github.com/httprelay/relaypoll/internal/tui"
	"github.com/httprelay/relaypoll/internal/types"
	"github.com/httprelay/relaypoll/internal/view"
)

// Exit codes of the headless commands
const (
	ExitOK          = 0
	ExitError       = 1
	ExitServerError = 3
	ExitPending     = 4
)

var errNothingToPoll = errors.New("nothing to poll: pass a target URL or --message")

var getCmd = &cobra.Command{
	Use:   "get [target-url]",
	Short: "Refresh once without the TUI and print the result",
	Long: `get runs a single refresh headless and prints the terminal state.
Exit status is 0 for a result, 3 for a relay error and 4 while the job is still pending.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		initializeGlobalState()

		settings := loadSettings()
		opts, err := resolvePollOptions(cmd, args, settings)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(ExitError)
		}

		m, err := runHeadless(newClient(settings), opts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(ExitError)
		}
		os.Exit(printResult(os.Stdout, os.Stderr, m))
	},
}

func init() {
	rootCmd.AddCommand(getCmd)
	addPollFlags(getCmd)
}

// runHeadless runs the poll model without a renderer until its first terminal state
func runHeadless(client *relay.Client, opts tui.Options) (tui.RootModel, error) {
	if opts.Target == "" && opts.Message == "" {
		return tui.RootModel{}, errNothingToPoll
	}
	opts.Headless = true

	p := tea.NewProgram(tui.NewRootModel(client, opts), tea.WithoutRenderer(), tea.WithInput(nil))
	final, err := p.Run()
	if err != nil {
		return tui.RootModel{}, err
	}
	return final.(tui.RootModel), nil
}

// printResult writes the terminal state and returns the exit code for it
func printResult(stdout, stderr io.Writer, m tui.RootModel) int {
	if err := m.Err(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitError
	}

	out, ok := m.Outcome()
	if !ok {
		fmt.Fprintln(stderr, "Error: the request did not complete")
		return ExitError
	}

	switch out.Kind {
	case types.Redirected:
		fmt.Fprintf(stdout, "Result: %s\n", out.FinalURL)
		if out.Body != "" {
			fmt.Fprintln(stdout, view.DescribeAs(out.Body, out.ContentType))
		}
		return ExitOK
	case types.ServerError:
		fmt.Fprintf(stderr, "Relay error: %s\n", view.DescribeAs(out.Body, out.ContentType))
		return ExitServerError
	default:
		fmt.Fprintf(stdout, "Pending: %s\n", m.Target())
		return ExitPending
	}
}
