package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/httprelay/relaypoll/internal/config"
	"github.com/httprelay/relaypoll/internal/relayserver"
	"github.com/httprelay/relaypoll/internal/store"
	"github.com/httprelay/relaypoll/internal/types"
	"github.com/httprelay/relaypoll/internal/utils"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Manage the relay server",
	Long:  `Start, stop, or check the status of the relay server jobs are submitted to.`,
}

var serverStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Run the relay server in the foreground",
	Run: func(cmd *cobra.Command, args []string) {
		initializeGlobalState()

		// Attempt to acquire lock
		isMaster, err := AcquireLock()
		if err != nil {
			fmt.Printf("Error acquiring lock: %v\n", err)
			os.Exit(ExitError)
		}
		if !isMaster {
			fmt.Fprintln(os.Stderr, "Error: a relay server is already running.")
			os.Exit(ExitError)
		}
		defer func() {
			if err := ReleaseLock(); err != nil {
				utils.Debug("Error releasing lock: %v", err)
			}
		}()

		settings := loadSettings()
		portFlag, _ := cmd.Flags().GetInt("port")
		if portFlag == 0 {
			portFlag = settings.Server.Port
		}
		echoDelay, _ := cmd.Flags().GetDuration("echo-delay")
		if !cmd.Flags().Changed("echo-delay") {
			echoDelay = settings.Server.EchoDelay
		}
		jsonLog, _ := cmd.Flags().GetBool("json-log")

		savePID()
		defer removePID()

		if err := startServerLogic(portFlag, echoDelay, settings.Server.MaxBody, newServerLogger(jsonLog)); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			removePID()
			os.Exit(ExitError)
		}
	},
}

var serverStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running relay server",
	Run: func(cmd *cobra.Command, args []string) {
		pid := readPID()
		if pid == 0 {
			fmt.Println("No running relay server found (PID file missing).")
			return
		}

		process, err := os.FindProcess(pid)
		if err != nil {
			fmt.Printf("Error finding process: %v\n", err)
			return
		}

		// Try to send SIGTERM
		if err := process.Signal(syscall.SIGTERM); err != nil {
			fmt.Printf("Error stopping server: %v\n", err)
			return
		}

		fmt.Printf("Sent stop signal to process %d\n", pid)
	},
}

var serverStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check the status of the relay server",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(serverStatus())
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
	serverCmd.AddCommand(serverStartCmd)
	serverCmd.AddCommand(serverStopCmd)
	serverCmd.AddCommand(serverStatusCmd)

	serverStartCmd.Flags().IntP("port", "p", 0, "Port to listen on (default: settings, then 8000 or first available)")
	serverStartCmd.Flags().Duration("echo-delay", 0, "Answer every job with an echo after this long (0 disables)")
	serverStartCmd.Flags().Bool("json-log", false, "Log JSON lines instead of console output")
}

func newServerLogger(jsonLog bool) zerolog.Logger {
	if jsonLog {
		return zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}).With().Timestamp().Logger()
}

// listen binds port, or the first free port from 8000 when port is 0
func listen(port int) (int, net.Listener, error) {
	if port > 0 {
		ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
		if err != nil {
			return 0, nil, fmt.Errorf("could not bind to port %d: %w", port, err)
		}
		return port, ln, nil
	}
	port, ln := findAvailablePort(8000)
	if ln == nil {
		return 0, nil, fmt.Errorf("could not find available port")
	}
	return port, ln, nil
}

func startServerLogic(portFlag int, echoDelay time.Duration, maxBody int64, logger zerolog.Logger) error {
	port, listener, err := listen(portFlag)
	if err != nil {
		return err
	}

	st, err := store.Open(jobDBPath())
	if err != nil {
		_ = listener.Close()
		return err
	}
	defer func() { _ = st.Close() }()

	srv := relayserver.New(st,
		relayserver.WithLogger(logger),
		relayserver.WithEchoDelay(echoDelay),
		relayserver.WithMaxBody(maxBody),
	)

	saveActivePort(port)
	defer removeActivePort()

	fmt.Printf("relaypoll %s relay listening on http://127.0.0.1:%d\n", Version, port)
	if echoDelay > 0 {
		fmt.Printf("Echo responder answers jobs after %s\n", echoDelay)
	}
	fmt.Println("Press Ctrl+C to exit.")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = srv.Serve(ctx, listener)
	fmt.Println("\nShutting down...")
	return err
}

// serverStatus describes whether the server recorded in the PID file is alive
func serverStatus() string {
	pid := readPID()
	if pid == 0 {
		return "Relay server is NOT running."
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Sprintf("Relay server is NOT running (Process %d not found).", pid)
	}

	// Sending signal 0 to check existence
	if err := process.Signal(syscall.Signal(0)); err != nil {
		return fmt.Sprintf("Relay server is NOT running (Process %d dead).", pid)
	}

	return fmt.Sprintf("Relay server is running (PID: %d, Port: %d).", pid, readActivePort())
}

// findAvailablePort tries ports starting from 'start' until one is available
func findAvailablePort(start int) (int, net.Listener) {
	for port := start; port < start+100; port++ {
		ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
		if err == nil {
			return port, ln
		}
	}
	return 0, nil
}

func savePID() {
	pidFile := filepath.Join(config.GetRuntimeDir(), "pid")
	if err := os.WriteFile(pidFile, []byte(strconv.Itoa(os.Getpid())), 0o644); err != nil {
		utils.Debug("Error writing PID file: %v", err)
	}
}

func removePID() {
	pidFile := filepath.Join(config.GetRuntimeDir(), "pid")
	if err := os.Remove(pidFile); err != nil && !os.IsNotExist(err) {
		utils.Debug("Error removing PID file: %v", err)
	}
}

func readPID() int {
	data, err := os.ReadFile(filepath.Join(config.GetRuntimeDir(), "pid"))
	if err != nil {
		return 0
	}
	pid, _ := strconv.Atoi(strings.TrimSpace(string(data)))
	return pid
}

// saveActivePort writes the active port for status and client discovery
func saveActivePort(port int) {
	portFile := filepath.Join(config.GetRuntimeDir(), "port")
	if err := os.WriteFile(portFile, []byte(strconv.Itoa(port)), 0o644); err != nil {
		utils.Debug("Error writing port file: %v", err)
	}
	utils.Debug("HTTP server listening on port %d", port)
}

// removeActivePort cleans up the port file on exit
func removeActivePort() {
	_ = os.Remove(filepath.Join(config.GetRuntimeDir(), "port"))
}

var serverJobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List the jobs held by the relay server",
	Run: func(cmd *cobra.Command, args []string) {
		server, _ := cmd.Flags().GetString("server")
		server = resolveServerURL(server, loadSettings())

		jobs, err := fetchJobs(server)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(ExitError)
		}
		printJobs(os.Stdout, jobs, time.Now())
	},
}

func init() {
	serverCmd.AddCommand(serverJobsCmd)
	serverJobsCmd.Flags().StringP("server", "s", "", "Relay base URL (default: the local server, then settings)")
}

// fetchJobs reads the job list of the relay at base
func fetchJobs(base string) ([]types.JobStatus, error) {
	target, err := utils.JoinURL(base, "/jobs")
	if err != nil {
		return nil, err
	}
	resp, err := http.Get(target)
	if err != nil {
		return nil, fmt.Errorf("failed to reach relay: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("relay returned %s", resp.Status)
	}
	var jobs []types.JobStatus
	if err := json.NewDecoder(resp.Body).Decode(&jobs); err != nil {
		return nil, fmt.Errorf("failed to decode job list: %w", err)
	}
	return jobs, nil
}

func printJobs(w io.Writer, jobs []types.JobStatus, now time.Time) {
	if len(jobs) == 0 {
		fmt.Fprintln(w, "No jobs.")
		return
	}
	fmt.Fprintf(w, "%-10s %-8s %-10s %s\n", "ID", "STATUS", "SIZE", "ADDED")
	for _, j := range jobs {
		size := "-"
		if j.Status == "ready" {
			size = humanize.Bytes(uint64(j.Bytes))
		}
		added := humanize.RelTime(time.Unix(j.AddedAt, 0), now, "ago", "from now")
		fmt.Fprintf(w, "%-10s %-8s %-10s %s\n", utils.ShortID(j.ID), j.Status, size, added)
	}
}
