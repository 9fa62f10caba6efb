package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/httprelay/relaypoll/internal/config"
)

// readActivePort reads the port from the port file
func readActivePort() int {
	data, err := os.ReadFile(filepath.Join(config.GetRuntimeDir(), "port"))
	if err != nil {
		return 0
	}
	port, _ := strconv.Atoi(strings.TrimSpace(string(data)))
	return port
}

// resolveServerURL picks the relay to submit to: the flag, then a relay
// server running on this machine, then the configured URL.
func resolveServerURL(flag string, settings *config.Settings) string {
	if flag != "" {
		return flag
	}
	if port := readActivePort(); port > 0 {
		return fmt.Sprintf("http://127.0.0.1:%d", port)
	}
	return settings.Network.ServerURL
}
