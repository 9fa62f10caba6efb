package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Settings holds all user-configurable application settings organized by category.
type Settings struct {
	General GeneralSettings `json:"general"`
	Network NetworkSettings `json:"network"`
	Server  ServerSettings  `json:"server"`
}

// GeneralSettings contains client behavior settings.
type GeneralSettings struct {
	TargetLocation    string        `json:"target_location"`
	ResponseMarker    string        `json:"response_marker"`
	TickInterval      time.Duration `json:"tick_interval"`
	Theme             int           `json:"theme"`
	LogRetentionCount int           `json:"log_retention_count"`
}

const (
	ThemeAdaptive = 0
	ThemeLight    = 1
	ThemeDark     = 2
)

// NetworkSettings contains outbound request parameters.
type NetworkSettings struct {
	ServerURL string `json:"server_url"`
	UserAgent string `json:"user_agent"`
	// RequestTimeout of zero leaves the request to run until the transport resolves it.
	RequestTimeout time.Duration `json:"request_timeout"`
}

// ServerSettings configures the relay server.
type ServerSettings struct {
	Port      int           `json:"port"`
	EchoDelay time.Duration `json:"echo_delay"`
	MaxBody   int64         `json:"max_body"`
}

// SettingMeta provides metadata for a single setting (for the settings command).
type SettingMeta struct {
	Key         string // JSON key name
	Label       string // Human-readable label
	Description string
	Type        string // "string", "int", "int64", "duration"
}

// GetSettingsMetadata returns metadata for all settings organized by category.
func GetSettingsMetadata() map[string][]SettingMeta {
	return map[string][]SettingMeta{
		"General": {
			{Key: "target_location", Label: "Target Location", Description: "URL fetched on refresh when none is given on the command line.", Type: "string"},
			{Key: "response_marker", Label: "Response Marker", Description: "Path segment identifying a finished result URL (e.g. /resp/).", Type: "string"},
			{Key: "tick_interval", Label: "Tick Interval", Description: "Period of the progress animation (e.g., 1s).", Type: "duration"},
			{Key: "theme", Label: "App Theme", Description: "UI Theme (System, Light, Dark).", Type: "int"},
			{Key: "log_retention_count", Label: "Log Retention Count", Description: "Number of recent log files to keep.", Type: "int"},
		},
		"Network": {
			{Key: "server_url", Label: "Relay Server", Description: "Base URL of the relay that accepts submissions.", Type: "string"},
			{Key: "user_agent", Label: "User Agent", Description: "Custom User-Agent string for HTTP requests. Leave empty for default.", Type: "string"},
			{Key: "request_timeout", Label: "Request Timeout", Description: "Abort the request after this long. 0 waits indefinitely.", Type: "duration"},
		},
		"Server": {
			{Key: "port", Label: "Port", Description: "Port the relay server listens on (0 picks the first free port from 8000).", Type: "int"},
			{Key: "echo_delay", Label: "Echo Delay", Description: "Answer every job with an echo after this long. 0 disables the echo responder.", Type: "duration"},
			{Key: "max_body", Label: "Max Body", Description: "Largest accepted submission or reply in bytes.", Type: "int64"},
		},
	}
}

// CategoryOrder returns the order of categories for display.
func CategoryOrder() []string {
	return []string{"General", "Network", "Server"}
}

const (
	KB = 1024
	MB = 1024 * KB
)

// DefaultMarker is the path segment of a finished result.
const DefaultMarker = "/resp/"

// DefaultSettings returns a new Settings instance with sensible defaults.
func DefaultSettings() *Settings {
	return &Settings{
		General: GeneralSettings{
			TargetLocation:    "",
			ResponseMarker:    DefaultMarker,
			TickInterval:      time.Second,
			Theme:             ThemeAdaptive,
			LogRetentionCount: 5,
		},
		Network: NetworkSettings{
			ServerURL:      "http://127.0.0.1:8000",
			UserAgent:      "", // Empty means use default UA
			RequestTimeout: 0,
		},
		Server: ServerSettings{
			Port:      0,
			EchoDelay: 0,
			MaxBody:   1 * MB,
		},
	}
}

// GetSettingsPath returns the path to the settings JSON file.
func GetSettingsPath() string {
	return filepath.Join(GetRelayDir(), "settings.json")
}

// LoadSettings loads settings from disk. Returns defaults if file doesn't exist.
func LoadSettings() (*Settings, error) {
	return LoadSettingsFrom(GetSettingsPath())
}

// LoadSettingsFrom loads settings from path, filling missing fields with defaults.
func LoadSettingsFrom(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSettings(), nil
		}
		return nil, err
	}

	settings := DefaultSettings() // Start with defaults to fill any missing fields
	if err := json.Unmarshal(data, settings); err != nil {
		return nil, err
	}
	settings.General.ResponseMarker = strings.TrimSpace(settings.General.ResponseMarker)
	if settings.General.ResponseMarker == "" {
		settings.General.ResponseMarker = DefaultMarker
	}
	if settings.General.TickInterval <= 0 {
		settings.General.TickInterval = time.Second
	}

	return settings, nil
}

// SaveSettings saves settings to disk atomically.
func SaveSettings(s *Settings) error {
	return SaveSettingsTo(GetSettingsPath(), s)
}

// SaveSettingsTo writes s to path via a temp file and rename.
func SaveSettingsTo(path string, s *Settings) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		return err
	}

	return os.Rename(tempPath, path)
}
