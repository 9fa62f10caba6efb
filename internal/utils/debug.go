package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	debugMu     sync.Mutex
	debugFile   *os.File
	debugDir    string
	debugLogger = zerolog.Nop()
	debugOnce   sync.Once
)

// ConfigureDebug sets the directory debug logs are written to.
// The file is created lazily on the first Debug call.
func ConfigureDebug(dir string) {
	debugMu.Lock()
	defer debugMu.Unlock()
	debugDir = dir
	debugOnce = sync.Once{}
	if debugFile != nil {
		_ = debugFile.Close()
		debugFile = nil
	}
	debugLogger = zerolog.Nop()
}

// SetDebugWriter routes debug output to w instead of a log file.
func SetDebugWriter(w io.Writer) {
	debugMu.Lock()
	defer debugMu.Unlock()
	debugOnce.Do(func() {})
	debugLogger = newLogger(w)
}

func newLogger(w io.Writer) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().Logger()
}

func openLocked() {
	debugOnce.Do(func() {
		if debugDir == "" {
			return
		}
		name := fmt.Sprintf("debug-%s.log", time.Now().Format("20060102-150405"))
		f, err := os.Create(filepath.Join(debugDir, name))
		if err != nil {
			return
		}
		debugFile = f
		debugLogger = newLogger(f)
	})
}

// Debug writes a message to the debug log
func Debug(format string, args ...any) {
	debugMu.Lock()
	defer debugMu.Unlock()
	openLocked()
	debugLogger.Debug().Msg(fmt.Sprintf(format, args...))
}

// CleanupLogs keeps the newest retain debug logs and removes the rest.
func CleanupLogs(retain int) {
	debugMu.Lock()
	dir := debugDir
	debugMu.Unlock()
	if dir == "" || retain < 0 {
		return
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	var logs []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), "debug-") && strings.HasSuffix(e.Name(), ".log") {
			logs = append(logs, e.Name())
		}
	}
	if len(logs) <= retain {
		return
	}
	// Timestamped names sort chronologically.
	sort.Strings(logs)
	for _, name := range logs[:len(logs)-retain] {
		_ = os.Remove(filepath.Join(dir, name))
	}
}
