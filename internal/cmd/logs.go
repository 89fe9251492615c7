package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/Iron-Ham/osdrec/internal/logging"
	"github.com/Iron-Ham/osdrec/internal/tui/styles"
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "View the debug log",
	Long: `View and filter the osdrec debug log.

The log is read from logging.dir unless --file is given.

Examples:
  # Show the last 50 lines
  osdrec logs

  # Show everything logged for one recording
  osdrec logs --session flight.osd -n 0

  # Follow the log in real-time
  osdrec logs -f

  # Filter by log level
  osdrec logs --level warn

  # Show logs from the last hour
  osdrec logs --since 1h

  # Search for specific patterns
  osdrec logs --grep "dropped|failed"`,
	RunE: runLogs,
}

var (
	logsFile    string
	logsSession string
	logsTail    int
	logsFollow  bool
	logsLevel   string
	logsSince   string
	logsGrep    string
)

func init() {
	rootCmd.AddCommand(logsCmd)

	logsCmd.Flags().StringVar(&logsFile, "file", "", "Log file to read (default: <logging.dir>/"+logging.FileName+")")
	logsCmd.Flags().StringVarP(&logsSession, "session", "s", "", "Only show entries for this recording (matched on its file name)")
	logsCmd.Flags().IntVarP(&logsTail, "tail", "n", 50, "Number of lines to show (0 for all)")
	logsCmd.Flags().BoolVarP(&logsFollow, "follow", "f", false, "Follow log output (like tail -f)")
	logsCmd.Flags().StringVar(&logsLevel, "level", "", "Filter by minimum level (debug/info/warn/error)")
	logsCmd.Flags().StringVar(&logsSince, "since", "", "Show logs since duration ago (e.g., 1h, 30m)")
	logsCmd.Flags().StringVar(&logsGrep, "grep", "", "Filter logs matching pattern (regex)")
}

// logEntry represents a parsed JSON log line
type logEntry struct {
	Time    time.Time      `json:"time"`
	Level   string         `json:"level"`
	Msg     string         `json:"msg"`
	Session string         `json:"session,omitempty"`
	Extra   map[string]any `json:"-"` // Captures additional fields
}

// UnmarshalJSON implements custom unmarshaling to capture extra fields
func (e *logEntry) UnmarshalJSON(data []byte) error {
	// First, unmarshal known fields using a type alias to avoid recursion
	type Alias logEntry
	aux := &struct {
		*Alias
	}{
		Alias: (*Alias)(e),
	}
	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}

	var all map[string]any
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}

	delete(all, "time")
	delete(all, "level")
	delete(all, "msg")
	delete(all, "session")

	if len(all) > 0 {
		e.Extra = all
	}

	return nil
}

// logFilter holds the criteria an entry must meet to be shown
type logFilter struct {
	minLevel int
	since    time.Time
	session  string
	grep     *regexp.Regexp
}

// levelPriority returns the priority of a log level for filtering
func levelPriority(level string) int {
	switch strings.ToUpper(level) {
	case logging.LevelDebug:
		return 0
	case logging.LevelInfo:
		return 1
	case logging.LevelWarn:
		return 2
	case logging.LevelError:
		return 3
	default:
		return -1
	}
}

var fieldStyle = lipgloss.NewStyle().Foreground(styles.InfoColor)

// formatLogEntry formats a log entry for terminal output
func formatLogEntry(entry *logEntry) string {
	var sb strings.Builder

	sb.WriteString(styles.Muted.Render("[" + entry.Time.Format("15:04:05.000") + "]"))
	sb.WriteString(" ")
	sb.WriteString(lipgloss.NewStyle().Foreground(styles.LevelColor(entry.Level)).Render("[" + strings.ToUpper(entry.Level) + "]"))
	sb.WriteString(" ")
	sb.WriteString(entry.Msg)

	if entry.Session != "" {
		sb.WriteString(" ")
		sb.WriteString(fieldStyle.Render("session=" + filepath.Base(entry.Session)))
	}

	// Map order is random; sort so repeated runs print the same line
	keys := make([]string, 0, len(entry.Extra))
	for key := range entry.Extra {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		sb.WriteString(" ")
		sb.WriteString(fieldStyle.Render(key + "="))
		sb.WriteString(fmt.Sprintf("%v", entry.Extra[key]))
	}

	return sb.String()
}

// resolveLogPath returns the log file named by --file or the configured log directory.
func resolveLogPath() (string, error) {
	if logsFile != "" {
		return logsFile, nil
	}
	cfg, err := loadConfig()
	if err != nil {
		return "", err
	}
	if cfg.Logging.Dir == "" {
		return "", fmt.Errorf("logging.dir is not set; the log goes to stderr (use --file to read a log elsewhere)")
	}
	return filepath.Join(cfg.Logging.Dir, logging.FileName), nil
}

func runLogs(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	logPath, err := resolveLogPath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(logPath); os.IsNotExist(err) {
		fmt.Fprintf(out, "No log found at %s\n", logPath)
		return nil
	}

	filter := logFilter{minLevel: -1, session: logsSession}
	if logsLevel != "" {
		filter.minLevel = levelPriority(logging.ParseLevel(logsLevel))
	}

	if logsSince != "" {
		duration, err := time.ParseDuration(logsSince)
		if err != nil {
			return fmt.Errorf("invalid duration format: %w", err)
		}
		filter.since = time.Now().Add(-duration)
	}

	if logsGrep != "" {
		filter.grep, err = regexp.Compile(logsGrep)
		if err != nil {
			return fmt.Errorf("invalid grep pattern: %w", err)
		}
	}

	if logsFollow {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		return followLogs(ctx, out, logPath, filter)
	}

	return displayLogs(out, logPath, logsTail, filter)
}

// formatLine renders a raw log line, or returns false if it is filtered out.
// Lines that are not JSON are shown as-is.
func formatLine(line string, filter logFilter) (string, bool) {
	var entry logEntry
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		return line, true
	}
	if !passesFilters(&entry, filter) {
		return "", false
	}
	return formatLogEntry(&entry), true
}

// displayLogs reads the log file and displays filtered entries
func displayLogs(out io.Writer, logPath string, tail int, filter logFilter) error {
	file, err := os.Open(logPath)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer file.Close()

	var entries []string
	scanner := bufio.NewScanner(file)

	// Increase buffer size for potentially long log lines
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		if formatted, ok := formatLine(line, filter); ok {
			entries = append(entries, formatted)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading log file: %w", err)
	}

	if tail > 0 && len(entries) > tail {
		entries = entries[len(entries)-tail:]
	}

	for _, entry := range entries {
		fmt.Fprintln(out, entry)
	}

	if len(entries) == 0 {
		fmt.Fprintln(out, "No matching log entries found.")
	}

	return nil
}

// followLogs prints entries appended to the log file until ctx is done. It
// reads on fsnotify write events and starts over when the file is rotated.
func followLogs(ctx context.Context, out io.Writer, logPath string, filter logFilter) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory: rotation replaces the file itself
	if err := watcher.Add(filepath.Dir(logPath)); err != nil {
		return fmt.Errorf("failed to watch log directory: %w", err)
	}

	file, err := os.Open(logPath)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { file.Close() }()

	if _, err := file.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("failed to seek to end: %w", err)
	}

	fmt.Fprintf(out, "Following %s... (Ctrl+C to stop)\n\n", logPath)

	reader := bufio.NewReader(file)
	drain := func() error {
		for {
			line, err := reader.ReadString('\n')
			if err == io.EOF {
				// Keep a partial line for the next write
				if line != "" {
					reader = bufio.NewReader(io.MultiReader(strings.NewReader(line), file))
				}
				return nil
			}
			if err != nil {
				return fmt.Errorf("error reading log file: %w", err)
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if formatted, ok := formatLine(line, filter); ok {
				fmt.Fprintln(out, formatted)
			}
		}
	}

	target := filepath.Clean(logPath)
	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch error: %w", err)
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			switch {
			case ev.Has(fsnotify.Create):
				reopened, err := os.Open(logPath)
				if err != nil {
					continue
				}
				file.Close()
				file = reopened
				reader = bufio.NewReader(file)
				if err := drain(); err != nil {
					return err
				}
			case ev.Has(fsnotify.Write):
				if err := drain(); err != nil {
					return err
				}
			}
		}
	}
}

// passesFilters checks if a log entry passes all filter criteria
func passesFilters(entry *logEntry, filter logFilter) bool {
	if filter.minLevel >= 0 && levelPriority(entry.Level) < filter.minLevel {
		return false
	}

	if !filter.since.IsZero() && entry.Time.Before(filter.since) {
		return false
	}

	if filter.session != "" && entry.Session != filter.session &&
		filepath.Base(entry.Session) != filepath.Base(filter.session) {
		return false
	}

	// Grep filter - search in message and extra fields
	if filter.grep != nil {
		searchText := entry.Msg
		for _, v := range entry.Extra {
			searchText += " " + fmt.Sprintf("%v", v)
		}
		if !filter.grep.MatchString(searchText) {
			return false
		}
	}

	return true
}
