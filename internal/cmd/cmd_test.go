package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/osdrec/internal/capture"
	"github.com/Iron-Ham/osdrec/internal/errors"
	"github.com/Iron-Ham/osdrec/internal/logging"
	"github.com/Iron-Ham/osdrec/internal/osd"
	"github.com/Iron-Ham/osdrec/internal/testutil"
)

// executeCommand runs a cobra command with args and returns captured output
func executeCommand(root *cobra.Command, args ...string) (output string, err error) {
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err = root.Execute()
	return buf.String(), err
}

func TestRootCommand(t *testing.T) {
	if rootCmd.Use != "osdrec" {
		t.Errorf("rootCmd.Use = %q, want %q", rootCmd.Use, "osdrec")
	}

	expectedCmds := []string{"record", "replay", "inspect", "play", "config", "logs"}
	cmdMap := make(map[string]bool)
	for _, cmd := range rootCmd.Commands() {
		cmdMap[cmd.Name()] = true
	}
	for _, expected := range expectedCmds {
		if !cmdMap[expected] {
			t.Errorf("expected subcommand %q not found", expected)
		}
	}
}

func TestProduce(t *testing.T) {
	var seen []int
	got := produce(context.Background(), 5, 0, func(n int, _ time.Duration) {
		seen = append(seen, n)
	})
	if got != 5 {
		t.Errorf("produce() = %d, want 5", got)
	}
	for i, n := range seen {
		if n != i {
			t.Fatalf("emitted %v, want 0..4 in order", seen)
		}
	}
}

func TestProduce_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	got := produce(ctx, 100, 0, func(int, time.Duration) { calls++ })
	if got != 0 || calls != 0 {
		t.Errorf("produce() = %d with %d calls, want 0", got, calls)
	}
}

func TestProduce_Paced(t *testing.T) {
	start := time.Now()
	got := produce(context.Background(), 3, 10*time.Millisecond, func(int, time.Duration) {})
	if got != 3 {
		t.Fatalf("produce() = %d, want 3", got)
	}
	if elapsed := time.Since(start); elapsed < 15*time.Millisecond {
		t.Errorf("3 paced frames took %v, want at least two intervals", elapsed)
	}
}

func TestSyntheticGrid(t *testing.T) {
	g := newSyntheticGrid(20, 4)
	frame := g.render(7, 1500*time.Millisecond)

	if len(frame) != 80 {
		t.Fatalf("len = %d, want 80", len(frame))
	}
	row := func(r int) string { return string(frame[r*20 : (r+1)*20]) }
	if !strings.Contains(row(0), "OSDREC") {
		t.Errorf("row 0 = %q, want title", row(0))
	}
	if !strings.Contains(row(1), "FRAME 000007") {
		t.Errorf("row 1 = %q, want frame counter", row(1))
	}
	if !strings.Contains(row(2), "T+001.500") {
		t.Errorf("row 2 = %q, want elapsed time", row(2))
	}
	if frame[3*20+7] != '>' {
		t.Errorf("marker not at column 7 of the last row: %q", row(3))
	}
}

func TestSyntheticGrid_ClipsToGrid(t *testing.T) {
	g := newSyntheticGrid(4, 1)
	frame := g.render(0, 0)
	if string(frame) != ">OSD" {
		t.Errorf("render() = %q, want %q", frame, ">OSD")
	}

	if empty := newSyntheticGrid(0, 5).render(3, 0); len(empty) != 0 {
		t.Errorf("zero-width grid rendered %d cells", len(empty))
	}
}

func TestRecordShape(t *testing.T) {
	h := osd.HeaderFor(4, 2)
	tests := []struct {
		name          string
		payload       int
		width, height int
	}{
		{"matches header", 8, 4, 2},
		{"other size is one row", 5, 5, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, ht := recordShape(h, osd.Record{Payload: make([]byte, tt.payload)})
			if w != tt.width || ht != tt.height {
				t.Errorf("recordShape() = %dx%d, want %dx%d", w, ht, tt.width, tt.height)
			}
		})
	}
}

func TestClippedCells(t *testing.T) {
	records := []osd.Record{
		{Payload: []byte{1, 2}},
		{Payload: []byte{0, 7}, Wide: []uint16{0x1a0, 7}},
		{Payload: []byte{0, 0}, Wide: []uint16{0x100, 0x2ff}},
	}
	if got := clippedCells(records); got != 3 {
		t.Errorf("clippedCells() = %d, want 3", got)
	}
	if got := clippedCells(records[:1]); got != 0 {
		t.Errorf("clippedCells() on v3 records = %d, want 0", got)
	}
}

func TestRenderInspectLegacyHeader(t *testing.T) {
	h := osd.Header{Version: osd.VersionDJO3, CharWidth: 53, CharHeight: 20, Firmware: "V01A"}
	records := []osd.Record{{Payload: make([]byte, 1060), Wide: make([]uint16, 1060)}}

	var buf bytes.Buffer
	renderInspect(&buf, "djo3.osd", h, records, 0, 100)
	out := buf.String()
	for _, want := range []string{"99 (DJO3", "V01A", "1060 cells (16-bit)"} {
		if !strings.Contains(out, want) {
			t.Errorf("inspect output missing %q:\n%s", want, out)
		}
	}
}

func TestSamePath(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "x.osd")
	if !samePath(a, filepath.Join(dir, ".", "x.osd")) {
		t.Error("equivalent paths should match")
	}
	if samePath(a, filepath.Join(dir, "y.osd")) {
		t.Error("different paths should not match")
	}
}

func TestReplayRecords(t *testing.T) {
	h := osd.HeaderFor(2, 2)
	records := []osd.Record{
		{Delta: 0, Payload: []byte{1, 2, 3, 4}},
		{Delta: time.Hour, Payload: []byte{5, 6, 7}},
	}

	type call struct{ w, h int }
	var calls []call
	n := replayRecords(context.Background(), h, records, true, 1, func(w, ht int, src capture.CellSource) {
		calls = append(calls, call{w, ht})
		if _, ok := src(0); !ok {
			t.Error("source should yield cell 0")
		}
	})

	if n != 2 {
		t.Fatalf("replayRecords() = %d, want 2", n)
	}
	if calls[0] != (call{2, 2}) || calls[1] != (call{3, 1}) {
		t.Errorf("shapes = %v", calls)
	}
}

func TestReplayRecords_CancelledWhileWaiting(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	records := []osd.Record{
		{Delta: 0, Payload: []byte{1}},
		{Delta: time.Hour, Payload: []byte{2}},
	}
	n := replayRecords(ctx, osd.HeaderFor(1, 1), records, false, 1, func(int, int, capture.CellSource) {})
	if n != 1 {
		t.Errorf("replayRecords() = %d, want 1", n)
	}
}

func TestApplyLogLevel(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	var buf bytes.Buffer
	logger := logging.NewWriterLogger(&buf, "info")
	write := fsnotify.Event{Name: "config.yaml", Op: fsnotify.Write}

	viper.Set("logging.level", "debug")
	applyLogLevel(logger, fsnotify.Event{Name: "config.yaml", Op: fsnotify.Chmod})
	if logger.Level() != logging.LevelInfo {
		t.Errorf("chmod event changed level to %s", logger.Level())
	}

	applyLogLevel(logger, write)
	if logger.Level() != logging.LevelDebug {
		t.Errorf("Level() = %s, want DEBUG", logger.Level())
	}

	viper.Set("logging.level", "loud")
	applyLogLevel(logger, write)
	if logger.Level() != logging.LevelDebug {
		t.Errorf("invalid level changed logger to %s", logger.Level())
	}
	if !strings.Contains(buf.String(), "ignoring invalid log level") {
		t.Errorf("expected a warning for the invalid level, got %q", buf.String())
	}
}

func TestSummarize(t *testing.T) {
	h := osd.HeaderFor(2, 1)
	records := []osd.Record{
		{Delta: 0, Payload: []byte{'A', ' '}},
		{Delta: 10 * time.Millisecond, Payload: []byte{'B', 'C'}},
		{Delta: 40 * time.Millisecond, Payload: []byte{'D'}},
	}

	s := summarize(h, records)
	if s.Count != 3 || s.Bytes != 5 || s.Mismatch != 1 {
		t.Errorf("summary = %+v", s)
	}
	if s.Duration != 40*time.Millisecond {
		t.Errorf("Duration = %v, want 40ms", s.Duration)
	}
	if s.MinGap != 10*time.Millisecond || s.MaxGap != 30*time.Millisecond {
		t.Errorf("gaps = %v/%v, want 10ms/30ms", s.MinGap, s.MaxGap)
	}
	if fps := s.FPS(); fps != 50 {
		t.Errorf("FPS() = %v, want 50", fps)
	}

	if (frameSummary{Count: 1}).FPS() != 0 {
		t.Error("a single frame has no rate")
	}
}

func TestFirstRowAndLitCells(t *testing.T) {
	payload := []byte{'H', 'I', 0x01, ' ', 'X', 'Y'}
	if got := firstRow(payload, 3, 10); got != "HI." {
		t.Errorf("firstRow() = %q, want %q", got, "HI.")
	}
	if got := firstRow(payload, 6, 2); got != "HI" {
		t.Errorf("firstRow() limited = %q, want %q", got, "HI")
	}
	if got := litCells(payload); got != 5 {
		t.Errorf("litCells() = %d, want 5", got)
	}
}

func TestParseConfigValue(t *testing.T) {
	tests := []struct {
		key, value string
		want       any
		wantErr    bool
	}{
		{"capture.buffer_slots", "32", 32, false},
		{"capture.buffer_slots", "lots", nil, true},
		{"logging.compress", "true", true, false},
		{"logging.compress", "maybe", nil, true},
		{"player.speed", "2.5", 2.5, false},
		{"capture.extension", ".osdlog", ".osdlog", false},
		{"capture.unknown", "1", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			got, err := parseConfigValue(tt.key, tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseConfigValue() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("parseConfigValue() = %v (%T), want %v (%T)", got, got, tt.want, tt.want)
			}
		})
	}
}

func TestPassesFilters(t *testing.T) {
	now := time.Now()
	entry := &logEntry{
		Time:    now,
		Level:   "WARN",
		Msg:     "frame dropped",
		Session: "/rec/flight.osd",
		Extra:   map[string]any{"dropped": 3.0},
	}

	tests := []struct {
		name   string
		filter logFilter
		want   bool
	}{
		{"no filter", logFilter{minLevel: -1}, true},
		{"level below", logFilter{minLevel: levelPriority("ERROR")}, false},
		{"level at", logFilter{minLevel: levelPriority("WARN")}, true},
		{"too old", logFilter{minLevel: -1, since: now.Add(time.Minute)}, false},
		{"session by base name", logFilter{minLevel: -1, session: "flight.osd"}, true},
		{"other session", logFilter{minLevel: -1, session: "other.osd"}, false},
		{"grep in extra", logFilter{minLevel: -1, grep: regexp.MustCompile(`^frame .* 3$`)}, true},
		{"grep miss", logFilter{minLevel: -1, grep: regexp.MustCompile("failed")}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := passesFilters(entry, tt.filter); got != tt.want {
				t.Errorf("passesFilters() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFormatLine(t *testing.T) {
	raw, ok := formatLine("not json", logFilter{minLevel: -1})
	if !ok || raw != "not json" {
		t.Errorf("formatLine(raw) = %q, %v", raw, ok)
	}

	line := `{"time":"2026-01-02T15:04:05.123Z","level":"INFO","msg":"session stopped","session":"/rec/a.osd","written":12}`
	got, ok := formatLine(line, logFilter{minLevel: -1})
	if !ok {
		t.Fatal("entry should pass an empty filter")
	}
	for _, want := range []string{"[INFO]", "session stopped", "session=a.osd", "written=", "12"} {
		if !strings.Contains(got, want) {
			t.Errorf("formatted line %q missing %q", got, want)
		}
	}

	if _, ok := formatLine(line, logFilter{minLevel: levelPriority("ERROR")}); ok {
		t.Error("INFO entry should not pass an ERROR filter")
	}
}

func TestRecordInspectReplayRoundTrip(t *testing.T) {
	dir := testutil.SetupConfigEnv(t)
	video := filepath.Join(dir, "DJI_0001.mp4")

	out, err := executeCommand(rootCmd, "record", "--frames", "30", "--fast", "--width", "10", "--height", "2", video)
	if err != nil {
		t.Fatalf("record failed: %v\n%s", err, out)
	}
	logPath := filepath.Join(dir, "DJI_0001.osd")
	if !strings.Contains(out, logPath) {
		t.Errorf("record output should name %s:\n%s", logPath, out)
	}

	h, records, err := osd.ReadFile(logPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if h.CharWidth != 10 || h.CharHeight != 2 {
		t.Errorf("header grid = %dx%d, want 10x2", h.CharWidth, h.CharHeight)
	}
	if len(records) == 0 || len(records) > 30 {
		t.Fatalf("records = %d, want 1..30", len(records))
	}
	for i := 1; i < len(records); i++ {
		if records[i].Delta < records[i-1].Delta {
			t.Fatalf("record %d goes back in time", i)
		}
	}

	out, err = executeCommand(rootCmd, "inspect", "-n", "3", logPath)
	if err != nil {
		t.Fatalf("inspect failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "10x2 (20 cells)") {
		t.Errorf("inspect output missing grid line:\n%s", out)
	}

	copyVideo := filepath.Join(dir, "copy.mp4")
	out, err = executeCommand(rootCmd, "replay", "--fast", logPath, copyVideo)
	if err != nil {
		t.Fatalf("replay failed: %v\n%s", err, out)
	}
	h2, replayed, err := osd.ReadFile(filepath.Join(dir, "copy.osd"))
	if err != nil {
		t.Fatalf("ReadFile(copy): %v", err)
	}
	if h2 != h {
		t.Errorf("replayed header = %+v, want %+v", h2, h)
	}
	if len(replayed) == 0 {
		t.Error("replay wrote no frames")
	}
}

func TestReplayRefusesToOverwriteInput(t *testing.T) {
	dir := testutil.SetupConfigEnv(t)
	in := filepath.Join(dir, "a.osd")
	if _, err := executeCommand(rootCmd, "record", "--frames", "2", "--fast", "--width", "4", "--height", "1", filepath.Join(dir, "a.mp4")); err != nil {
		t.Fatalf("record failed: %v", err)
	}

	_, err := executeCommand(rootCmd, "replay", "--fast", in, filepath.Join(dir, "a.mov"))
	if err == nil || !strings.Contains(err.Error(), "overwrite") {
		t.Errorf("replay onto its input error = %v", err)
	}
}

func TestInspectEmptyLog(t *testing.T) {
	dir := testutil.SetupConfigEnv(t)
	path := filepath.Join(dir, "empty.osd")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatal(err)
	}

	out, err := executeCommand(rootCmd, "inspect", path)
	if err != nil {
		t.Fatalf("inspect failed: %v", err)
	}
	if !strings.Contains(out, "captured no frames") {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestInspectTruncatedLog(t *testing.T) {
	dir := testutil.SetupConfigEnv(t)
	path := testutil.WriteLog(t, dir, "cut.osd", 2, 1, []byte("OK"), []byte("NO"))
	testutil.TruncateFile(t, path, 1)

	out, err := executeCommand(rootCmd, "inspect", path)
	if err != nil {
		t.Fatalf("inspect failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "using the 1 complete frames") {
		t.Errorf("expected a truncation warning:\n%s", out)
	}
	if !strings.Contains(out, "OK") {
		t.Errorf("complete frame should be listed:\n%s", out)
	}
}

func TestConfigInitAndShow(t *testing.T) {
	dir := testutil.SetupConfigEnv(t)

	out, err := executeCommand(rootCmd, "config", "init")
	if err != nil {
		t.Fatalf("config init failed: %v", err)
	}
	configFile := filepath.Join(dir, "config", "osdrec", "config.yaml")
	if !strings.Contains(out, configFile) {
		t.Errorf("config init output = %q, want path %s", out, configFile)
	}
	data, err := os.ReadFile(configFile)
	if err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	if !strings.Contains(string(data), "buffer_slots: 10") {
		t.Errorf("default config missing buffer_slots:\n%s", data)
	}

	if _, err := executeCommand(rootCmd, "config", "init"); err == nil {
		t.Error("second config init should fail")
	}

	t.Setenv("OSDREC_CAPTURE_BUFFER_SLOTS", "64")
	out, err = executeCommand(rootCmd, "config", "show")
	if err != nil {
		t.Fatalf("config show failed: %v", err)
	}
	if !strings.Contains(out, "buffer_slots: 64") {
		t.Errorf("env override not shown:\n%s", out)
	}
}

func TestInvalidConfigIsReported(t *testing.T) {
	dir := testutil.SetupConfigEnv(t)
	t.Setenv("OSDREC_CAPTURE_BUFFER_SLOTS", "1")

	_, err := executeCommand(rootCmd, "record", "--frames", "1", "--fast", filepath.Join(dir, "x.mp4"))
	if err == nil || !strings.Contains(err.Error(), "invalid configuration") {
		t.Errorf("record with buffer_slots=1 error = %v", err)
	}
}

func TestRequirePositive(t *testing.T) {
	if err := requirePositive("fps", 60); err != nil {
		t.Errorf("requirePositive(60) = %v", err)
	}

	err := requirePositive("speed", 0)
	if !errors.Is(err, errors.ErrInvalidInput) {
		t.Fatalf("requirePositive(0) = %v, want ErrInvalidInput", err)
	}
	if !strings.Contains(err.Error(), "field=speed") {
		t.Errorf("error %q should name the flag", err)
	}
}
