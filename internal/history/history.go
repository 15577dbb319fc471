// Package history persists one record per orchestration run, appended as a
// line of JSON. The file is only ever appended to, so concurrent fanout
// processes cannot corrupt earlier records.
package history

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/timvw/fanout/internal/model"
)

// DefaultPath returns the history file location, honoring XDG_DATA_HOME.
func DefaultPath() string {
	if dataDir := os.Getenv("XDG_DATA_HOME"); dataDir != "" {
		return filepath.Join(dataDir, "fanout", "history.jsonl")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "fanout", "history.jsonl")
	}
	return filepath.Join(home, ".local", "share", "fanout", "history.jsonl")
}

// Append writes one run record to the history file, creating the file and
// its directory as needed.
func Append(path string, run model.Run) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create history dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer f.Close()

	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("encode run: %w", err)
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("append run: %w", err)
	}
	return nil
}

// Load reads all run records, oldest first. A missing file is an empty
// history, not an error. Unparseable lines are skipped so one bad record
// never hides the rest.
func Load(path string) ([]model.Run, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open history: %w", err)
	}
	defer f.Close()

	var runs []model.Run
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var run model.Run
		if err := json.Unmarshal(line, &run); err != nil {
			continue
		}
		runs = append(runs, run)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	return runs, nil
}

// Last returns up to n of the most recent records, oldest first.
func Last(path string, n int) ([]model.Run, error) {
	runs, err := Load(path)
	if err != nil {
		return nil, err
	}
	if n > 0 && len(runs) > n {
		runs = runs[len(runs)-n:]
	}
	return runs, nil
}
