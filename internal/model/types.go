package model

// Pane represents a terminal multiplexer pane.
type Pane struct {
	// Target is the fully qualified pane identifier (e.g., "session:0.0").
	Target string `json:"target"`
	// Session is the session name.
	Session string `json:"session"`
	// Window is the window index.
	Window int `json:"window"`
	// Index is the pane index within its window.
	Index int `json:"index"`
	// Command is the current command running in the pane (e.g., "ssh", "bash").
	Command string `json:"command"`
	// Width and Height are the pane dimensions in cells.
	Width  int `json:"width"`
	Height int `json:"height"`
	// Active indicates the pane currently holding focus in its window.
	Active bool `json:"active"`
}

// Run records one completed orchestration: which session was built, the
// targets it fanned out to, and the log files attached to each pane.
type Run struct {
	Session    string   `json:"session"`
	Window     string   `json:"window"`
	Targets    []string `json:"targets"`
	LogFiles   []string `json:"log_files,omitempty"`
	Command    string   `json:"command"`
	StartedAt  string   `json:"started_at"` // RFC 3339
	DurationMs int64    `json:"duration_ms"`
}
