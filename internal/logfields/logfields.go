package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID      = "run_id"
	KeyStep       = "step"
	KeyPath       = "path"
	KeySource     = "src"
	KeyDest       = "dst"
	KeyBoard      = "board"
	KeyProject    = "project"
	KeyVersion    = "version"
	KeySketch     = "sketch"
	KeyBranch     = "branch"
	KeyDurationMS = "duration_ms"
	KeyFailures   = "failures"
	KeyCommit     = "commit"
	KeySubject    = "subject"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func Step(name string) slog.Attr      { return slog.String(KeyStep, name) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Source(p string) slog.Attr       { return slog.String(KeySource, p) }
func Dest(p string) slog.Attr         { return slog.String(KeyDest, p) }
func Board(b string) slog.Attr        { return slog.String(KeyBoard, b) }
func Project(p string) slog.Attr      { return slog.String(KeyProject, p) }
func Version(v string) slog.Attr      { return slog.String(KeyVersion, v) }
func Sketch(s string) slog.Attr       { return slog.String(KeySketch, s) }
func Branch(b string) slog.Attr       { return slog.String(KeyBranch, b) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Failures(n int) slog.Attr        { return slog.Int(KeyFailures, n) }
func Commit(c string) slog.Attr       { return slog.String(KeyCommit, c) }
func Subject(s string) slog.Attr      { return slog.String(KeySubject, s) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
