package logfields

import (
	"errors"
	"log/slog"
	"testing"
)

// TestHelperKeyNames verifies string-based helper key/value stability.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attrVal string
		attr    slog.Attr
	}{
		{"RunID", KeyRunID, "r1", RunID("r1")},
		{"Step", KeyStep, "copy-hex", Step("copy-hex")},
		{"Path", KeyPath, "/tmp/x", Path("/tmp/x")},
		{"Source", KeySource, "build/a.hex", Source("build/a.hex")},
		{"Dest", KeyDest, "generated/", Dest("generated/")},
		{"Board", KeyBoard, "rak4631", Board("rak4631")},
		{"Project", KeyProject, "Demo", Project("Demo")},
		{"Version", KeyVersion, "1.2.3", Version("1.2.3")},
		{"Sketch", KeySketch, "Demo", Sketch("Demo")},
		{"Branch", KeyBranch, "archive", Branch("archive")},
		{"Commit", KeyCommit, "abc", Commit("abc")},
		{"Subject", KeySubject, "firmware.packaged", Subject("firmware.packaged")},
	}
	for _, c := range cases {
		if c.attr.Key != c.attrKey {
			t.Fatalf("%s key mismatch: got %s want %s", c.name, c.attr.Key, c.attrKey)
		}
		if c.attr.Value.String() != c.attrVal {
			t.Fatalf("%s value mismatch: got %s want %s", c.name, c.attr.Value.String(), c.attrVal)
		}
	}
}

func TestNumericHelpers(t *testing.T) {
	if a := Failures(3); a.Key != KeyFailures || a.Value.Int64() != 3 {
		t.Fatalf("unexpected failures attr: %v", a)
	}
	if a := DurationMS(1.5); a.Key != KeyDurationMS || a.Value.Float64() != 1.5 {
		t.Fatalf("unexpected duration attr: %v", a)
	}
}

func TestErrorHelper(t *testing.T) {
	if a := Error(nil); a.Value.String() != "" {
		t.Fatalf("expected empty error value, got %q", a.Value.String())
	}
	if a := Error(errors.New("boom")); a.Value.String() != "boom" {
		t.Fatalf("expected boom, got %q", a.Value.String())
	}
}
