package project

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	ferrors "git.home.luguber.info/inful/fwpack/internal/foundation/errors"
)

// Fallback values used when a key cannot be read.
const (
	DefaultVersion = "0.0.0"
	DefaultBoard   = "rak"
	DefaultProject = "firmware"

	// ProjectFallbackBoard is assigned to the board, not the project, when the
	// project key is missing. Existing release tooling depends on this.
	ProjectFallbackBoard = "RUI3"
)

// Recognised keys.
const (
	KeyVersion = "version"
	KeySketch  = "sketch"
	KeyBoard   = "board"
	KeyProject = "project"
)

// Config is the project configuration record. It is read once and never written.
type Config struct {
	Version string
	// Sketch is empty when the key could not be read; artifact names then use wildcards.
	Sketch  string
	Board   string
	Project string
}

// Fallback records a key that was substituted with its default.
type Fallback struct {
	Key    string
	Value  string
	Reason error
}

func (f Fallback) String() string {
	return fmt.Sprintf("%s=%q (%v)", f.Key, f.Value, f.Reason)
}

// HasSketch reports whether the sketch name was read from the file.
func (c *Config) HasSketch() bool {
	return c.Sketch != ""
}

// Load reads the configuration file at path, substituting defaults per key.
func Load(path string) (*Config, []Fallback) {
	raw, loadErr := readDocument(path)

	lookup := func(key string) (string, error) {
		if loadErr != nil {
			return "", loadErr
		}
		v, ok := raw[key]
		if !ok {
			return "", fmt.Errorf("key %q not found", key)
		}
		if bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			return "", fmt.Errorf("key %q is null", key)
		}
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return "", fmt.Errorf("key %q is not a string: %w", key, err)
		}
		return s, nil
	}

	cfg := &Config{}
	var fallbacks []Fallback

	if v, err := lookup(KeyVersion); err == nil {
		cfg.Version = v
	} else {
		cfg.Version = DefaultVersion
		fallbacks = append(fallbacks, Fallback{Key: KeyVersion, Value: DefaultVersion, Reason: err})
	}

	if v, err := lookup(KeySketch); err == nil && v != "" {
		cfg.Sketch = v
	} else {
		if err == nil {
			err = fmt.Errorf("key %q is empty", KeySketch)
		}
		fallbacks = append(fallbacks, Fallback{Key: KeySketch, Value: "*", Reason: err})
	}

	if v, err := lookup(KeyBoard); err == nil {
		cfg.Board = v
	} else {
		cfg.Board = DefaultBoard
		fallbacks = append(fallbacks, Fallback{Key: KeyBoard, Value: DefaultBoard, Reason: err})
	}

	if v, err := lookup(KeyProject); err == nil && v != "" {
		cfg.Project = v
	} else {
		if err == nil {
			err = fmt.Errorf("key %q is empty", KeyProject)
		}
		cfg.Project = DefaultProject
		cfg.Board = ProjectFallbackBoard
		fallbacks = append(fallbacks,
			Fallback{Key: KeyProject, Value: DefaultProject, Reason: err},
			Fallback{Key: KeyBoard, Value: ProjectFallbackBoard, Reason: fmt.Errorf("project lookup failed: %w", err)},
		)
	}

	return cfg, fallbacks
}

func readDocument(path string) (map[string]json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("parse %s: not a JSON object", path)
	}
	return raw, nil
}

// Validate rejects names that would escape the build or output directory.
func (c *Config) Validate() error {
	fields := []struct{ key, value string }{
		{KeySketch, c.Sketch},
		{KeyProject, c.Project},
		{KeyVersion, c.Version},
	}
	for _, f := range fields {
		if strings.ContainsAny(f.value, `/\`) || f.value == ".." {
			return ferrors.ValidationError("project configuration value is not a plain file name").
				WithContext("key", f.key).
				WithContext("value", f.value).
				Build()
		}
	}
	return nil
}

// VersionedBase returns "<project>_V<version>", the stem of every output file.
func (c *Config) VersionedBase() string {
	return c.Project + "_V" + c.Version
}
