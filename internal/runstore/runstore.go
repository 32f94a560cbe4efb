// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package runstore manages run directories: creating them with unique
// identifiers, persisting stage artifacts and status, and appending to the
// per-run event log.
package runstore

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pdiddy/survey-engine/pkg/types"
)

// StatusFile is the name of the per-run status document.
const StatusFile = "status.json"

// maxSlugLen bounds the topic slug inside a run identifier.
const maxSlugLen = 32

// Run is an open run directory. All artifact and status writes go through it.
type Run struct {
	// ID is the run identifier, also the directory basename.
	ID string

	// Dir is the absolute or caller-relative path of the run directory.
	Dir string

	log *EventLogger
}

// NewRun creates a fresh run directory under runsDir and opens its event log.
// The identifier combines a second-resolution timestamp, a topic slug, and a
// short random suffix so that two runs started in the same second on the same
// topic still get distinct directories.
func NewRun(runsDir, topic string) (*Run, error) {
	if err := os.MkdirAll(runsDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating runs directory: %w", err)
	}

	id := fmt.Sprintf("%s_%s_%s",
		time.Now().Format("2006-01-02_150405"), slugify(topic), randomSuffix())
	dir := filepath.Join(runsDir, id)
	if err := os.Mkdir(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating run directory: %w", err)
	}

	log, err := OpenEventLog(filepath.Join(dir, "events.jsonl"))
	if err != nil {
		return nil, fmt.Errorf("opening run event log: %w", err)
	}
	return &Run{ID: id, Dir: dir, log: log}, nil
}

// OpenRun opens an existing run directory without touching its status. The
// event log is appended to, not truncated.
func OpenRun(runsDir, id string) (*Run, error) {
	dir := filepath.Join(runsDir, id)
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("opening run %s: %w", id, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("opening run %s: not a directory", id)
	}

	log, err := OpenEventLog(filepath.Join(dir, "events.jsonl"))
	if err != nil {
		return nil, fmt.Errorf("opening run event log: %w", err)
	}
	return &Run{ID: id, Dir: dir, log: log}, nil
}

// LatestRunID returns the identifier of the newest run under runsDir. Run
// identifiers start with a sortable timestamp, so lexicographic order is
// creation order.
func LatestRunID(runsDir string) (string, error) {
	entries, err := os.ReadDir(runsDir)
	if err != nil {
		return "", fmt.Errorf("listing runs directory: %w", err)
	}

	var ids []string
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), "_") {
			ids = append(ids, e.Name())
		}
	}
	if len(ids) == 0 {
		return "", fmt.Errorf("no runs found in %s", runsDir)
	}
	sort.Strings(ids)
	return ids[len(ids)-1], nil
}

// Close releases the run's event log.
func (r *Run) Close() error {
	if r.log != nil {
		return r.log.Close()
	}
	return nil
}

// Log appends one event to the run's event log. Logging never fails the
// caller.
func (r *Run) Log(stage, event string, meta map[string]any) {
	if r.log != nil {
		r.log.Log(stage, event, meta)
	}
}

// WriteArtifact persists v as indented JSON under the given filename. The
// write goes through a temp file and rename so a crash never leaves a
// half-written artifact behind.
func (r *Run) WriteArtifact(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding artifact %s: %w", name, err)
	}
	data = append(data, '\n')

	path := filepath.Join(r.Dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing artifact %s: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("writing artifact %s: %w", name, err)
	}
	return nil
}

// ReadArtifact loads a JSON artifact from the run directory into v.
func (r *Run) ReadArtifact(name string, v any) error {
	data, err := os.ReadFile(filepath.Join(r.Dir, name))
	if err != nil {
		return fmt.Errorf("reading artifact %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding artifact %s: %w", name, err)
	}
	return nil
}

// WriteRaw persists a non-JSON artifact, such as the rendered report.
func (r *Run) WriteRaw(name string, data []byte) error {
	if err := os.WriteFile(filepath.Join(r.Dir, name), data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}

// WriteStatus rewrites the run's status document.
func (r *Run) WriteStatus(status types.RunStatus) error {
	return r.WriteArtifact(StatusFile, status)
}

// ReadStatus loads the run's status document.
func (r *Run) ReadStatus() (types.RunStatus, error) {
	var status types.RunStatus
	err := r.ReadArtifact(StatusFile, &status)
	return status, err
}

// slugify reduces a topic to a lowercase, underscore-separated slug of at
// most maxSlugLen characters.
func slugify(topic string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(topic)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '\t', r == '-', r == '_':
			b.WriteRune('_')
		}
	}
	slug := strings.Trim(b.String(), "_")
	for strings.Contains(slug, "__") {
		slug = strings.ReplaceAll(slug, "__", "_")
	}
	if slug == "" {
		slug = "run"
	}
	if len(slug) > maxSlugLen {
		slug = strings.Trim(slug[:maxSlugLen], "_")
	}
	return slug
}

// randomSuffix returns four hex characters of entropy.
func randomSuffix() string {
	var buf [2]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand failing is effectively unreachable; fall back to a
		// timestamp fragment rather than aborting run creation.
		return fmt.Sprintf("%04x", time.Now().UnixNano()&0xffff)
	}
	return hex.EncodeToString(buf[:])
}
