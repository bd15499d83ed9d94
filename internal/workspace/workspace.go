package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"vodsub/internal/services"
)

// Artifact file names inside a run directory.
const (
	sourceName   = "source.mp4"
	waveformName = "audio.wav"
	muxedPrefix  = "muxed"
)

// Workspace is the per-run directory holding intermediate artifacts.
type Workspace struct {
	RunID string
	Dir   string

	mu      sync.Mutex
	removed bool
}

// New creates a uniquely named run directory under root.
func New(root string) (*Workspace, error) {
	return NewWithID(root, uuid.NewString())
}

// NewWithID creates the run directory for a caller supplied run ID.
func NewWithID(root, runID string) (*Workspace, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, services.Wrap(services.ErrConfiguration, "workspace", "create", "work root not set", nil)
	}
	runID = strings.TrimSpace(runID)
	if runID == "" || strings.ContainsAny(runID, `/\`) {
		return nil, services.Wrap(services.ErrValidation, "workspace", "create", fmt.Sprintf("invalid run id %q", runID), nil)
	}
	dir := filepath.Join(root, runID)
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "workspace", "create", "ensure work root", err)
	}
	if err := os.Mkdir(dir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "workspace", "create", "create run directory", err)
	}
	return &Workspace{RunID: runID, Dir: dir}, nil
}

// SourcePath is where the fetched media container lands.
func (w *Workspace) SourcePath() string {
	return filepath.Join(w.Dir, sourceName)
}

// WaveformPath is where the extracted mono 16 kHz waveform lands.
func (w *Workspace) WaveformPath() string {
	return filepath.Join(w.Dir, waveformName)
}

// SubtitlePath is the sidecar the speech engine writes next to the waveform.
func (w *Workspace) SubtitlePath() string {
	return w.WaveformPath() + ".srt"
}

// MuxedPath is the staging file for the muxed output. It keeps the result's
// extension so the transcoder picks the matching container.
func (w *Workspace) MuxedPath(resultName string) string {
	ext := filepath.Ext(resultName)
	if ext == "" {
		ext = ".mp4"
	}
	return filepath.Join(w.Dir, muxedPrefix+ext)
}

// Cleanup removes the run directory and everything in it. Safe to call more
// than once.
func (w *Workspace) Cleanup() error {
	if w == nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.removed {
		return nil
	}
	if err := os.RemoveAll(w.Dir); err != nil {
		return fmt.Errorf("remove workspace %s: %w", w.Dir, err)
	}
	w.removed = true
	return nil
}

// RequireArtifact verifies that a stage input exists and is non-empty.
func RequireArtifact(stage, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return services.Wrap(services.ErrValidation, stage, "check input", fmt.Sprintf("artifact %s missing", filepath.Base(path)), err)
	}
	if info.IsDir() {
		return services.Wrap(services.ErrValidation, stage, "check input", fmt.Sprintf("artifact %s is a directory", filepath.Base(path)), nil)
	}
	if info.Size() == 0 {
		return services.Wrap(services.ErrValidation, stage, "check input", fmt.Sprintf("artifact %s is empty", filepath.Base(path)), nil)
	}
	return nil
}
