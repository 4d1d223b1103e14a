// Package stikkord tags media files with AI-generated keywords and writes
// them into file metadata via exiftool.
package stikkord

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultModel is the Gemini model used when Config.Model is empty.
var DefaultModel = "gemini-2.5-flash-lite"

// DefaultPrompt asks for a short comma-separated keyword list.
var DefaultPrompt = "List 5-10 search keywords describing this file's content. " +
	"Use one language only, comma-separated."

const (
	// DefaultWorkers is the pool size used when Config.Workers is zero.
	DefaultWorkers = 4
	// MaxWorkers caps the pool size.
	MaxWorkers = 10
)

var (
	ErrNoAPIKey       = errors.New("no API key set")
	ErrFolderNotFound = errors.New("folder not found")
)

// mediaExts maps eligible file extensions (lowercase, with dot) to the MIME
// type sent along with uploads. Extensions outside this map are ignored.
var mediaExts = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".mp4":  "video/mp4",
}

// Config holds configuration for a tagging or clearing run.
type Config struct {
	// APIKey is the Gemini API key. ResolveAPIKey falls back to the
	// GEMINI_API_KEY and GOOGLE_AI_API_KEY environment variables.
	APIKey string
	// Folder is the target media folder.
	Folder string
	// Workers is the worker pool size, clamped to 1..MaxWorkers.
	Workers int
	// Model overrides DefaultModel.
	Model string
	// Prompt overrides DefaultPrompt.
	Prompt string
	// Tool is the path to the exiftool binary (default "exiftool").
	Tool string
	// PollInterval is the wait between upload state checks (default 1s).
	PollInterval time.Duration
	// PollTimeout bounds how long an upload may stay in the processing
	// state before the job fails (default 2m).
	PollTimeout time.Duration
	// MaxUploadDim, when non-zero, downscales images whose longest side
	// exceeds it to a temporary JPEG before upload.
	MaxUploadDim int
	// SkipTagged skips files whose keyword fields already read back
	// non-empty.
	SkipTagged bool
	// DryRun reports what would be tagged without calling the AI or the
	// metadata tool.
	DryRun bool
}

// ResolveAPIKey returns the configured key, falling back to the environment.
func (c *Config) ResolveAPIKey() string {
	if c.APIKey != "" {
		return c.APIKey
	}
	if k := os.Getenv("GEMINI_API_KEY"); k != "" {
		return k
	}
	return os.Getenv("GOOGLE_AI_API_KEY")
}

// Validate checks the preconditions shared by both modes: a usable API key
// (tagging only, see ValidateClear) and an existing target folder.
func (c *Config) Validate() error {
	if c.ResolveAPIKey() == "" {
		return ErrNoAPIKey
	}
	return c.ValidateClear()
}

// ValidateClear checks the clear-mode preconditions: clearing needs no API
// key, only an existing folder.
func (c *Config) ValidateClear() error {
	st, err := os.Stat(c.Folder)
	if err != nil || !st.IsDir() {
		return fmt.Errorf("%w: %q", ErrFolderNotFound, c.Folder)
	}
	return nil
}

func (c *Config) workers() int {
	w := c.Workers
	if w == 0 {
		w = DefaultWorkers
	}
	if w < 1 {
		w = 1
	}
	if w > MaxWorkers {
		w = MaxWorkers
	}
	return w
}

func (c *Config) model() string {
	if c.Model != "" {
		return c.Model
	}
	return DefaultModel
}

func (c *Config) prompt() string {
	if c.Prompt != "" {
		return c.Prompt
	}
	return DefaultPrompt
}

func (c *Config) tool() string {
	if c.Tool != "" {
		return c.Tool
	}
	return "exiftool"
}

func (c *Config) pollInterval() time.Duration {
	if c.PollInterval > 0 {
		return c.PollInterval
	}
	return time.Second
}

func (c *Config) pollTimeout() time.Duration {
	if c.PollTimeout > 0 {
		return c.PollTimeout
	}
	return 2 * time.Minute
}

// eligible reports whether path has a supported media extension.
func eligible(path string) bool {
	_, ok := mediaExts[strings.ToLower(filepath.Ext(path))]
	return ok
}

// mimeFor returns the MIME type for an eligible path, or "" otherwise.
func mimeFor(path string) string {
	return mediaExts[strings.ToLower(filepath.Ext(path))]
}

// IsImage reports whether path is an eligible still image (previews and
// downscaling apply to images only).
func IsImage(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg", ".png", ".gif":
		return true
	}
	return false
}
