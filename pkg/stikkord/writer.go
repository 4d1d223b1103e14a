package stikkord

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"k8s.io/klog/v2"
)

// Writer applies keyword tags to files via the external exiftool binary.
type Writer struct {
	c *Config
}

// NewWriter returns a Writer using the configured tool path.
func NewWriter(c *Config) *Writer {
	return &Writer{c: c}
}

// instructions builds the argument-file content for one write: passing the
// tags through a UTF-8 file instead of argv keeps non-ASCII text intact on
// platforms with lossy console encodings. The same tag string lands in all
// three keyword fields so that any viewer finds at least one of them.
func instructions(path string, tags string) []byte {
	lines := []string{
		"-overwrite_original",
		"-m",
		"-charset",
		"utf8",
		"-sep",
		", ",
		"-XPKeywords=" + tags,
		"-Subject=" + tags,
		"-Keywords=" + tags,
		path,
	}
	return []byte(strings.Join(lines, "\n") + "\n")
}

// Write stores tags in path's metadata. A non-zero exit from the tool comes
// back as an error carrying the tool's stderr.
func (w *Writer) Write(ctx context.Context, path string, tags string) error {
	tmp, err := os.CreateTemp("", "stikkord-args-*.txt")
	if err != nil {
		return fmt.Errorf("temp file: %w", err)
	}
	defer func() {
		if err := os.Remove(tmp.Name()); err != nil {
			klog.V(2).Infof("remove %s: %v", tmp.Name(), err)
		}
	}()

	if _, err := tmp.Write(instructions(path, tags)); err != nil {
		tmp.Close()
		return fmt.Errorf("write instructions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close instructions: %w", err)
	}

	klog.V(1).Infof("tagging %s: %s", path, tags)
	_, err = w.run(ctx, "-@", tmp.Name())
	return err
}

// Clear empties the three keyword fields on every supported file under
// folder in a single recursive invocation, returning the tool's stdout.
// No argument file is needed since no user-supplied text is involved, and
// the tool's native recursion beats per-file dispatch.
func (w *Writer) Clear(ctx context.Context, folder string) (string, error) {
	klog.Infof("clearing tags under %s", folder)
	return w.run(ctx, "-r", "-overwrite_original", "-m", "-XPKeywords=", "-Subject=", "-Keywords=", folder)
}

func (w *Writer) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, w.c.tool(), args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", errors.New(msg)
	}
	return strings.TrimSpace(stdout.String()), nil
}
