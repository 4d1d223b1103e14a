package stikkord

import (
	"context"
	"path/filepath"
	"strings"
	"sync"

	"github.com/barasher/go-exiftool"
	"k8s.io/klog/v2"
)

// Outcome is the per-file result surfaced to the interactive log: tags on
// success, error text on failure.
type Outcome struct {
	File    string `json:"file"`
	Success bool   `json:"success"`
	Message string `json:"message"`
	// Skipped marks files that produced no metadata write (already
	// tagged, or dry-run).
	Skipped bool `json:"skipped,omitempty"`
}

// tagGenerator produces a keyword string for one file.
type tagGenerator interface {
	Generate(ctx context.Context, path string) (string, error)
}

// tagWriter stores a keyword string in one file's metadata.
type tagWriter interface {
	Write(ctx context.Context, path string, tags string) error
}

var (
	_ tagGenerator = (*Tagger)(nil)
	_ tagWriter    = (*Writer)(nil)
)

// Runner fans per-file work out across a fixed-size pool.
type Runner struct {
	c   *Config
	gen tagGenerator
	w   tagWriter
}

// NewRunner wires a tag generator and a metadata writer into a batch runner.
func NewRunner(c *Config, gen tagGenerator, w tagWriter) *Runner {
	return &Runner{c: c, gen: gen, w: w}
}

// Run lists the eligible files in c.Folder and tags them on a pool of
// c.Workers goroutines. It returns a channel delivering one Outcome per file
// in completion order, plus the total file count. The caller must drain the
// channel; it closes after the last outcome. Per-file failures never stop
// the batch.
func (r *Runner) Run(ctx context.Context) (<-chan Outcome, int, error) {
	files, err := ListEligible(r.c.Folder)
	if err != nil {
		return nil, 0, err
	}
	klog.Infof("tagging %d files in %s with %d workers", len(files), r.c.Folder, r.c.workers())

	jobs := make(chan string)
	results := make(chan Outcome)

	var wg sync.WaitGroup
	for i := 0; i < r.c.workers(); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range jobs {
				results <- r.processFile(ctx, p)
			}
		}()
	}

	go func() {
		pending := files
		if r.c.SkipTagged {
			pending = r.dispatchSkips(files, results)
		}
		for _, p := range pending {
			jobs <- p
		}
		close(jobs)
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	return results, len(files), nil
}

// processFile composes tag generation and the metadata write for one file.
// An AI-stage failure means the writer is never invoked.
func (r *Runner) processFile(ctx context.Context, path string) Outcome {
	name := filepath.Base(path)

	tags, err := r.gen.Generate(ctx, path)
	if err != nil {
		klog.Errorf("%s: %v", path, err)
		return Outcome{File: name, Message: "AI Error: " + err.Error()}
	}

	if r.c.DryRun {
		return Outcome{File: name, Success: true, Skipped: true, Message: tags}
	}

	if err := r.w.Write(ctx, path, tags); err != nil {
		klog.Errorf("%s: %v", path, err)
		return Outcome{File: name, Message: "Write Error: " + err.Error()}
	}
	return Outcome{File: name, Success: true, Message: tags}
}

// dispatchSkips reads keywords back from each file and reports the ones that
// are already tagged as skipped successes, returning the files still to do.
// Read failures just mean the file gets tagged.
func (r *Runner) dispatchSkips(files []string, results chan<- Outcome) []string {
	et, err := exiftool.NewExiftool()
	if err != nil {
		klog.Errorf("exiftool: %v", err)
		return files
	}
	defer func() {
		if err := et.Close(); err != nil {
			klog.Errorf("Failed to close exiftool: %v", err)
		}
	}()

	pending := []string{}
	for _, p := range files {
		ks, err := readKeywords(p, et)
		if err != nil || len(ks) == 0 {
			pending = append(pending, p)
			continue
		}
		klog.Infof("%s has tags: %v", p, ks)
		results <- Outcome{
			File:    filepath.Base(p),
			Success: true,
			Skipped: true,
			Message: "already tagged: " + strings.Join(ks, ", "),
		}
	}
	return pending
}
