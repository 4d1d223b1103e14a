package stikkord

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"google.golang.org/genai"
	"k8s.io/klog/v2"
)

// ErrProcessingTimeout reports an upload that never left the remote
// processing state before the configured deadline.
var ErrProcessingTimeout = errors.New("processing timeout")

// aiFile is the slice of remote file state the tagger cares about.
type aiFile struct {
	Name  string
	URI   string
	MIME  string
	State genai.FileState
}

// aiService is the remote boundary: upload a file, check its state, and ask
// for text about it. Implemented by geminiService; stubbed in tests.
type aiService interface {
	upload(ctx context.Context, path string, mime string) (aiFile, error)
	state(ctx context.Context, name string) (genai.FileState, error)
	generate(ctx context.Context, model string, f aiFile, prompt string) (string, error)
	remove(ctx context.Context, name string) error
}

// Tagger generates a keyword string for a single media file.
type Tagger struct {
	c  *Config
	ai aiService
}

// NewTagger builds a Tagger backed by the Gemini API.
func NewTagger(ctx context.Context, c *Config) (*Tagger, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  c.ResolveAPIKey(),
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("genai client: %w", err)
	}
	return &Tagger{c: c, ai: &geminiService{client: client}}, nil
}

// Generate uploads path, waits for remote processing to finish, and returns
// the model's trimmed keyword list. Every failure comes back as an error;
// callers surface it with an AI-stage prefix.
func (t *Tagger) Generate(ctx context.Context, path string) (string, error) {
	mime := mimeFor(path)
	if mime == "" {
		return "", fmt.Errorf("unsupported file type: %s", path)
	}

	src := path
	if t.c.MaxUploadDim > 0 && IsImage(path) {
		tmp, err := downscaleForUpload(path, t.c.MaxUploadDim)
		if err != nil {
			klog.V(1).Infof("downscale %s failed, uploading original: %v", path, err)
		} else if tmp != "" {
			defer os.Remove(tmp)
			src = tmp
			mime = "image/jpeg"
		}
	}

	f, err := t.ai.upload(ctx, src, mime)
	if err != nil {
		return "", fmt.Errorf("upload: %w", err)
	}
	defer func() {
		if err := t.ai.remove(ctx, f.Name); err != nil {
			klog.V(1).Infof("remove %s: %v", f.Name, err)
		}
	}()

	state := f.State
	deadline := time.Now().Add(t.c.pollTimeout())
	for state == genai.FileStateProcessing {
		if time.Now().After(deadline) {
			return "", fmt.Errorf("%w: %s still processing after %s", ErrProcessingTimeout, f.Name, t.c.pollTimeout())
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(t.c.pollInterval()):
		}
		state, err = t.ai.state(ctx, f.Name)
		if err != nil {
			return "", fmt.Errorf("file state: %w", err)
		}
	}
	if state == genai.FileStateFailed {
		return "", errors.New("upload processing failed")
	}

	text, err := t.ai.generate(ctx, t.c.model(), f, t.c.prompt())
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	tags := strings.TrimSpace(text)
	if tags == "" {
		return "", errors.New("empty model response")
	}
	return tags, nil
}

// geminiService adapts *genai.Client to the aiService boundary.
type geminiService struct {
	client *genai.Client
}

func (g *geminiService) upload(ctx context.Context, path string, mime string) (aiFile, error) {
	f, err := g.client.Files.UploadFromPath(ctx, path, &genai.UploadFileConfig{MIMEType: mime})
	if err != nil {
		return aiFile{}, err
	}
	return aiFile{Name: f.Name, URI: f.URI, MIME: f.MIMEType, State: f.State}, nil
}

func (g *geminiService) state(ctx context.Context, name string) (genai.FileState, error) {
	f, err := g.client.Files.Get(ctx, name, nil)
	if err != nil {
		return genai.FileStateUnspecified, err
	}
	return f.State, nil
}

func (g *geminiService) generate(ctx context.Context, model string, f aiFile, prompt string) (string, error) {
	parts := []*genai.Part{
		genai.NewPartFromURI(f.URI, f.MIME),
		genai.NewPartFromText(prompt),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
	resp, err := g.client.Models.GenerateContent(ctx, model, contents, nil)
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

func (g *geminiService) remove(ctx context.Context, name string) error {
	_, err := g.client.Files.Delete(ctx, name, nil)
	return err
}
