package stikkord

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type stubAI struct {
	mu         sync.Mutex
	uploadErr  error
	file       aiFile
	states     []genai.FileState
	stateErr   error
	stateCalls int
	text       string
	genErr     error
	uploads    []string
	removed    []string
}

func (s *stubAI) upload(_ context.Context, path string, _ string) (aiFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploads = append(s.uploads, path)
	if s.uploadErr != nil {
		return aiFile{}, s.uploadErr
	}
	f := s.file
	if f.Name == "" {
		f.Name = "files/stub"
	}
	return f, nil
}

func (s *stubAI) state(_ context.Context, _ string) (genai.FileState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stateErr != nil {
		return genai.FileStateUnspecified, s.stateErr
	}
	idx := s.stateCalls
	s.stateCalls++
	if idx >= len(s.states) {
		idx = len(s.states) - 1
	}
	return s.states[idx], nil
}

func (s *stubAI) generate(_ context.Context, _ string, _ aiFile, _ string) (string, error) {
	return s.text, s.genErr
}

func (s *stubAI) remove(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removed = append(s.removed, name)
	return nil
}

func fastPollConfig() *Config {
	return &Config{
		PollInterval: time.Millisecond,
		PollTimeout:  50 * time.Millisecond,
	}
}

func TestGenerateSuccess(t *testing.T) {
	ai := &stubAI{
		file: aiFile{State: genai.FileStateActive, URI: "https://files/stub"},
		text: "\n 猫, 水彩画 ",
	}
	tg := &Tagger{c: fastPollConfig(), ai: ai}

	tags, err := tg.Generate(context.Background(), "photo.jpg")
	require.NoError(t, err)
	assert.Equal(t, "猫, 水彩画", tags)
	assert.Equal(t, []string{"files/stub"}, ai.removed)
}

func TestGeneratePollsUntilActive(t *testing.T) {
	ai := &stubAI{
		file:   aiFile{State: genai.FileStateProcessing},
		states: []genai.FileState{genai.FileStateProcessing, genai.FileStateProcessing, genai.FileStateActive},
		text:   "a, b",
	}
	tg := &Tagger{c: fastPollConfig(), ai: ai}

	tags, err := tg.Generate(context.Background(), "clip.mp4")
	require.NoError(t, err)
	assert.Equal(t, "a, b", tags)
	assert.Equal(t, 3, ai.stateCalls)
}

func TestGenerateProcessingTimeout(t *testing.T) {
	ai := &stubAI{
		file:   aiFile{State: genai.FileStateProcessing},
		states: []genai.FileState{genai.FileStateProcessing},
	}
	tg := &Tagger{c: fastPollConfig(), ai: ai}

	_, err := tg.Generate(context.Background(), "clip.mp4")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrProcessingTimeout), err.Error())
}

func TestGenerateUploadError(t *testing.T) {
	ai := &stubAI{uploadErr: errors.New("connection refused")}
	tg := &Tagger{c: fastPollConfig(), ai: ai}

	_, err := tg.Generate(context.Background(), "photo.jpg")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upload:")
	assert.Empty(t, ai.removed)
}

func TestGenerateUploadProcessingFailed(t *testing.T) {
	ai := &stubAI{
		file:   aiFile{State: genai.FileStateProcessing},
		states: []genai.FileState{genai.FileStateFailed},
	}
	tg := &Tagger{c: fastPollConfig(), ai: ai}

	_, err := tg.Generate(context.Background(), "photo.jpg")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upload processing failed")
}

func TestGenerateErrorFromModel(t *testing.T) {
	ai := &stubAI{
		file:   aiFile{State: genai.FileStateActive},
		genErr: errors.New("quota exceeded"),
	}
	tg := &Tagger{c: fastPollConfig(), ai: ai}

	_, err := tg.Generate(context.Background(), "photo.jpg")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "generate:")
	assert.Equal(t, []string{"files/stub"}, ai.removed)
}

func TestGenerateEmptyResponse(t *testing.T) {
	ai := &stubAI{
		file: aiFile{State: genai.FileStateActive},
		text: "  \n",
	}
	tg := &Tagger{c: fastPollConfig(), ai: ai}

	_, err := tg.Generate(context.Background(), "photo.jpg")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty model response")
}

func TestGenerateUnsupportedExtension(t *testing.T) {
	ai := &stubAI{}
	tg := &Tagger{c: fastPollConfig(), ai: ai}

	_, err := tg.Generate(context.Background(), "notes.txt")
	require.Error(t, err)
	assert.Empty(t, ai.uploads)
}

func TestGenerateStateError(t *testing.T) {
	ai := &stubAI{
		file:     aiFile{State: genai.FileStateProcessing},
		stateErr: errors.New("server error"),
	}
	tg := &Tagger{c: fastPollConfig(), ai: ai}

	_, err := tg.Generate(context.Background(), "photo.jpg")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file state:")
}
