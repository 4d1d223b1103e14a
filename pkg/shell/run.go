package shell

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"k8s.io/klog/v2"

	"github.com/tstromberg/stikkord/pkg/stikkord"
)

// runState tracks the active (or most recent) tagging run. Fields are
// guarded by Server.mu.
type runState struct {
	id        string
	total     int
	done      int
	okCount   int
	failCount int
	running   bool
	notice    string
	lastImage string
	log       *stikkord.RunLog
}

// status is the progress payload streamed to the page.
type status struct {
	RunID      string             `json:"run_id,omitempty"`
	Running    bool               `json:"running"`
	Done       int                `json:"done"`
	Total      int                `json:"total"`
	Notice     string             `json:"notice,omitempty"`
	HasPreview bool               `json:"has_preview"`
	Log        []stikkord.Outcome `json:"log"`
}

// handleRun validates the form, then launches the batch in the background.
// The page follows along via /api/progress.
func (s *Server) handleRun(c echo.Context) error {
	cfg := *s.c
	cfg.APIKey = c.FormValue("api_key")
	cfg.Folder = c.FormValue("folder")
	if v := c.FormValue("workers"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Workers = n
		}
	}

	if err := cfg.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	s.mu.Lock()
	if (s.run != nil && s.run.running) || s.clearing {
		s.mu.Unlock()
		return c.JSON(http.StatusConflict, map[string]string{"error": ErrBusy.Error()})
	}

	ctx := context.Background()
	tagger, err := stikkord.NewTagger(ctx, &cfg)
	if err != nil {
		s.mu.Unlock()
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	runner := stikkord.NewRunner(&cfg, tagger, stikkord.NewWriter(&cfg))
	results, total, err := runner.Run(ctx)
	if err != nil {
		s.mu.Unlock()
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	rs := &runState{
		id:      uuid.New().String(),
		total:   total,
		running: true,
		log:     stikkord.NewRunLog(stikkord.RunLogSize),
	}
	s.run = rs
	s.mu.Unlock()

	klog.Infof("run %s: %d files in %s", rs.id, total, cfg.Folder)
	go s.drain(rs, results, cfg.Folder)

	return c.JSON(http.StatusAccepted, map[string]string{"run_id": rs.id})
}

// drain consumes outcomes in completion order until the batch finishes.
func (s *Server) drain(rs *runState, results <-chan stikkord.Outcome, folder string) {
	defer func() {
		if r := recover(); r != nil {
			klog.Errorf("run %s panic: %v", rs.id, r)
			s.mu.Lock()
			rs.running = false
			rs.notice = fmt.Sprintf("internal error: %v", r)
			s.mu.Unlock()
		}
	}()

	for o := range results {
		klog.V(1).Infof("%s: %s", o.File, o.Message)
		s.mu.Lock()
		rs.done++
		if o.Success {
			rs.okCount++
		} else {
			rs.failCount++
		}
		if o.Success && !o.Skipped && stikkord.IsImage(o.File) {
			rs.lastImage = filepath.Join(folder, o.File)
		}
		rs.log.Add(o)
		s.mu.Unlock()
	}

	s.mu.Lock()
	rs.running = false
	rs.notice = fmt.Sprintf("completed: %d tagged, %d failed of %d files", rs.okCount, rs.failCount, rs.total)
	s.mu.Unlock()
	klog.Infof("run %s %s", rs.id, rs.notice)
}

func (s *Server) snapshot() status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := status{Log: []stikkord.Outcome{}}
	if s.run == nil {
		return st
	}

	rs := s.run
	st = status{
		RunID:      rs.id,
		Running:    rs.running,
		Done:       rs.done,
		Total:      rs.total,
		Notice:     rs.notice,
		HasPreview: rs.lastImage != "",
		Log:        rs.log.Snapshot(),
	}
	if st.Log == nil {
		st.Log = []stikkord.Outcome{}
	}
	return st
}

// handleProgress streams run status as server-sent events until the run
// completes or the client goes away.
func (s *Server) handleProgress(c echo.Context) error {
	c.Response().Header().Set("Content-Type", "text/event-stream")
	c.Response().Header().Set("Cache-Control", "no-cache")
	c.Response().Header().Set("Connection", "keep-alive")
	c.Response().Header().Set("X-Accel-Buffering", "no")
	c.Response().WriteHeader(http.StatusOK)

	send := func(st status) {
		bs, err := json.Marshal(st)
		if err != nil {
			klog.Errorf("marshal status: %v", err)
			return
		}
		fmt.Fprintf(c.Response(), "data: %s\n\n", bs)
		c.Response().Flush()
	}

	st := s.snapshot()
	send(st)
	if !st.Running {
		return nil
	}

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-c.Request().Context().Done():
			return nil
		case <-ticker.C:
			st := s.snapshot()
			send(st)
			if !st.Running {
				return nil
			}
		}
	}
}

// handlePreview serves a downscaled copy of the most recently tagged image.
func (s *Server) handlePreview(c echo.Context) error {
	s.mu.RLock()
	path := ""
	if s.run != nil {
		path = s.run.lastImage
	}
	s.mu.RUnlock()

	if path == "" {
		return echo.NewHTTPError(http.StatusNotFound, "no image completed yet")
	}

	bs, err := stikkord.Preview(path, 640)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.Blob(http.StatusOK, "image/jpeg", bs)
}
