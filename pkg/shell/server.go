// Package shell serves the interactive web UI for tagging and clearing
// media folders.
package shell

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"k8s.io/klog/v2"

	"github.com/tstromberg/stikkord/pkg/stikkord"
)

//go:embed index.html
var indexTmpl string

// ErrBusy rejects starting new work while a run or clear is active.
var ErrBusy = errors.New("a run is already in progress")

// Server is the web UI server. Tagging runs and clears exclude each other;
// at most one of either is active at a time.
type Server struct {
	c *stikkord.Config

	mu       sync.RWMutex
	run      *runState
	clearing bool
}

// New creates a new server; c supplies the form defaults and tool paths.
func New(c *stikkord.Config) *Server {
	return &Server{c: c}
}

// Router builds the echo instance with all routes registered.
func (s *Server) Router() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())

	e.GET("/", s.handleIndex)
	e.GET("/health", s.handleHealth)

	api := e.Group("/api")
	api.POST("/run", s.handleRun)
	api.POST("/clear", s.handleClear)
	api.GET("/progress", s.handleProgress)
	api.GET("/preview", s.handlePreview)
	return e
}

// Serve blocks, serving the UI on addr.
func (s *Server) Serve(addr string) error {
	klog.Infof("Listening on %s...", addr)
	return s.Router().Start(addr)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleIndex(c echo.Context) error {
	bs, err := renderIndex(s.c)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.HTMLBlob(http.StatusOK, bs)
}

func renderIndex(c *stikkord.Config) ([]byte, error) {
	tmpl, err := template.New("index").Parse(indexTmpl)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	workers := c.Workers
	if workers == 0 {
		workers = stikkord.DefaultWorkers
	}

	data := struct {
		Folder     string
		Workers    int
		MaxWorkers int
		HasEnvKey  bool
	}{
		Folder:     c.Folder,
		Workers:    workers,
		MaxWorkers: stikkord.MaxWorkers,
		HasEnvKey:  c.ResolveAPIKey() != "",
	}

	var tpl bytes.Buffer
	if err = tmpl.Execute(&tpl, data); err != nil {
		return nil, fmt.Errorf("execute: %w", err)
	}
	return tpl.Bytes(), nil
}
