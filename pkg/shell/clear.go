package shell

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tstromberg/stikkord/pkg/stikkord"
)

// handleClear runs the folder-wide clear synchronously and returns the
// tool's raw output, the preflight media count, and the backup location if
// one was requested. The clearing flag keeps runs out until the clear
// finishes, and vice versa.
func (s *Server) handleClear(c echo.Context) error {
	cfg := *s.c
	cfg.Folder = c.FormValue("folder")

	if err := cfg.ValidateClear(); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	s.mu.Lock()
	if (s.run != nil && s.run.running) || s.clearing {
		s.mu.Unlock()
		return c.JSON(http.StatusConflict, map[string]string{"error": ErrBusy.Error()})
	}
	s.clearing = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.clearing = false
		s.mu.Unlock()
	}()

	count, err := stikkord.CountMedia(cfg.Folder)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	resp := map[string]any{"count": count}
	if c.FormValue("backup") != "" {
		dst, err := stikkord.BackupFolder(cfg.Folder)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
		resp["backup"] = dst
	}

	out, err := stikkord.NewWriter(&cfg).Clear(c.Request().Context(), cfg.Folder)
	if err != nil {
		resp["success"] = false
		resp["output"] = err.Error()
		return c.JSON(http.StatusOK, resp)
	}
	resp["success"] = true
	resp["output"] = out
	return c.JSON(http.StatusOK, resp)
}
