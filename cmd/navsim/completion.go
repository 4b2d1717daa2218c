package main

import (
	"log/slog"

	"github.com/udisondev/navrunner/internal/frame"
	"github.com/udisondev/navrunner/internal/navigation"
)

// completion stops the frame loop once the route is walked or the frame limit is hit.
type completion struct {
	ctrl      *navigation.Controller
	mgr       *frame.TickManager
	maxFrames uint64
	frames    uint64
	exceeded  bool
}

func newCompletion(ctrl *navigation.Controller, mgr *frame.TickManager, maxFrames uint64) *completion {
	return &completion{ctrl: ctrl, mgr: mgr, maxFrames: maxFrames}
}

// Tick runs on the frame goroutine, so reading the controller is safe.
func (c *completion) Tick() {
	c.frames++

	if _, steering := c.ctrl.DesiredPosition(); !steering && c.ctrl.WaypointCount() == 0 {
		slog.Info("route complete", "frames", c.frames)
		c.mgr.Stop()
		return
	}

	if c.frames >= c.maxFrames {
		c.exceeded = true
		slog.Warn("frame limit reached", "frames", c.frames, "waypoints_left", c.ctrl.WaypointCount())
		c.mgr.Stop()
	}
}
