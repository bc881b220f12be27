package web

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-tello/pkg/hub"
)

// CommandRequest is the body for POST /api/command.
type CommandRequest struct {
	Command string `json:"command"`
}

// handleStatus returns the current flight state.
func (s *Server) handleStatus(c *fiber.Ctx) error {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return c.JSON(s.state)
}

// handleGetLogs returns recent log entries.
func (s *Server) handleGetLogs(c *fiber.Ctx) error {
	s.logsMu.RLock()
	defer s.logsMu.RUnlock()
	return c.JSON(s.logs)
}

// handleFleet returns the fleet roster with the active member flagged.
func (s *Server) handleFleet(c *fiber.Ctx) error {
	if s.fleet == nil {
		return c.JSON([]fiber.Map{})
	}
	members := s.fleet.List()
	out := make([]fiber.Map, 0, len(members))
	for _, m := range members {
		out = append(out, fiber.Map{
			"id":          m.ID,
			"name":        m.Name,
			"ip":          m.IP,
			"mode":        m.Mode,
			"placeholder": m.Placeholder,
			"active":      s.fleet.IsActive(m.ID),
		})
	}
	return c.JSON(out)
}

// handleCommand forwards a raw SDK command typed in the dashboard. Commands
// to placeholder fleet members are acknowledged without touching the wire.
func (s *Server) handleCommand(c *fiber.Ctx) error {
	var req CommandRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	text := strings.TrimSpace(req.Command)
	if text == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "empty command",
		})
	}

	if s.fleet != nil && s.fleet.Active().Placeholder {
		s.AddLog("command", "mock: "+text)
		return c.JSON(fiber.Map{"command": text, "reply": "ok (mock)"})
	}

	if s.commander == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "drone link not configured",
		})
	}

	reply, err := s.commander.Manual(text)
	if err != nil {
		s.AddLog("error", text+": "+err.Error())
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"command": text,
			"error":   err.Error(),
		})
	}

	s.AddLog("command", text+" -> "+reply)
	s.UpdateState(func(st *DroneState) {
		st.LastCommand = text
		st.LastReply = reply
	})

	return c.JSON(fiber.Map{"command": text, "reply": reply})
}

// handleTakeoff triggers the takeoff sequence.
func (s *Server) handleTakeoff(c *fiber.Ctx) error {
	return s.runAction(c, "takeoff", s.OnTakeoff)
}

// handleLand triggers the landing sequence.
func (s *Server) handleLand(c *fiber.Ctx) error {
	return s.runAction(c, "land", s.OnLand)
}

// handleTrack toggles the autonomous tracker.
func (s *Server) handleTrack(c *fiber.Ctx) error {
	if s.OnTrack == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "tracking not configured",
		})
	}
	engaged, err := s.OnTrack()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	if engaged {
		s.AddLog("track", "autonomous tracking engaged")
	} else {
		s.AddLog("track", "autonomous tracking disengaged")
	}
	return c.JSON(fiber.Map{"tracking": engaged})
}

// handleMode sets the controller mode (idle, manual, auto).
func (s *Server) handleMode(c *fiber.Ctx) error {
	mode := c.Params("mode")
	if s.OnModeChange == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "mode control not configured",
		})
	}
	if err := s.OnModeChange(mode); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	s.AddLog("info", "mode set to "+mode)
	return c.JSON(fiber.Map{"mode": mode})
}

// handleFleetSelect switches the active fleet member.
func (s *Server) handleFleetSelect(c *fiber.Ctx) error {
	if s.fleet == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "fleet not configured",
		})
	}
	m, err := s.fleet.Select(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	s.AddLog("info", "selected "+m.Name)
	return c.JSON(m)
}

// handleFleetMode toggles a fleet member between FPV and autonomous.
func (s *Server) handleFleetMode(c *fiber.Ctx) error {
	if s.fleet == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "fleet not configured",
		})
	}
	mode, err := s.fleet.ToggleMode(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{"mode": mode})
}

func (s *Server) runAction(c *fiber.Ctx, name string, fn func() error) error {
	if fn == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": name + " not configured",
		})
	}
	if err := fn(); err != nil {
		s.AddLog("error", name+": "+err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	s.AddLog("command", name)
	return c.JSON(fiber.Map{"action": name, "status": "ok"})
}

// handleCameraWS streams binary JPEG frames to a websocket client.
func (s *Server) handleCameraWS(c *websocket.Conn) {
	hub.NewClient(s.cameraHub, c).Run()
}

// handleStatusWS streams flight state updates. The current state is sent
// immediately so the dashboard renders without waiting for a change.
func (s *Server) handleStatusWS(c *websocket.Conn) {
	s.stateMu.RLock()
	c.WriteJSON(s.state)
	s.stateMu.RUnlock()

	hub.NewClient(s.statusHub, c).Run()
}

// handleLogsWS streams log entries, replaying the buffer on connect.
func (s *Server) handleLogsWS(c *websocket.Conn) {
	s.logsMu.RLock()
	for _, entry := range s.logs {
		c.WriteJSON(entry)
	}
	s.logsMu.RUnlock()

	hub.NewClient(s.logHub, c).Run()
}
