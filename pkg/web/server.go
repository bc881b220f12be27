// Package web provides the real-time pilot dashboard: live video over
// MJPEG and websocket, flight status, logs, and manual command intake.
package web

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-tello/internal/log"
	"github.com/teslashibe/go-tello/pkg/fleet"
	"github.com/teslashibe/go-tello/pkg/hub"
)

// Commander sends a raw SDK command to the drone and returns its reply.
// Manual commands bypass the autonomous pacing gate.
type Commander interface {
	Manual(text string) (string, error)
}

// DroneState is the flight state snapshot pushed to dashboard clients.
type DroneState struct {
	Connected   bool    `json:"connected"`
	Flying      bool    `json:"flying"`
	Battery     int     `json:"battery"`
	Mode        string  `json:"mode"`
	TrackState  string  `json:"track_state"`
	TargetClass string  `json:"target_class"`
	Offset      float64 `json:"offset"`
	Size        float64 `json:"size"`
	LastCommand string  `json:"last_command"`
	LastReply   string  `json:"last_reply"`
}

// LogEntry is one log line shown in the dashboard.
type LogEntry struct {
	Time    string `json:"time"`
	Type    string `json:"type"` // info, command, track, error
	Message string `json:"message"`
}

// Server is the dashboard server.
type Server struct {
	app  *fiber.App
	port string

	commander Commander
	fleet     *fleet.Registry

	state   DroneState
	stateMu sync.RWMutex

	// Log buffer (last 500 entries)
	logs   []LogEntry
	logsMu sync.RWMutex

	// Latest annotated frame for the MJPEG feed.
	frame   []byte
	frameMu sync.RWMutex

	// MJPEG frame pacing.
	displayInterval time.Duration

	statusHub *hub.Hub
	logHub    *hub.Hub
	cameraHub *hub.Hub

	// Flight action callbacks, wired by the binary.
	OnTakeoff    func() error
	OnLand       func() error
	OnTrack      func() (bool, error)
	OnModeChange func(mode string) error
}

// NewServer creates the dashboard server. commander and registry may be nil
// in tests; the routes that need them return 503.
func NewServer(port string, commander Commander, registry *fleet.Registry, displayInterval time.Duration) *Server {
	if displayInterval <= 0 {
		displayInterval = 33 * time.Millisecond
	}
	s := &Server{
		port:            port,
		commander:       commander,
		fleet:           registry,
		logs:            make([]LogEntry, 0, 500),
		displayInterval: displayInterval,
		statusHub:       hub.New("status"),
		logHub:          hub.New("logs"),
		cameraHub:       hub.New("camera"),
	}

	app := fiber.New(fiber.Config{
		AppName:               "Tello Pilot",
		DisableStartupMessage: true,
	})

	// CORS for local development
	app.Use(cors.New())

	// Static files
	app.Static("/", "./web")

	// API routes
	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/logs", s.handleGetLogs)
	api.Get("/fleet", s.handleFleet)
	api.Post("/command", s.handleCommand)
	api.Post("/takeoff", s.handleTakeoff)
	api.Post("/land", s.handleLand)
	api.Post("/track", s.handleTrack)
	api.Post("/mode/:mode", s.handleMode)
	api.Post("/fleet/:id/select", s.handleFleetSelect)
	api.Post("/fleet/:id/mode", s.handleFleetMode)

	// MJPEG video feed
	app.Get("/video/feed", s.handleVideoFeed)
	app.Get("/video/feed/:id", s.handleVideoFeed)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/camera", websocket.New(s.handleCameraWS))
	app.Get("/ws/status", websocket.New(s.handleStatusWS))
	app.Get("/ws/logs", websocket.New(s.handleLogsWS))

	s.app = app
	return s
}

// Start runs the server. It blocks until Shutdown.
func (s *Server) Start() error {
	log.Info("dashboard listening", "addr", "http://localhost:"+s.port)

	go s.statusHub.Run()
	go s.logHub.Run()
	go s.cameraHub.Run()

	return s.app.Listen(":" + s.port)
}

// StartAsync runs the server in a goroutine.
func (s *Server) StartAsync() {
	go func() {
		if err := s.Start(); err != nil {
			log.Error("dashboard server failed", "err", err)
		}
	}()
}

// Shutdown gracefully stops the server and its hubs.
func (s *Server) Shutdown() error {
	s.statusHub.Stop()
	s.logHub.Stop()
	s.cameraHub.Stop()
	return s.app.Shutdown()
}

// UpdateState applies a mutation to the flight state and broadcasts the
// result to status clients.
func (s *Server) UpdateState(update func(*DroneState)) {
	s.stateMu.Lock()
	update(&s.state)
	state := s.state
	s.stateMu.Unlock()

	s.statusHub.BroadcastJSON(state)
}

// AddLog appends a log entry and broadcasts it to log clients.
func (s *Server) AddLog(logType, message string) {
	entry := LogEntry{
		Time:    time.Now().Format("15:04:05"),
		Type:    logType,
		Message: message,
	}

	s.logsMu.Lock()
	s.logs = append(s.logs, entry)
	if len(s.logs) > 500 {
		s.logs = s.logs[1:]
	}
	s.logsMu.Unlock()

	s.logHub.BroadcastJSON(entry)
}

// SendCameraFrame publishes a JPEG frame to websocket clients and stores it
// for the MJPEG feed.
func (s *Server) SendCameraFrame(jpegData []byte) {
	s.frameMu.Lock()
	s.frame = jpegData
	s.frameMu.Unlock()

	s.cameraHub.BroadcastBinary(jpegData)
}

func (s *Server) latestFrame() []byte {
	s.frameMu.RLock()
	defer s.frameMu.RUnlock()
	return s.frame
}
