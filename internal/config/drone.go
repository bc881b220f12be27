// Package config provides configuration helpers for go-tello commands.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Default Tello network configuration. The command and video channels use
// separate sockets so control traffic never contends with the stream.
const (
	DefaultDroneIP     = "192.168.10.1"
	DefaultCommandPort = 8889
	DefaultLocalPort   = 9000
	DefaultVideoPort   = 11111
	DefaultWebPort     = "5005"
)

// LoadEnv loads a .env file from the working directory if present.
// Missing files are fine; real environment variables take precedence.
func LoadEnv() {
	_ = godotenv.Load()
}

// DroneIP returns the drone IP from the DRONE_IP env var.
// Falls back to the Tello AP default if not set.
func DroneIP() string {
	if ip := os.Getenv("DRONE_IP"); ip != "" {
		return ip
	}
	return DefaultDroneIP
}

// ModelPath returns the detector model path from the MODEL_PATH env var.
// Falls back to the provided default if not set.
func ModelPath(defaultPath string) string {
	if p := os.Getenv("MODEL_PATH"); p != "" {
		return p
	}
	return defaultPath
}

// ModelPathRequired returns the detector model path from MODEL_PATH,
// verifying the file exists. Exits with usage text otherwise: running with
// a disabled detector is worse than refusing to start.
func ModelPathRequired(defaultPath string) string {
	path := ModelPath(defaultPath)
	if _, err := os.Stat(path); err != nil {
		fmt.Fprintf(os.Stderr, "Error: detector model not found at %s\n", path)
		fmt.Fprintln(os.Stderr, "Usage: MODEL_PATH=models/yolov8n.onnx go run ./cmd/...")
		os.Exit(1)
	}
	return path
}

// WebPort returns the dashboard port from the WEB_PORT env var or default.
func WebPort() string {
	if port := os.Getenv("WEB_PORT"); port != "" {
		return port
	}
	return DefaultWebPort
}

// LogLevel returns the log level from the LOG_LEVEL env var or "info".
func LogLevel() string {
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		return lvl
	}
	return "info"
}
