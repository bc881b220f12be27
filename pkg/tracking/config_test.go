package tracking

import (
	"testing"
	"time"

	"github.com/teslashibe/go-tello/pkg/tracking/detection"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.CenterTolerance <= 0 || cfg.CenterTolerance >= 0.5 {
		t.Errorf("CenterTolerance out of range: %v", cfg.CenterTolerance)
	}
	if cfg.SizeThreshold <= 0 || cfg.SizeThreshold >= 1 {
		t.Errorf("SizeThreshold out of range: %v", cfg.SizeThreshold)
	}
	if cfg.ConfidenceThresh <= 0 || cfg.ConfidenceThresh >= 1 {
		t.Errorf("ConfidenceThresh out of range: %v", cfg.ConfidenceThresh)
	}
	if cfg.DetectRate <= 0 || cfg.DetectRate > cfg.DisplayRate {
		t.Errorf("DetectRate should be positive and below DisplayRate: %v vs %v",
			cfg.DetectRate, cfg.DisplayRate)
	}
	if cfg.Selection != detection.SelectMaxConfidence {
		t.Errorf("default selection policy: got %v, want max confidence", cfg.Selection)
	}
	if cfg.RotateStep <= 0 || cfg.SearchStep <= 0 || cfg.AdvanceStep <= 0 {
		t.Error("motion steps must be positive")
	}
}

func TestConfig_Intervals(t *testing.T) {
	cfg := DefaultConfig()

	if got := cfg.DetectInterval(); got != 200*time.Millisecond {
		t.Errorf("DetectInterval: got %v, want 200ms", got)
	}
	if got := cfg.DisplayInterval(); got != time.Second/30 {
		t.Errorf("DisplayInterval: got %v, want %v", got, time.Second/30)
	}
}

func TestCautiousConfig(t *testing.T) {
	cfg := CautiousConfig()
	base := DefaultConfig()

	if cfg.DetectRate >= base.DetectRate {
		t.Error("cautious config should detect slower")
	}
	if cfg.AdvanceStep >= base.AdvanceStep {
		t.Error("cautious config should advance in smaller steps")
	}
}
