// Pilot dashboard: live video, flight status, manual SDK command intake,
// and a toggle for the autonomous visual-approach controller.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/teslashibe/go-tello/internal/config"
	"github.com/teslashibe/go-tello/internal/log"
	"github.com/teslashibe/go-tello/pkg/drone"
	"github.com/teslashibe/go-tello/pkg/fleet"
	"github.com/teslashibe/go-tello/pkg/tracking"
	"github.com/teslashibe/go-tello/pkg/tracking/detection"
	"github.com/teslashibe/go-tello/pkg/video"
	"github.com/teslashibe/go-tello/pkg/web"
)

func main() {
	config.LoadEnv()

	port := flag.String("port", config.WebPort(), "Dashboard HTTP port")
	className := flag.String("class", "person", "COCO class to approach")
	modelPath := flag.String("model", detection.DefaultYOLOConfig().ModelPath, "Path to the YOLO ONNX model")
	droneIP := flag.String("ip", "", "Drone IP address (overrides DRONE_IP env var)")
	cautious := flag.Bool("cautious", false, "Slower detection and smaller motion steps")
	debug := flag.Bool("debug", false, "Enable verbose debug logging")
	flag.Parse()

	level := config.LogLevel()
	if *debug {
		level = "debug"
	}
	log.Init(level)

	classID := detection.ClassID(*className)
	if classID < 0 {
		fmt.Fprintf(os.Stderr, "unknown class %q\n", *className)
		os.Exit(1)
	}

	trackCfg := tracking.DefaultConfig()
	if *cautious {
		trackCfg = tracking.CautiousConfig()
	}
	trackCfg.Classes = []int{classID}

	yoloCfg := detection.DefaultYOLOConfig()
	yoloCfg.ModelPath = config.ModelPathRequired(*modelPath)
	detector, err := detection.NewYOLO(yoloCfg)
	if err != nil {
		log.Error("load detector", "err", err)
		os.Exit(1)
	}
	defer detector.Close()

	connCfg := drone.DefaultConnConfig()
	if *droneIP != "" {
		connCfg.IP = *droneIP
	} else {
		connCfg.IP = config.DroneIP()
	}
	conn, err := drone.Dial(connCfg)
	if err != nil {
		log.Error("connect to drone", "err", err)
		os.Exit(1)
	}
	defer conn.Close()

	streamCfg := video.DefaultStreamConfig()
	streamCfg.DecodeInterval = trackCfg.DisplayInterval()
	stream, err := video.NewStream(streamCfg, video.NewSlot())
	if err != nil {
		log.Error("open video stream", "err", err)
		os.Exit(1)
	}

	dispatcher := drone.NewDispatcher(conn)
	driver := drone.NewDriver(dispatcher)
	tracker := tracking.New(trackCfg, stream.Slot(), detector, dispatcher)

	registry := fleet.NewRegistry()
	registry.Add(fleet.Member{
		Name:        "tello-alpha",
		IP:          connCfg.IP,
		CommandPort: connCfg.CommandPort,
		VideoPort:   streamCfg.Port,
		Mode:        fleet.ModeAutonomous,
	})
	registry.Add(fleet.Member{
		Name:        "tello-bravo",
		IP:          "192.168.10.2",
		CommandPort: connCfg.CommandPort,
		VideoPort:   streamCfg.Port,
		Mode:        fleet.ModeAutonomous,
		Placeholder: true,
	})
	registry.Add(fleet.Member{
		Name:        "tello-charlie",
		IP:          "192.168.10.3",
		CommandPort: connCfg.CommandPort,
		VideoPort:   streamCfg.Port,
		Mode:        fleet.ModeAutonomous,
		Placeholder: true,
	})

	server := web.NewServer(*port, dispatcher, registry, trackCfg.DisplayInterval())
	wire(server, driver, tracker)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	driver.Start()
	server.UpdateState(func(st *web.DroneState) {
		st.Connected = true
		st.Mode = tracker.Mode().String()
		st.TargetClass = *className
	})
	server.AddLog("info", "drone link up: "+connCfg.IP)

	go func() {
		if err := stream.Run(ctx); err != nil {
			log.Error("video stream stopped", "err", err)
		}
	}()
	go tracker.Run(ctx)
	go pollBattery(ctx, driver, server)

	server.StartAsync()

	<-ctx.Done()
	log.Info("shutting down")
	if err := server.Shutdown(); err != nil {
		log.Warn("dashboard shutdown", "err", err)
	}
}

// wire connects the tracker and driver to the dashboard callbacks.
func wire(server *web.Server, driver *drone.Driver, tracker *tracking.Tracker) {
	tracker.OnFrame = func(jpeg []byte, target *tracking.Target) {
		out := jpeg
		if target != nil {
			if annotated, err := detection.Annotate(jpeg, target.Box, target.ClassName, target.Confidence); err == nil {
				out = annotated
			}
		}
		server.SendCameraFrame(out)
	}

	tracker.OnDecision = func(d tracking.Decision) {
		server.UpdateState(func(st *web.DroneState) {
			st.Mode = tracker.Mode().String()
			st.TrackState = d.State.String()
			st.Offset = d.Offset
			st.Size = d.Size
			if d.Command.Text != "" {
				st.LastCommand = d.Command.Text
			}
		})
		if d.State == tracking.StateArrived {
			server.AddLog("track", "target reached, holding position")
		}
	}

	server.OnTakeoff = func() error {
		driver.Takeoff()
		server.UpdateState(func(st *web.DroneState) { st.Flying = true })
		return nil
	}

	server.OnLand = func() error {
		tracker.SetMode(tracking.ModeIdle)
		driver.Land()
		server.UpdateState(func(st *web.DroneState) {
			st.Flying = false
			st.Mode = tracker.Mode().String()
			st.TrackState = ""
		})
		return nil
	}

	server.OnTrack = func() (bool, error) {
		if tracker.Mode() == tracking.ModeAuto {
			tracker.SetMode(tracking.ModeIdle)
		} else {
			tracker.Engage()
		}
		engaged := tracker.Mode() == tracking.ModeAuto
		server.UpdateState(func(st *web.DroneState) { st.Mode = tracker.Mode().String() })
		return engaged, nil
	}

	server.OnModeChange = func(mode string) error {
		m, err := parseMode(mode)
		if err != nil {
			return err
		}
		tracker.SetMode(m)
		server.UpdateState(func(st *web.DroneState) { st.Mode = tracker.Mode().String() })
		return nil
	}
}

func parseMode(s string) (tracking.Mode, error) {
	switch strings.ToLower(s) {
	case "idle":
		return tracking.ModeIdle, nil
	case "manual":
		return tracking.ModeManual, nil
	case "auto":
		return tracking.ModeAuto, nil
	default:
		return tracking.ModeIdle, fmt.Errorf("unknown mode %q", s)
	}
}

// pollBattery refreshes the battery reading every 30 seconds.
func pollBattery(ctx context.Context, driver *drone.Driver, server *web.Server) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			reply, err := driver.Battery()
			if err != nil {
				continue
			}
			if pct, err := strconv.Atoi(strings.TrimSpace(reply)); err == nil {
				server.UpdateState(func(st *web.DroneState) { st.Battery = pct })
			}
		}
	}
}
