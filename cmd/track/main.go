// Headless visual approach: connect, take off, search for the target
// class, center on it, advance until it fills the frame, then land.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/teslashibe/go-tello/internal/config"
	"github.com/teslashibe/go-tello/internal/log"
	"github.com/teslashibe/go-tello/pkg/drone"
	"github.com/teslashibe/go-tello/pkg/tracking"
	"github.com/teslashibe/go-tello/pkg/tracking/detection"
	"github.com/teslashibe/go-tello/pkg/video"
)

func main() {
	config.LoadEnv()

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

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	driver.Start()
	if battery, err := driver.Battery(); err == nil {
		log.Info("battery", "percent", battery)
	}

	go func() {
		if err := stream.Run(ctx); err != nil {
			log.Error("video stream stopped", "err", err)
			cancel()
		}
	}()

	tracker := tracking.New(trackCfg, stream.Slot(), detector, dispatcher)
	tracker.OnDecision = func(d tracking.Decision) {
		if d.State == tracking.StateArrived {
			cancel()
		}
	}

	driver.Takeoff()
	defer driver.Land()

	tracker.Engage()
	log.Info("approach engaged", "class", *className)

	if err := tracker.Run(ctx); err != nil && ctx.Err() == nil {
		log.Error("tracker stopped", "err", err)
	}
}
