// Command frc-targeting is the driver-station vision client. It reads
// frames from the robot camera, locates the vision targets and streams
// them to the robot over TCP.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/urfave/cli"

	"frc-targeting/internal/imageproc"
	"frc-targeting/internal/parameters"
	"frc-targeting/internal/reload"
	"frc-targeting/internal/target"
	"frc-targeting/internal/targeting"
	"frc-targeting/internal/vision"
	"frc-targeting/internal/version"
)

const defaultCameraURL = "http://10.0.94.11/jpg/image.jpg"

// frameSource is both probed for liveness and read for frames.
type frameSource interface {
	vision.FrameSource
	imageproc.Camera
}

// swappableTargeter lets a parameter reload replace the pipeline between
// frames.
type swappableTargeter struct {
	pipeline atomic.Pointer[targeting.Pipeline]
}

func (s *swappableTargeter) Targets(ctx context.Context) []target.Target {
	return s.pipeline.Load().Targets(ctx)
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	app := cli.NewApp()
	app.Name = "frc-targeting"
	app.Usage = "stream vision targets from the camera to the robot"
	app.Version = version.String()
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "robot",
			Value: imageproc.DefaultRobotAddr,
			Usage: "robot target server address",
		},
		cli.StringFlag{
			Name:  "camera",
			Value: defaultCameraURL,
			Usage: "camera snapshot URL",
		},
		cli.StringFlag{
			Name:  "frames",
			Usage: "replay images from this directory instead of the camera",
		},
		cli.StringFlag{
			Name:  "params",
			Usage: "TOML parameters file ([vision] and [network] sections)",
		},
		cli.BoolFlag{
			Name:  "watch",
			Usage: "reload the parameters file when it changes",
		},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("Starting frc-targeting %s", version.String())

	params := parameters.Empty()
	if path := c.String("params"); path != "" {
		p, err := parameters.Load(path)
		if err != nil {
			return err
		}
		params = p
	}

	var source frameSource
	if dir := c.String("frames"); dir != "" {
		ds, err := vision.NewDirSource(dir)
		if err != nil {
			return err
		}
		log.Printf("Replaying %d frames from %s", ds.Len(), dir)
		source = ds
	} else {
		source = vision.NewHTTPCamera(c.String("camera"))
	}

	pipeline, err := buildPipeline(params, source)
	if err != nil {
		return err
	}
	targeter := &swappableTargeter{}
	targeter.pipeline.Store(pipeline)

	cfg := imageproc.ConfigFromParameters(imageproc.DefaultConfig(), params)
	if c.IsSet("robot") || cfg.RobotAddr == "" {
		cfg.RobotAddr = c.String("robot")
	}
	client := imageproc.NewClient(cfg, source, targeter)
	client.OnStateChange(func(s imageproc.State) {
		log.Printf("Vision client: %s", s)
	})

	if c.Bool("watch") && params.Path() != "" {
		watcher, err := reload.NewWatcher(params.Path(), reload.DefaultInterval, nil)
		if err != nil {
			return err
		}
		go watcher.Run(ctx, func() {
			p, err := parameters.Load(params.Path())
			if err != nil {
				log.Printf("Parameters reload failed: %v", err)
				return
			}
			next, err := buildPipeline(p, source)
			if err != nil {
				log.Printf("Parameters reload rejected: %v", err)
				return
			}
			targeter.pipeline.Store(next)
			log.Printf("Reloaded vision parameters from %s", params.Path())
		})
	}

	err = client.Run(ctx)
	stats := client.Stats()
	log.Printf("Vision client stopped after %d frames (%d connects, %d failures)",
		stats.Frames, stats.Connects, stats.Failures)
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func buildPipeline(params *parameters.Parameters, source vision.FrameSource) (*targeting.Pipeline, error) {
	cfg, err := targeting.ConfigFromParameters(targeting.DefaultConfig(), params)
	if err != nil {
		return nil, fmt.Errorf("vision config: %w", err)
	}
	extractor := vision.NewExtractor(source, cfg.Color)
	return targeting.NewPipeline(cfg, extractor), nil
}
