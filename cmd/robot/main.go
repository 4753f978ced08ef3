// Command robot runs the robot side of vision targeting: the target
// server the driver-station client streams to, and a control loop that
// tracks the latest targets and steps an autonomous script.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/urfave/cli"
	"golang.org/x/sync/errgroup"

	"frc-targeting/internal/autoscript"
	"frc-targeting/internal/control"
	"frc-targeting/internal/datalog"
	"frc-targeting/internal/ingest"
	"frc-targeting/internal/parameters"
	"frc-targeting/internal/target"
	"frc-targeting/internal/timeutil"
	"frc-targeting/internal/version"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	app := cli.NewApp()
	app.Name = "robot"
	app.Usage = "receive vision targets and run the control loop"
	app.Version = version.String()
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "listen",
			Value: ingest.DefaultConfig().Addr,
			Usage: "target server listening address",
		},
		cli.StringFlag{
			Name:  "http",
			Value: "localhost:8080",
			Usage: "admin http server listening address, empty to disable",
		},
		cli.StringFlag{
			Name:  "params",
			Usage: "TOML parameters file",
		},
		cli.StringFlag{
			Name:  "datalog",
			Value: "datalog.db",
			Usage: "sqlite datalog path, empty to disable",
		},
		cli.StringFlag{
			Name:  "script",
			Usage: "autonomous script to run; a directory selects its first *.as file",
		},
		cli.DurationFlag{
			Name:  "period",
			Value: control.DefaultPeriod,
			Usage: "control loop period",
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

	log.Printf("Starting robot %s", version.String())
	clock := timeutil.RealClock{}

	params := parameters.Empty()
	if path := c.String("params"); path != "" {
		p, err := parameters.Load(path)
		if err != nil {
			return err
		}
		params = p
	}

	var db *datalog.DB
	if path := c.String("datalog"); path != "" {
		var err error
		db, err = datalog.NewDB(path)
		if err != nil {
			return err
		}
		defer db.Close()
	}

	slot := ingest.NewSlot[[]target.Target]()
	serverCfg := ingest.ConfigFromParameters(ingest.DefaultConfig(), params)
	if c.IsSet("listen") {
		serverCfg.Addr = c.String("listen")
	}
	serverCfg.Clock = clock
	if db != nil {
		serverCfg.Recorder = db
	}
	server := ingest.NewServer(serverCfg, slot)

	drive := &control.LogDrive{}
	tracker := control.NewTargetTracker(slot)
	aimCfg := control.DefaultAimConfig()
	aimCfg.OptimumRange = params.Float("shooter", "optimum_range", aimCfg.OptimumRange)
	aimCfg.AngleOffset = params.Float("shooter", "angle_offset", aimCfg.AngleOffset)

	registry := autoscript.NewRegistry()
	control.RegisterCommands(registry, tracker, drive, control.NewAimer(aimCfg, drive))

	runner, err := loadScript(c.String("script"), registry, clock)
	if err != nil {
		return err
	}
	if runner != nil && db != nil {
		if err := db.RecordEvent(ctx, clock.Now(), "script", c.String("script")); err != nil {
			log.Printf("Datalog: %v", err)
		}
	}

	loop := &control.Loop{
		Tracker: tracker,
		Runner:  runner,
		Drive:   drive,
		Clock:   clock,
		Period:  c.Duration("period"),
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return server.ListenAndServe(ctx) })
	g.Go(func() error { return loop.Run(ctx) })

	if addr := c.String("http"); addr != "" {
		mux := http.NewServeMux()
		server.AttachAdminRoutes(mux)
		if db != nil {
			db.AttachAdminRoutes(mux)
		}
		g.Go(func() error { return serveAdmin(ctx, addr, mux) })
	}

	err = g.Wait()
	log.Printf("Robot stopped: queue %+v", slot.Stats())
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// serveAdmin serves the diagnostics routes until ctx is cancelled. The
// admin page is optional: a listen failure is logged and never stops
// target ingest or the control loop.
func serveAdmin(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{Addr: addr, Handler: handler}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	log.Printf("Admin routes on http://%s/debug/", addr)
	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Admin server disabled: %v", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Admin server shutdown: %v", err)
	}
	<-errc
	return nil
}

// loadScript parses the autonomous script at path. A directory selects
// its first script by name. An empty path runs no script.
func loadScript(path string, registry *autoscript.Registry, clock timeutil.Clock) (*autoscript.Runner, error) {
	if path == "" {
		return nil, nil
	}

	if info, err := os.Stat(path); err == nil && info.IsDir() {
		scripts, err := autoscript.ListScripts(path)
		if err != nil {
			return nil, err
		}
		if len(scripts) == 0 {
			log.Printf("No %s scripts in %s", autoscript.Ext, path)
			return nil, nil
		}
		path = scripts[0]
	}

	commands, err := autoscript.ParseFile(path)
	if err != nil {
		return nil, err
	}
	log.Printf("Loaded script %s (%d commands)", filepath.Base(path), len(commands))
	return autoscript.NewRunner(registry, commands, clock), nil
}
