// Command radarcalc evaluates one radar scenario file and prints the report.
//
//	radarcalc -config scenario.yaml -format text|json|yaml
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"

	"github.com/wiless/radarperf"
	"github.com/wiless/radarperf/config"
	"github.com/wiless/radarperf/pathloss"
	"github.com/wiless/radarperf/telemetry"
)

func main() {
	configPath := flag.String("config", "", "scenario file (default: search radarperf.yaml in . and /etc/radarperf)")
	format := flag.String("format", "text", "output format: text, json or yaml")
	presets := flag.Bool("presets", false, "list the atmosphere presets and exit")
	noColor := flag.Bool("no-color", false, "disable colored text output")
	verbose := flag.Bool("v", false, "debug logging")
	help := flag.Bool("help", false, "prints this help")
	flag.Parse()
	if *help {
		flag.PrintDefaults()
		return
	}
	if *noColor {
		color.NoColor = true
	}
	if *presets {
		for _, name := range pathloss.AtmospherePresetNames() {
			a, _ := pathloss.AtmospherePreset(name)
			fmt.Printf("%-10s %+v\n", name, a)
		}
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.WithError(err).Fatal("loading scenario")
	}
	if *verbose {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Log.Apply(); err != nil {
		log.WithError(err).Fatal("log config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	shutdownTracing, err := telemetry.InitTracing(ctx, cfg.Tracing)
	if err != nil {
		log.WithError(err).Fatal("tracing")
	}
	defer telemetry.Shutdown(shutdownTracing, 5*time.Second)

	s, err := cfg.Scenario(ctx)
	if err != nil {
		log.WithError(err).Fatal("invalid scenario")
	}
	a := radarperf.NewAnalyzer(radarperf.WithRunner(cfg.Sweep.Runner(nil)))
	rep, err := a.Evaluate(ctx, s)
	if err != nil {
		log.WithError(err).Fatal("evaluation failed")
	}
	if err := write(os.Stdout, *format, s, rep); err != nil {
		log.WithError(err).Fatal("writing report")
	}
}
