package main

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/CristiGvl/picoSensors/api"
	"github.com/CristiGvl/picoSensors/internal/config"
	"github.com/CristiGvl/picoSensors/internal/platform"
	"github.com/CristiGvl/picoSensors/internal/registry"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

func main() {
	if err := run(); err != nil {
		logrus.Fatal(err)
	}
}

func run() error {
	var (
		configPath string
		bind       string
		port       string
		logLevel   string
		list       bool
	)

	// Parse command line flags
	flagSet := pflag.NewFlagSet("picosensors", pflag.ContinueOnError)
	flagSet.StringVarP(&configPath, "config", "c", "", "path to the YAML configuration file")
	flagSet.StringVar(&bind, "bind", "", "IP address to bind the server to (overrides config)")
	flagSet.StringVarP(&port, "port", "p", "", "port to run the server on (overrides config)")
	flagSet.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")
	flagSet.BoolVarP(&list, "list", "l", false, "print every sensor with its current value and exit")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if bind != "" {
		cfg.Bind = bind
	}
	if port != "" {
		cfg.Port = port
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logrus.SetLevel(level)
	log := logrus.WithField("component", "picosensors")

	// Validate platform support
	if err := platform.ValidateSupport(); err != nil {
		return fmt.Errorf("platform validation failed: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.UpdateTimeout)
	reg, err := registry.New(ctx, platform.NewBackends(cfg),
		registry.WithLogger(logrus.WithField("component", "registry")),
		registry.WithEnabled(cfg.SensorsEnabled))
	cancel()
	if err != nil {
		return fmt.Errorf("sensor discovery failed: %w", err)
	}
	defer reg.Close()

	if list {
		return printSensors(os.Stdout, reg, cfg)
	}

	server := api.NewServer(reg, cfg.UpdateTimeout, logrus.WithField("component", "api"))

	// Handle graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		if err := server.Shutdown(); err != nil {
			log.WithError(err).Error("error during shutdown")
		}
	}()

	// Start the server
	address := cfg.Bind + ":" + cfg.Port
	log.Infof("starting picoSensors server on %s with %d sensors", address, reg.Len())
	return server.Start(address)
}

// printSensors samples every sensor once and prints a table.
func printSensors(w io.Writer, reg *registry.Registry, cfg *config.Config) error {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.UpdateTimeout)
	defer cancel()

	readings, err := reg.Update(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCHIP\tTYPE\tVALUE\tMIN\tMAX\tALARM")
	for _, r := range readings {
		s := r.Sensor
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%t\n",
			s.ID(), s.Name(), s.Chip(), s.Kind(),
			formatValue(r.Value), formatValue(s.Min().Float()), formatValue(s.Max().Float()), r.Alarm())
	}
	return tw.Flush()
}

func formatValue(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return fmt.Sprintf("%.1f", v)
}
