package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/sweeney/range-haptics/internal/config"
	"github.com/sweeney/range-haptics/internal/console"
	"github.com/sweeney/range-haptics/internal/eventstore"
	"github.com/sweeney/range-haptics/internal/nvstore"
	"github.com/sweeney/range-haptics/internal/ranging"
)

// options holds the command-line flags. Flags that are set override the
// config file.
type options struct {
	configPath string
	store      string
	poll       time.Duration
	cycle      time.Duration
	hold       time.Duration
	broker     string
	heartbeat  time.Duration
	httpAddr   string
	port       string
	baud       int

	cfg config.Config
}

func newRootCommand() *cobra.Command {
	return newRootCommandOpts(&options{})
}

func newRootCommandOpts(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "range-haptics",
		Short: "Ultrasonic range to haptic feedback controller",
		Long: `Polls three ultrasonic range sensors, evaluates the stored events against
the distances and plays the haptic pattern of the highest-numbered true event.
Events are edited over the command console (serial port or stdin).`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.load(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(opts.cfg)
		},
	}

	f := cmd.PersistentFlags()
	f.StringVarP(&opts.configPath, "config", "c", "", "YAML config file")
	f.StringVar(&opts.store, "store", "", "event store database path")
	f.DurationVar(&opts.poll, "poll", 0, "sensor trigger interval")
	f.DurationVar(&opts.cycle, "cycle", 0, "evaluation interval")
	f.DurationVar(&opts.hold, "hold", 0, "pause after an event plays")
	f.StringVar(&opts.broker, "broker", "", "MQTT broker address (empty disables)")
	f.DurationVar(&opts.heartbeat, "heartbeat", 0, "MQTT heartbeat interval")
	f.StringVar(&opts.httpAddr, "http", "", "HTTP status address (empty disables)")
	f.StringVar(&opts.port, "console", "", `command console: "-" for stdio or a serial device`)
	f.IntVar(&opts.baud, "baud", 0, "serial console baud rate")

	cmd.AddCommand(newShowCommand(opts))
	cmd.AddCommand(newPrintStateCommand(opts))
	return cmd
}

func (o *options) load(cmd *cobra.Command) error {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("store") {
		cfg.Store = o.store
	}
	if flags.Changed("poll") {
		cfg.Poll = o.poll
	}
	if flags.Changed("cycle") {
		cfg.Cycle = o.cycle
	}
	if flags.Changed("hold") {
		cfg.Hold = o.hold
	}
	if flags.Changed("broker") {
		cfg.MQTT.Broker = o.broker
	}
	if flags.Changed("heartbeat") {
		cfg.MQTT.Heartbeat = o.heartbeat
	}
	if flags.Changed("http") {
		cfg.HTTP = o.httpAddr
	}
	if flags.Changed("console") {
		cfg.Console.Port = o.port
	}
	if flags.Changed("baud") {
		cfg.Console.Baud = o.baud
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	o.cfg = cfg
	return nil
}

func newShowCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:       "show events|patterns",
		Short:     "Print the stored events or patterns and exit",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"events", "patterns"},
		RunE: func(cmd *cobra.Command, args []string) error {
			nv, err := nvstore.OpenSQLite(opts.cfg.Store)
			if err != nil {
				return err
			}
			defer nv.Close()
			return console.Dump(cmd.OutOrStdout(), eventstore.New(nv), args[0])
		},
	}
}

func newPrintStateCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "print-state",
		Short: "Read one round of distances and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			hw, err := openSensors(opts.cfg)
			if err != nil {
				return err
			}
			defer hw.Close()

			d, err := readRound(cmd.Context(), hw.ranger, opts.cfg.Poll)
			if err != nil {
				return err
			}
			return writeDistances(cmd.OutOrStdout(), d)
		},
	}
}

// readRound triggers every channel once and returns the distances.
func readRound(ctx context.Context, r *ranging.Ranger, period time.Duration) ([ranging.NumChannels]uint32, error) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for i := 0; i <= ranging.NumChannels; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return [ranging.NumChannels]uint32{}, ctx.Err()
			case <-ticker.C:
			}
		}
		if err := r.Tick(); err != nil {
			return [ranging.NumChannels]uint32{}, fmt.Errorf("trigger: %w", err)
		}
	}
	return r.Snapshot(), nil
}

func writeDistances(w io.Writer, d [ranging.NumChannels]uint32) error {
	for ch, mm := range d {
		if _, err := fmt.Fprintf(w, "Sensor %d: %d mm\n", ch, mm); err != nil {
			return err
		}
	}
	return nil
}
