package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/sweeney/range-haptics/internal/actuator"
	"github.com/sweeney/range-haptics/internal/config"
	"github.com/sweeney/range-haptics/internal/console"
	"github.com/sweeney/range-haptics/internal/evaluate"
	"github.com/sweeney/range-haptics/internal/eventstore"
	"github.com/sweeney/range-haptics/internal/gpio"
	"github.com/sweeney/range-haptics/internal/mqtt"
	"github.com/sweeney/range-haptics/internal/nvstore"
	"github.com/sweeney/range-haptics/internal/playback"
	"github.com/sweeney/range-haptics/internal/ranging"
	"github.com/sweeney/range-haptics/internal/status"
	"github.com/sweeney/range-haptics/internal/web"
)

// sensors is the ranging hardware: trigger outputs, echo inputs and the
// Ranger they feed.
type sensors struct {
	trigger gpio.TriggerLines
	echo    gpio.EchoSource
	ranger  *ranging.Ranger
}

func openSensors(cfg config.Config) (*sensors, error) {
	trig, err := gpio.NewRealTrigger(cfg.GPIO.Chip, config.Pins(cfg.GPIO.TriggerPins))
	if err != nil {
		return nil, fmt.Errorf("init trigger lines: %w", err)
	}
	echo, err := gpio.NewRealEcho(cfg.GPIO.Chip, config.Pins(cfg.GPIO.EchoPins))
	if err != nil {
		trig.Close()
		return nil, fmt.Errorf("init echo lines: %w", err)
	}
	return startSensors(trig, echo)
}

func startSensors(trig gpio.TriggerLines, echo gpio.EchoSource) (*sensors, error) {
	s := &sensors{trigger: trig, echo: echo, ranger: ranging.New(trig)}
	if err := echo.Start(s.ranger.OnEdge); err != nil {
		s.Close()
		return nil, fmt.Errorf("start echo lines: %w", err)
	}
	return s, nil
}

func (s *sensors) Close() error {
	return errors.Join(s.echo.Close(), s.trigger.Close())
}

func run(cfg config.Config) error {
	if err := os.MkdirAll(filepath.Dir(cfg.Store), 0o755); err != nil {
		return fmt.Errorf("create store directory: %w", err)
	}
	nv, err := nvstore.OpenSQLite(cfg.Store)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer nv.Close()
	store := eventstore.New(nv)

	hw, err := openSensors(cfg)
	if err != nil {
		return err
	}
	defer hw.Close()

	motor, err := actuator.NewPWM(cfg.PWM.Pin, cfg.PWM.Frequency())
	if err != nil {
		return fmt.Errorf("init pwm: %w", err)
	}
	defer motor.Close()
	if err := motor.SetDuty(0); err != nil {
		return fmt.Errorf("init pwm: %w", err)
	}

	port, err := console.Open(cfg.Console.Port, cfg.Console.Baud)
	if err != nil {
		return err
	}
	defer port.Close()
	con := console.New(store, hw.ranger.Snapshot, console.Pump(port), port)

	bootID := uuid.NewString()
	var publisher mqtt.Publisher = mqtt.NopPublisher{}
	var mqttStatus mqtt.ConnectionStatus = mqtt.NopPublisher{}
	if cfg.MQTT.Broker != "" {
		p := mqtt.NewRealPublisher(cfg.MQTT.Broker, cfg.MQTT.ClientID+"-"+bootID[:8])
		publisher, mqttStatus = p, p
	}
	defer publisher.Close()

	tracker := status.NewTracker(time.Now(), bootID, statusConfig(cfg))
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	l := &loop{
		ranger:     hw.ranger,
		store:      store,
		eval:       evaluate.New(),
		player:     playback.New(motor),
		console:    con,
		publisher:  publisher,
		mqttStatus: mqttStatus,
		tracker:    tracker,
		hold:       cfg.Hold,
		heartbeat:  cfg.MQTT.Heartbeat,
		now:        time.Now,
		sleep:      time.Sleep,
	}
	l.publishSystem(time.Now(), "STARTUP", "")

	if cfg.HTTP != "" {
		srv := web.New(cfg.HTTP, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", cfg.HTTP)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go ranging.RunEvery(ctx, hw.ranger, cfg.Poll)

	log.Printf("started: boot=%s poll=%v cycle=%v hold=%v store=%s console=%s broker=%q",
		bootID, cfg.Poll, cfg.Cycle, cfg.Hold, cfg.Store, cfg.Console.Port, cfg.MQTT.Broker)

	ticker := time.NewTicker(cfg.Cycle)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	return l.run(ticker.C, sigCh)
}

func statusConfig(cfg config.Config) status.Config {
	return status.Config{
		PollMs:      cfg.Poll.Milliseconds(),
		CycleMs:     cfg.Cycle.Milliseconds(),
		HoldMs:      cfg.Hold.Milliseconds(),
		HeartbeatMs: cfg.MQTT.Heartbeat.Milliseconds(),
		Broker:      cfg.MQTT.Broker,
		HTTPAddr:    cfg.HTTP,
		Serial:      cfg.Console.Port,
		Store:       cfg.Store,
	}
}
