package main

import (
	"context"
	"errors"
	"log"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/sweeney/range-haptics/internal/console"
	"github.com/sweeney/range-haptics/internal/evaluate"
	"github.com/sweeney/range-haptics/internal/mqtt"
	"github.com/sweeney/range-haptics/internal/playback"
	"github.com/sweeney/range-haptics/internal/ranging"
	"github.com/sweeney/range-haptics/internal/status"
)

// distanceSource is the part of ranging.Ranger the loop reads.
type distanceSource interface {
	Snapshot() [ranging.NumChannels]uint32
	Timeouts() [ranging.NumChannels]uint64
}

// loop is the controller's main loop. It is the only goroutine that
// evaluates events, drives the motor and runs console commands.
type loop struct {
	ranger     distanceSource
	store      evaluate.RecordSource
	eval       *evaluate.Evaluator
	player     playback.Player
	console    *console.Console
	publisher  mqtt.Publisher
	mqttStatus mqtt.ConnectionStatus
	tracker    *status.Tracker
	hold       time.Duration
	heartbeat  time.Duration
	now        func() time.Time
	sleep      func(time.Duration)

	active   int
	lastBeat time.Time
}

// run evaluates on every tick and runs console input between ticks. It
// returns nil after a signal and console.ErrReboot after the reboot
// command.
func (l *loop) run(tick <-chan time.Time, sig <-chan os.Signal) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// A signal also cancels ctx so a running display command returns.
	stop := make(chan os.Signal, 1)
	go func() {
		select {
		case s := <-sig:
			stop <- s
			cancel()
		case <-ctx.Done():
		}
	}()

	l.active = playback.None
	l.lastBeat = l.now()
	input := l.console.Input()

	for {
		select {
		case s := <-stop:
			log.Printf("received %v, shutting down", s)
			l.publishSystem(l.now(), "SHUTDOWN", signalName(s))
			return nil

		case b, ok := <-input:
			if !ok {
				log.Printf("console: input closed")
				input = nil
				continue
			}
			err := l.console.Feed(ctx, b)
			if errors.Is(err, console.ErrReboot) {
				log.Printf("reboot requested from console")
				l.publishSystem(l.now(), "REBOOT", "console")
				return err
			}
			if err != nil {
				log.Printf("console: %v", err)
			}

		case t := <-tick:
			l.cycle(t)
		}
	}
}

// cycle runs one evaluation pass at time t and plays the selected event.
func (l *loop) cycle(t time.Time) {
	dist := l.ranger.Snapshot()
	st, err := l.eval.Evaluate(dist, l.store)
	if err != nil {
		log.Printf("evaluate: %v", err)
	}

	idx, ok := playback.Select(st)
	l.tracker.Update(dist, l.ranger.Timeouts(), st, idx)
	changed := idx != l.active
	if changed {
		l.activate(t, idx, dist)
	}
	l.checkHeartbeat(t)

	if !ok {
		return
	}
	rec, err := l.store.Read(idx)
	if err != nil {
		log.Printf("playback: %v", err)
		return
	}
	if changed && rec.Pattern.Enabled() {
		log.Printf("playback: event %d, %d beats, %v", idx, rec.Pattern.Beats, playback.Duration(rec.Pattern))
	}
	if err := l.player.Play(rec.Pattern); err != nil {
		log.Printf("playback: event %d: %v", idx, err)
	}
	l.sleep(l.hold)
}

func (l *loop) activate(t time.Time, idx int, dist [ranging.NumChannels]uint32) {
	if idx == playback.None {
		log.Printf("event: none active")
	} else {
		log.Printf("event: %d active (%s) distances=%v", idx, status.EventKind(idx), dist)
		l.tracker.RecordActivation(idx)
	}
	l.active = idx

	a := mqtt.Activation{Timestamp: t, Event: idx, Kind: status.EventKind(idx), Distances: dist}
	if err := l.publisher.PublishActivation(a); err != nil {
		log.Printf("publish error: %v", err)
	}
}

func (l *loop) checkHeartbeat(t time.Time) {
	if l.heartbeat <= 0 || t.Sub(l.lastBeat) < l.heartbeat {
		return
	}
	l.lastBeat = t
	if net := readNetworkInfo(); net != nil {
		l.tracker.SetNetwork(net)
	}
	l.publishSystem(t, "HEARTBEAT", "")
}

// publishSystem sends a lifecycle event carrying the full status snapshot.
func (l *loop) publishSystem(t time.Time, event, reason string) {
	if l.mqttStatus != nil {
		l.tracker.SetMQTTConnected(l.mqttStatus.IsConnected())
	}
	e := mqtt.SystemEvent{
		Timestamp:  t,
		Event:      event,
		Reason:     reason,
		Retained:   event != "HEARTBEAT",
		RawPayload: status.FormatStatusEvent(l.tracker.Snapshot(), event, reason),
	}
	name := strings.ToLower(event)
	if err := l.publisher.PublishSystem(e); err != nil {
		log.Printf("failed to publish %s event: %v", name, err)
		return
	}
	log.Printf("published %s event", name)
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}
