package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/range-haptics/internal/console"
	"github.com/sweeney/range-haptics/internal/eventstore"
	"github.com/sweeney/range-haptics/internal/gpio"
	"github.com/sweeney/range-haptics/internal/nvstore"
	"github.com/sweeney/range-haptics/internal/ranging"
)

func execute(t *testing.T, opts *options, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommandOpts(opts)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func seedStore(t *testing.T, path string) {
	t.Helper()
	nv, err := nvstore.OpenSQLite(path)
	require.NoError(t, err)
	defer nv.Close()

	store := eventstore.New(nv)
	require.NoError(t, store.Write(2, eventstore.Record{
		Rule:    eventstore.Simple{Sensor: 1, MinMM: 100, MaxMM: 400},
		Pattern: eventstore.Pattern{Haptic: 1, Beats: 2, OnMs: 50, OffMs: 50, Duty: 60},
	}))
}

func TestShowEvents(t *testing.T) {
	db := filepath.Join(t.TempDir(), "events.db")
	seedStore(t, db)

	out, err := execute(t, &options{}, "show", "events", "--store", db)
	require.NoError(t, err)
	assert.Contains(t, out, "EVENT LIST")
	assert.Contains(t, out, "EVENT  2  SENSOR  1  Min Distance:  100 mm  Max Distance:  400 mm")
	assert.Contains(t, out, "EVENT  3  SENSOR -1", "unwritten slots read erased")
}

func TestShowPatterns(t *testing.T) {
	db := filepath.Join(t.TempDir(), "events.db")
	seedStore(t, db)

	out, err := execute(t, &options{}, "show", "patterns", "--store", db)
	require.NoError(t, err)
	assert.Contains(t, out, "PATTERN LIST")
	assert.Contains(t, out, "EVENT  2  Haptics: 1 (on = 1/off = 0)  PWM:  60%  Beat Count:  2")
}

func TestShowRejectsUnknownListing(t *testing.T) {
	db := filepath.Join(t.TempDir(), "events.db")
	_, err := execute(t, &options{}, "show", "rules", "--store", db)
	require.ErrorIs(t, err, console.ErrUnknownListing)
}

func TestFlagsOverrideConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "range-haptics.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
poll: 50ms
hold: 3s
mqtt:
  broker: tcp://10.0.0.1:1883
`), 0o644))
	db := filepath.Join(dir, "events.db")

	opts := &options{}
	_, err := execute(t, opts, "show", "events", "--config", cfgPath, "--store", db, "--hold", "250ms", "--broker", "")
	require.NoError(t, err)

	assert.Equal(t, 50*time.Millisecond, opts.cfg.Poll, "file value kept")
	assert.Equal(t, 250*time.Millisecond, opts.cfg.Hold, "flag wins")
	assert.Equal(t, "", opts.cfg.MQTT.Broker, "explicit empty flag wins")
	assert.Equal(t, db, opts.cfg.Store)
}

func TestInvalidFlagValueRejected(t *testing.T) {
	db := filepath.Join(t.TempDir(), "events.db")
	_, err := execute(t, &options{}, "show", "events", "--store", db, "--poll", "0s")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestReadRound(t *testing.T) {
	trig := gpio.NewFakeTrigger()
	echo := gpio.NewFakeEcho()
	widths := map[int]time.Duration{0: 100 * time.Microsecond, 2: 2 * time.Millisecond}
	trig.OnPulse = func(ch int) {
		if w, ok := widths[ch]; ok {
			echo.Echo(ch, time.Second, w)
		}
	}

	hw, err := startSensors(trig, echo)
	require.NoError(t, err)

	d, err := readRound(context.Background(), hw.ranger, time.Millisecond)
	require.NoError(t, err)

	assert.Equal(t, ranging.ToMillimeters(ranging.TicksFromDuration(100*time.Microsecond)), d[0])
	assert.Equal(t, uint32(0), d[1], "no echo reads zero")
	assert.Equal(t, ranging.ToMillimeters(ranging.TicksFromDuration(2*time.Millisecond)), d[2])
	assert.Len(t, trig.Pulses(), ranging.NumChannels+1)

	require.NoError(t, hw.Close())
	assert.True(t, echo.Closed)
	assert.True(t, trig.Closed)
}

func TestReadRoundCancelled(t *testing.T) {
	hw, err := startSensors(gpio.NewFakeTrigger(), gpio.NewFakeEcho())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = readRound(ctx, hw.ranger, time.Hour)
	require.ErrorIs(t, err, context.Canceled)
}

func TestStartSensorsEchoFailure(t *testing.T) {
	trig := gpio.NewFakeTrigger()
	echo := gpio.NewFakeEcho()
	echo.StartError = os.ErrPermission

	_, err := startSensors(trig, echo)
	require.ErrorIs(t, err, os.ErrPermission)
	assert.True(t, trig.Closed, "trigger released on failure")
}

func TestWriteDistances(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeDistances(&buf, [3]uint32{12, 0, 3400}))
	assert.Equal(t, "Sensor 0: 12 mm\nSensor 1: 0 mm\nSensor 2: 3400 mm\n", buf.String())
	assert.Equal(t, 3, strings.Count(buf.String(), "\n"))
}
