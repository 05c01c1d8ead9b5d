// Command alarm-station runs the gas and over-temperature alarm controller:
// it samples the sensors, drives the siren and LEDs, services the keypad and
// the operator console, and optionally forwards events to MQTT.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/alarm-station/internal/analog"
	"github.com/sweeney/alarm-station/internal/clock"
	"github.com/sweeney/alarm-station/internal/config"
	"github.com/sweeney/alarm-station/internal/console"
	"github.com/sweeney/alarm-station/internal/gpio"
	"github.com/sweeney/alarm-station/internal/log"
	"github.com/sweeney/alarm-station/internal/logic"
	"github.com/sweeney/alarm-station/internal/mqtt"
	"github.com/sweeney/alarm-station/internal/status"
	"github.com/sweeney/alarm-station/internal/web"
)

func main() {
	configPath := flag.String("config", "", "YAML configuration file (built-in defaults if empty)")
	debug := flag.Bool("debug", false, "Development logging")
	printState := flag.Bool("print-state", false, "Print one reading of every input and exit")
	broker := flag.String("broker", "", "MQTT broker address, overrides the config file")
	consoleDev := flag.String("console", "", `Console serial device, overrides the config file ("-" for stdin)`)
	httpAddr := flag.String("http", "", `HTTP status address, overrides the config file ("-" disables)`)

	flag.Parse()

	cfg, loadErr := config.Load(*configPath)
	if err := log.Init(*debug || cfg.Debug); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if loadErr != nil {
		log.Fatalf("config load failed: %v", loadErr)
	}
	applyFlags(&cfg, *broker, *consoleDev, *httpAddr)
	if err := config.Validate(&cfg); err != nil {
		log.Fatalf("config validation failed: %v", err)
	}

	if err := run(cfg, *printState); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

// applyFlags lets command-line flags override the loaded configuration.
func applyFlags(cfg *config.Config, broker, consoleDev, httpAddr string) {
	if broker != "" {
		cfg.MQTT.Broker = broker
	}
	switch consoleDev {
	case "":
	case "-":
		cfg.Console.Device = ""
	default:
		cfg.Console.Device = consoleDev
	}
	switch httpAddr {
	case "":
	case "-":
		cfg.HTTP.Listen = ""
	default:
		cfg.HTTP.Listen = httpAddr
	}
}

func run(cfg config.Config, printState bool) error {
	// Initialize GPIO
	board, err := gpio.NewRealBoard(cfg.Pins())
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer board.Close()

	// Initialize sensors
	sensors, err := analog.NewModbusReader(cfg.SensorConfig())
	if err != nil {
		return fmt.Errorf("init sensors: %w", err)
	}
	defer sensors.Close()

	// Print state mode
	if printState {
		return printInputs(os.Stdout, board, sensors)
	}

	// Operator console: serial port, or the terminal
	var in io.Reader = os.Stdin
	var out io.Writer = os.Stdout
	if cfg.Console.Device != "" {
		port, err := console.OpenSerial(cfg.Console.Device, cfg.Console.Baud)
		if err != nil {
			return err
		}
		defer port.Close()
		in, out = port, port
	}
	shell := console.New(in, out)

	// Initialize MQTT (optional)
	var publisher mqtt.Publisher = mqtt.NopPublisher{}
	var mqttStatus mqtt.ConnectionStatus = mqtt.NopPublisher{}
	if cfg.MQTT.Broker != "" {
		p, err := mqtt.NewRealPublisher(cfg.MQTT.Broker, cfg.MQTT.BufferSize)
		if err != nil {
			return fmt.Errorf("init mqtt: %w", err)
		}
		publisher, mqttStatus = p, p
	}
	defer publisher.Close()

	clk := clock.New(nil)
	startTime := clk.Now()
	ctrl := logic.NewController(cfg.Params(), startTime)

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(startTime, statusConfig(cfg), clk.Now)
	tracker.Update(ctrl.View())
	tracker.SetMQTTConnected(mqttStatus.IsConnected())

	// Start HTTP status server
	if cfg.HTTP.Listen != "" {
		srv := web.New(cfg.HTTP.Listen, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Errorw("http server error", "error", err)
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			srv.Shutdown(ctx)
		}()
		log.Infow("http status server listening", "addr", cfg.HTTP.Listen)
	}

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Warnw("failed to publish startup event", "error", err)
	}

	log.Infow("started",
		"tick", cfg.Tick,
		"debounce", cfg.Alarm.Debounce,
		"sensors", cfg.Sensors.Transport+" "+cfg.Sensors.Address,
		"console", consoleName(cfg.Console.Device),
		"broker", cfg.MQTT.Broker,
		"heartbeat", cfg.MQTT.Heartbeat)

	shell.Banner(ctrl.Code())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	commands := make(chan console.Command)
	go func() {
		if err := shell.Run(ctx, commands); err != nil && err != context.Canceled {
			log.Errorw("console reader stopped", "error", err)
		}
	}()

	ticker := time.NewTicker(cfg.Tick)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	st := &station{
		ctrl:       ctrl,
		board:      board,
		sensors:    sensors,
		shell:      shell,
		clock:      clk,
		publisher:  publisher,
		mqttStatus: mqttStatus,
		tracker:    tracker,
		heartbeat:  cfg.MQTT.Heartbeat,
	}
	return runLoop(st, ticker.C, commands, sigCh)
}

// station bundles what the control loop drives.
type station struct {
	ctrl       *logic.Controller
	board      gpio.Board
	sensors    analog.Reader
	shell      *console.Shell
	clock      console.Clock
	publisher  mqtt.Publisher
	mqttStatus mqtt.ConnectionStatus
	tracker    *status.Tracker
	heartbeat  time.Duration
}

func runLoop(st *station, tick <-chan time.Time, commands <-chan console.Command, sig <-chan os.Signal) error {
	for {
		select {
		case s := <-sig:
			log.Infow("shutting down", "signal", s.String())
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			st.refreshStatus()
			snap := st.tracker.Snapshot()
			event := mqtt.SystemEvent{
				Timestamp:  snap.Now,
				Event:      "SHUTDOWN",
				Reason:     signalName,
				Retained:   true,
				RawPayload: status.FormatStatusEvent(snap, "SHUTDOWN", signalName),
			}
			if err := st.publisher.PublishSystem(event); err != nil {
				log.Warnw("failed to publish shutdown event", "error", err)
			}
			return nil

		case cmd := <-commands:
			log.Debugw("console command", "key", string(cmd.Key))
			st.shell.Handle(cmd, st.ctrl, st.clock)
			if err := st.board.Apply(st.ctrl.Actuators()); err != nil {
				log.Errorw("gpio write error", "error", err)
			}
			st.refreshStatus()

		case <-tick:
			st.step()
		}
	}
}

// step runs one control tick. Input errors skip the tick.
func (st *station) step() {
	now := st.clock.Now()

	test, err := st.board.ReadTestButton()
	if err != nil {
		log.Warnw("gpio read error", "error", err)
		return
	}
	sample, err := st.sensors.Read()
	if err != nil {
		log.Warnw("sensor read error", "error", err)
		return
	}

	var scanErr error
	out := st.ctrl.Tick(logic.Input{
		TempRaw: sample.Temp,
		GasRaw:  sample.Gas,
		Test:    test,
		Time:    now,
		Scan: func() logic.Key {
			k, err := st.board.ScanKeypad()
			if err != nil {
				scanErr = err
				return logic.NoKey
			}
			return k
		},
	})
	if scanErr != nil {
		log.Warnw("keypad scan error", "error", scanErr)
	}

	if err := st.board.Apply(out.Actuators); err != nil {
		log.Errorw("gpio write error", "error", err)
	}

	st.shell.Report(out, st.ctrl)
	if out.TestActivated {
		log.Infow("alarm test activated")
	}
	switch out.Code {
	case logic.CodeAccepted:
		log.Infow("alarm deactivated from keypad")
	case logic.CodeRejected:
		log.Warnw("incorrect code from keypad", "locked_out", st.ctrl.LockedOut())
	}

	for _, r := range out.Records {
		log.Infow("event", "label", r.Label, "time", r.Time().UTC().Format(time.RFC3339))
		if err := st.publisher.Publish(r); err != nil {
			log.Warnw("publish error", "error", err)
			// Don't crash on publish failure
		}
	}

	// Check for heartbeat
	if hb := st.ctrl.CheckHeartbeat(now, st.heartbeat); hb != nil {
		log.Infow("heartbeat",
			"uptime", hb.Uptime,
			"alarm_on", hb.Counts.AlarmOn,
			"gas_det_on", hb.Counts.GasOn,
			"over_temp_on", hb.Counts.OverTempOn,
			"incorrect_codes", hb.Counts.IncorrectCodes)

		st.refreshStatus()
		snap := st.tracker.Snapshot()
		hbEvent := mqtt.SystemEvent{
			Timestamp:  hb.Timestamp,
			Event:      "HEARTBEAT",
			RawPayload: status.FormatStatusEvent(snap, "HEARTBEAT", ""),
		}
		if err := st.publisher.PublishSystem(hbEvent); err != nil {
			log.Warnw("heartbeat publish error", "error", err)
		}
		return
	}

	st.refreshStatus()
}

func (st *station) refreshStatus() {
	st.tracker.Update(st.ctrl.View())
	if st.mqttStatus != nil {
		st.tracker.SetMQTTConnected(st.mqttStatus.IsConnected())
	}
}

// printInputs reads every input once.
func printInputs(w io.Writer, board gpio.Board, sensors analog.Reader) error {
	test, err := board.ReadTestButton()
	if err != nil {
		return fmt.Errorf("read test button: %w", err)
	}
	key, err := board.ScanKeypad()
	if err != nil {
		return fmt.Errorf("scan keypad: %w", err)
	}
	s, err := sensors.Read()
	if err != nil {
		return fmt.Errorf("read sensors: %w", err)
	}
	fmt.Fprintf(w, "TEST: %s, KEY: %s, TEMP: %.3f (%.2f °C), GAS: %.3f\n",
		stateString(test), key, s.Temp, logic.LM35Celsius(s.Temp), s.Gas)
	return nil
}

func statusConfig(cfg config.Config) status.Config {
	return status.Config{
		TickMs:        cfg.Tick.Milliseconds(),
		DebounceMs:    cfg.Alarm.Debounce.Milliseconds(),
		HeartbeatMs:   cfg.MQTT.Heartbeat.Milliseconds(),
		GasThreshold:  cfg.Alarm.GasThreshold,
		OverTempLevel: cfg.Alarm.OverTempLevel,
		Sensors:       cfg.Sensors.Transport + " " + cfg.Sensors.Address,
		Broker:        cfg.MQTT.Broker,
	}
}

func consoleName(device string) string {
	if device == "" {
		return "stdin"
	}
	return device
}

func stateString(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}
