// Command alarmdiald is the cellular alarm dialler's control-core
// daemon: it bridges contact-closure inputs to SMS notification and
// accepts password-protected SMS commands to reconfigure itself, per
// the boot sequence and control loop in SPEC_FULL.md §4.9/§4.10.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/daemonp/alarmdiald/internal/atprotocol"
	"github.com/daemonp/alarmdiald/internal/config"
	"github.com/daemonp/alarmdiald/internal/control"
	"github.com/daemonp/alarmdiald/internal/homeassistant"
	"github.com/daemonp/alarmdiald/internal/inputs"
	"github.com/daemonp/alarmdiald/internal/log"
	"github.com/daemonp/alarmdiald/internal/persist"
	"github.com/daemonp/alarmdiald/internal/ringbuffer"
	"github.com/daemonp/alarmdiald/internal/telemetry"
	"github.com/daemonp/alarmdiald/internal/transport"
	"github.com/daemonp/alarmdiald/internal/validator"
	"github.com/daemonp/alarmdiald/internal/watchdog"
)

// ModemBootSettleTime is how long the daemon waits after power-cycling
// the modem before sending the initialisation script (spec.md §4.9).
const ModemBootSettleTime = 30 * time.Second

// TickInterval is the control loop's cooperative sleep per iteration.
const TickInterval = 10 * time.Millisecond

func main() {
	configFile := flag.String("config", "config.yml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	logger := log.NewLogger(cfg.Log)

	store := persist.NewStore(cfg.Persistence.Path)
	rec, ok := store.Load()
	dirty := !ok
	if dirty {
		logger.Warn("no valid persisted configuration found, starting from defaults")
	}

	tr, err := transport.Open(cfg.Serial.Port, cfg.Serial.Baud)
	if err != nil {
		logger.Fatal("opening serial transport %s: %v", cfg.Serial.Port, err)
	}
	defer tr.Close()

	if err := bootModem(tr, logger); err != nil {
		logger.Fatal("modem boot sequence failed: %v", err)
	}

	rb := ringbuffer.New(ringbuffer.MinCapacity)

	var inputPins []inputs.Pin
	for _, bcmPin := range cfg.GPIO.Inputs {
		inputPins = append(inputPins, inputs.NewRPIOPin(bcmPin))
	}
	scanner := inputs.New(inputPins, time.Second)

	feeder := watchdog.NewGPIOFeeder(cfg.GPIO.WatchdogFeed)
	resetIn := watchdog.NewResetInput()
	resetPin := inputs.NewRPIOPin(cfg.GPIO.PasswordReset)

	led := newHeartbeatLED(cfg.GPIO.HeartbeatLED)

	var pub telemetry.Publisher
	if cfg.MQTT.Enabled {
		mqttClient := telemetry.New(&cfg.MQTT, logger)
		if err := mqttClient.Connect(); err != nil {
			logger.Error("telemetry disabled, could not connect: %v", err)
		} else {
			pub = mqttClient
			defer mqttClient.Close()

			if cfg.HomeAssistant.Discovery {
				ha := homeassistant.New(&cfg.HomeAssistant, mqttClient, len(cfg.GPIO.Inputs), logger)
				ha.Start()
			}
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	engine := control.New(control.Config{
		Logger:         logger,
		Transport:      tr,
		RingBuffer:     rb,
		Scanner:        scanner,
		ResetInput:     resetIn,
		Feeder:         feeder,
		LED:            led,
		Store:          store,
		Validator:      validator.AcceptAll{},
		Telemetry:      pub,
		InitialRecord:  rec,
		InitiallyDirty: dirty,
		RebootHook: func() {
			logger.Error("rebooting to recover modem connectivity")
			os.Exit(1)
		},
	})

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return readLoop(ctx, tr, rb, logger)
	})

	g.Go(func() error {
		return controlLoop(ctx, engine, resetPin)
	})

	logger.Info("alarmdiald running")
	if err := g.Wait(); err != nil && ctx.Err() == nil {
		logger.Error("daemon exiting: %v", err)
		os.Exit(1)
	}
	logger.Info("shut down cleanly")
}

// bootModem power-cycles the modem and runs its fixed initialisation
// script using simple blocking line reads, before the ring-buffer
// reader goroutine is installed, matching spec.md §4.9's boot
// sequence.
func bootModem(tr *transport.SerialTransport, logger *log.Logger) error {
	logger.Info("power-cycling modem")
	if _, err := tr.Write([]byte(atprotocol.CmdReset)); err != nil {
		return fmt.Errorf("sending AT+CRESET: %w", err)
	}

	time.Sleep(ModemBootSettleTime)

	reader := bufio.NewReader(tr)
	for _, cmd := range atprotocol.BootScript {
		logger.Modem("-> %s", strings.TrimRight(cmd, "\r"))
		if _, err := tr.Write([]byte(cmd)); err != nil {
			return fmt.Errorf("sending %q: %w", cmd, err)
		}
		if err := waitForOK(reader, logger); err != nil {
			return fmt.Errorf("awaiting OK for %q: %w", cmd, err)
		}
	}
	return nil
}

func waitForOK(reader *bufio.Reader, logger *log.Logger) error {
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return err
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			continue
		}
		logger.Modem("<- %s", line)
		if line == "OK" {
			return nil
		}
		if line == "ERROR" {
			return fmt.Errorf("modem returned ERROR")
		}
	}
}

// readLoop is the reader goroutine standing in for the original
// firmware's UART RX interrupt handler: it is the ring buffer's sole
// writer.
func readLoop(ctx context.Context, tr transport.Transport, rb *ringbuffer.Buffer, logger *log.Logger) error {
	buf := make([]byte, 256)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		n, err := tr.Read(buf)
		if err != nil {
			return fmt.Errorf("reading from modem transport: %w", err)
		}
		if n > 0 {
			rb.Write(buf[:n])
		}
	}
}

// controlLoop drives Engine.Tick on the fixed cadence, the only
// blocking point in the steady-state loop (spec.md §5).
func controlLoop(ctx context.Context, engine *control.Engine, resetPin inputs.Pin) error {
	ticker := time.NewTicker(TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			engine.Tick(now)
			engine.CheckResetInput(!resetPin.Read(), now)
			if engine.Rebooting() {
				return nil
			}
		}
	}
}
