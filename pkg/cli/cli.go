// Package cli wires flags, startup checks and the event loop together.
package cli

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kamrankamilli/ptrscroll/pkg/config"
	"github.com/kamrankamilli/ptrscroll/pkg/emitter"
	"github.com/kamrankamilli/ptrscroll/pkg/engine"
	"github.com/kamrankamilli/ptrscroll/pkg/evdev"
	"github.com/kamrankamilli/ptrscroll/pkg/instance"
	"github.com/kamrankamilli/ptrscroll/pkg/internal/log"
	"github.com/kamrankamilli/ptrscroll/pkg/x11"
)

// Version of the ptrscroll binary.
var Version = "0.1.0"

// Fatal startup exit codes. Anything that would make synthetic input
// unreliable fails fast with its own code; there is no retry.
const (
	exitNoDisplay      = -1
	exitNoInput        = -2 // X extension missing or no readable input device
	exitBadVersion     = -3
	exitAlreadyRunning = -4
)

var settings config.Settings

var emitterName string

// RootCmd is the root command for ptrscroll.
var RootCmd = &cobra.Command{
	Use:   "ptrscroll",
	Short: "Convert pointer movement to scroll wheel events",
	Long: `ptrscroll converts X pointer movement (mouse, touchpad, trackpoint,
trackball) to scroll wheel events while a trigger key is held or toggled.`,
	Version:      Version,
	SilenceUsage: true,
	RunE:         run,
	Args:         cobra.NoArgs,
}

func init() {
	flags := RootCmd.Flags()

	flags.Uint32VarP(&settings.TriggerKeyCode, "key", "k", 64, "X keycode of the trigger key (64 is Alt_L on common keymaps)")
	flags.Uint32VarP(&settings.TriggerModifiers, "modifiers", "m", 0, "modifier bitmask that must be held with the trigger key (0 matches any)")
	flags.IntVarP(&settings.ScrollThreshold, "threshold", "s", 20, "pointer distance in pixels per scroll unit")
	flags.BoolVarP(&settings.AllowHorizontal, "horizontal", "H", false, "also translate horizontal motion")
	flags.BoolVar(&settings.AllowRepeats, "repeat", true, "emit one click per scroll unit instead of one per batch")
	flags.BoolVarP(&settings.ToggleMode, "toggle", "t", false, "toggle activation on each trigger press instead of holding")
	flags.BoolVarP(&settings.ReleaseTriggerBeforeScroll, "release-trigger", "r", false, "synthesize a trigger key release before the first scroll of an activation")
	flags.StringVar(&emitterName, "emitter", string(config.EmitterXTest), "scroll synthesis backend: xtest, uinput or robotgo")
	flags.StringVar(&settings.Display, "display", "", "X display to connect to (defaults to $DISPLAY)")
	flags.StringVar(&settings.LockFile, "lock-file", instance.DefaultPath("ptrscroll.lock"), "single-instance lock file")
	flags.BoolVarP(&config.Debug, "debug", "d", false, "enable debug logging")
}

func run(cmd *cobra.Command, args []string) error {
	settings.EmitterBackend = config.Emitter(emitterName)
	if err := settings.Validate(); err != nil {
		return err
	}

	lock, err := instance.Acquire(settings.LockFile)
	if err != nil {
		if errors.Is(err, instance.ErrAlreadyRunning) {
			fatal(exitAlreadyRunning, err)
		}
		return err
	}

	x, err := x11.Open(settings.Display)
	if err != nil {
		lock.Release()
		switch {
		case errors.Is(err, x11.ErrNoDisplay):
			fatal(exitNoDisplay, err)
		case errors.Is(err, x11.ErrExtensionMissing):
			fatal(exitNoInput, err)
		case errors.Is(err, x11.ErrVersionTooOld):
			fatal(exitBadVersion, err)
		}
		return err
	}

	// Open the device scan before the emitter exists, so a uinput-created
	// virtual device can never be picked up as an input source.
	source, err := evdev.Open(emitter.VirtualDeviceName)
	if err != nil {
		lock.Release()
		x.Close()
		if errors.Is(err, evdev.ErrNoDevices) {
			fatal(exitNoInput, err)
		}
		return err
	}

	em, err := emitter.New(settings.EmitterBackend, x, settings.TriggerKeyCode)
	if err != nil {
		source.Close()
		lock.Release()
		x.Close()
		return err
	}

	eng, err := engine.New(&engine.Opts{
		Settings: settings,
		Source:   source,
		Pointer:  x,
		Emitter:  em,
	})
	if err != nil {
		source.Close()
		emitter.Close(em)
		lock.Release()
		x.Close()
		return err
	}

	// On SIGINT/SIGTERM only close the event source. Run then returns on
	// the main goroutine, which owns all remaining teardown; the engine is
	// never touched from here.
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		s := <-sig
		log.Infof("received %s, shutting down", s)
		source.Close()
	}()

	log.Infof("ptrscroll %s listening (trigger keycode %d, threshold %dpx, emitter %s)",
		Version, settings.TriggerKeyCode, settings.ScrollThreshold, settings.EmitterBackend)

	err = eng.Run()
	if errors.Is(err, evdev.ErrClosed) {
		err = nil
	}
	eng.Deactivate()
	emitter.Close(em)
	lock.Release()
	x.Close()
	return err
}

func fatal(code int, err error) {
	log.Fatalf(code, "%s", err)
}
