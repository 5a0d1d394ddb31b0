package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/eruption-linux/eruption-core"
	"github.com/eruption-linux/eruption-core/blend"
	"github.com/eruption-linux/eruption-core/canvas"
	"github.com/eruption-linux/eruption-core/control"
	"github.com/eruption-linux/eruption-core/device"
	"github.com/eruption-linux/eruption-core/input"
	"github.com/eruption-linux/eruption-core/logging"
	"github.com/eruption-linux/eruption-core/profile"
	"github.com/eruption-linux/eruption-core/vm"
	"github.com/eruption-linux/eruption-core/watchdog"
)

const banner = `
┌─┐┬─┐┬ ┬┌─┐┌┬┐┬┌─┐┌┐┌
├┤ ├┬┘│ │├─┘ │ ││ ││││
└─┘┴└─└─┘┴   ┴ ┴└─┘┘└┘

Linux user-space RGB driver and effect engine.
    Version: %s

`

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	var (
		configPath  = flag.String("c", "", "Configuration file path")
		profileName = flag.String("p", "", "Active profile name (without extension)")
		verbosity   = flag.Int("v", 0, "Verbosity level as an integer count (e.g. -v 2); the flag is not repeatable")
		listScripts = flag.Bool("list-scripts", false, "List accessible scripts in the configured script directories and exit")
		checkSyntax = flag.String("check-syntax", "", "Check that a script and its manifest are accessible, then exit")
	)
	flag.StringVar(configPath, "config", "", "Configuration file path")
	flag.StringVar(profileName, "profile", "", "Active profile name (without extension)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, banner, Version)
		flag.PrintDefaults()
	}
	flag.Parse()

	log := logging.New(os.Stderr, logging.LevelFromVerbosity(*verbosity))

	if term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprintf(os.Stderr, banner, Version)
	}

	cfg := profile.DefaultConfig()
	if *configPath != "" {
		loaded, err := profile.LoadConfig(*configPath)
		if err != nil {
			log.Warnf("configuration error, using defaults: %v", err)
		} else {
			cfg = loaded
		}
	}

	if *checkSyntax != "" {
		return runCheckSyntax(log, *checkSyntax)
	}
	if *listScripts {
		return runListScripts(log, cfg)
	}

	activeProfileName := cfg.Global.Profile
	if *profileName != "" {
		activeProfileName = *profileName
	}

	scriptPaths := flag.Args()

	return runDaemon(log, cfg, activeProfileName, scriptPaths)
}

// runCheckSyntax implements the "check-syntax" CLI flag this expansion
// adds (SPEC_FULL.md SUPPLEMENTED FEATURES; runListScripts below
// implements "list-scripts"), ported from the original source's
// eruption-keymap/eruptionctl clap subcommand conventions. It checks only
// that the script and its manifest are accessible; no script syntax is
// parsed.
func runCheckSyntax(log *logging.Logger, scriptPath string) int {
	if err := profile.IsScriptAccessible(scriptPath); err != nil {
		fmt.Fprintln(os.Stderr, logging.SuccessMessage("")+err.Error())
		return eruption.ExitScriptInaccessible
	}
	fmt.Println(logging.SuccessMessage(fmt.Sprintf("%s is accessible", scriptPath)))
	return eruption.ExitOK
}

func runListScripts(log *logging.Logger, cfg profile.Config) int {
	for _, dir := range cfg.ScriptDirs() {
		entries, err := os.ReadDir(dir)
		if err != nil {
			log.Warnf("reading script directory %q: %v", dir, err)
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".lua") {
				continue
			}
			scriptPath := filepath.Join(dir, entry.Name())
			if err := profile.IsScriptAccessible(scriptPath); err == nil {
				fmt.Println(scriptPath)
			}
		}
	}
	return eruption.ExitOK
}

// runDaemon wires every collaborator package into a Scheduler and runs it
// until SIGINT/SIGTERM, matching the exit-code contract of spec.md §6.
func runDaemon(log *logging.Logger, cfg profile.Config, profileName string, scriptPaths []string) int {
	activeProfile := resolveActiveProfile(log, cfg, profileName, scriptPaths)

	// spec.md §7: a script or manifest that fails the accessibility check
	// is fatal at startup (exit code 3), unlike a runtime LoadScript
	// message, which is just logged and ignored.
	for _, scriptPath := range activeProfile.ActiveScripts {
		if err := profile.IsScriptAccessible(scriptPath); err != nil {
			log.Errorf("%v", &eruption.ScriptAccessError{Path: scriptPath, Cause: err})
			return eruption.ExitScriptInaccessible
		}
	}

	descriptor, _ := device.Lookup(0, 0)
	handle := device.NewLoopbackHandle(descriptor, 144)
	if err := handle.SendInitSequence(); err != nil {
		log.Errorf("device init sequence failed: %v", err)
		return eruption.ExitDeviceOpenFailed
	}
	if err := handle.SetLEDInitPattern(); err != nil {
		log.Errorf("device LED init pattern failed: %v", err)
		return eruption.ExitDeviceOpenFailed
	}

	c := canvas.New(handle.NumKeys())
	barrier := canvas.NewBarrier()
	vmErrs := make(chan error, 64)
	bank := vm.NewBank(c, barrier, vmErrs)

	lockTracker := watchdog.NewLockTracker()
	c.SetTracker(lockTracker)
	wd := watchdog.New(lockTracker, watchdog.DefaultThreshold, watchdog.DefaultInterval, log)
	go wd.Run()
	defer wd.Stop()

	// The embedded scripting runtime is a black-box collaborator outside
	// this core's scope (spec.md §1); LoopbackScripter stands in for it
	// here the same way LoopbackHandle stands in for a concrete HID
	// driver, so the bank actually runs the active profile's scripts.
	loader := eruption.NewBankLoader(bank, func() vm.Scripter {
		return vm.NewLoopbackScripter(blend.Pixel{})
	})
	for i, scriptPath := range activeProfile.ActiveScripts {
		if err := loader.LoadInto(i, scriptPath); err != nil {
			log.Warnf("loading %q onto vm %d: %v", scriptPath, i, err)
		}
	}

	state := profile.NewActiveState(activeProfile)

	dispatcher := &input.Dispatcher{}
	inputQueue := input.NewQueue(256)
	frontend := control.NewQueue(control.DefaultQueueCapacity)
	dbusQueue := control.NewQueue(control.DefaultQueueCapacity)

	sched := eruption.New(c, barrier, bank, dispatcher, inputQueue, frontend, dbusQueue, handle, state, loader, log)

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		sched.RequestQuit()
		cancel()
	}()

	// The dedicated input thread (spec.md §4.4): no concrete HID keyboard
	// source is wired in, so LoopbackSource stands in for it the same way
	// LoopbackHandle and LoopbackScripter stand in for their own
	// out-of-scope collaborators.
	go func() {
		if err := inputQueue.Pump(ctx, input.LoopbackSource{}); err != nil && ctx.Err() == nil {
			log.Errorf("input source failed: %v", err)
		}
	}()

	dbus, err := control.NewDBusListener(dbusQueue, func() (float64, bool) {
		p := state.Profile()
		return p.Params.Brightness, p.Params.EnableSfx
	})
	if err != nil {
		log.Warnf("D-Bus control surface unavailable: %v", err)
	} else {
		defer dbus.Close()
	}

	if cfg.Frontend.Enabled {
		socketPath := filepath.Join(os.TempDir(), "eruption-frontend.sock")
		fe, err := control.ListenFrontEnd(socketPath, frontend, log)
		if err != nil {
			log.Warnf("front-end control surface unavailable: %v", err)
		} else {
			defer fe.Close()
			go func() {
				if err := fe.Serve(); err != nil {
					log.Warnf("front-end listener stopped: %v", err)
				}
			}()
		}
	}

	go func() {
		for err := range vmErrs {
			log.Errorf("%v", err)
		}
	}()

	if err := sched.Run(ctx); err != nil {
		log.Errorf("scheduler exited: %v", err)
		return eruption.ExitOK
	}
	return eruption.ExitOK
}

func resolveActiveProfile(log *logging.Logger, cfg profile.Config, profileName string, scriptPaths []string) profile.Profile {
	profilePath := filepath.Join(cfg.Global.ProfileDir, profileName+".profile")
	p, err := profile.Load(profilePath)
	if err != nil {
		log.Warnf("profile %q unreadable, using default: %v", profilePath, err)
		p = profile.Default()
	}
	if len(p.ActiveScripts) == 0 && len(scriptPaths) > 0 {
		p.ActiveScripts = scriptPaths
	}
	return p
}
