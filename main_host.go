package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"touchdso/app"
	"touchdso/dso/profile"
	"touchdso/hal"
)

func main() {
	var cfg hal.HeadlessConfig
	var headless bool
	var profilePath string
	flag.BoolVar(&headless, "headless", false, "Run without a window.")
	flag.IntVar(&cfg.Hz, "hz", 60, "Tick rate in headless mode.")
	flag.Uint64Var(&cfg.Ticks, "ticks", 0, "Stop after N ticks in headless mode (0 = run forever).")
	flag.StringVar(&profilePath, "profile", "", "Scope profile (TOML); empty uses the built-in profile.")
	flag.IntVar(&cfg.Host.Scale, "scale", 2, "Window pixels per display pixel.")
	flag.Parse()

	p := profile.Default()
	if profilePath != "" {
		var err error
		p, err = profile.Load(profilePath)
		if err != nil {
			fatalf("%v", err)
		}
	}
	cfg.Host.Width = p.Display.Width
	cfg.Host.Height = p.Display.Height

	newApp := func(h hal.HAL) (func() error, error) {
		return app.NewWithConfig(h, app.Config{Profile: p, ProfilePath: profilePath})
	}

	if headless {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		if err := hal.RunHeadless(ctx, newApp, cfg); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			fatalf("%v", err)
		}
		return
	}

	if err := hal.RunWindow(cfg.Host, newApp); err != nil {
		fatalf("%v", err)
	}
}

func fatalf(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
