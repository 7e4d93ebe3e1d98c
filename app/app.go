// Package app wires a profile, a HAL and the scope task into a step function for
// the host runners.
package app

import (
	"fmt"

	"touchdso/dso/profile"
	"touchdso/dso/tasks/scope"
	"touchdso/hal"
	"touchdso/internal/buildinfo"
)

type Config struct {
	// Profile is the scope profile; nil selects profile.Default.
	Profile *profile.Profile
	// ProfilePath is only used for the startup log line.
	ProfilePath string
}

// New starts the scope with the default profile.
func New(h hal.HAL) (func() error, error) {
	return NewWithConfig(h, Config{})
}

func NewWithConfig(h hal.HAL, cfg Config) (func() error, error) {
	p := cfg.Profile
	if p == nil {
		p = profile.Default()
	}
	log := h.Logger()
	if log != nil {
		src := cfg.ProfilePath
		if src == "" {
			src = "built-in"
		}
		log.WriteLineString(fmt.Sprintf("scope: %s, profile %s, %dx%d", buildinfo.Line("touchdso"), src, p.Display.Width, p.Display.Height))
	}

	t, err := scope.New(h.Display(), h.Input(), h.Time(), log, p)
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}
	return guard(h, t.Step), nil
}
