// Package buildinfo carries the build stamp set with -ldflags -X.
package buildinfo

import "strings"

var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Short returns the version, else the commit, else "dev".
func Short() string {
	if Version != "" && Version != "dev" {
		return Version
	}
	if Commit != "" && Commit != "unknown" {
		return Commit
	}
	return "dev"
}

// Line formats name with every known stamp field, e.g.
// "dsosnap 1.2.0 (3f2a9c1, 2026-05-01)".
func Line(name string) string {
	var extra []string
	if Commit != "" && Commit != "unknown" && Commit != Short() {
		extra = append(extra, Commit)
	}
	if Date != "" && Date != "unknown" {
		extra = append(extra, Date)
	}
	s := name + " " + Short()
	if len(extra) > 0 {
		s += " (" + strings.Join(extra, ", ") + ")"
	}
	return s
}
