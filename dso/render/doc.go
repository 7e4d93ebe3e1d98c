// Package render draws a live oscilloscope trace and its spectrum onto a pixel sink.
//
// The renderer never redraws the whole frame while acquisition runs. Every column of
// the display has a remembered row per track (Buffers) and that memory is the only
// reference used to erase what was drawn before:
//
//	raw sample → Resampler → Mapper → Buffers (read old, write new) → Sink
//
// Two passes share that pipeline. DrawRemaining walks newly acquired samples one
// column at a time; DrawBuffer walks the full width in one go and is used after
// trigger, wraparound, mode changes and in analysis mode.
//
// All calls run to completion on the caller's goroutine. Nothing in this package
// locks: acquisition and rendering must not run concurrently.
package render
