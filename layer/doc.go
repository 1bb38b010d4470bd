// Package layer implements intensity-driven layered playback.
//
// A Blender maps one intensity value through per-layer response curves to
// playback volumes. Each Channel owns one AudioHandle and decides which clip
// to play next, how to randomize pitch and volume, and runs fade and
// low-pass transitions on a Scheduler.
//
// Everything in this package runs on the caller's goroutine. Hosts call
// SetIntensity when the control value changes and Tick once per frame with
// the elapsed time in seconds.
package layer
