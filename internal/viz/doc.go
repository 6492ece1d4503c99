// Package viz is the terminal render collaborator.
//
// [Model] is a Bubble Tea program that steps a simulator on every tick,
// then draws the resolved frame's snapshot on a braille [Canvas] through an
// orbiting [Camera]. [Picker] lists scene presets and opens a live view for
// the chosen one.
//
// # Key Bindings
//
//	U        - Upward impulse on every dynamic vertex
//	Space    - Pause/Resume simulation
//	Arrows   - Orbit the camera
//	+/-      - Zoom
//	T        - Cycle color themes
//	Q, Esc   - Quit
package viz
