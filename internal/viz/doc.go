// Package viz is the terminal explorer.
//
// It browses the fractal catalog and renders the selected fractal with
// half-block cells, two pixels per character, in 24-bit color:
//
//   - [Explorer]: the Bubble Tea model tying the registry, the software
//     renderer and the gesture engine together
//   - [Canvas]: half-block renderer for a pixel surface
//   - [Theme]: five built-in color schemes for the chrome
//
// # Key Bindings
//
//	arrows/hjkl - pan (browser: move)
//	+ / -       - zoom about the center
//	mouse       - drag to pan, wheel to zoom, click to probe a point
//	r           - reset to the home view
//	n           - next preset
//	p           - edit parameters
//	g           - toggle the render-time graph
//	e           - export the current frame
//	t           - cycle color themes
//	esc         - back to the catalog
//	q           - quit
//
// Shader fractals are listed but need the window explorer.
package viz
