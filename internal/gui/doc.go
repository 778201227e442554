// Package gui is the window explorer built on raylib.
//
// Escape-time and trajectory fractals are rendered on the CPU by the software
// renderer and uploaded to a texture; shader fractals run their GLSL program
// over an offscreen target. Mouse, wheel and touch input all feed the same
// gesture engine. A shader that fails to link is replaced by a software
// fallback from the registry.
package gui
