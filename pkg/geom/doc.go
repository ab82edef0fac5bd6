// Package geom provides the 2-D vector and rectangle types shared by the
// graph model and the layout engines.
//
// Positions, displacements and viewports all live in the same coordinate
// space. The y-axis grows downward, matching screen coordinates, but nothing
// in this package depends on that convention.
package geom
