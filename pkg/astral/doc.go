// Package astral models the coarsening roles of the solar-system merger.
//
// Every vertex of a layer carries a [Body]. Before merging all bodies are
// asteroids; the merger turns some of them into suns (cluster centres),
// their direct neighbours into planets and the neighbours of planets into
// moons. Suns keep, for each dependent, the set of [Path] entries that lead
// from the dependent toward neighbouring systems, which is what the placer
// later uses to interpolate positions from a coarse layer back down to a
// finer one.
//
// Role-specific data is held in a tagged union: a sun owns a [SunSystem],
// planets and moons own a [Dependency], asteroids own neither. The accessors
// never expose a half-initialised state, so code reading a Body does not
// have to guess whether a map is present.
package astral
