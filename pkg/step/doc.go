// Package step defines the static configuration of a single wizard step: its
// ordered field definitions, formatter and validator rule sets, the default
// next step and the ordered list of conditional forks that may override it.
//
// A Config is built once per controller and treated as immutable afterwards.
// Request handling always works on the deep copy returned by Config.Clone so
// concurrent requests never observe each other's mutations.
package step
