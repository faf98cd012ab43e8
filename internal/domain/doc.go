// Package domain defines the core types shared across the pipeline:
// scenarios, runs, and per-field flood statistics.
//
// Domain types carry no behavior beyond validation and derivation of
// simple values. Everything that touches the filesystem, the engine,
// or the database lives in the packages that orbit this one.
package domain
