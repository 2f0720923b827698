// Package csp implements the constraint-satisfaction core: domain
// computation, the chain tree and shadow pruning, AC-3 propagation,
// backtracking search, and the best-effort fallback (spec §4.3-§4.7,
// components C4-C8).
package csp

import (
	"github.com/motioneffector/autoplanner/internal/reflow/instance"
)

// Key identifies a candidate instance as a CSP variable. Instance values
// carry pointer fields, so we key domains/assignments on the
// (seriesID, date) pair that uniquely identifies a generated instance
// (spec §3: instances are produced one per (series, date) pair).
type Key struct {
	SeriesID string
	Date     string
}

// KeyOf derives the CSP key for an instance.
func KeyOf(i instance.Instance) Key {
	return Key{SeriesID: i.SeriesID, Date: i.Date.String()}
}
