// hplog.go - shared stderr logger construction for the bridge daemons

// Package hplog gives every daemon the same "[component] " prefixed logger
// instead of each cmd/ package wiring up log.New by hand.
package hplog

import (
	"log"
	"os"
)

// New returns a logger writing to stderr with a component-tagged prefix,
// timestamps enabled, matching the teacher's direct log.Printf use but
// centralized across six binaries instead of one.
func New(component string) *log.Logger {
	return log.New(os.Stderr, "["+component+"] ", log.LstdFlags)
}
