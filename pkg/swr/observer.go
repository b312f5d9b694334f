package swr

import "time"

// Outcome describes how a lookup was answered.
type Outcome string

const (
	OutcomeHit   Outcome = "hit"   // fresh value served
	OutcomeStale Outcome = "stale" // stale value served, revalidation may run
	OutcomeMiss  Outcome = "miss"  // no value, caller waits for a fetch
	OutcomeStore Outcome = "store" // miss answered by the second-level store
)

// Observer receives cache events. Implementations must be safe for concurrent use.
type Observer interface {
	Lookup(key Key, outcome Outcome)
	Fetched(key Key, took time.Duration, err error)
}

type nopObserver struct{}

func (nopObserver) Lookup(Key, Outcome) {}
func (nopObserver) Fetched(Key, time.Duration, error) {}
