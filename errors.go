package calnder

import (
	"errors"

	"github.com/calnder/calnder-client/internal/fault"
)

// ErrBackPressure is returned when the client's internal shard queue is full.
var ErrBackPressure = errors.New("back-pressure (queue full)")

// IsBackPressure reports whether err is a back-pressure error.
func IsBackPressure(err error) bool { return errors.Is(err, ErrBackPressure) }

// ErrSessionActive is returned when opening a slot or event while an edit
// session is already open.
var ErrSessionActive = errors.New("an edit session is already open")

// ErrNoSession is returned by Save/Delete when no edit session is open.
var ErrNoSession = errors.New("no edit session open")

var errMissingToken = errors.New("token missing or expired")

// Failure-kind predicates, re-exported so callers compare against a single
// package instead of unwrapping fault values themselves.

// IsBusy reports a rejected concurrent mutation on a key with one in flight.
func IsBusy(err error) bool { return fault.Is(err, fault.Busy) }

// IsNotFound reports a mutation whose target no longer exists upstream.
func IsNotFound(err error) bool { return fault.Is(err, fault.NotFound) }

// IsUnauthenticated reports a missing or expired provider credential.
func IsUnauthenticated(err error) bool { return fault.Is(err, fault.Unauthenticated) }

// IsValidationFailed reports a draft rejected at the save boundary.
func IsValidationFailed(err error) bool { return fault.Is(err, fault.ValidationFailed) }

// IsNetworkFailure reports a request that could not complete.
func IsNetworkFailure(err error) bool { return fault.Is(err, fault.NetworkFailure) }

// IsAggregated reports a sync pass in which every source failed.
func IsAggregated(err error) bool { return fault.Is(err, fault.Aggregated) }
