// Package backend holds the vocabulary shared by the execution backends and the
// orchestrator: which backend ran an attempt, the lifecycle state of each backend
// connection and the error taxonomy used to drive the fallback chain.
package backend

import (
	"sync/atomic"
)

type Kind int

const (
	Primary Kind = iota
	Sandbox
	StaticCheck
)

func (k Kind) String() string {
	switch k {
	case Primary:
		return "primary"
	case Sandbox:
		return "sandbox"
	case StaticCheck:
		return "static-check"
	default:
		return "unknown"
	}
}

type State int32

const (
	// Unknown - no connection attempt has been made yet.
	Unknown State = iota
	Connecting
	Ready
	// Unavailable - the attempt failed or the ready connection was lost. Only a
	// fresh attempt moves the state back to Connecting.
	Unavailable
)

func (s State) String() string {
	switch s {
	case Unknown:
		return "Unknown"
	case Connecting:
		return "Connecting"
	case Ready:
		return "Ready"
	case Unavailable:
		return "Unavailable"
	default:
		return "Invalid"
	}
}

// StateHolder is a goroutine safe holder of a backend State. Clients embed it
// and transition through it so readers never observe a torn value.
type StateHolder struct {
	value atomic.Int32
}

func (h *StateHolder) State() State { return State(h.value.Load()) }

// Begin marks the start of a fresh connection attempt.
func (h *StateHolder) Begin() { h.value.Store(int32(Connecting)) }

// Settle ends an attempt, moving Connecting to either Ready or Unavailable. It
// returns false when the attempt was no longer in progress.
func (h *StateHolder) Settle(ready bool) bool {
	next := Unavailable
	if ready {
		next = Ready
	}

	return h.value.CompareAndSwap(int32(Connecting), int32(next))
}

// Lose degrades a Ready backend to Unavailable after the connection was lost.
func (h *StateHolder) Lose() {
	h.value.CompareAndSwap(int32(Ready), int32(Unavailable))
	h.value.CompareAndSwap(int32(Connecting), int32(Unavailable))
}
