// Package service implements the per-user state containers: the session
// store, the entity stores for transactions, categories and profile, the
// dashboard aggregator, and the workspace that binds them together.
package service

// storeState is the explicit load lifecycle of an entity store.
// Stores start Uninitialized, transition to Loading on first access
// with a known user, and settle in Ready. A failed load still settles
// in Ready with an empty collection and a recorded error.
type storeState int

const (
	stateUninitialized storeState = iota
	stateLoading
	stateReady
)

func (s storeState) String() string {
	switch s {
	case stateLoading:
		return "loading"
	case stateReady:
		return "ready"
	default:
		return "uninitialized"
	}
}
