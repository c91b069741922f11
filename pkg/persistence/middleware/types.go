// Package middleware decorates a ports.RunStore with at-rest protections for
// ticket records: PII masking and envelope encryption.
package middleware

import "github.com/aretw0/ticketflow/pkg/ports"

// Middleware allows wrapping a RunStore to add behavior.
type Middleware func(ports.RunStore) ports.RunStore

// Chain applies middlewares so that the first one sees records first on Save.
func Chain(store ports.RunStore, mws ...Middleware) ports.RunStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
