// Package middleware wraps a ports.LeadStore to transform lead records on
// their way to and from the backend.
package middleware

import "github.com/aretw0/leadflow/pkg/ports"

// Middleware allows wrapping a LeadStore to add behavior.
type Middleware func(ports.LeadStore) ports.LeadStore

// Chain applies mws so that the first one sees a record first on Save.
func Chain(store ports.LeadStore, mws ...Middleware) ports.LeadStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
