// Package storedefs contains definitions of the store API.
//
// It is a separate package so that packages that only depend on the store API
// do not need to depend on the concrete implementation.
package storedefs

import (
	"errors"

	"src.adam.sh/pkg/vals"
)

// ErrNoSnapshot is returned by Snapshot when there is no snapshot with the
// given name.
var ErrNoSnapshot = errors.New("no such snapshot")

// Store is an interface satisfied by the storage service.
type Store interface {
	// SaveSnapshot saves the contributing values of a sheet under a name,
	// replacing any snapshot with the same name.
	SaveSnapshot(name string, d vals.Dict) error
	Snapshot(name string) (vals.Dict, error)
	DelSnapshot(name string) error
	// Snapshots returns the names of all snapshots, sorted.
	Snapshots() ([]string, error)
}
