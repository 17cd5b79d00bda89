package env

import (
	"github.com/denisbrodbeck/machineid"
)

const appID = "dlcf"

// MachineID retrieves an ID identifying the machine, hashed with the
// application name so the raw machine ID is never published. It falls back
// to "local" when the platform has no machine ID.
func MachineID() string {
	id, err := machineid.ProtectedID(appID)
	if err != nil {
		return "local"
	}
	if len(id) > 12 {
		id = id[:12]
	}
	return id
}
