package instance

import (
	"os"

	"github.com/angelmondragon/sweetshop-backend/pkg/env"
)

// GetID returns the process instance identifier used in boot logs.
func GetID() string {
	if id := env.First("SWEETSHOP_INSTANCE_ID", "DYNO"); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "local"
}
