package instance

import "os"

// GetID returns an identifier for this process, used to tag log lines
// when several instances run behind one load balancer. Platform-assigned
// names win over the hostname; "local" means a dev machine.
func GetID() string {
	if id := os.Getenv("DYNO"); id != "" {
		return id
	}
	if id := os.Getenv("HOSTNAME"); id != "" {
		return id
	}
	return "local"
}
