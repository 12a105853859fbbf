package instance

import (
	"os"
	"strings"
)

const envWorkerID = "FRESHCART_WORKER_ID"

// GetID returns the worker instance identifier used to tag lock owners and logs.
func GetID() string {
	if id := strings.TrimSpace(os.Getenv(envWorkerID)); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "worker-0"
}
