package instance

import (
	"os"
	"strings"
)

const idEnv = "PINTUAN_INSTANCE_ID"

// ID identifies this process among scheduler replicas. It falls back to the
// hostname, which is the pod name on Kubernetes.
func ID() string {
	if id := strings.TrimSpace(os.Getenv(idEnv)); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "closer-0"
}
