package api

import (
	"net"
	"net/http"
	"time"

	"github.com/angelmondragon/pintuan-backend/pkg/config"
)

// NewServer wraps the management handler with the admin listener settings.
// Manual runs may take a full cycle, hence the generous write timeout.
func NewServer(cfg config.AdminConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              net.JoinHostPort("", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}
}
