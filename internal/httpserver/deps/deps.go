package deps

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/chatmark/internal/events"
	"github.com/MrSnakeDoc/chatmark/internal/logger"
	"github.com/MrSnakeDoc/chatmark/internal/service"
)

// Pinger reports whether the storage backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Logger         logger.Logger
	StartTime      time.Time
	Version        string
	Commit         string
	BuildDate      string
	GoVersion      string
	TimeNow        func() time.Time   // for testing, defaults to time.Now
	AllowedHosts   []string           // Host headers allowed to access the server
	AllowedCIDRS   []string           // IPs allowed to access healthz/readyz/infra endpoints
	AllowedOrigins []string           // CORS origins (extension and side panel origins)
	TrustProxy     bool               // true if running behind a trusted reverse proxy (e.g., cloudflared)
	Service        *service.Service   // Bookmark service
	Events         *events.Dispatcher // Debounced change notifications for SSE subscribers
	Store          Pinger             // Storage backend health
	Backend        string             // Storage backend name (memory, redis, sqlite)
	RequestTimeout time.Duration      // Per-request timeout for non-streaming routes
	Heartbeat      time.Duration      // SSE keep-alive interval
	MaxBodyBytes   int64              // Request body limit; documents can be large
	AuditTrigger   func() bool        // Triggers an orphan audit; false if one is pending (nil if disabled)
}

// Now returns the configured clock.
func (d Deps) Now() time.Time {
	if d.TimeNow != nil {
		return d.TimeNow()
	}
	return time.Now()
}
