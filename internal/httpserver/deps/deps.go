package deps

import (
	"time"

	"github.com/MrSnakeDoc/hoarder/internal/logger"
	"github.com/MrSnakeDoc/hoarder/internal/service"
)

type Deps struct {
	Logger       logger.Logger
	Service      *service.Service // bookmark operations behind /api/v1
	StartTime    time.Time
	Version      string
	Commit       string
	BuildDate    string
	GoVersion    string
	TimeNow      func() time.Time // for testing, defaults to time.Now
	APIKeys      []string         // bearer tokens accepted on /api routes
	AllowedHosts []string         // Host headers allowed on /api routes, empty = any
	ProbeCIDRs   []string         // IPs allowed to access readyz
	TrustProxy   bool             // true if running behind a trusted reverse proxy

	CreateBurst        int // bookmark creations allowed at once per API key
	CreateRefillPerMin int // bookmark creations regained per minute per API key
}
