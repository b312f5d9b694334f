package httpapi

import "time"

// Config holds the HTTP surface settings.
type Config struct {
	Addr            string        `env:"HTTP_ADDR" envDefault:":8080"`
	AdminToken      string        `env:"ADMIN_TOKEN"`
	AllowedOrigins  []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"https://corporategiftsdubaii.ae,https://*.corporategiftsdubaii.ae"`
	RequestTimeout  time.Duration `env:"HTTP_REQUEST_TIMEOUT" envDefault:"20s"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	TrustProxy      bool          `env:"HTTP_TRUST_PROXY" envDefault:"false"`
}
