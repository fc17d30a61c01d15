package httpapi

import "time"

type Config struct {
	Addr        string        `envconfig:"HTTP_ADDR" default:":8080"`
	CORSOrigins []string      `envconfig:"HTTP_CORS_ORIGINS" default:"http://localhost:3000,http://localhost:5173"`
	RateLimit   int           `envconfig:"HTTP_RATE_LIMIT" default:"10"`
	RateWindow  time.Duration `envconfig:"HTTP_RATE_WINDOW" default:"1m"`
	// Read X-Real-IP and X-Forwarded-For for rate limiting. Enable only
	// behind a reverse proxy that overwrites them.
	TrustProxy     bool          `envconfig:"HTTP_TRUST_PROXY" default:"false"`
	MaxUploadBytes int64         `envconfig:"HTTP_MAX_UPLOAD_BYTES" default:"5242880"`
	ReadTimeout    time.Duration `envconfig:"HTTP_READ_TIMEOUT" default:"15s"`
	// Generation runs several model calls back to back.
	WriteTimeout time.Duration `envconfig:"HTTP_WRITE_TIMEOUT" default:"10m"`
}

// maxJSONBody caps generation request bodies; documents travel inline.
func (c Config) maxJSONBody() int64 {
	if c.MaxUploadBytes <= 0 {
		return 5 << 20
	}
	return c.MaxUploadBytes + 64<<10
}
