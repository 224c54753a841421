package config

import (
	"os"
	"strings"

	"github.com/redis/rueidis"
)

// InitRedis connects the event-stream client. REDIS_URL is optional; when
// unset the service runs without event delivery (the publisher drops
// events), which keeps local development self-contained.
func InitRedis() (rueidis.Client, error) {
	addr := os.Getenv("REDIS_URL")
	if addr == "" {
		return nil, nil
	}
	addr = strings.TrimPrefix(addr, "redis://")

	return rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  []string{addr},
		Password:     os.Getenv("REDIS_PASSWORD"),
		DisableCache: true,
	})
}
