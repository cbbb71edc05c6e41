package config

import (
	"os"
	"strings"
	"time"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr          string
	JWTSigningKey string
}

// Chain captures the custody chain identities and seed participants.
type Chain struct {
	OrchestratorIdentity string
	VendorAdmin          string
	ProducerAdmin        string
	// SeedVendors are registered in the vendor registry at startup so a
	// fresh deployment can accept assets without a manual admin call.
	SeedVendors []string
}

// Redis captures verdict cache configuration. An empty URL disables the
// cache.
type Redis struct {
	URL          string
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	VerdictTTL   time.Duration
}

// Postgres captures the durable asset index configuration. An empty DSN
// keeps the index in memory.
type Postgres struct {
	DSN string
}

// Kafka captures audit publishing configuration. No brokers disables audit
// publishing.
type Kafka struct {
	Brokers []string
	Topic   string
}

// Config is the full application configuration.
type Config struct {
	Server   Server
	Chain    Chain
	Redis    Redis
	Postgres Postgres
	Kafka    Kafka
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	addr := os.Getenv("CUSTODIA_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	orchestrator := os.Getenv("CUSTODIA_ORCHESTRATOR_IDENTITY")
	if orchestrator == "" {
		orchestrator = "0x0000000000000000000000000000000000000001"
	}

	verdictTTL := 5 * time.Minute
	if raw := os.Getenv("CUSTODIA_VERDICT_TTL"); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil {
			verdictTTL = parsed
		}
	}

	return Config{
		Server: Server{
			Addr:          addr,
			JWTSigningKey: jwtSigningKey,
		},
		Chain: Chain{
			OrchestratorIdentity: orchestrator,
			VendorAdmin:          envOr("CUSTODIA_VENDOR_ADMIN", orchestrator),
			ProducerAdmin:        envOr("CUSTODIA_PRODUCER_ADMIN", orchestrator),
			SeedVendors:          splitList(os.Getenv("CUSTODIA_SEED_VENDORS")),
		},
		Redis: Redis{
			URL:          os.Getenv("CUSTODIA_REDIS_URL"),
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			VerdictTTL:   verdictTTL,
		},
		Postgres: Postgres{
			DSN: os.Getenv("CUSTODIA_POSTGRES_DSN"),
		},
		Kafka: Kafka{
			Brokers: splitList(os.Getenv("CUSTODIA_KAFKA_BROKERS")),
			Topic:   envOr("CUSTODIA_KAFKA_TOPIC", "custody.audit"),
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
