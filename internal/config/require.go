package config

import "log"

func MustNonEmpty(value, envName string) {
	if value == "" {
		log.Fatalf("missing required env %s", envName)
	}
}

func MustNonEmptyBytes(value []byte, envName string) {
	if len(value) == 0 {
		log.Fatalf("missing required env %s", envName)
	}
}

// MustServer checks what cmd/server cannot start without.
func MustServer(cfg Config) {
	MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	MustNonEmptyBytes(cfg.JWTAccessSecret, "JWT_SECRET")
	MustNonEmptyBytes(cfg.JWTRefreshSecret, "JWT_REFRESH_SECRET")

	switch cfg.EventsDriver {
	case "kafka":
		if len(cfg.KafkaBrokers) == 0 {
			log.Fatalf("missing required env KAFKA_BROKERS for EVENTS_DRIVER=kafka")
		}
	case "rabbitmq":
		MustNonEmpty(cfg.RabbitURL, "RABBITMQ_URL")
	case "none", "":
	default:
		log.Fatalf("unknown EVENTS_DRIVER %q", cfg.EventsDriver)
	}
}
