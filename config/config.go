package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds every externally supplied setting. It is read once in main
// and handed to the services that need it; nothing else touches os.Getenv.
type Config struct {
	Port      string
	GinMode   string
	PublicURL string

	MongoURI string
	MongoDB  string

	JWTSecret string

	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	MailFrom string

	CloudinaryURL string

	VAPIDPublicKey  string
	VAPIDPrivateKey string
	VAPIDSubscriber string
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:      getenv("PORT", "8080"),
		GinMode:   getenv("GIN_MODE", "debug"),
		PublicURL: getenv("PUBLIC_URL", "http://localhost:8080"),

		MongoURI: getenv("MONGODB_URI", "mongodb://127.0.0.1:27017"),
		MongoDB:  getenv("MONGODB_DB", "pixels"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		SMTPHost: os.Getenv("SMTP_HOST"),
		SMTPUser: os.Getenv("SMTP_USER"),
		SMTPPass: os.Getenv("SMTP_PASS"),
		MailFrom: getenv("MAIL_FROM", "Pixels Media <no-reply@pixelsmedia.app>"),

		CloudinaryURL: os.Getenv("CLOUDINARY_URL"),

		VAPIDPublicKey:  os.Getenv("VAPID_PUBLIC_KEY"),
		VAPIDPrivateKey: os.Getenv("VAPID_PRIVATE_KEY"),
		VAPIDSubscriber: getenv("VAPID_SUBSCRIBER", "mailto:admin@pixelsmedia.app"),
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET must be set")
	}

	port := getenv("SMTP_PORT", "587")
	p, err := strconv.Atoi(port)
	if err != nil {
		return nil, fmt.Errorf("invalid SMTP_PORT %q: %w", port, err)
	}
	cfg.SMTPPort = p

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
