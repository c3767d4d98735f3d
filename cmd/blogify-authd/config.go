package main

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	auth "github.com/blogify/blogify-auth"
)

type config struct {
	signingKey    string
	issuer        string
	tokenTTL      int
	activationTTL int
	contextKey    string
	authScheme    string

	httpAddr string
	baseURL  string
	dsn      string
	logLevel string
	debug    bool
}

var _ auth.Config = (*config)(nil)

func loadConfig() *config {
	// Missing .env is fine, the environment may already be populated.
	_ = godotenv.Load()

	return &config{
		signingKey:    envStr("AUTH_SIGNING_KEY", ""),
		issuer:        envStr("AUTH_ISSUER", "blogify"),
		tokenTTL:      envInt("AUTH_TOKEN_TTL_MINUTES", 60),
		activationTTL: envInt("AUTH_ACTIVATION_TTL_MINUTES", 15),
		contextKey:    envStr("AUTH_CONTEXT_KEY", "principal"),
		authScheme:    envStr("AUTH_SCHEME", "Bearer"),
		httpAddr:      envStr("HTTP_ADDR", ":8080"),
		baseURL:       envStr("BASE_URL", "http://localhost:8080"),
		dsn:           envStr("DATABASE_DSN", "file:blogify.db?cache=shared&_pragma=foreign_keys(1)"),
		logLevel:      envStr("LOG_LEVEL", "info"),
		debug:         envStr("LOG_LEVEL", "info") == "debug",
	}
}

func (c *config) GetSigningKey() string        { return c.signingKey }
func (c *config) GetIssuer() string            { return c.issuer }
func (c *config) GetTokenExpiration() int      { return c.tokenTTL }
func (c *config) GetActivationExpiration() int { return c.activationTTL }
func (c *config) GetContextKey() string        { return c.contextKey }
func (c *config) GetAuthScheme() string        { return c.authScheme }

func (c *config) persistence() persistenceConfig {
	return persistenceConfig{dsn: c.dsn, debug: c.debug}
}

// persistenceConfig feeds the persistence client its connection options.
type persistenceConfig struct {
	dsn   string
	debug bool
}

func (p persistenceConfig) GetDSN() string                { return p.dsn }
func (p persistenceConfig) GetDriver() string             { return "sqlite" }
func (p persistenceConfig) GetServer() string             { return "" }
func (p persistenceConfig) GetDatabase() string           { return p.dsn }
func (p persistenceConfig) GetDebug() bool                { return p.debug }
func (p persistenceConfig) GetPingTimeout() time.Duration { return 5 * time.Second }
func (p persistenceConfig) GetOtelIdentifier() string     { return "" }

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
