package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const defaultDatabaseURL = "sqlite://caixa_senhas.db"

type Config struct {
	HTTPPort     string
	DatabaseURL  string // segredo: contém a apikey, logar só a versão redigida
	JWTSecret    string
	TokenTTL     time.Duration
	CookieSecure bool
	CORSOrigins  string
	Units        []string // unidades aceitas; vazio aceita qualquer nome

	AdminLogin           string
	AdminName            string
	AdminInitialPassword string

	LogLevel  string
	LogFormat string
}

// Load reads the optional .env file and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("arquivo .env inválido: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds the configuration from a lookup function.
func FromEnv(lookup func(string) string) (*Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(lookup(key)); v != "" {
			return v
		}
		return def
	}

	cfg := &Config{
		HTTPPort:             get("HTTP_PORT", "8080"),
		DatabaseURL:          get("DATABASE_URL", get("SQLITECLOUD_CONNECTION_STRING", defaultDatabaseURL)),
		JWTSecret:            get("JWT_SECRET", ""),
		CORSOrigins:          get("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
		Units:                splitList(get("UNIDADES", "Belo Horizonte,Contagem")),
		AdminLogin:           get("ADMIN_LOGIN", "admin"),
		AdminName:            get("ADMIN_NAME", "Administrador do Sistema"),
		AdminInitialPassword: lookup("ADMIN_INITIAL_PASSWORD"),
		LogLevel:             get("LOG_LEVEL", "info"),
		LogFormat:            get("LOG_FORMAT", "text"),
	}

	ttl, err := time.ParseDuration(get("TOKEN_TTL", "24h"))
	if err != nil || ttl <= 0 {
		return nil, fmt.Errorf("TOKEN_TTL inválido: %q", get("TOKEN_TTL", ""))
	}
	cfg.TokenTTL = ttl

	secure, err := strconv.ParseBool(get("COOKIE_SECURE", "false"))
	if err != nil {
		return nil, fmt.Errorf("COOKIE_SECURE inválido: %w", err)
	}
	cfg.CookieSecure = secure

	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET não definido; obrigatório em produção")
	}
	if len(cfg.JWTSecret) < 32 {
		return nil, errors.New("JWT_SECRET deve ter pelo menos 32 caracteres")
	}
	if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
		return nil, fmt.Errorf("LOG_LEVEL inválido: %w", err)
	}

	return cfg, nil
}

// Warnings lists non-fatal problems worth logging at startup.
func (c *Config) Warnings() []string {
	var w []string
	if c.DatabaseURL == defaultDatabaseURL {
		w = append(w, "DATABASE_URL não definido, usando banco SQLite local")
	}
	if c.CORSOrigins == "http://localhost:5173" {
		w = append(w, "CORS_ALLOWED_ORIGINS usando valor padrão, defina o domínio de produção")
	}
	if !c.CookieSecure {
		w = append(w, "COOKIE_SECURE=false, cookie de sessão trafega sem HTTPS")
	}
	return w
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
