package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/yourname/healthday/internal"
)

type Config struct {
	Env            string
	LogLevel       string
	StorageBackend string
	DBDSN          string
	DataFile       string
	SQLitePath     string
	TimeZone       string
	ParsePolicy    string
	CorrectionMode string
	Permissions    []internal.Permission
	AuthMode       string
	AuthToken      string
	AuthServiceURL string
	JWTSecret      string
	HTTPAddr       string
	CORSOrigins    []string
	MQTTBroker     string
	MQTTTopic      string
}

// LoadFile applies the dotenv file at path, if it exists, then reads the
// environment. Variables already set win over the file.
func LoadFile(path string) (*Config, error) {
	if err := loadDotEnv(path); err != nil {
		return nil, err
	}
	return FromEnv()
}

func FromEnv() (*Config, error) {
	perms, err := internal.ParsePermissions(getEnv("GRANTED_PERMISSIONS", "all"))
	if err != nil {
		return nil, err
	}
	c := &Config{
		Env:            getEnv("APP_ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		StorageBackend: getEnv("STORAGE_BACKEND", "file"),
		DBDSN:          getEnv("POSTGRES_DSN", ""),
		DataFile:       getEnv("DATA_FILE", "data/health_records.json"),
		SQLitePath:     getEnv("SQLITE_PATH", "data/health.db"),
		TimeZone:       getEnv("TIME_ZONE", "Local"),
		ParsePolicy:    getEnv("PARSE_POLICY", "lenient"),
		CorrectionMode: getEnv("CORRECTION_MODE", "additive"),
		Permissions:    perms,
		AuthMode:       getEnv("AUTH_MODE", "local"),
		AuthToken:      getEnv("AUTH_TOKEN", "MOCK-TOKEN"),
		AuthServiceURL: getEnv("AUTH_SERVICE_URL", ""),
		JWTSecret:      getEnv("JWT_SECRET", ""),
		HTTPAddr:       getEnv("HTTP_ADDR", ":8088"),
		CORSOrigins:    splitList(getEnv("CORS_ORIGINS", "*")),
		MQTTBroker:     getEnv("MQTT_BROKER", ""),
		MQTTTopic:      getEnv("MQTT_TOPIC", "health/telemetry/#"),
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	switch c.StorageBackend {
	case "file":
		if c.DataFile == "" {
			return errors.New("file storage requires DATA_FILE to be set")
		}
	case "sqlite":
		if c.SQLitePath == "" {
			return errors.New("sqlite storage requires SQLITE_PATH to be set")
		}
	case "postgres":
		if c.DBDSN == "" {
			return errors.New("POSTGRES_DSN is required when STORAGE_BACKEND=postgres")
		}
	default:
		return fmt.Errorf("STORAGE_BACKEND must be one of: file, sqlite, postgres (got %q)", c.StorageBackend)
	}
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return errors.New("APP_ENV must be one of: development, staging, production")
	}
	if c.ParsePolicy != "lenient" && c.ParsePolicy != "strict" {
		return errors.New("PARSE_POLICY must be one of: lenient, strict")
	}
	if c.CorrectionMode != "additive" && c.CorrectionMode != "replace" {
		return errors.New("CORRECTION_MODE must be one of: additive, replace")
	}
	if len(c.CORSOrigins) == 0 {
		return errors.New("CORS_ORIGINS must name at least one origin or \"*\"")
	}
	switch c.AuthMode {
	case "local":
		if c.AuthToken == "" {
			return errors.New("AUTH_TOKEN is required when AUTH_MODE=local")
		}
	case "remote":
		if c.AuthServiceURL == "" {
			return errors.New("AUTH_SERVICE_URL is required when AUTH_MODE=remote")
		}
	case "jwt":
		if c.JWTSecret == "" {
			return errors.New("JWT_SECRET is required when AUTH_MODE=jwt")
		}
	default:
		return errors.New("AUTH_MODE must be one of: local, remote, jwt")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves TimeZone. "Local" and "" mean the process zone.
func (c *Config) Location() (*time.Location, error) {
	if c.TimeZone == "" || c.TimeZone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("TIME_ZONE %q: %w", c.TimeZone, err)
	}
	return loc, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// loadDotEnv sets variables from path without overriding ones already set.
func loadDotEnv(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, l := range splitLines(string(data)) {
		l = strings.TrimSpace(l)
		if len(l) == 0 || l[0] == '#' {
			continue
		}
		kv := splitKV(l)
		if len(kv) != 2 {
			continue
		}
		if _, set := os.LookupEnv(kv[0]); !set {
			os.Setenv(kv[0], kv[1])
		}
	}
	return nil
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i, c := range s {
		if c == '\n' || c == '\r' {
			if i > start {
				lines = append(lines, s[start:i])
			}
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}

func splitKV(s string) []string {
	for i, c := range s {
		if c == '=' {
			return []string{strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+1:])}
		}
	}
	return nil
}
