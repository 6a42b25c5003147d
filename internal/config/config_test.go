package config

import (
	"testing"
	"time"
)

func validBase() Config {
	return Config{
		App:   AppConfig{Env: "local", Port: 8080},
		DB:    DBConfig{Host: "localhost", Port: 5432, User: "postgres", Password: "x", Name: "telemed", SSLMode: "disable"},
		Redis: RedisConfig{Host: "localhost", Port: 6379},
		Auth:  AuthConfig{JWTSecret: "secret"},
		Rooms: RoomsConfig{BaseURL: "https://rooms.internal"},
	}
}

func TestValidate_ReportsMissingRequired(t *testing.T) {
	c := Config{}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestValidate_ValidLocalConfig(t *testing.T) {
	c := validBase()
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestValidate_ProductionRequiresSSLMode(t *testing.T) {
	c := validBase()
	c.App.Env = "production"
	c.DB.SSLMode = ""
	c.Auth.JWTIssuer = "telemed"
	c.Auth.JWTAudience = "telemed-api"
	c.Rooms.APIKey = "k"
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for production without DB_SSLMODE")
	}
}

func TestValidate_ProductionRequiresRoomsAPIKey(t *testing.T) {
	c := validBase()
	c.App.Env = "production"
	c.DB.SSLMode = "require"
	c.Auth.JWTIssuer = "telemed"
	c.Auth.JWTAudience = "telemed-api"
	c.Rooms.APIKey = ""
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for production without ROOMS_API_KEY")
	}
}

func TestValidate_RejectsWildcardOriginInProduction(t *testing.T) {
	c := validBase()
	c.App.Env = "production"
	c.DB.SSLMode = "require"
	c.Auth.JWTIssuer = "telemed"
	c.Auth.JWTAudience = "telemed-api"
	c.Rooms.APIKey = "k"
	c.Signaling.AllowedOrigins = []string{"*"}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for wildcard origin in production")
	}
}

func TestValidate_RejectsNonHTTPRoomsURL(t *testing.T) {
	c := validBase()
	c.Rooms.BaseURL = "wss://rooms.internal"
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for non-http rooms url")
	}
}

func TestNormalize_AppliesDefaults(t *testing.T) {
	c := validBase()
	c.DB.SSLMode = ""
	c.Normalize()

	if c.DB.SSLMode != "disable" {
		t.Fatalf("expected sslmode disable default, got %q", c.DB.SSLMode)
	}
	if c.Auth.AccessTokenTTL != 15*time.Minute {
		t.Fatalf("expected access ttl default, got %v", c.Auth.AccessTokenTTL)
	}
	if c.Auth.RefreshTokenTTL <= c.Auth.AccessTokenTTL {
		t.Fatalf("expected refresh ttl to exceed access ttl")
	}
	if c.Rooms.RequestTimeout != 10*time.Second {
		t.Fatalf("expected rooms timeout default, got %v", c.Rooms.RequestTimeout)
	}
	if c.Signaling.WriteTimeout != 5*time.Second {
		t.Fatalf("expected signaling write timeout default, got %v", c.Signaling.WriteTimeout)
	}
}
