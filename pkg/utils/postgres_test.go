package utils

import (
	"testing"
	"time"
)

func TestPostgresPoolConfig_Defaults(t *testing.T) {
	got := PostgresPoolConfig{}.withDefaults()

	if got.MaxOpenConns != 10 || got.MaxIdleConns != 5 {
		t.Fatalf("unexpected pool sizing: %+v", got)
	}
	if got.MaxIdleConns > got.MaxOpenConns {
		t.Fatalf("idle conns must not exceed open conns: %+v", got)
	}
	if got.ConnMaxLifetime != 30*time.Minute || got.ConnMaxIdleTime != 5*time.Minute {
		t.Fatalf("unexpected lifetimes: %+v", got)
	}
	if got.PingTimeout != 5*time.Second {
		t.Fatalf("unexpected ping timeout: %+v", got)
	}
}

func TestPostgresPoolConfig_ExplicitValuesKept(t *testing.T) {
	in := PostgresPoolConfig{
		MaxOpenConns:    50,
		MaxIdleConns:    25,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: 10 * time.Minute,
		PingTimeout:     time.Second,
	}
	if got := in.withDefaults(); got != in {
		t.Fatalf("explicit config must pass through, got %+v", got)
	}
}

func TestPostgresPoolConfig_NegativeValuesReplaced(t *testing.T) {
	in := PostgresPoolConfig{MaxOpenConns: -1, PingTimeout: -time.Second}
	got := in.withDefaults()
	if got.MaxOpenConns != 10 || got.PingTimeout != 5*time.Second {
		t.Fatalf("negative values must fall back to defaults, got %+v", got)
	}
}
