package db

import (
	"strings"
	"testing"

	"github.com/zoynulabedin/snowlightv2-sub000/config"
)

func TestDSN(t *testing.T) {
	cfg := &config.Config{
		DBUser:     "fm",
		DBPassword: "s3cret",
		DBHost:     "db.internal",
		DBPort:     "3307",
		DBName:     "snowlight",
	}

	dsn := DSN(cfg)
	if !strings.HasPrefix(dsn, "fm:s3cret@tcp(db.internal:3307)/snowlight?") {
		t.Fatalf("unexpected DSN prefix: %s", dsn)
	}
	for _, want := range []string{"parseTime=true", "charset=utf8mb4"} {
		if !strings.Contains(dsn, want) {
			t.Errorf("DSN %q missing %q", dsn, want)
		}
	}
}
