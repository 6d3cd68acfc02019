package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg, err := NewConfig()
	assert.Nil(t, err)
	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.Equal(t, "1323", cfg.Port)
	assert.Equal(t, sslModeDisable, cfg.DBSSLMode)
}

func TestDSN(t *testing.T) {
	cfg := Config{
		DBHost: "db", DBPort: "5432", DBUser: "u", DBPassword: "p",
		DBName: "nest", DBSSLMode: "disable",
	}
	assert.Equal(t, "host=db user=u password=p dbname=nest port=5432 sslmode=disable", cfg.DSN())
}

func TestValidateRejectsBadSSLMode(t *testing.T) {
	err := validate(&Config{DBSSLMode: "maybe"})
	assert.NotNil(t, err)
}
