package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse([]byte("jwt_secret: s3cret\n"))
	require.NoError(t, err)
	assert.Equal(t, 8000, cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "mongodb://localhost:27017", cfg.MongoURI)
	assert.Equal(t, "solstice", cfg.MongoDB)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
	assert.Equal(t, 587, cfg.Mail.SMTPPort)
	assert.Equal(t, "subscription", cfg.Stripe.PaymentMode)
	assert.True(t, cfg.IsDev())
}

func TestParseFull(t *testing.T) {
	cfg, err := Parse([]byte(`
port: 9090
env: production
public_url: https://api.example.com/
frontend_url: https://app.example.com
cookie_domain: .example.com
jwt_secret: s3cret
allowed_origins:
  - https://app.example.com
cluster:
  enable: true
  workers: 4
stripe:
  secret_key: sk_test
  payment_mode: credit
  credit_value: 0.5
`))
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.False(t, cfg.IsDev())
	assert.Equal(t, "https://api.example.com", cfg.PublicURL, "trailing slash stripped")
	assert.True(t, cfg.Cluster.Enable)
	assert.Equal(t, 4, cfg.Cluster.Workers)
	assert.Equal(t, "credit", cfg.Stripe.PaymentMode)
	assert.Equal(t, 0.5, cfg.Stripe.CreditValue)
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte("jwt_secret: s\nprot: 9000\n"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"missing secret", "port: 8000\n"},
		{"bad env", "jwt_secret: s\nenv: staging\n"},
		{"bad port", "jwt_secret: s\nport: 70000\n"},
		{"bad payment mode", "jwt_secret: s\nstripe:\n  payment_mode: invoice\n"},
		{"negative workers", "jwt_secret: s\ncluster:\n  workers: -1\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.yaml))
			assert.Error(t, err)
		})
	}
}
