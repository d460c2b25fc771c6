package config

import (
	"testing"

	v "github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func validConfig(t *testing.T) {
	t.Helper()

	v.Reset()
	t.Cleanup(v.Reset)

	setDefaults()
	v.Set("jwt.secret", "0123456789abcdef0123456789abcdef")
	v.Set("aws.access_key", "key")
	v.Set("aws.secret_access_key", "secret")
	v.Set("aws.bucket", "storeit")
}

func TestValidate_Defaults(t *testing.T) {
	validConfig(t)

	assert.NoError(t, validate())
}

func TestValidate_MemoryStorageNeedsNoBucket(t *testing.T) {
	validConfig(t)
	v.Set("storage.type", "memory")
	v.Set("aws.bucket", "")

	assert.NoError(t, validate())
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  any
		msg  string
	}{
		{"log level", "app.log_level", "verbose", "invalid log level provided"},
		{"port", "host.port", 0, "invalid port provided"},
		{"short secret", "jwt.secret", "short", "jwt secret must be at least 32 characters long"},
		{"driver", "database.driver", "mysql", "invalid database driver provided"},
		{"storage type", "storage.type", "local", "invalid storage type provided"},
		{"bucket", "aws.bucket", "", "bucket can't be empty"},
		{"max usage", "storage.max_usage", 0, "max usage must be bigger than 0"},
		{"upload size", "upload.max_size", -1, "max upload size must be bigger than 0"},
		{"url ttl", "upload.signed_url_ttl", "0s", "signed url lifetimes must be bigger than 0"},
		{"rate limit", "security.rate_limit", -1, "rate limit can't be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			validConfig(t)
			v.Set(tt.key, tt.val)

			assert.EqualError(t, validate(), tt.msg)
		})
	}
}

func TestValidate_MailNeedsHost(t *testing.T) {
	validConfig(t)
	v.Set("mail.enabled", true)

	assert.EqualError(t, validate(), "mail host can't be empty")
}

func TestEnvName(t *testing.T) {
	assert.Equal(t, "jwt_access_ttl", envName("jwt.access_ttl"))
	assert.Equal(t, "app_log_level", envName("app.log_level"))
}
