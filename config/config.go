// Package config contains code to set the default values and read
// config files to be used throughout the whole application
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/spf13/pflag"
	v "github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	configPath        = pflag.String("config", "", "Path to a config.toml file")
	validLogLevels    = []string{"debug", "info", "warn", "error", "fatal"}
	validStorageTypes = []string{"s3", "memory"}
	validDrivers      = []string{"sqlite", "postgres"}
)

var envKeys = []string{
	"app.log_level",

	"host.port",
	"host.cors_origins",

	"jwt.secret",
	"jwt.issuer",
	"jwt.access_ttl",
	"jwt.refresh_ttl",

	"database.driver",
	"database.dsn",

	"storage.type",
	"storage.max_usage",

	"aws.access_key",
	"aws.secret_access_key",
	"aws.region",
	"aws.bucket",
	"aws.endpoint",
	"aws.path_style",

	"upload.max_size",
	"upload.signed_url_ttl",
	"upload.stream_url_ttl",

	"mail.enabled",
	"mail.host",
	"mail.port",
	"mail.sender_address",
	"mail.password",

	"redis.enabled",
	"redis.addr",
	"redis.password",
	"redis.db",
	"redis.name_ttl",

	"security.rate_limit",

	"cleanup.reset_codes",
	"cleanup.accounts",
}

func genSecret() string {
	b := make([]byte, 64)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// envName turns a key like "jwt.access_ttl" into "jwt_access_ttl"
func envName(key string) string {
	b := []byte(key)
	for i := range b {
		if b[i] == '.' {
			b[i] = '_'
		}
	}

	return string(b)
}

func setDefaults() {
	v.SetDefault("app.log_level", "info")

	v.SetDefault("host.port", 8080)
	v.SetDefault("host.cors_origins", []string{"*"})

	v.SetDefault("jwt.issuer", "storeit")
	v.SetDefault("jwt.access_ttl", "1h")
	v.SetDefault("jwt.refresh_ttl", "720h")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "database.db")

	v.SetDefault("storage.type", "s3")
	v.SetDefault("storage.max_usage", int64(2)<<30)

	v.SetDefault("aws.region", "us-east-1")

	v.SetDefault("upload.max_size", 50)
	v.SetDefault("upload.signed_url_ttl", "1h")
	v.SetDefault("upload.stream_url_ttl", "2h")

	v.SetDefault("mail.enabled", false)
	v.SetDefault("mail.port", 587)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.name_ttl", "10m")

	v.SetDefault("security.rate_limit", 5)

	v.SetDefault("cleanup.reset_codes", "5m")
	v.SetDefault("cleanup.accounts", "1h")
}

// Setup prepares everything config-related so that the app can
// start working. Function will return an error if something
// is critically wrong and the application can't run because of
// that.
func Setup() error {
	pflag.Parse()
	v.BindPFlags(pflag.CommandLine)

	if *configPath != "" {
		v.SetConfigFile(*configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
	}

	v.AutomaticEnv()

	for _, k := range envKeys {
		v.BindEnv(k, envName(k))
	}

	setDefaults()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(v.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config file, %w", err)
		}

		// Everything can come from the environment
		fmt.Println("[WARNING]: config.toml file is missing, using defaults and environment variables")
	}

	if v.GetString("jwt.secret") == "" {
		fmt.Println("WARNING: You haven't set a JWT secret, so it has been generated for you. Please set it as an environment variable or in the config.toml file.\nYour random JWT secret:\n\n" + genSecret() + "\n\nPaste it into your config.toml file.")
		os.Exit(0)
	}

	if err := validate(); err != nil {
		return err
	}

	if !v.GetBool("mail.enabled") {
		zap.L().Warn("Mail delivery is disabled, codes will only be logged")
	}

	v.Set("upload.max_size", v.GetInt64("upload.max_size")<<20)
	return nil
}

func validate() error {
	if !slices.Contains(validLogLevels, v.GetString("app.log_level")) {
		return errors.New("invalid log level provided")
	}

	if v.GetInt("host.port") <= 0 {
		return errors.New("invalid port provided")
	}

	if len(v.GetString("jwt.secret")) < 32 {
		return errors.New("jwt secret must be at least 32 characters long")
	}

	if v.GetDuration("jwt.access_ttl") <= 0 || v.GetDuration("jwt.refresh_ttl") <= 0 {
		return errors.New("token lifetimes must be bigger than 0")
	}

	if !slices.Contains(validDrivers, v.GetString("database.driver")) {
		return errors.New("invalid database driver provided")
	}

	if v.GetString("database.dsn") == "" {
		return errors.New("database dsn can't be empty")
	}

	switch v.GetString("storage.type") {
	case "s3":
		{
			if v.GetString("aws.access_key") == "" {
				return errors.New("aws access key can't be empty")
			}
			if v.GetString("aws.secret_access_key") == "" {
				return errors.New("secret access key can't be empty")
			}
			if v.GetString("aws.bucket") == "" {
				return errors.New("bucket can't be empty")
			}
		}
	case "memory":
	default:
		return errors.New("invalid storage type provided")
	}

	if !slices.Contains(validStorageTypes, v.GetString("storage.type")) {
		return errors.New("invalid storage type provided")
	}

	if v.GetInt64("storage.max_usage") <= 0 {
		return errors.New("max usage must be bigger than 0")
	}

	if v.GetInt("upload.max_size") <= 0 {
		return errors.New("max upload size must be bigger than 0")
	}

	if v.GetDuration("upload.signed_url_ttl") <= 0 || v.GetDuration("upload.stream_url_ttl") <= 0 {
		return errors.New("signed url lifetimes must be bigger than 0")
	}

	if v.GetBool("mail.enabled") {
		if v.GetString("mail.host") == "" {
			return errors.New("mail host can't be empty")
		}
		if v.GetString("mail.sender_address") == "" {
			return errors.New("mail sender address can't be empty")
		}
	}

	if v.GetBool("redis.enabled") && v.GetString("redis.addr") == "" {
		return errors.New("redis address can't be empty")
	}

	if v.GetInt("security.rate_limit") < 0 {
		return errors.New("rate limit can't be negative")
	}

	if v.GetDuration("cleanup.reset_codes") <= 0 || v.GetDuration("cleanup.accounts") <= 0 {
		return errors.New("cleanup intervals must be bigger than 0")
	}

	return nil
}
