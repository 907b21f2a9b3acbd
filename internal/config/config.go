package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const configPathEnv = "MEDVERIFY_CONFIG"

// Config holds all settings for the verification backend. Values come from an
// optional YAML file pointed at by MEDVERIFY_CONFIG, with environment
// variables taking precedence over both file and defaults.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Network  NetworkConfig  `yaml:"network"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Auth     AuthConfig     `yaml:"auth"`
	Report   ReportConfig   `yaml:"report"`
	LogLevel string         `yaml:"logLevel"`
}

type ServerConfig struct {
	Port          string `yaml:"port"`
	AllowedOrigin string `yaml:"allowedOrigin"`
}

// NetworkConfig describes the anchor network this deployment verifies
// against.
type NetworkConfig struct {
	Name            string `yaml:"name"`
	ResolverURL     string `yaml:"resolverUrl"`
	CacheTTLSeconds int    `yaml:"cacheTtlSeconds"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type AuthConfig struct {
	Secret          string `yaml:"secret"`
	TokenTTLMinutes int    `yaml:"tokenTtlMinutes"`
}

// ReportConfig wires the optional scan-event reporting endpoint.
type ReportConfig struct {
	URL string `yaml:"url"`
}

// Load reads YAML configuration (if present) and applies environment
// overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Port = v
	}
	if v := os.Getenv("ALLOWED_ORIGIN"); v != "" {
		c.Server.AllowedOrigin = v
	}
	if v := os.Getenv("NETWORK_NAME"); v != "" {
		c.Network.Name = v
	}
	if v := os.Getenv("ANCHOR_RESOLVER_URL"); v != "" {
		c.Network.ResolverURL = v
	}
	if v := os.Getenv("ANCHOR_CACHE_TTL_SECONDS"); v != "" {
		if ttl, err := strconv.Atoi(v); err == nil && ttl > 0 {
			c.Network.CacheTTLSeconds = ttl
		}
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.URL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			c.Redis.DB = db
		}
	}
	if v := strings.TrimSpace(os.Getenv("AUTH_SECRET")); v != "" {
		c.Auth.Secret = v
	}
	if v := os.Getenv("ACCESS_TOKEN_TTL_MINUTES"); v != "" {
		if ttl, err := strconv.Atoi(v); err == nil && ttl > 0 {
			c.Auth.TokenTTLMinutes = ttl
		}
	}
	if v := os.Getenv("REPORT_URL"); v != "" {
		c.Report.URL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Server.Port != "" {
		base.Server.Port = override.Server.Port
	}
	if override.Server.AllowedOrigin != "" {
		base.Server.AllowedOrigin = override.Server.AllowedOrigin
	}
	if override.Network.Name != "" {
		base.Network.Name = override.Network.Name
	}
	if override.Network.ResolverURL != "" {
		base.Network.ResolverURL = override.Network.ResolverURL
	}
	if override.Network.CacheTTLSeconds > 0 {
		base.Network.CacheTTLSeconds = override.Network.CacheTTLSeconds
	}
	if override.Database.URL != "" {
		base.Database.URL = override.Database.URL
	}
	if override.Redis.Addr != "" {
		base.Redis = override.Redis
	}
	if override.Auth.Secret != "" {
		base.Auth.Secret = override.Auth.Secret
	}
	if override.Auth.TokenTTLMinutes > 0 {
		base.Auth.TokenTTLMinutes = override.Auth.TokenTTLMinutes
	}
	if override.Report.URL != "" {
		base.Report.URL = override.Report.URL
	}
	if override.LogLevel != "" {
		base.LogLevel = override.LogLevel
	}
	return base
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Port:          "8080",
			AllowedOrigin: "http://127.0.0.1:3000",
		},
		Network: NetworkConfig{
			Name:            "epipoc",
			CacheTTLSeconds: 60,
		},
		Auth: AuthConfig{
			TokenTTLMinutes: 480,
		},
		LogLevel: "info",
	}
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Server.Port)
}
