// Package config provides centralized configuration management
// for the infra-nli services. It supports loading from YAML files,
// environment variables, and AWS Secrets Manager (for Lambda).
package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"gopkg.in/yaml.v3"

	"github.com/infra-nli/internal/pricing"
)

// Config holds all application configuration
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Cache   CacheConfig   `yaml:"cache"`
	Engine  EngineConfig  `yaml:"engine"`
	Logging LoggingConfig `yaml:"logging"`

	// Warnings lists settings load replaced with defaults
	Warnings []string `yaml:"-"`
}

// ServerConfig holds server-related settings
type ServerConfig struct {
	Port         int             `yaml:"port"`
	ReadTimeout  time.Duration   `yaml:"read_timeout"`
	WriteTimeout time.Duration   `yaml:"write_timeout"`
	MaxBodyBytes int64           `yaml:"max_body_bytes"`
	APIKey       string          `yaml:"api_key"`
	RateLimit    RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig bounds requests per client IP
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute"`
	Burst             int `yaml:"burst"`
}

// CacheConfig holds response cache settings
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	Size    int           `yaml:"size"`
	TTL     time.Duration `yaml:"ttl"`
}

// EngineConfig holds compiler settings
type EngineConfig struct {
	MaxCommandLength  int           `yaml:"max_command_length"`
	Timeout           time.Duration `yaml:"timeout"`
	Region            string        `yaml:"region"`
	KubernetesVersion string        `yaml:"kubernetes_version"`
	NodeInstanceType  string        `yaml:"node_instance_type"`
	Domain            string        `yaml:"domain"`
}

// LoggingConfig holds logging-related settings
type LoggingConfig struct {
	Level       string `yaml:"level"`
	EnableFile  bool   `yaml:"enable_file"`
	EnableJSON  bool   `yaml:"enable_json"`
	EnableColor bool   `yaml:"enable_color"`
	LogDir      string `yaml:"log_dir"`
}

var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         8000,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			MaxBodyBytes: 64 << 10,
			RateLimit: RateLimitConfig{
				RequestsPerMinute: 60,
				Burst:             10,
			},
		},
		Cache: CacheConfig{
			Enabled: true,
			Size:    256,
			TTL:     10 * time.Minute,
		},
		Engine: EngineConfig{
			MaxCommandLength:  2000,
			Timeout:           5 * time.Second,
			Region:            "us-east-1",
			KubernetesVersion: "1.28",
			NodeInstanceType:  "m5.large",
			Domain:            "yourdomain.com",
		},
		Logging: LoggingConfig{
			Level:       "info",
			EnableFile:  false,
			EnableJSON:  false,
			EnableColor: true,
			LogDir:      "logs",
		},
	}
}

// Get returns the global configuration (singleton)
func Get() *Config {
	configOnce.Do(func() {
		cfg := load()
		configMu.Lock()
		globalConfig = cfg
		configMu.Unlock()
	})
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}

// Reload rebuilds the configuration from file and environment
func Reload() *Config {
	configOnce.Do(func() {})
	cfg := load()
	configMu.Lock()
	defer configMu.Unlock()
	globalConfig = cfg
	return cfg
}

func load() *Config {
	cfg := DefaultConfig()
	for _, path := range configPaths() {
		if err := cfg.LoadFile(path); err == nil {
			break
		}
	}
	cfg.ApplyEnv()
	if err := cfg.Normalize(); err != nil {
		cfg.Warnings = append(cfg.Warnings, err.Error())
	}
	if IsLambda() {
		cfg.Logging.EnableFile = false
		cfg.Logging.EnableColor = false
		cfg.Logging.EnableJSON = true
		if cfg.Server.APIKey == "" {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			// failures leave the API unauthenticated, like a local run
			_ = cfg.loadAPIKeyFromSecretsManager(ctx, fetchSecret)
		}
	}
	return cfg
}

func configPaths() []string {
	return []string{
		"config.yaml",
		"config.yml",
		filepath.Join(getExecutableDir(), "config.yaml"),
		filepath.Join(getExecutableDir(), "config.yml"),
	}
}

// LoadFile merges a YAML file over the current values
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// ApplyEnv applies environment variable overrides
func (c *Config) ApplyEnv() {
	if port := os.Getenv("INFRA_NLI_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil && p > 0 {
			c.Server.Port = p
		}
	}
	if key := os.Getenv("INFRA_NLI_API_KEY"); key != "" {
		c.Server.APIKey = key
	}
	if rpm := os.Getenv("INFRA_NLI_RATE_LIMIT"); rpm != "" {
		if n, err := strconv.Atoi(rpm); err == nil {
			c.Server.RateLimit.RequestsPerMinute = n
		}
	}
	if ttl := os.Getenv("INFRA_NLI_CACHE_TTL"); ttl != "" {
		if d, err := time.ParseDuration(ttl); err == nil {
			c.Cache.TTL = d
		}
	}
	if level := os.Getenv("INFRA_NLI_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if region := os.Getenv("AWS_DEFAULT_REGION"); region != "" {
		c.Engine.Region = region
	}
}

// Validate reports engine settings the pricing catalog cannot serve
func (c *Config) Validate() error {
	if _, ok := pricing.LookupInstance(c.Engine.NodeInstanceType); !ok {
		supported := make([]string, 0, len(pricing.InstanceTypes()))
		for _, t := range pricing.InstanceTypes() {
			r, _ := pricing.LookupInstance(t)
			supported = append(supported, r.String())
		}
		return fmt.Errorf("engine.node_instance_type %q has no price; supported: %s",
			c.Engine.NodeInstanceType, strings.Join(supported, ", "))
	}
	return nil
}

// Normalize replaces settings that fail Validate with their defaults.
// The returned error describes what was replaced.
func (c *Config) Normalize() error {
	err := c.Validate()
	if err != nil {
		c.Engine.NodeInstanceType = DefaultConfig().Engine.NodeInstanceType
		return fmt.Errorf("%w; using %s", err, c.Engine.NodeInstanceType)
	}
	return nil
}

// secretFetcher resolves a Secrets Manager secret to its string value
type secretFetcher func(ctx context.Context, name string) (string, error)

// apiKeySecret is the JSON document stored in Secrets Manager
type apiKeySecret struct {
	APIKey string `json:"API_KEY"`
}

func (c *Config) loadAPIKeyFromSecretsManager(ctx context.Context, fetch secretFetcher) error {
	name := os.Getenv("INFRA_NLI_API_KEY_SECRET")
	if name == "" {
		name = "infra-nli/api-key"
	}

	raw, err := fetch(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to read secret %s: %w", name, err)
	}

	var payload apiKeySecret
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return fmt.Errorf("failed to decode secret %s: %w", name, err)
	}
	if payload.APIKey != "" {
		c.Server.APIKey = payload.APIKey
	}
	return nil
}

func fetchSecret(ctx context.Context, name string) (string, error) {
	// uses the Lambda execution role
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return "", err
	}

	out, err := secretsmanager.NewFromConfig(cfg).GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(name),
	})
	if err != nil {
		return "", err
	}
	if out.SecretString == nil {
		return "", fmt.Errorf("secret %s has no string value", name)
	}
	return aws.ToString(out.SecretString), nil
}

// getExecutableDir returns the directory containing the executable
func getExecutableDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// IsLambda returns true if running in AWS Lambda
func IsLambda() bool {
	return os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != ""
}
