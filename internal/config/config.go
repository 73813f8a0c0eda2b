package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/prodoxx/myqa-is/internal/service"
	"github.com/prodoxx/myqa-is/pkg/db"
)

// Config holds all configuration for the marketplace service
type Config struct {
	Database    db.Config
	Redis       RedisConfig
	Server      ServerConfig
	Auth        AuthConfig
	Marketplace MarketplaceConfig
	LogLevel    string
}

// RedisConfig holds event fan-out configuration. An empty URL disables publishing.
type RedisConfig struct {
	URL string
}

// ServerConfig holds server configuration
type ServerConfig struct {
	GRPCPort    string
	MetricsPort string
}

// AuthConfig holds caller token configuration
type AuthConfig struct {
	JWTSecret string
	JWTIssuer string
}

// MarketplaceConfig holds the fee token and the limits applied by the services.
type MarketplaceConfig struct {
	FeeToken           string
	FeeTokenDecimals   int32
	ValidatorPublicKey string
	RequireAttestation bool
	Policy             service.Policy
}

// policyFile mirrors the optional YAML file named by MARKETPLACE_CONFIG.
type policyFile struct {
	Fees struct {
		PlatformFeeBps    *uint16 `yaml:"platform_fee_bps"`
		CreatorRoyaltyBps *uint16 `yaml:"creator_royalty_bps"`
	} `yaml:"fees"`
	Limits struct {
		MaxQuestionsPerUser *uint64 `yaml:"max_questions_per_user"`
		OperationCooldown   string  `yaml:"operation_cooldown"`
		MaxQuestionLength   *int    `yaml:"max_question_length"`
		MaxAnswerLength     *int    `yaml:"max_answer_length"`
		MaxEncryptedKey     *int    `yaml:"max_encrypted_key_length"`
	} `yaml:"limits"`
	Token struct {
		Symbol   string `yaml:"symbol"`
		Decimals *int32 `yaml:"decimals"`
	} `yaml:"token"`
}

// LoadConfig loads configuration from environment variables, applying the
// YAML policy file first when MARKETPLACE_CONFIG is set.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Database: db.Config{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 3306),
			User:     getEnv("DB_USER", "root"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_DATABASE", "myqa"),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", ""),
		},
		Server: ServerConfig{
			GRPCPort:    getEnv("GRPC_PORT", "50051"),
			MetricsPort: getEnv("METRICS_PORT", "9090"),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
			JWTIssuer: getEnv("JWT_ISSUER", ""),
		},
		Marketplace: MarketplaceConfig{
			FeeToken:         "USDC",
			FeeTokenDecimals: 6,
			Policy:           service.DefaultPolicy(),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if path := os.Getenv("MARKETPLACE_CONFIG"); path != "" {
		if err := cfg.applyPolicyFile(path); err != nil {
			return nil, err
		}
	}

	m := &cfg.Marketplace
	m.FeeToken = getEnv("FEE_TOKEN", m.FeeToken)
	m.FeeTokenDecimals = int32(getEnvInt("FEE_TOKEN_DECIMALS", int(m.FeeTokenDecimals)))
	m.ValidatorPublicKey = getEnv("VALIDATOR_PUBLIC_KEY", "")
	m.RequireAttestation = getEnvBool("REQUIRE_ATTESTATION", false)
	m.Policy.OperationCooldown = getEnvDuration("OPERATION_COOLDOWN", m.Policy.OperationCooldown)
	m.Policy.MaxQuestionsPerUser = uint64(getEnvInt("MAX_QUESTIONS_PER_USER", int(m.Policy.MaxQuestionsPerUser)))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the services cannot run with.
func (c *Config) Validate() error {
	p := c.Marketplace.Policy
	if p.InitialPlatformFeeBps > p.MaxFeeBps || p.InitialCreatorRoyaltyBps > p.MaxFeeBps {
		return fmt.Errorf("initial fees must not exceed %d bps", p.MaxFeeBps)
	}
	if c.Marketplace.RequireAttestation && c.Marketplace.ValidatorPublicKey == "" {
		return errors.New("REQUIRE_ATTESTATION is set but VALIDATOR_PUBLIC_KEY is empty")
	}
	if c.Marketplace.FeeToken == "" {
		return errors.New("fee token must not be empty")
	}
	if p.OperationCooldown < 0 {
		return errors.New("operation cooldown must not be negative")
	}
	return nil
}

func (c *Config) applyPolicyFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read marketplace config: %w", err)
	}
	var f policyFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("failed to parse marketplace config: %w", err)
	}

	p := &c.Marketplace.Policy
	if f.Fees.PlatformFeeBps != nil {
		p.InitialPlatformFeeBps = *f.Fees.PlatformFeeBps
	}
	if f.Fees.CreatorRoyaltyBps != nil {
		p.InitialCreatorRoyaltyBps = *f.Fees.CreatorRoyaltyBps
	}
	if f.Limits.MaxQuestionsPerUser != nil {
		p.MaxQuestionsPerUser = *f.Limits.MaxQuestionsPerUser
	}
	if f.Limits.OperationCooldown != "" {
		d, err := time.ParseDuration(f.Limits.OperationCooldown)
		if err != nil {
			return fmt.Errorf("invalid operation_cooldown: %w", err)
		}
		p.OperationCooldown = d
	}
	if f.Limits.MaxQuestionLength != nil {
		p.MaxQuestionLength = *f.Limits.MaxQuestionLength
	}
	if f.Limits.MaxAnswerLength != nil {
		p.MaxAnswerLength = *f.Limits.MaxAnswerLength
	}
	if f.Limits.MaxEncryptedKey != nil {
		p.MaxEncryptedKeyLength = *f.Limits.MaxEncryptedKey
	}
	if f.Token.Symbol != "" {
		c.Marketplace.FeeToken = f.Token.Symbol
	}
	if f.Token.Decimals != nil {
		c.Marketplace.FeeTokenDecimals = *f.Token.Decimals
	}
	return nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return v
}

func getEnvBool(key string, defaultValue bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return v
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return v
}
