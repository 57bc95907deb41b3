package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	BackendDynamoDB = "dynamodb"
	BackendSQLite   = "sqlite"
)

// Config holds settings loaded from ~/.config/aria/config.yaml and the environment.
type Config struct {
	DefaultProfile string `yaml:"default_profile"`
	DefaultRegion  string `yaml:"default_region"`
	LogLevel       string `yaml:"log_level"`
	Partition      string `yaml:"partition" validate:"required"`

	Store          StoreConfig          `yaml:"store"`
	IdentityCenter IdentityCenterConfig `yaml:"identity_center"`
	Inventory      InventoryConfig      `yaml:"inventory"`
	Findings       FindingsConfig       `yaml:"findings"`
	Export         ExportConfig         `yaml:"export"`
	Deploy         DeployConfig         `yaml:"deploy"`
	Schedule       ScheduleConfig       `yaml:"schedule"`
}

type StoreConfig struct {
	Backend     string `yaml:"backend" validate:"oneof=dynamodb sqlite"`
	Path        string `yaml:"path" validate:"required_if=Backend sqlite"`
	TablePrefix string `yaml:"table_prefix" validate:"required"`
}

// IdentityCenterConfig pins the SSO instance. Empty values are resolved from the first instance.
type IdentityCenterConfig struct {
	InstanceArn     string `yaml:"instance_arn"`
	IdentityStoreID string `yaml:"identity_store_id"`
}

type InventoryConfig struct {
	RoleName        string `yaml:"role_name" validate:"required"`
	RolePrefix      string `yaml:"role_prefix" validate:"required"`
	ClearBeforeSync bool   `yaml:"clear_before_sync"`
}

// FindingsConfig maps a finding type to the statuses that remove it from its table.
type FindingsConfig struct {
	TerminalStatuses map[string][]string `yaml:"terminal_statuses"`
}

type ExportConfig struct {
	Bucket string `yaml:"bucket"`
}

type DeployConfig struct {
	ParameterPrefix string `yaml:"parameter_prefix" validate:"required"`
}

type ScheduleConfig struct {
	Spec string `yaml:"spec" validate:"required"`
}

// Default returns the configuration used when no file or override is present.
func Default() *Config {
	terminal := []string{"RESOLVED", "ARCHIVED"}
	return &Config{
		LogLevel:  "info",
		Partition: "aws",
		Store: StoreConfig{
			Backend:     BackendDynamoDB,
			Path:        "aria.db",
			TablePrefix: "AriaIdC",
		},
		Inventory: InventoryConfig{
			RoleName:        "AriaIdCInventoryAccessRole-LimitedReadOnly",
			RolePrefix:      "AWSReservedSSO_",
			ClearBeforeSync: true,
		},
		Findings: FindingsConfig{
			TerminalStatuses: map[string][]string{
				"InternalAccess":   terminal,
				"UnusedPermission": terminal,
				"UnusedIAMRole":    terminal,
			},
		},
		Deploy:   DeployConfig{ParameterPrefix: "/aria/lambda/"},
		Schedule: ScheduleConfig{Spec: "@every 6h"},
	}
}

// Path returns the config file location: ARIA_CONFIG, else ~/.config/aria/config.yaml.
func Path() string {
	if p := os.Getenv("ARIA_CONFIG"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "aria", "config.yaml")
}

// Load reads the config file at Path and applies environment overrides.
func Load() (*Config, error) {
	return LoadFile(Path())
}

// LoadFile reads path over the defaults and applies environment overrides.
// A missing file yields the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, err
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing %s: %w", path, err)
			}
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.DefaultProfile = getEnv("AWS_PROFILE", c.DefaultProfile)
	c.DefaultRegion = getEnv("AWS_REGION", c.DefaultRegion)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.Store.Backend = getEnv("ARIA_STORE_BACKEND", c.Store.Backend)
	c.Store.Path = getEnv("ARIA_STORE_PATH", c.Store.Path)
	c.Store.TablePrefix = getEnv("ARIA_TABLE_PREFIX", c.Store.TablePrefix)
	c.Export.Bucket = getEnv("ARIA_EXPORT_BUCKET", c.Export.Bucket)
	c.IdentityCenter.InstanceArn = getEnv("ARIA_INSTANCE_ARN", c.IdentityCenter.InstanceArn)
	c.IdentityCenter.IdentityStoreID = getEnv("ARIA_IDENTITY_STORE_ID", c.IdentityCenter.IdentityStoreID)
	c.Inventory.RoleName = getEnv("ARIA_INVENTORY_ROLE", c.Inventory.RoleName)
	c.Deploy.ParameterPrefix = getEnv("ARIA_PARAMETER_PREFIX", c.Deploy.ParameterPrefix)
}

// Validate checks required settings and enumerations.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Merge applies CLI flag overrides. Flags take precedence over config defaults.
func (c *Config) Merge(profile, region string) (string, string) {
	p := c.DefaultProfile
	if profile != "" {
		p = profile
	}
	r := c.DefaultRegion
	if region != "" {
		r = region
	}
	return p, r
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
