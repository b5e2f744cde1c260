/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package config loads item store settings from a YAML file, a .env file and the environment.
package config

import (
	"fmt"
	"log"
	"os"

	"github.com/go-openapi/strfmt"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Supported backends.
const (
	BackendMongo    = "mongo"
	BackendDynamoDB = "dynamodb"
	BackendMemory   = "memory"
)

type Config struct {
	Backend  string         `yaml:"backend"`
	LogLevel string         `yaml:"log_level"`
	Mongo    MongoConfig    `yaml:"mongo"`
	DynamoDB DynamoDBConfig `yaml:"dynamodb"`
}

type MongoConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

type DynamoDBConfig struct {
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Region    string `yaml:"region"`
	Table     string `yaml:"table"`
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		Backend:  BackendMongo,
		LogLevel: "info",
		Mongo: MongoConfig{
			URI:      "mongodb://localhost:27017",
			Database: "mongomart",
		},
	}
}

// Load builds a Config from defaults, then the YAML file at path (if not empty),
// then a .env file in the working directory, then environment variables.
func Load(path string) (*Config, error) {
	return load(path, ".env")
}

func load(path, envFile string) (*Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	// godotenv never overrides variables that are already set.
	if err := godotenv.Load(envFile); err != nil {
		log.Printf("No .env file found at %s, proceeding with environment variables", envFile)
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Backend = getEnvOrDefault("ITEMSTORE_BACKEND", c.Backend)
	c.LogLevel = getEnvOrDefault("LOG_LEVEL", c.LogLevel)
	c.Mongo.URI = getEnvOrDefault("MONGO_URI", c.Mongo.URI)
	c.Mongo.Database = getEnvOrDefault("MONGO_DATABASE", c.Mongo.Database)
	c.DynamoDB.AccessKey = getEnvOrDefault("AWS_ACCESS_KEY", c.DynamoDB.AccessKey)
	c.DynamoDB.SecretKey = getEnvOrDefault("AWS_SECRET_KEY", c.DynamoDB.SecretKey)
	c.DynamoDB.Region = getEnvOrDefault("AWS_REGION", c.DynamoDB.Region)
	c.DynamoDB.Table = getEnvOrDefault("AWS_DDB_TABLE", c.DynamoDB.Table)
}

// Validate checks that the selected backend has what it needs to connect.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendMongo:
		if !strfmt.Default.Validates("uri", c.Mongo.URI) {
			return fmt.Errorf("invalid mongo uri %q", c.Mongo.URI)
		}
		if c.Mongo.Database == "" {
			return fmt.Errorf("mongo database name is required")
		}
	case BackendDynamoDB:
		if c.DynamoDB.Region == "" || c.DynamoDB.Table == "" {
			return fmt.Errorf("dynamodb region and table are required")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	return nil
}

// getEnvOrDefault reads an environment variable or returns a default value if the variable is not set or is empty.
func getEnvOrDefault(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}
