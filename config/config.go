package config

import (
	"flag"
	"os"
	"strconv"
)

// Config holds all configuration for the pastebit service
type Config struct {
	Port        int    `json:"port"`
	URL         string `json:"url"`
	Backend     string `json:"backend"`
	DataDir     string `json:"data_dir"`
	RedisURL    string `json:"redis_url"`
	MongoURL    string `json:"mongo_url"`
	MongoDB     string `json:"mongo_db"`
	DynamoTable string `json:"dynamo_table"`
	AWSRegion   string `json:"aws_region"`
	MaxBodySize int64  `json:"max_body_size"`
	TestMode    bool   `json:"test_mode"`
	Version     string `json:"version"`
	BuildTime   string `json:"build_time"`
	CommitHash  string `json:"commit_hash"`
}

// LoadConfig loads configuration from CLI flags and environment
// variables, env taking precedence.
func LoadConfig() *Config {
	config := &Config{
		Port:        8080,
		URL:         "",
		Backend:     "filesystem",
		DataDir:     "./data",
		RedisURL:    "",
		MongoURL:    "",
		MongoDB:     "pastebit",
		DynamoTable: "",
		AWSRegion:   "us-east-1",
		MaxBodySize: 1 * 1024 * 1024, // 1MB
		TestMode:    false,
	}

	// Parse CLI flags
	flag.IntVar(&config.Port, "port", config.Port, "Port to listen on")
	flag.StringVar(&config.URL, "url", config.URL, "Base URL for paste links")
	flag.StringVar(&config.Backend, "backend", config.Backend, "Storage backend: memory, filesystem, redis, mongodb, dynamodb")
	flag.StringVar(&config.DataDir, "data-dir", config.DataDir, "Data directory for the filesystem backend")
	flag.StringVar(&config.RedisURL, "redis-url", config.RedisURL, "Redis connection URL")
	flag.StringVar(&config.MongoURL, "mongo-url", config.MongoURL, "MongoDB connection URL")
	flag.StringVar(&config.MongoDB, "mongo-db", config.MongoDB, "MongoDB database name")
	flag.StringVar(&config.DynamoTable, "dynamo-table", config.DynamoTable, "DynamoDB table name")
	flag.StringVar(&config.AWSRegion, "aws-region", config.AWSRegion, "AWS region for DynamoDB")
	flag.Int64Var(&config.MaxBodySize, "max-body-size", config.MaxBodySize, "Maximum request body size in bytes")
	flag.BoolVar(&config.TestMode, "test-mode", config.TestMode, "Honor the X-Test-Now-Ms clock override header")
	flag.Parse()

	// Override with environment variables if present
	if val := os.Getenv("PASTEBIT_PORT"); val != "" {
		if port, err := strconv.Atoi(val); err == nil {
			config.Port = port
		}
	}
	if val := os.Getenv("PASTEBIT_URL"); val != "" {
		config.URL = val
	}
	if val := os.Getenv("PASTEBIT_BACKEND"); val != "" {
		config.Backend = val
	}
	if val := os.Getenv("PASTEBIT_DATA_DIR"); val != "" {
		config.DataDir = val
	}
	if val := os.Getenv("PASTEBIT_REDIS_URL"); val != "" {
		config.RedisURL = val
	}
	if val := os.Getenv("PASTEBIT_MONGO_URL"); val != "" {
		config.MongoURL = val
	}
	if val := os.Getenv("PASTEBIT_MONGO_DB"); val != "" {
		config.MongoDB = val
	}
	if val := os.Getenv("PASTEBIT_DYNAMO_TABLE"); val != "" {
		config.DynamoTable = val
	}
	if val := os.Getenv("PASTEBIT_AWS_REGION"); val != "" {
		config.AWSRegion = val
	}
	if val := os.Getenv("PASTEBIT_MAX_BODY_SIZE"); val != "" {
		if size, err := strconv.ParseInt(val, 10, 64); err == nil {
			config.MaxBodySize = size
		}
	}
	if val := os.Getenv("PASTEBIT_TEST_MODE"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			config.TestMode = b
		}
	}

	// Picking a network backend implicitly when only its URL is set
	// keeps container setups to a single env var.
	if config.Backend == "filesystem" {
		if config.RedisURL != "" {
			config.Backend = "redis"
		} else if config.MongoURL != "" {
			config.Backend = "mongodb"
		} else if config.DynamoTable != "" {
			config.Backend = "dynamodb"
		}
	}

	return config
}
