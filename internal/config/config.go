package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/alfredjeanlab/corrlog/internal/auth"
)

type Config struct {
	DatabaseDriver string // CORRLOG_DATABASE_DRIVER (default "postgres"; or "sqlite3")
	DatabaseURL    string // CORRLOG_DATABASE_URL (required)
	GRPCAddr       string // CORRLOG_GRPC_ADDR (default ":9090")
	HTTPAddr       string // CORRLOG_HTTP_ADDR (default ":8080")
	NATSURL        string // CORRLOG_NATS_URL (optional, empty = no change notifications)
	SeedDefaults   bool   // CORRLOG_SEED_DEFAULTS (default true)
	ConfigFile     string // CORRLOG_CONFIG_FILE (optional TOML with admins and tokens)

	// Access control. Admins come from CORRLOG_ADMIN_USERS (comma list) and
	// the config file; CORRLOG_ADMIN_TOKEN adds a token for user "admin".
	Admins []string
	Tokens auth.TokenTable

	// Snapshot export settings
	SnapshotInterval   time.Duration // CORRLOG_SNAPSHOT_INTERVAL (default 0 = disabled)
	SnapshotS3Bucket   string        // CORRLOG_SNAPSHOT_S3_BUCKET (enables S3 when set)
	SnapshotS3Endpoint string        // CORRLOG_SNAPSHOT_S3_ENDPOINT (custom endpoint for MinIO)
	SnapshotS3Region   string        // CORRLOG_SNAPSHOT_S3_REGION (default "us-east-1")
	SnapshotS3Key      string        // CORRLOG_SNAPSHOT_S3_KEY (default "corrlog/configs.jsonl")
	SnapshotGitRepo    string        // CORRLOG_SNAPSHOT_GIT_REPO (enables git when set; path to clone)
	SnapshotGitFile    string        // CORRLOG_SNAPSHOT_GIT_FILE (default "correlation-configs.jsonl")
	SnapshotGitBranch  string        // CORRLOG_SNAPSHOT_GIT_BRANCH (default "main")
}

// DefaultAdminUser owns the token given in CORRLOG_ADMIN_TOKEN.
const DefaultAdminUser = "admin"

// fileConfig is the layout of CORRLOG_CONFIG_FILE.
type fileConfig struct {
	Admins []string     `toml:"admins"`
	Tokens []tokenEntry `toml:"tokens"`
}

type tokenEntry struct {
	Token    string `toml:"token"`
	Username string `toml:"username"`
	Tenant   string `toml:"tenant"`
}

func Load() (*Config, error) {
	c := &Config{
		DatabaseDriver:     envOrDefault("CORRLOG_DATABASE_DRIVER", "postgres"),
		DatabaseURL:        os.Getenv("CORRLOG_DATABASE_URL"),
		GRPCAddr:           envOrDefault("CORRLOG_GRPC_ADDR", ":9090"),
		HTTPAddr:           envOrDefault("CORRLOG_HTTP_ADDR", ":8080"),
		NATSURL:            os.Getenv("CORRLOG_NATS_URL"),
		ConfigFile:         os.Getenv("CORRLOG_CONFIG_FILE"),
		Tokens:             auth.TokenTable{},
		SnapshotS3Bucket:   os.Getenv("CORRLOG_SNAPSHOT_S3_BUCKET"),
		SnapshotS3Endpoint: os.Getenv("CORRLOG_SNAPSHOT_S3_ENDPOINT"),
		SnapshotS3Region:   envOrDefault("CORRLOG_SNAPSHOT_S3_REGION", "us-east-1"),
		SnapshotS3Key:      envOrDefault("CORRLOG_SNAPSHOT_S3_KEY", "corrlog/configs.jsonl"),
		SnapshotGitRepo:    os.Getenv("CORRLOG_SNAPSHOT_GIT_REPO"),
		SnapshotGitFile:    envOrDefault("CORRLOG_SNAPSHOT_GIT_FILE", "correlation-configs.jsonl"),
		SnapshotGitBranch:  envOrDefault("CORRLOG_SNAPSHOT_GIT_BRANCH", "main"),
	}
	if c.DatabaseURL == "" {
		return nil, fmt.Errorf("CORRLOG_DATABASE_URL is required")
	}

	seed, err := strconv.ParseBool(envOrDefault("CORRLOG_SEED_DEFAULTS", "true"))
	if err != nil {
		return nil, fmt.Errorf("CORRLOG_SEED_DEFAULTS: %w", err)
	}
	c.SeedDefaults = seed

	if s := os.Getenv("CORRLOG_SNAPSHOT_INTERVAL"); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil {
			return nil, fmt.Errorf("CORRLOG_SNAPSHOT_INTERVAL: %w", err)
		}
		c.SnapshotInterval = d
	}

	c.Admins = splitList(os.Getenv("CORRLOG_ADMIN_USERS"))
	if token := os.Getenv("CORRLOG_ADMIN_TOKEN"); token != "" {
		c.Tokens[token] = auth.Caller{Username: DefaultAdminUser}
		c.Admins = append(c.Admins, DefaultAdminUser)
	}

	if c.ConfigFile != "" {
		if err := c.loadFile(c.ConfigFile); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// loadFile merges admins and tokens from a TOML file.
func (c *Config) loadFile(path string) error {
	var fc fileConfig
	md, err := toml.DecodeFile(path, &fc)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("config file %s: unknown keys %v", path, undecoded)
	}

	c.Admins = append(c.Admins, fc.Admins...)
	for i, t := range fc.Tokens {
		if t.Token == "" || t.Username == "" {
			return fmt.Errorf("config file %s: tokens[%d] needs token and username", path, i)
		}
		c.Tokens[t.Token] = auth.Caller{Username: t.Username, Tenant: t.Tenant}
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
