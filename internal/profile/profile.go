package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Profile is the configuration to start the main server.
type Profile struct {
	// Mode can be "prod" or "dev"
	Mode string
	// Addr is the binding address for the server
	Addr string
	// Port is the binding port for the server
	Port int
	// Data is the data directory
	Data string
	// DSN points to where taskpilot stores its own data
	DSN string
	// Driver is the database driver (sqlite or postgres)
	Driver string
	// Version is the current version of the server
	Version string
	// Secret signs and verifies access tokens
	Secret string

	// AI configuration
	AIBaseURL     string  // TASKPILOT_AI_BASE_URL (default: https://api.openai.com/v1)
	AIAPIKey      string  // TASKPILOT_AI_API_KEY
	AIModel       string  // TASKPILOT_AI_MODEL (default: gpt-4o-mini)
	AITemperature float32 // TASKPILOT_AI_TEMPERATURE (default: 0.2)
	AIMaxTokens   int     // TASKPILOT_AI_MAX_TOKENS (default: 1024)

	// Agent tuning. Both are configuration, not architecture: the iteration
	// cap bounds run-away tool calling and the deadline bounds one whole
	// exchange.
	AgentMaxIterations int           // TASKPILOT_AGENT_MAX_ITERATIONS (default: 5)
	AgentTimeout       time.Duration // TASKPILOT_AGENT_TIMEOUT (default: 45s)
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsAIEnabled returns true if an API key is configured for the chat model.
func (p *Profile) IsAIEnabled() bool {
	return p.AIAPIKey != ""
}

// getEnvOrDefault returns the environment variable value or the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// FromEnv loads AI and agent configuration from TASKPILOT_* environment variables.
func (p *Profile) FromEnv() {
	p.AIBaseURL = getEnvOrDefault("TASKPILOT_AI_BASE_URL", "https://api.openai.com/v1")
	p.AIAPIKey = os.Getenv("TASKPILOT_AI_API_KEY")
	p.AIModel = getEnvOrDefault("TASKPILOT_AI_MODEL", "gpt-4o-mini")

	p.AITemperature = 0.2
	if v := os.Getenv("TASKPILOT_AI_TEMPERATURE"); v != "" {
		if f, err := strconv.ParseFloat(v, 32); err == nil {
			p.AITemperature = float32(f)
		}
	}
	p.AIMaxTokens = 1024
	if v := os.Getenv("TASKPILOT_AI_MAX_TOKENS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			p.AIMaxTokens = n
		}
	}
	p.AgentMaxIterations = 5
	if v := os.Getenv("TASKPILOT_AGENT_MAX_ITERATIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			p.AgentMaxIterations = n
		}
	}
	p.AgentTimeout = 45 * time.Second
	if v := os.Getenv("TASKPILOT_AGENT_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			p.AgentTimeout = d
		}
	}
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "dev"
	}

	if p.Driver != "sqlite" && p.Driver != "postgres" {
		return errors.Errorf("unsupported db driver %q: only 'sqlite' and 'postgres' are supported", p.Driver)
	}
	if p.Driver == "postgres" && p.DSN == "" {
		return errors.New("dsn is required for the postgres driver")
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		return err
	}
	p.Data = dataDir

	if p.Driver == "sqlite" && p.DSN == "" {
		dbFile := fmt.Sprintf("taskpilot_%s.db", p.Mode)
		p.DSN = filepath.Join(dataDir, dbFile)
	}

	if p.Secret == "" {
		if p.Mode == "prod" {
			return errors.New("secret is required in prod mode")
		}
		p.Secret = "taskpilot-dev-secret"
	}

	if p.AgentMaxIterations <= 0 {
		p.AgentMaxIterations = 5
	}
	if p.AgentTimeout <= 0 {
		p.AgentTimeout = 45 * time.Second
	}

	return nil
}
