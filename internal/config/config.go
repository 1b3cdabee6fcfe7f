// Package config provides configuration file support for asb.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/richhaase/agentic-site-builder/internal/agent"
	"github.com/richhaase/agentic-site-builder/internal/build"
	"github.com/richhaase/agentic-site-builder/internal/logging"
	"github.com/richhaase/agentic-site-builder/internal/retry"
)

// ConfigFileName is the name of the config file.
const ConfigFileName = ".asb.yaml"

// EnvPrefix prefixes every environment variable read by LoadEnvState.
const EnvPrefix = "ASB_"

// Duration is a custom type that handles YAML duration parsing.
// Supports both Go duration format ("5m", "300s") and numeric seconds.
type Duration time.Duration

// UnmarshalYAML implements the yaml.Unmarshaler interface.
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var raw any
	if err := unmarshal(&raw); err != nil {
		return err
	}

	switch v := raw.(type) {
	case string:
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", v, err)
		}
		*d = Duration(parsed)
	case int:
		*d = Duration(time.Duration(v) * time.Second)
	case float64:
		*d = Duration(time.Duration(v * float64(time.Second)))
	default:
		return fmt.Errorf("invalid duration type: %T", v)
	}
	return nil
}

// MarshalYAML writes the duration in Go format.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// AsDuration returns the underlying time.Duration.
func (d Duration) AsDuration() time.Duration {
	return time.Duration(d)
}

// Config represents the asb configuration file. Pointer fields distinguish
// "not set" from zero values.
type Config struct {
	Generator         *string       `yaml:"generator,omitempty"`
	Model             *string       `yaml:"model,omitempty"`
	SitesRoot         *string       `yaml:"sites_root,omitempty"`
	BuildCommand      *string       `yaml:"build_command,omitempty"`
	BuildTimeout      *Duration     `yaml:"build_timeout,omitempty"`
	GenerationTimeout *Duration     `yaml:"generation_timeout,omitempty"`
	RepairCycles      *int          `yaml:"repair_cycles,omitempty"`
	Concurrency       *int          `yaml:"concurrency,omitempty"`
	RateLimit         *float64      `yaml:"rate_limit,omitempty"`
	ReservedDirs      []string      `yaml:"reserved_dirs,omitempty"`
	Retry             RetryConfig   `yaml:"retry,omitempty"`
	Critics           CriticsConfig `yaml:"critics,omitempty"`
	Server            ServerConfig  `yaml:"server,omitempty"`
	Log               LogConfig     `yaml:"log,omitempty"`
}

// RetryConfig holds the backoff settings for generation calls.
type RetryConfig struct {
	Attempts     *int      `yaml:"attempts,omitempty"`
	InitialDelay *Duration `yaml:"initial_delay,omitempty"`
	MaxDelay     *Duration `yaml:"max_delay,omitempty"`
}

// CriticsConfig toggles the optional critics.
type CriticsConfig struct {
	Performance *bool `yaml:"performance,omitempty"`
	Integration *bool `yaml:"integration,omitempty"`
}

// ServerConfig holds settings for asb serve.
type ServerConfig struct {
	Addr    *string `yaml:"addr,omitempty"`
	Workers *int    `yaml:"workers,omitempty"`
	DBPath  *string `yaml:"db_path,omitempty"`
}

// LogConfig holds structured logging settings.
type LogConfig struct {
	Format *string `yaml:"format,omitempty"`
	Level  *string `yaml:"level,omitempty"`
}

// LoadResult contains the loaded config and any warnings encountered.
type LoadResult struct {
	Config   *Config
	Path     string
	Warnings []string
}

// LoadWithWarnings reads .asb.yaml from the working directory.
// Returns an empty config (not error) if the file doesn't exist.
func LoadWithWarnings() (*LoadResult, error) {
	wd, err := os.Getwd()
	if err != nil {
		return &LoadResult{Config: &Config{}}, nil
	}
	return LoadFromDirWithWarnings(wd)
}

// LoadFromDirWithWarnings reads .asb.yaml from the specified directory.
func LoadFromDirWithWarnings(dir string) (*LoadResult, error) {
	return LoadFromPathWithWarnings(filepath.Join(dir, ConfigFileName))
}

// LoadFromPathWithWarnings reads a config file and returns warnings for unknown keys.
// Returns an empty config (not error) if the file doesn't exist.
// Returns an error if the file exists but is invalid YAML or holds invalid values.
func LoadFromPathWithWarnings(path string) (*LoadResult, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &LoadResult{Config: &Config{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	warnings := checkUnknownKeys(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", ConfigFileName, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", ConfigFileName, err)
	}

	return &LoadResult{Config: &cfg, Path: path, Warnings: warnings}, nil
}

// knownTopLevelKeys are the valid top-level keys in the config file.
var knownTopLevelKeys = []string{
	"generator", "model", "sites_root", "build_command", "build_timeout",
	"generation_timeout", "repair_cycles", "concurrency", "rate_limit",
	"reserved_dirs", "retry", "critics", "server", "log",
}

// knownSectionKeys are the valid keys under each nested section.
var knownSectionKeys = map[string][]string{
	"retry":   {"attempts", "initial_delay", "max_delay"},
	"critics": {"performance", "integration"},
	"server":  {"addr", "workers", "db_path"},
	"log":     {"format", "level"},
}

// checkUnknownKeys checks for unknown keys in the YAML data and returns warnings.
func checkUnknownKeys(data []byte) []string {
	var warnings []string

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		// The main parser reports the error.
		return nil
	}

	for _, key := range sortedKeys(raw) {
		if !slices.Contains(knownTopLevelKeys, key) {
			warning := fmt.Sprintf("unknown key %q in %s", key, ConfigFileName)
			if suggestion := findSimilar(key, knownTopLevelKeys); suggestion != "" {
				warning += fmt.Sprintf(" (did you mean %q?)", suggestion)
			}
			warnings = append(warnings, warning)
			continue
		}
		known, ok := knownSectionKeys[key]
		if !ok {
			continue
		}
		section, ok := raw[key].(map[string]any)
		if !ok {
			continue
		}
		for _, sub := range sortedKeys(section) {
			if slices.Contains(known, sub) {
				continue
			}
			warning := fmt.Sprintf("unknown key %q in %s section of %s", sub, key, ConfigFileName)
			if suggestion := findSimilar(sub, known); suggestion != "" {
				warning += fmt.Sprintf(" (did you mean %q?)", suggestion)
			}
			warnings = append(warnings, warning)
		}
	}

	return warnings
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// findSimilar finds the most similar string from candidates using Levenshtein distance.
// Returns empty string if no candidate is similar enough (threshold: 3 edits).
func findSimilar(input string, candidates []string) string {
	const maxDistance = 3
	bestMatch := ""
	bestDistance := maxDistance + 1

	for _, candidate := range candidates {
		dist := levenshtein(input, candidate)
		if dist < bestDistance {
			bestDistance = dist
			bestMatch = candidate
		}
	}

	if bestDistance <= maxDistance {
		return bestMatch
	}
	return ""
}

// levenshtein calculates the Levenshtein distance between two strings.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)

	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	matrix := make([][]int, len(ra)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(rb)+1)
		matrix[i][0] = i
	}
	for j := range matrix[0] {
		matrix[0][j] = j
	}

	for i := 1; i <= len(ra); i++ {
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			matrix[i][j] = min(
				matrix[i-1][j]+1,      // deletion
				matrix[i][j-1]+1,      // insertion
				matrix[i-1][j-1]+cost, // substitution
			)
		}
	}

	return matrix[len(ra)][len(rb)]
}

// Validate checks that all config values are valid.
func (c *Config) Validate() error {
	if c.Generator != nil && !slices.Contains(agent.SupportedGenerators, *c.Generator) {
		return fmt.Errorf("generator must be one of %v, got %q", agent.SupportedGenerators, *c.Generator)
	}
	if c.BuildCommand != nil && strings.TrimSpace(*c.BuildCommand) == "" {
		return fmt.Errorf("build_command must not be empty")
	}
	if c.BuildTimeout != nil && *c.BuildTimeout <= 0 {
		return fmt.Errorf("build_timeout must be > 0, got %s", time.Duration(*c.BuildTimeout))
	}
	if c.GenerationTimeout != nil && *c.GenerationTimeout <= 0 {
		return fmt.Errorf("generation_timeout must be > 0, got %s", time.Duration(*c.GenerationTimeout))
	}
	if c.RepairCycles != nil && *c.RepairCycles < 0 {
		return fmt.Errorf("repair_cycles must be >= 0, got %d", *c.RepairCycles)
	}
	if c.Concurrency != nil && *c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be >= 1, got %d", *c.Concurrency)
	}
	if c.RateLimit != nil && *c.RateLimit < 0 {
		return fmt.Errorf("rate_limit must be >= 0, got %g", *c.RateLimit)
	}
	if c.Retry.Attempts != nil && *c.Retry.Attempts < 1 {
		return fmt.Errorf("retry.attempts must be >= 1, got %d", *c.Retry.Attempts)
	}
	if c.Retry.InitialDelay != nil && *c.Retry.InitialDelay <= 0 {
		return fmt.Errorf("retry.initial_delay must be > 0, got %s", time.Duration(*c.Retry.InitialDelay))
	}
	if c.Retry.MaxDelay != nil && *c.Retry.MaxDelay <= 0 {
		return fmt.Errorf("retry.max_delay must be > 0, got %s", time.Duration(*c.Retry.MaxDelay))
	}
	if c.Server.Workers != nil && *c.Server.Workers < 1 {
		return fmt.Errorf("server.workers must be >= 1, got %d", *c.Server.Workers)
	}
	for _, dir := range c.ReservedDirs {
		if !filepath.IsAbs(dir) {
			return fmt.Errorf("reserved_dirs entries must be absolute, got %q", dir)
		}
	}
	if c.Log.Format != nil && *c.Log.Format != logging.FormatText && *c.Log.Format != logging.FormatJSON {
		return fmt.Errorf("log.format must be %q or %q, got %q", logging.FormatText, logging.FormatJSON, *c.Log.Format)
	}
	if c.Log.Level != nil {
		if _, err := logging.ParseLevel(*c.Log.Level); err != nil {
			return fmt.Errorf("log.level: %w", err)
		}
	}
	return nil
}

// Defaults holds the built-in default values.
var Defaults = ResolvedConfig{
	Generator:         agent.DefaultGenerator,
	SitesRoot:         "sites",
	BuildCommand:      build.DefaultCommand,
	BuildTimeout:      build.DefaultTimeout,
	GenerationTimeout: 10 * time.Minute,
	RepairCycles:      2,
	Concurrency:       1,
	RetryAttempts:     retry.DefaultMaxAttempts,
	RetryInitialDelay: retry.DefaultInitialDelay,
	RetryMaxDelay:     retry.DefaultMaxDelay,
	PerformanceCritic: true,
	IntegrationCritic: true,
	ServerAddr:        "127.0.0.1:8080",
	ServerWorkers:     1,
	DBPath:            filepath.Join(".asb", "jobs"),
	LogFormat:         logging.FormatText,
	LogLevel:          "info",
}

// ResolvedConfig holds the final resolved configuration values.
type ResolvedConfig struct {
	Generator         string        `yaml:"generator"`
	Model             string        `yaml:"model"`
	SitesRoot         string        `yaml:"sites_root"`
	BuildCommand      string        `yaml:"build_command"`
	BuildTimeout      time.Duration `yaml:"build_timeout"`
	GenerationTimeout time.Duration `yaml:"generation_timeout"`
	RepairCycles      int           `yaml:"repair_cycles"`
	Concurrency       int           `yaml:"concurrency"`
	RateLimit         float64       `yaml:"rate_limit"`
	ReservedDirs      []string      `yaml:"reserved_dirs"`
	RetryAttempts     int           `yaml:"retry_attempts"`
	RetryInitialDelay time.Duration `yaml:"retry_initial_delay"`
	RetryMaxDelay     time.Duration `yaml:"retry_max_delay"`
	PerformanceCritic bool          `yaml:"performance_critic"`
	IntegrationCritic bool          `yaml:"integration_critic"`
	ServerAddr        string        `yaml:"server_addr"`
	ServerWorkers     int           `yaml:"server_workers"`
	DBPath            string        `yaml:"db_path"`
	LogFormat         string        `yaml:"log_format"`
	LogLevel          string        `yaml:"log_level"`
}

// RetryPolicy returns the backoff policy for generation calls.
func (r ResolvedConfig) RetryPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts:  r.RetryAttempts,
		InitialDelay: r.RetryInitialDelay,
		MaxDelay:     r.RetryMaxDelay,
		Multiplier:   retry.DefaultMultiplier,
	}
}

// FlagState tracks whether a flag was explicitly set.
type FlagState struct {
	GeneratorSet     bool
	ModelSet         bool
	SitesRootSet     bool
	BuildCommandSet  bool
	BuildTimeoutSet  bool
	RepairCyclesSet  bool
	ConcurrencySet   bool
	ServerAddrSet    bool
	ServerWorkersSet bool
	DBPathSet        bool
	LogFormatSet     bool
	LogLevelSet      bool
}

// EnvState captures env var values and whether they were set.
type EnvState struct {
	Generator            string
	GeneratorSet         bool
	Model                string
	ModelSet             bool
	SitesRoot            string
	SitesRootSet         bool
	BuildCommand         string
	BuildCommandSet      bool
	BuildTimeout         time.Duration
	BuildTimeoutSet      bool
	GenerationTimeout    time.Duration
	GenerationTimeoutSet bool
	RepairCycles         int
	RepairCyclesSet      bool
	Concurrency          int
	ConcurrencySet       bool
	RateLimit            float64
	RateLimitSet         bool
	RetryAttempts        int
	RetryAttemptsSet     bool
	ServerAddr           string
	ServerAddrSet        bool
	ServerWorkers        int
	ServerWorkersSet     bool
	DBPath               string
	DBPathSet            bool
	LogFormat            string
	LogFormatSet         bool
	LogLevel             string
	LogLevelSet          bool
}

// LoadEnvState reads ASB_* environment variables and returns their state.
// Values that fail to parse are ignored.
func LoadEnvState() EnvState {
	var state EnvState

	state.Generator, state.GeneratorSet = envString("GENERATOR")
	state.Model, state.ModelSet = envString("MODEL")
	state.SitesRoot, state.SitesRootSet = envString("SITES_ROOT")
	state.BuildCommand, state.BuildCommandSet = envString("BUILD_COMMAND")
	state.BuildTimeout, state.BuildTimeoutSet = envDuration("BUILD_TIMEOUT")
	state.GenerationTimeout, state.GenerationTimeoutSet = envDuration("GENERATION_TIMEOUT")
	state.RepairCycles, state.RepairCyclesSet = envInt("REPAIR_CYCLES")
	state.Concurrency, state.ConcurrencySet = envInt("CONCURRENCY")
	if v, ok := envString("RATE_LIMIT"); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			state.RateLimit, state.RateLimitSet = f, true
		}
	}
	state.RetryAttempts, state.RetryAttemptsSet = envInt("RETRY_ATTEMPTS")
	state.ServerAddr, state.ServerAddrSet = envString("SERVER_ADDR")
	state.ServerWorkers, state.ServerWorkersSet = envInt("SERVER_WORKERS")
	state.DBPath, state.DBPathSet = envString("DB_PATH")
	state.LogFormat, state.LogFormatSet = envString("LOG_FORMAT")
	state.LogLevel, state.LogLevelSet = envString("LOG_LEVEL")

	return state
}

func envString(name string) (string, bool) {
	v := os.Getenv(EnvPrefix + name)
	return v, v != ""
}

func envInt(name string) (int, bool) {
	v, ok := envString(name)
	if !ok {
		return 0, false
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return i, true
}

func envDuration(name string) (time.Duration, bool) {
	v, ok := envString(name)
	if !ok {
		return 0, false
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d, true
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second, true
	}
	return 0, false
}

// Resolve merges config file values with env vars and flags.
// Precedence: flags > env vars > config file > defaults
func Resolve(cfg *Config, envState EnvState, flagState FlagState, flagValues ResolvedConfig) ResolvedConfig {
	result := Defaults

	// Apply config file values (if set)
	if cfg != nil {
		setIf(&result.Generator, cfg.Generator)
		setIf(&result.Model, cfg.Model)
		setIf(&result.SitesRoot, cfg.SitesRoot)
		setIf(&result.BuildCommand, cfg.BuildCommand)
		if cfg.BuildTimeout != nil {
			result.BuildTimeout = cfg.BuildTimeout.AsDuration()
		}
		if cfg.GenerationTimeout != nil {
			result.GenerationTimeout = cfg.GenerationTimeout.AsDuration()
		}
		setIf(&result.RepairCycles, cfg.RepairCycles)
		setIf(&result.Concurrency, cfg.Concurrency)
		setIf(&result.RateLimit, cfg.RateLimit)
		if len(cfg.ReservedDirs) > 0 {
			result.ReservedDirs = slices.Clone(cfg.ReservedDirs)
		}
		setIf(&result.RetryAttempts, cfg.Retry.Attempts)
		if cfg.Retry.InitialDelay != nil {
			result.RetryInitialDelay = cfg.Retry.InitialDelay.AsDuration()
		}
		if cfg.Retry.MaxDelay != nil {
			result.RetryMaxDelay = cfg.Retry.MaxDelay.AsDuration()
		}
		setIf(&result.PerformanceCritic, cfg.Critics.Performance)
		setIf(&result.IntegrationCritic, cfg.Critics.Integration)
		setIf(&result.ServerAddr, cfg.Server.Addr)
		setIf(&result.ServerWorkers, cfg.Server.Workers)
		setIf(&result.DBPath, cfg.Server.DBPath)
		setIf(&result.LogFormat, cfg.Log.Format)
		setIf(&result.LogLevel, cfg.Log.Level)
	}

	// Apply env var values (if set)
	if envState.GeneratorSet {
		result.Generator = envState.Generator
	}
	if envState.ModelSet {
		result.Model = envState.Model
	}
	if envState.SitesRootSet {
		result.SitesRoot = envState.SitesRoot
	}
	if envState.BuildCommandSet {
		result.BuildCommand = envState.BuildCommand
	}
	if envState.BuildTimeoutSet {
		result.BuildTimeout = envState.BuildTimeout
	}
	if envState.GenerationTimeoutSet {
		result.GenerationTimeout = envState.GenerationTimeout
	}
	if envState.RepairCyclesSet {
		result.RepairCycles = envState.RepairCycles
	}
	if envState.ConcurrencySet {
		result.Concurrency = envState.Concurrency
	}
	if envState.RateLimitSet {
		result.RateLimit = envState.RateLimit
	}
	if envState.RetryAttemptsSet {
		result.RetryAttempts = envState.RetryAttempts
	}
	if envState.ServerAddrSet {
		result.ServerAddr = envState.ServerAddr
	}
	if envState.ServerWorkersSet {
		result.ServerWorkers = envState.ServerWorkers
	}
	if envState.DBPathSet {
		result.DBPath = envState.DBPath
	}
	if envState.LogFormatSet {
		result.LogFormat = envState.LogFormat
	}
	if envState.LogLevelSet {
		result.LogLevel = envState.LogLevel
	}

	// Apply flag values (if explicitly set)
	if flagState.GeneratorSet {
		result.Generator = flagValues.Generator
	}
	if flagState.ModelSet {
		result.Model = flagValues.Model
	}
	if flagState.SitesRootSet {
		result.SitesRoot = flagValues.SitesRoot
	}
	if flagState.BuildCommandSet {
		result.BuildCommand = flagValues.BuildCommand
	}
	if flagState.BuildTimeoutSet {
		result.BuildTimeout = flagValues.BuildTimeout
	}
	if flagState.RepairCyclesSet {
		result.RepairCycles = flagValues.RepairCycles
	}
	if flagState.ConcurrencySet {
		result.Concurrency = flagValues.Concurrency
	}
	if flagState.ServerAddrSet {
		result.ServerAddr = flagValues.ServerAddr
	}
	if flagState.ServerWorkersSet {
		result.ServerWorkers = flagValues.ServerWorkers
	}
	if flagState.DBPathSet {
		result.DBPath = flagValues.DBPath
	}
	if flagState.LogFormatSet {
		result.LogFormat = flagValues.LogFormat
	}
	if flagState.LogLevelSet {
		result.LogLevel = flagValues.LogLevel
	}

	return result
}

// Validate checks resolved values that may come from env vars or flags.
func (r ResolvedConfig) Validate() error {
	if !slices.Contains(agent.SupportedGenerators, r.Generator) {
		return fmt.Errorf("generator must be one of %v, got %q", agent.SupportedGenerators, r.Generator)
	}
	if strings.TrimSpace(r.BuildCommand) == "" {
		return fmt.Errorf("build command must not be empty")
	}
	if r.BuildTimeout <= 0 {
		return fmt.Errorf("build timeout must be > 0, got %s", r.BuildTimeout)
	}
	if r.RepairCycles < 0 {
		return fmt.Errorf("repair cycles must be >= 0, got %d", r.RepairCycles)
	}
	if r.Concurrency < 1 {
		return fmt.Errorf("concurrency must be >= 1, got %d", r.Concurrency)
	}
	if r.ServerWorkers < 1 {
		return fmt.Errorf("server workers must be >= 1, got %d", r.ServerWorkers)
	}
	if _, err := logging.ParseLevel(r.LogLevel); err != nil {
		return err
	}
	return nil
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// Template is the commented starter file written by asb config init.
const Template = `# asb configuration. Precedence: flags > ASB_* env vars > this file > defaults.

# Generator backend: openai, claude, codex or gemini.
generator: openai
# model: gpt-4o

sites_root: sites
build_command: pnpm run build
build_timeout: 5m
generation_timeout: 10m

# Targeted fixes attempted before a job fails.
repair_cycles: 2

# Components generated in parallel.
concurrency: 1

# Generation calls per minute; 0 disables limiting.
rate_limit: 0

retry:
  attempts: 3
  initial_delay: 2s
  max_delay: 10s

critics:
  performance: true
  integration: true

server:
  addr: 127.0.0.1:8080
  workers: 1
  db_path: .asb/jobs

log:
  format: text
  level: info
`
