// Copyright 2026 The Toby Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultDir is used when neither --config-dir nor TOBY_CONFIG_DIR
	// is set.
	DefaultDir = "/etc/toby"

	// DirEnvironmentVariable overrides DefaultDir.
	DirEnvironmentVariable = "TOBY_CONFIG_DIR"

	MainFileName   = "toby.yaml"
	TokensFileName = "tokens.yaml"
	ProjectsDir    = "projects"
	ScriptsDir     = "scripts.d"

	DefaultPort      = 8629
	DefaultUser      = "toby"
	DefaultGroup     = "toby"
	DefaultQueueSize = 16
)

// ArchiveBackend selects where archived job records are stored.
type ArchiveBackend string

const (
	ArchiveFile   ArchiveBackend = "file"
	ArchiveSQLite ArchiveBackend = "sqlite"
)

// Config is the fully loaded configuration directory.
type Config struct {
	// Dir is the configuration directory the values were read from.
	Dir string

	Main     Main
	Tokens   map[string]Token
	Projects map[string]Project
}

// Main is toby.yaml.
type Main struct {
	// User and Group are the identity the worker drops to and the
	// owner of the worker socket.
	User  string `yaml:"user"`
	Group string `yaml:"group"`

	Listen ListenConfig `yaml:"listen"`

	// TLS enables HTTPS on the intake listener when set.
	TLS *TLSConfig `yaml:"tls,omitempty"`

	Telegram *TelegramConfig `yaml:"telegram,omitempty"`
	Slack    *SlackConfig    `yaml:"slack,omitempty"`

	// ExecHooks run external programs before and after every job.
	ExecHooks []ExecHookConfig `yaml:"exec_hooks,omitempty"`

	Worker  WorkerConfig  `yaml:"worker"`
	Archive ArchiveConfig `yaml:"archive"`
	Paths   PathsConfig   `yaml:"paths"`
}

// ListenConfig is the intake HTTP listener address.
type ListenConfig struct {
	Address string `yaml:"address"`
	Port    int    `yaml:"port"`
}

// TLSConfig names the certificate and key served by the intake
// listener.
type TLSConfig struct {
	Certificate string `yaml:"certificate"`
	Key         string `yaml:"key"`
}

// TelegramConfig enables the Telegram bot: job commands in, status
// messages out.
type TelegramConfig struct {
	Token   string  `yaml:"token"`
	SendLog SendLog `yaml:"send_log"`

	// WebhookSecret is the path component Telegram posts updates to
	// (/hooks/telegram/<secret>). Without it the bot only notifies.
	WebhookSecret string `yaml:"webhook_secret,omitempty"`

	// PublicURL is this server's externally reachable base URL, used
	// by "toby telegram setup" to register the webhook.
	PublicURL string `yaml:"public_url,omitempty"`
}

// SlackConfig enables status messages to a Slack channel.
type SlackConfig struct {
	Token   string  `yaml:"token"`
	Channel string  `yaml:"channel"`
	SendLog SendLog `yaml:"send_log"`
}

// ExecHookConfig runs Command on every job event.
type ExecHookConfig struct {
	Name    string   `yaml:"name"`
	Command []string `yaml:"command"`
	SendLog SendLog  `yaml:"send_log"`
}

// WorkerConfig tunes the dispatch side.
type WorkerConfig struct {
	// QueueSize bounds jobs waiting behind the running one in
	// single-process mode.
	QueueSize int `yaml:"queue_size"`
}

// ArchiveConfig selects the archive backend.
type ArchiveConfig struct {
	Backend ArchiveBackend `yaml:"backend"`

	// Path is the SQLite database file. Defaults to
	// <runtime_dir>/archive.db.
	Path string `yaml:"path,omitempty"`
}

// PathsConfig holds the directories toby writes to.
type PathsConfig struct {
	// LogDir receives job logs under jobs/<project>/<id>.log.
	LogDir string `yaml:"log_dir"`

	// RuntimeDir holds the worker socket, job-ID counters, archived
	// job records, and the Telegram chat-id file.
	RuntimeDir string `yaml:"runtime_dir"`
}

// Token is a named webhook credential.
type Token struct {
	Secret string   `yaml:"secret"`
	Access []string `yaml:"access"`
}

// CanAccess reports whether the token may trigger project.
func (t Token) CanAccess(project string) bool {
	return slices.Contains(t.Access, project)
}

// Project is one projects/<name> file.
type Project struct {
	Scripts     []Script          `yaml:"scripts"`
	Environment map[string]string `yaml:"environment,omitempty"`
}

// Script is one command of a project's job.
type Script struct {
	// Command is the argv; the first element is resolved through PATH.
	Command []string `yaml:"command"`

	// AllowFailure lets the job continue when this command fails.
	AllowFailure bool `yaml:"allow_failure"`
}

// DefaultMain returns toby.yaml's defaults. Loaded values override
// them field by field.
func DefaultMain() Main {
	return Main{
		User:  DefaultUser,
		Group: DefaultGroup,
		Listen: ListenConfig{
			Address: "0.0.0.0",
			Port:    DefaultPort,
		},
		Worker:  WorkerConfig{QueueSize: DefaultQueueSize},
		Archive: ArchiveConfig{Backend: ArchiveFile},
		Paths: PathsConfig{
			LogDir:     "/var/log/toby",
			RuntimeDir: "/run/toby",
		},
	}
}

// Dir returns the configuration directory: flagValue when non-empty,
// otherwise TOBY_CONFIG_DIR, otherwise DefaultDir.
func Dir(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if value := os.Getenv(DirEnvironmentVariable); value != "" {
		return value
	}
	return DefaultDir
}

// Load reads and validates the configuration directory.
func Load(directory string) (*Config, error) {
	config, err := LoadUnvalidated(directory)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s:\n%w", directory, err)
	}
	return config, nil
}

// LoadUnvalidated reads the configuration directory without running
// Validate. "toby config check" uses it to report every problem.
func LoadUnvalidated(directory string) (*Config, error) {
	config := &Config{
		Dir:  directory,
		Main: DefaultMain(),
	}

	if err := decodeFile(filepath.Join(directory, MainFileName), &config.Main); err != nil {
		return nil, err
	}

	config.Tokens = make(map[string]Token)
	if err := decodeFile(filepath.Join(directory, TokensFileName), &config.Tokens); err != nil {
		return nil, err
	}

	projects, err := loadProjects(filepath.Join(directory, ProjectsDir))
	if err != nil {
		return nil, err
	}
	config.Projects = projects

	config.expandVariables()
	return config, nil
}

// decodeFile strictly decodes a YAML file into target.
func decodeFile(path string, target any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := decodeStrict(data, target); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

// decodeStrict decodes YAML rejecting unknown keys. Empty input leaves
// target untouched.
func decodeStrict(data []byte, target any) error {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(target); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// expandVariables expands ${VAR} and ${VAR:-default} in paths and
// credentials.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"TOBY_CONFIG_DIR": c.Dir,
		"HOME":            os.Getenv("HOME"),
	}

	c.Main.Paths.LogDir = expandVars(c.Main.Paths.LogDir, vars)
	c.Main.Paths.RuntimeDir = expandVars(c.Main.Paths.RuntimeDir, vars)
	vars["TOBY_RUNTIME_DIR"] = c.Main.Paths.RuntimeDir
	c.Main.Archive.Path = expandVars(c.Main.Archive.Path, vars)

	if c.Main.TLS != nil {
		c.Main.TLS.Certificate = expandVars(c.Main.TLS.Certificate, vars)
		c.Main.TLS.Key = expandVars(c.Main.TLS.Key, vars)
	}
	if c.Main.Telegram != nil {
		c.Main.Telegram.Token = expandVars(c.Main.Telegram.Token, vars)
		c.Main.Telegram.WebhookSecret = expandVars(c.Main.Telegram.WebhookSecret, vars)
	}
	if c.Main.Slack != nil {
		c.Main.Slack.Token = expandVars(c.Main.Slack.Token, vars)
	}
	for name, token := range c.Tokens {
		token.Secret = expandVars(token.Secret, vars)
		c.Tokens[name] = token
	}
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		name, defaultValue := parts[1], parts[2]

		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate reports every problem in the configuration at once.
func (c *Config) Validate() error {
	var errs []error

	settings := c.Main
	if settings.User == "" {
		errs = append(errs, fmt.Errorf("user is required"))
	}
	if settings.Group == "" {
		errs = append(errs, fmt.Errorf("group is required"))
	}
	if settings.Listen.Port < 1 || settings.Listen.Port > 65535 {
		errs = append(errs, fmt.Errorf("listen.port must be between 1 and 65535 (got %d)", settings.Listen.Port))
	}
	if settings.Listen.Address != "" && net.ParseIP(settings.Listen.Address) == nil {
		errs = append(errs, fmt.Errorf("listen.address %q is not an IP address", settings.Listen.Address))
	}
	if settings.TLS != nil && (settings.TLS.Certificate == "" || settings.TLS.Key == "") {
		errs = append(errs, fmt.Errorf("tls requires both certificate and key"))
	}
	if settings.Telegram != nil && settings.Telegram.Token == "" {
		errs = append(errs, fmt.Errorf("telegram.token is required when telegram is configured"))
	}
	if settings.Slack != nil {
		if settings.Slack.Token == "" {
			errs = append(errs, fmt.Errorf("slack.token is required when slack is configured"))
		}
		if settings.Slack.Channel == "" {
			errs = append(errs, fmt.Errorf("slack.channel is required when slack is configured"))
		}
	}
	hookNames := make(map[string]bool)
	for index, hook := range settings.ExecHooks {
		if hook.Name == "" {
			errs = append(errs, fmt.Errorf("exec_hooks[%d].name is required", index))
		} else if hookNames[hook.Name] {
			errs = append(errs, fmt.Errorf("exec_hooks[%d].name %q is used more than once", index, hook.Name))
		}
		hookNames[hook.Name] = true
		if len(hook.Command) == 0 || hook.Command[0] == "" {
			errs = append(errs, fmt.Errorf("exec_hooks[%d].command must not be empty", index))
		}
	}
	if settings.Worker.QueueSize < 1 {
		errs = append(errs, fmt.Errorf("worker.queue_size must be at least 1 (got %d)", settings.Worker.QueueSize))
	}
	switch settings.Archive.Backend {
	case ArchiveFile, ArchiveSQLite:
	default:
		errs = append(errs, fmt.Errorf("archive.backend must be %q or %q (got %q)", ArchiveFile, ArchiveSQLite, settings.Archive.Backend))
	}
	if settings.Paths.LogDir == "" {
		errs = append(errs, fmt.Errorf("paths.log_dir is required"))
	}
	if settings.Paths.RuntimeDir == "" {
		errs = append(errs, fmt.Errorf("paths.runtime_dir is required"))
	}

	for _, name := range sortedKeys(c.Tokens) {
		if c.Tokens[name].Secret == "" {
			errs = append(errs, fmt.Errorf("token %q: secret is required", name))
		}
	}

	for _, name := range c.ProjectNames() {
		project := c.Projects[name]
		if len(project.Scripts) == 0 {
			errs = append(errs, fmt.Errorf("project %q: at least one script is required", name))
		}
		for index, script := range project.Scripts {
			if len(script.Command) == 0 || script.Command[0] == "" {
				errs = append(errs, fmt.Errorf("project %q: scripts[%d].command must not be empty", name, index))
			}
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Warnings lists suspicious but valid settings, such as tokens that
// grant access to projects that do not exist.
func (c *Config) Warnings() []string {
	var warnings []string
	for _, name := range sortedKeys(c.Tokens) {
		for _, project := range c.Tokens[name].Access {
			if _, ok := c.Projects[project]; !ok {
				warnings = append(warnings, fmt.Sprintf("token %q grants access to unknown project %q", name, project))
			}
		}
	}
	if c.Main.Telegram != nil && c.Main.Telegram.WebhookSecret == "" {
		warnings = append(warnings, "telegram.webhook_secret is not set; the bot will not accept commands")
	}
	return warnings
}

// Project returns the named project.
func (c *Config) Project(name string) (Project, bool) {
	project, ok := c.Projects[name]
	return project, ok
}

// Token returns the named webhook token.
func (c *Config) Token(name string) (Token, bool) {
	token, ok := c.Tokens[name]
	return token, ok
}

// ProjectNames returns project names in sorted order.
func (c *Config) ProjectNames() []string {
	return sortedKeys(c.Projects)
}

// ListenAddress returns the intake listener's host:port.
func (c *Config) ListenAddress() string {
	return net.JoinHostPort(c.Main.Listen.Address, strconv.Itoa(c.Main.Listen.Port))
}

// ScriptsDir returns the directory appended to every job's PATH.
func (c *Config) ScriptsDir() string {
	return filepath.Join(c.Dir, ScriptsDir)
}

// LogDir returns the job log root.
func (c *Config) LogDir() string { return c.Main.Paths.LogDir }

// RuntimeDir returns the runtime state root.
func (c *Config) RuntimeDir() string { return c.Main.Paths.RuntimeDir }

// ArchivePath returns the SQLite archive database path.
func (c *Config) ArchivePath() string {
	if c.Main.Archive.Path != "" {
		return c.Main.Archive.Path
	}
	return filepath.Join(c.Main.Paths.RuntimeDir, "archive.db")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
