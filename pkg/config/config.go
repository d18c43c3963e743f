package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v2"
)

// Mail transports.
const (
	TransportSMTP   = "smtp"
	TransportResend = "resend"
	TransportLog    = "log"
)

const (
	DefaultSMTPHost = "smtp.exmail.qq.com"
	DefaultSMTPPort = 465
	DefaultFromName = "Digest Mail"
)

// ErrUnknownDigest is returned when a digest name is not configured.
var ErrUnknownDigest = errors.New("unknown digest")

type SMTP struct {
	Host     string `yaml:"host" toml:"host"`
	Port     int    `yaml:"port" toml:"port"`
	Username string `yaml:"username" toml:"username"`
	Password string `yaml:"password,omitempty" toml:"password,omitempty"`
	// PasswordFromKeyring reads the password from the OS keyring when
	// Password is empty.
	PasswordFromKeyring bool     `yaml:"passwordFromKeyring,omitempty" toml:"passwordFromKeyring,omitempty"`
	FromName            string   `yaml:"fromName" toml:"fromName"`
	From                string   `yaml:"from,omitempty" toml:"from,omitempty"`
	Recipients          []string `yaml:"recipients" toml:"recipients"`
	InsecureSkipVerify  bool     `yaml:"insecureSkipVerify,omitempty" toml:"insecureSkipVerify,omitempty"`
}

// FromAddress is the envelope sender, falling back to the login name.
func (s SMTP) FromAddress() string {
	if s.From != "" {
		return s.From
	}
	return s.Username
}

type Resend struct {
	APIKey string `yaml:"apiKey,omitempty" toml:"apiKey,omitempty"`
}

// Digest describes one rotating digest: where its entries come from, where
// its cursor lives and how its mail is rendered.
type Digest struct {
	Name string `yaml:"name" toml:"name"`
	// EnvPrefixes name the environment variable prefixes consulted for
	// overrides. The first one is primary; later ones are only consulted for
	// the source path and start index.
	EnvPrefixes   []string          `yaml:"envPrefixes,omitempty" toml:"envPrefixes,omitempty"`
	Source        string            `yaml:"source" toml:"source"`
	State         string            `yaml:"state,omitempty" toml:"state,omitempty"`
	ItemsPerRun   int               `yaml:"itemsPerRun,omitempty" toml:"itemsPerRun,omitempty"`
	StartIndex    int               `yaml:"startIndex,omitempty" toml:"startIndex,omitempty"`
	SubjectPrefix string            `yaml:"subjectPrefix,omitempty" toml:"subjectPrefix,omitempty"`
	Schema        string            `yaml:"schema,omitempty" toml:"schema,omitempty"`
	Intro         string            `yaml:"intro,omitempty" toml:"intro,omitempty"`
	Separator     string            `yaml:"separator,omitempty" toml:"separator,omitempty"`
	Labels        map[string]string `yaml:"labels,omitempty" toml:"labels,omitempty"`
	Defaults      map[string]string `yaml:"defaults,omitempty" toml:"defaults,omitempty"`
}

type Config struct {
	Transport string `yaml:"transport" toml:"transport"`
	// SubjectPrefix overrides every digest's own prefix when set.
	SubjectPrefix string   `yaml:"subjectPrefix,omitempty" toml:"subjectPrefix,omitempty"`
	SMTP          SMTP     `yaml:"smtp" toml:"smtp"`
	Resend        Resend   `yaml:"resend,omitempty" toml:"resend,omitempty"`
	Digests       []Digest `yaml:"digests" toml:"digests"`

	// baseDir anchors relative source and state paths.
	baseDir string
}

// DefaultConfig returns the built-in digests and mail defaults. It carries no
// credentials or recipients.
func DefaultConfig() Config {
	return Config{
		Transport: TransportSMTP,
		SMTP: SMTP{
			Host:     DefaultSMTPHost,
			Port:     DefaultSMTPPort,
			FromName: DefaultFromName,
		},
		Digests: builtinDigests(),
		baseDir: ".",
	}
}

func builtinDigests() []Digest {
	return []Digest{
		{
			Name:          "copywriting",
			EnvPrefixes:   []string{"COPYWRITING"},
			Source:        "project-copywriting-2025-12-11.md",
			State:         ".copywriting_digest_state_v2",
			ItemsPerRun:   2,
			SubjectPrefix: "PyQ文案播报",
			Schema:        "heading-paired",
			Intro:         "今日推送 {{ .Count }} 组文案：",
		},
		{
			Name:          "hot-topics",
			EnvPrefixes:   []string{"HOT_TOPICS"},
			Source:        "hot-video-topics-copywriting.md",
			State:         ".hot_topics_digest_state",
			ItemsPerRun:   3,
			SubjectPrefix: "爆款选题播报",
			Schema:        "heading-paired",
			Intro:         "今日爆款选题（共 {{ .Count }} 组）：",
		},
		{
			Name:          "hot-topics-voiceover",
			EnvPrefixes:   []string{"HOT_TOPICS"},
			Source:        "ai-paid-hot-topics/hot-topics-voiceover.md",
			ItemsPerRun:   1,
			SubjectPrefix: "AI 口播脚本",
			Schema:        "voiceover",
		},
		{
			Name:          "ai-paid-voiceover",
			EnvPrefixes:   []string{"AI_PAID", "HOT_TOPICS"},
			Source:        "ai-paid-hot-topics/ai-paid-hot-topics-voiceover-2025-12-09.md",
			ItemsPerRun:   1,
			SubjectPrefix: "AI 付费口播稿",
			Schema:        "voiceover",
		},
		{
			Name:          "ai-paid-topics",
			EnvPrefixes:   []string{"AI_PAID_TOPICS"},
			Source:        "ai-paid-hot-topics/ai-paid-hot-topics.md",
			ItemsPerRun:   3,
			SubjectPrefix: "AI 爆款选题",
			Schema:        "numbered",
			Defaults: map[string]string{
				"sell":    "直接拆成可复制路径",
				"deliver": "完整 SOP 与模板包",
			},
		},
		{
			Name:          "fitness",
			EnvPrefixes:   []string{"FITNESS"},
			Source:        "fitness-poetic.md",
			ItemsPerRun:   1,
			SubjectPrefix: "健身文案日更",
			Schema:        "single-heading",
		},
		{
			Name:          "topics-csv",
			EnvPrefixes:   []string{"TOPICS_CSV"},
			Source:        "topics.csv",
			ItemsPerRun:   5,
			SubjectPrefix: "选题清单",
		},
	}
}

// Load reads the configuration at path. A missing file yields DefaultConfig
// anchored at the file's directory. Digests from the file replace built-in
// digests of the same name field by field and are appended otherwise.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return &cfg, nil
	}
	cfg.baseDir = filepath.Dir(path)

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &cfg, nil
		}
		return nil, fmt.Errorf("trying to open digestmail config file %s: %w", path, err)
	}

	builtins := cfg.Digests
	cfg.Digests = nil
	if err := unmarshal(path, content, &cfg); err != nil {
		return nil, err
	}
	cfg.Digests = mergeDigests(builtins, cfg.Digests)
	return &cfg, nil
}

func unmarshal(path string, content []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(content, cfg); err != nil {
			return fmt.Errorf("error unmarshaling TOML %s: %w", path, err)
		}
	default:
		if err := yaml.Unmarshal(content, cfg); err != nil {
			return fmt.Errorf("error unmarshaling YAML %s: %w", path, err)
		}
	}
	return nil
}

// Save writes cfg as YAML, or TOML when path ends in .toml.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	var (
		content []byte
		err     error
	)
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		content, err = toml.Marshal(cfg)
	} else {
		content, err = yaml.Marshal(cfg)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	return os.WriteFile(path, content, 0o600)
}

func mergeDigests(base, overrides []Digest) []Digest {
	out := make([]Digest, len(base))
	copy(out, base)
	for _, o := range overrides {
		idx := -1
		for i := range out {
			if out[i].Name == o.Name {
				idx = i
				break
			}
		}
		if idx < 0 {
			out = append(out, o)
			continue
		}
		out[idx] = overlay(out[idx], o)
	}
	return out
}

func overlay(d, o Digest) Digest {
	if len(o.EnvPrefixes) > 0 {
		d.EnvPrefixes = o.EnvPrefixes
	}
	setString(&d.Source, o.Source)
	setString(&d.State, o.State)
	setString(&d.SubjectPrefix, o.SubjectPrefix)
	setString(&d.Schema, o.Schema)
	setString(&d.Intro, o.Intro)
	setString(&d.Separator, o.Separator)
	if o.ItemsPerRun != 0 {
		d.ItemsPerRun = o.ItemsPerRun
	}
	if o.StartIndex != 0 {
		d.StartIndex = o.StartIndex
	}
	if o.Labels != nil {
		d.Labels = o.Labels
	}
	if o.Defaults != nil {
		d.Defaults = o.Defaults
	}
	return d
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// Digest returns the digest configured under name.
func (c *Config) Digest(name string) (*Digest, error) {
	for i := range c.Digests {
		if c.Digests[i].Name == name {
			return &c.Digests[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownDigest, name)
}

// DigestNames lists the configured digests in configuration order.
func (c *Config) DigestNames() []string {
	names := make([]string, 0, len(c.Digests))
	for _, d := range c.Digests {
		names = append(names, d.Name)
	}
	return names
}

// BaseDir is the directory relative paths are resolved against.
func (c *Config) BaseDir() string {
	if c.baseDir == "" {
		return "."
	}
	return c.baseDir
}

// SetBaseDir overrides the directory relative paths are resolved against.
func (c *Config) SetBaseDir(dir string) {
	c.baseDir = dir
}
