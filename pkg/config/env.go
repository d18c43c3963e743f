package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// LoadDotEnv loads KEY=VALUE pairs from the given files into the process
// environment without overriding variables that are already set. Missing
// files are skipped.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load env file %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv applies environment overrides. It is called once at startup, after
// the file is loaded and before any digest runs.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	env := envReader{lookup: lookup}

	env.str(&c.Transport, "MAIL_TRANSPORT")
	env.str(&c.SubjectPrefix, "SUBJECT_PREFIX")
	env.str(&c.SMTP.Host, "SMTP_HOST")
	env.str(&c.SMTP.Username, "SMTP_USERNAME")
	env.str(&c.SMTP.Password, "SMTP_PASSWORD")
	env.str(&c.SMTP.FromName, "FROM_NAME")
	env.str(&c.SMTP.From, "SMTP_FROM")
	env.str(&c.Resend.APIKey, "RESEND_API_KEY")
	env.boolean(&c.SMTP.InsecureSkipVerify, "SMTP_INSECURE_SKIP_VERIFY")
	env.integer(&c.SMTP.Port, "SMTP_PORT")
	if v, ok := env.get("SMTP_RECIPIENT"); ok {
		c.SMTP.Recipients = splitList(v)
	}

	for i := range c.Digests {
		d := &c.Digests[i]
		prefixes := d.envPrefixes()
		primary := prefixes[:1]

		env.first(&d.Source, keys(prefixes, "_SOURCE", "_MARKDOWN", "_MARKDOWN_PATH")...)
		env.first(&d.State, keys(primary, "_STATE_PATH")...)
		env.first(&d.SubjectPrefix, keys(primary, "_SUBJECT_PREFIX")...)
		env.integer(&d.ItemsPerRun, keys(primary, "_ITEMS_PER_RUN")...)
		env.integer(&d.StartIndex, keys(prefixes, "_START_INDEX")...)
	}
	return env.err
}

// envPrefixes falls back to the upper snake case of the digest name.
func (d Digest) envPrefixes() []string {
	if len(d.EnvPrefixes) > 0 {
		return d.EnvPrefixes
	}
	return []string{strings.ToUpper(snake(d.Name))}
}

func keys(prefixes []string, suffixes ...string) []string {
	var out []string
	for _, p := range prefixes {
		for _, s := range suffixes {
			out = append(out, p+s)
		}
	}
	return out
}

func snake(name string) string {
	return strings.NewReplacer("-", "_", ".", "_", " ", "_").Replace(name)
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// envReader collects the first conversion error so ApplyEnv reads like a
// flat list of assignments.
type envReader struct {
	lookup LookupFunc
	err    error
}

func (e *envReader) get(key string) (string, bool) {
	v, ok := e.lookup(key)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func (e *envReader) str(dst *string, key string) {
	if v, ok := e.get(key); ok {
		*dst = v
	}
}

func (e *envReader) first(dst *string, keys ...string) {
	for _, k := range keys {
		if v, ok := e.get(k); ok {
			*dst = v
			return
		}
	}
}

func (e *envReader) integer(dst *int, keys ...string) {
	for _, k := range keys {
		v, ok := e.get(k)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			if e.err == nil {
				e.err = fmt.Errorf("invalid integer in %s=%q: %w", k, v, err)
			}
			return
		}
		*dst = n
		return
	}
}

// boolean accepts "true", "1", "yes" and "false", "0", "no" (case-insensitive).
func (e *envReader) boolean(dst *bool, key string) {
	v, ok := e.get(key)
	if !ok {
		return
	}
	switch strings.ToLower(v) {
	case "true", "1", "yes":
		*dst = true
	case "false", "0", "no":
		*dst = false
	}
}
