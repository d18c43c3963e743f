package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"github.com/jackieclzheng/AiBuildIp/pkg/source"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func lookupFrom(m map[string]string) LookupFunc {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, TransportSMTP, cfg.Transport)
	assert.Equal(t, DefaultSMTPPort, cfg.SMTP.Port)
	assert.Empty(t, cfg.SMTP.Password)
	assert.Empty(t, cfg.SMTP.Recipients)
	assert.Equal(t, []string{
		"copywriting", "hot-topics", "hot-topics-voiceover", "ai-paid-voiceover",
		"ai-paid-topics", "fitness", "topics-csv",
	}, cfg.DigestNames())
	require.NoError(t, cfg.ValidateDigests())
}

func TestLoad_MissingFileFallsBackToDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(filepath.Join(dir, "digestmail.yaml"))
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.BaseDir())
	assert.Len(t, cfg.Digests, len(builtinDigests()))
}

func TestLoad_YAMLMergesDigests(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "digestmail.yaml", `
transport: log
smtp:
  host: smtp.example.com
  recipients: [a@example.com, b@example.com]
digests:
  - name: copywriting
    itemsPerRun: 4
  - name: weekly
    source: weekly.md
    schema: single-heading
    labels:
      body: "【正文】"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, TransportLog, cfg.Transport)
	assert.Equal(t, "smtp.example.com", cfg.SMTP.Host)
	assert.Equal(t, DefaultSMTPPort, cfg.SMTP.Port, "defaults survive partial files")
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, cfg.SMTP.Recipients)

	cw, err := cfg.Digest("copywriting")
	require.NoError(t, err)
	assert.Equal(t, 4, cw.ItemsPerRun)
	assert.Equal(t, "project-copywriting-2025-12-11.md", cw.Source)
	assert.Equal(t, "PyQ文案播报", cw.SubjectPrefix)

	weekly, err := cfg.Digest("weekly")
	require.NoError(t, err)
	assert.Equal(t, "single-heading", weekly.Schema)
	assert.Equal(t, filepath.Join(dir, "weekly.md"), cfg.SourcePath(*weekly))
	assert.Equal(t, filepath.Join(dir, ".weekly_state_weekly"), cfg.StatePath(*weekly))

	_, err = cfg.Digest("nope")
	assert.ErrorIs(t, err, ErrUnknownDigest)
}

func TestLoad_TOML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "digestmail.toml", `
transport = "resend"

[smtp]
from = "digest@example.com"
recipients = ["ops@example.com"]

[resend]
apiKey = "re_test"

[[digests]]
name = "fitness"
startIndex = 3
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, TransportResend, cfg.Transport)
	assert.Equal(t, "re_test", cfg.Resend.APIKey)
	fitness, err := cfg.Digest("fitness")
	require.NoError(t, err)
	assert.Equal(t, 3, fitness.StartIndex)
	assert.Equal(t, "fitness-poetic.md", fitness.Source)
	require.NoError(t, cfg.ValidateMail())
}

func TestLoad_InvalidFile(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(writeFile(t, dir, "bad.yaml", "digests: [unterminated"))
	assert.Error(t, err)
	_, err = Load(writeFile(t, dir, "bad.toml", "transport = "))
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	for _, name := range []string{"out.yaml", "out.toml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)
			cfg := DefaultConfig()
			cfg.SMTP.Recipients = []string{"x@example.com"}
			require.NoError(t, Save(path, &cfg))

			loaded, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, cfg.SMTP, loaded.SMTP)
			assert.Equal(t, cfg.DigestNames(), loaded.DigestNames())
		})
	}
	assert.Error(t, Save(filepath.Join(t.TempDir(), "x.yaml"), nil))
}

func TestApplyEnv(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.ApplyEnv(lookupFrom(map[string]string{
		"SMTP_HOST":                 "smtp.test",
		"SMTP_PORT":                 "2525",
		"SMTP_USERNAME":             "bot@test",
		"SMTP_PASSWORD":             "secret",
		"FROM_NAME":                 "Bot",
		"SMTP_RECIPIENT":            "a@test, b@test,,",
		"SUBJECT_PREFIX":            "全局前缀",
		"COPYWRITING_MARKDOWN_PATH": "copy/other.md",
		"COPYWRITING_ITEMS_PER_RUN": "5",
		"HOT_TOPICS_MARKDOWN":       "hot.md",
		"HOT_TOPICS_START_INDEX":    "7",
		"AI_PAID_SOURCE":            "paid.md",
		"FITNESS_STATE_PATH":        "/var/lib/fitness.state",
		"TOPICS_CSV_SOURCE":         "   ",
	}))
	require.NoError(t, err)

	assert.Equal(t, "smtp.test", cfg.SMTP.Host)
	assert.Equal(t, 2525, cfg.SMTP.Port)
	assert.Equal(t, "secret", cfg.SMTP.Password)
	assert.Equal(t, "Bot", cfg.SMTP.FromName)
	assert.Equal(t, "bot@test", cfg.SMTP.FromAddress())
	assert.Equal(t, []string{"a@test", "b@test"}, cfg.SMTP.Recipients)
	assert.Equal(t, "全局前缀", cfg.SubjectPrefix)

	get := func(name string) *Digest {
		d, err := cfg.Digest(name)
		require.NoError(t, err)
		return d
	}
	assert.Equal(t, "copy/other.md", get("copywriting").Source)
	assert.Equal(t, 5, get("copywriting").ItemsPerRun)
	assert.Equal(t, "hot.md", get("hot-topics").Source)
	assert.Equal(t, 7, get("hot-topics-voiceover").StartIndex)
	assert.Equal(t, "paid.md", get("ai-paid-voiceover").Source, "primary prefix wins")
	assert.Equal(t, 7, get("ai-paid-voiceover").StartIndex, "secondary prefix consulted for start index")
	assert.Equal(t, 1, get("ai-paid-voiceover").ItemsPerRun, "secondary prefix not consulted for count")
	assert.Equal(t, "/var/lib/fitness.state", cfg.StatePath(*get("fitness")))
	assert.Equal(t, "topics.csv", get("topics-csv").Source, "blank values are ignored")
}

func TestApplyEnv_DerivedPrefix(t *testing.T) {
	cfg := Config{Digests: []Digest{{Name: "my-weekly.list", Source: "a.md"}}}
	require.NoError(t, cfg.ApplyEnv(lookupFrom(map[string]string{"MY_WEEKLY_LIST_SOURCE": "b.md"})))
	assert.Equal(t, "b.md", cfg.Digests[0].Source)
}

func TestApplyEnv_InvalidInteger(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.ApplyEnv(lookupFrom(map[string]string{"SMTP_PORT": "smtp"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SMTP_PORT")

	cfg = DefaultConfig()
	err = cfg.ApplyEnv(lookupFrom(map[string]string{"FITNESS_ITEMS_PER_RUN": "two"}))
	assert.Error(t, err)
}

func TestApplyEnv_ProcessEnvironment(t *testing.T) {
	t.Setenv("SMTP_HOST", "from-process")
	t.Setenv("SMTP_INSECURE_SKIP_VERIFY", "yes")
	cfg := DefaultConfig()
	require.NoError(t, cfg.ApplyEnv(nil))
	assert.Equal(t, "from-process", cfg.SMTP.Host)
	assert.True(t, cfg.SMTP.InsecureSkipVerify)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, ".env", "DIGESTMAIL_TEST_FROM_DOTENV=loaded\nDIGESTMAIL_TEST_PRESET=dotenv\n")
	t.Setenv("DIGESTMAIL_TEST_PRESET", "process")
	t.Cleanup(func() { _ = os.Unsetenv("DIGESTMAIL_TEST_FROM_DOTENV") })

	require.NoError(t, LoadDotEnv("", filepath.Join(dir, "missing.env"), path))
	assert.Equal(t, "loaded", os.Getenv("DIGESTMAIL_TEST_FROM_DOTENV"))
	assert.Equal(t, "process", os.Getenv("DIGESTMAIL_TEST_PRESET"), "existing variables are not overridden")
}

func TestStatePath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SetBaseDir("/srv/digests")

	tests := []struct {
		digest string
		want   string
	}{
		{digest: "copywriting", want: "/srv/digests/.copywriting_digest_state_v2"},
		{digest: "hot-topics-voiceover", want: "/srv/digests/.hot_topics_voiceover_state_hot-topics-voiceover"},
		{digest: "ai-paid-voiceover", want: "/srv/digests/.ai_paid_voiceover_state_ai-paid-hot-topics-voiceover-2025-12-09"},
		{digest: "fitness", want: "/srv/digests/.fitness_state_fitness-poetic"},
	}
	for _, tt := range tests {
		t.Run(tt.digest, func(t *testing.T) {
			d, err := cfg.Digest(tt.digest)
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.StatePath(*d))
		})
	}
	assert.Equal(t, "/abs/source.md", cfg.ResolvePath("/abs/source.md"))
}

func TestValidateDigests(t *testing.T) {
	tests := []struct {
		name    string
		digest  Digest
		wantErr bool
	}{
		{name: "valid", digest: Digest{Name: "ok", Source: "a.md", Schema: "numbered", Labels: map[string]string{"sell": "x"}}},
		{name: "missing source", digest: Digest{Name: "ok"}, wantErr: true},
		{name: "bad name", digest: Digest{Name: "Bad Name", Source: "a.md"}, wantErr: true},
		{name: "negative count", digest: Digest{Name: "ok", Source: "a.md", ItemsPerRun: -1}, wantErr: true},
		{name: "negative start", digest: Digest{Name: "ok", Source: "a.md", StartIndex: -2}, wantErr: true},
		{name: "unknown schema", digest: Digest{Name: "ok", Source: "a.md", Schema: "json"}, wantErr: true},
		{name: "unknown default field", digest: Digest{Name: "ok", Source: "a.md", Defaults: map[string]string{"price": "1"}}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{Digests: []Digest{tt.digest}}
			err := cfg.ValidateDigests()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	dup := Config{Digests: []Digest{{Name: "a", Source: "x"}, {Name: "a", Source: "y"}}}
	assert.Error(t, dup.ValidateDigests())
}

func TestValidateMail(t *testing.T) {
	valid := func() Config {
		cfg := DefaultConfig()
		cfg.SMTP.Username = "bot@example.com"
		cfg.SMTP.Password = "pw"
		cfg.SMTP.Recipients = []string{"me@example.com"}
		return cfg
	}
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid smtp", mutate: func(*Config) {}},
		{name: "unauthenticated relay", mutate: func(c *Config) { c.SMTP.Username, c.SMTP.Password = "", "" }},
		{name: "missing password", mutate: func(c *Config) { c.SMTP.Password = "" }, wantErr: true},
		{name: "no recipients", mutate: func(c *Config) { c.SMTP.Recipients = nil }, wantErr: true},
		{name: "bad recipient", mutate: func(c *Config) { c.SMTP.Recipients = []string{"nobody"} }, wantErr: true},
		{name: "bad port", mutate: func(c *Config) { c.SMTP.Port = 70000 }, wantErr: true},
		{name: "unknown transport", mutate: func(c *Config) { c.Transport = "pigeon" }, wantErr: true},
		{name: "log needs nothing", mutate: func(c *Config) { *c = Config{Transport: TransportLog} }},
		{name: "resend without key", mutate: func(c *Config) { c.Transport = TransportResend }, wantErr: true},
		{name: "resend with key", mutate: func(c *Config) { c.Transport = TransportResend; c.Resend.APIKey = "re_x" }},
		{name: "resend bad from", mutate: func(c *Config) {
			c.Transport, c.Resend.APIKey, c.SMTP.From = TransportResend, "re_x", "bot at example.com"
		}, wantErr: true},
		{name: "recipient with display name", mutate: func(c *Config) { c.SMTP.Recipients = []string{"Me <me@example.com>"} }, wantErr: true},
		{name: "recipient with space", mutate: func(c *Config) { c.SMTP.Recipients = []string{"me @example.com"} }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.ValidateMail()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestResolveSecrets(t *testing.T) {
	keyring.MockInit()
	require.NoError(t, StorePassword("bot@example.com", "from-keyring"))

	cfg := DefaultConfig()
	cfg.SMTP.Username = "bot@example.com"
	cfg.SMTP.PasswordFromKeyring = true
	require.NoError(t, cfg.ResolveSecrets())
	assert.Equal(t, "from-keyring", cfg.SMTP.Password)

	cfg.SMTP.Password = "explicit"
	require.NoError(t, cfg.ResolveSecrets())
	assert.Equal(t, "explicit", cfg.SMTP.Password, "explicit password wins")

	missing := DefaultConfig()
	missing.SMTP.Username = "unknown@example.com"
	missing.SMTP.PasswordFromKeyring = true
	assert.Error(t, missing.ResolveSecrets())

	noUser := DefaultConfig()
	noUser.SMTP.PasswordFromKeyring = true
	assert.Error(t, noUser.ResolveSecrets())
}

func TestDigestTemplate(t *testing.T) {
	cfg := DefaultConfig()
	d, err := cfg.Digest("ai-paid-topics")
	require.NoError(t, err)

	tmpl, err := d.Template()
	require.NoError(t, err)
	assert.Equal(t, "完整 SOP 与模板包", tmpl.Defaults[source.FieldDeliver])
	assert.Equal(t, "【朋友圈】", tmpl.Labels[source.FieldPYQ])

	custom := Digest{Name: "x", Separator: " / ", Labels: map[string]string{"pyq": "[PYQ]"}}
	tmpl, err = custom.Template()
	require.NoError(t, err)
	assert.Equal(t, " / ", tmpl.Separator)
	assert.Equal(t, "[PYQ]", tmpl.Labels[source.FieldPYQ])

	_, err = Digest{Name: "x", Labels: map[string]string{"nope": ""}}.Template()
	assert.Error(t, err)

	schema, err := d.SourceSchema()
	require.NoError(t, err)
	assert.Equal(t, source.SchemaNumbered, schema)

	for _, name := range []string{"hot-topics-voiceover", "ai-paid-voiceover"} {
		v, err := cfg.Digest(name)
		require.NoError(t, err)
		schema, err := v.SourceSchema()
		require.NoError(t, err)
		assert.Equal(t, source.SchemaVoiceover, schema, name)
	}
}
