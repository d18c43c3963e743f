package config

import (
	"path/filepath"
	"strings"
)

// ResolvePath anchors a relative path at the config directory.
func (c *Config) ResolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.BaseDir(), p)
}

// SourcePath is the resolved source file of d.
func (c *Config) SourcePath(d Digest) string {
	return c.ResolvePath(d.Source)
}

// StatePath is the resolved cursor file of d. Without an explicit state path
// the name is derived from the digest and the source stem, so switching the
// source starts a fresh rotation.
func (c *Config) StatePath(d Digest) string {
	if d.State != "" {
		return c.ResolvePath(d.State)
	}
	return c.ResolvePath(DerivedStateName(d.Name, d.Source))
}

// DerivedStateName returns ".<digest>_state_<source stem>" with the digest
// name in snake case.
func DerivedStateName(digest, source string) string {
	base := filepath.Base(source)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return "." + snake(digest) + "_state_" + stem
}
