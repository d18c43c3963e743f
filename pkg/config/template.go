package config

import (
	"fmt"

	"github.com/jackieclzheng/AiBuildIp/pkg/digest"
	"github.com/jackieclzheng/AiBuildIp/pkg/source"
)

// Template builds the render template of d on top of the default labels.
func (d Digest) Template() (digest.Template, error) {
	tmpl := digest.DefaultTemplate()
	tmpl.Intro = d.Intro
	if d.Separator != "" {
		tmpl.Separator = d.Separator
	}
	for name, label := range d.Labels {
		f, ok := source.ParseField(name)
		if !ok {
			return digest.Template{}, fmt.Errorf("digest %q: unknown label field %q", d.Name, name)
		}
		tmpl.Labels[f] = label
	}
	if len(d.Defaults) > 0 {
		tmpl.Defaults = make(map[source.Field]string, len(d.Defaults))
		for name, value := range d.Defaults {
			f, ok := source.ParseField(name)
			if !ok {
				return digest.Template{}, fmt.Errorf("digest %q: unknown default field %q", d.Name, name)
			}
			tmpl.Defaults[f] = value
		}
	}
	return tmpl, nil
}

// SourceSchema parses the configured schema of d.
func (d Digest) SourceSchema() (source.Schema, error) {
	return source.ParseSchema(d.Schema)
}
