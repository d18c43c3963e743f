/*
SPDX-FileCopyrightText: 2025 jackieclzheng

SPDX-License-Identifier: Apache-2.0
*/

package digest

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jackieclzheng/AiBuildIp/pkg/source"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Message is a rendered digest before a subject prefix is applied.
type Message struct {
	SubjectSuffix string
	Body          string
}

// Render builds the digest for batch. Entries appear in batch order, fields in
// source.FieldOrder. When no entry carries any field besides its title the
// body is a compact numbered list of titles.
func Render(batch source.Sequence, tmpl Template) (Message, error) {
	intro, err := tmpl.intro(batch)
	if err != nil {
		return Message{}, err
	}

	var lines []string
	if intro != "" {
		lines = append(lines, intro, "")
	}

	if !anyOptional(batch) {
		for i, e := range batch {
			lines = append(lines, fmt.Sprintf("%d. %s", i+1, e.Title))
		}
	} else {
		for _, e := range batch {
			lines = append(lines, "## "+e.Title, "")
			for _, f := range source.FieldOrder {
				value := strings.TrimSpace(e.Get(f))
				if value == "" {
					value = strings.TrimSpace(tmpl.Defaults[f])
				}
				if value == "" {
					continue
				}
				if label := tmpl.Labels[f]; label != "" {
					lines = append(lines, label)
				}
				lines = append(lines, value, "")
			}
		}
	}

	return Message{
		SubjectSuffix: strings.Join(batch.Titles(), tmpl.separator()),
		Body:          strings.TrimSpace(strings.Join(lines, "\n")) + "\n",
	}, nil
}

// anyOptional is evaluated on parsed fields only; defaults never switch a
// title-only batch to the sectioned layout.
func anyOptional(batch source.Sequence) bool {
	for _, e := range batch {
		if e.HasOptional() {
			return true
		}
	}
	return false
}

// Subject prepends prefix to the rendered suffix.
func Subject(prefix, suffix string) string {
	prefix = strings.TrimSpace(prefix)
	switch {
	case prefix == "":
		return suffix
	case suffix == "":
		return prefix
	}
	return prefix + " - " + suffix
}

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

// RenderHTML converts a Markdown body into an HTML document fragment.
func RenderHTML(body string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(body), &buf); err != nil {
		return "", fmt.Errorf("failed to render html: %w", err)
	}
	return buf.String(), nil
}
