/*
SPDX-FileCopyrightText: 2025 jackieclzheng

SPDX-License-Identifier: Apache-2.0
*/

package digest

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/Masterminds/sprig/v3"
	"github.com/jackieclzheng/AiBuildIp/pkg/source"
)

// DefaultSeparator joins titles in the subject suffix.
const DefaultSeparator = "、"

// Template controls how a batch is rendered. The zero value renders without
// intro, labels or defaults and joins titles with DefaultSeparator.
type Template struct {
	// Intro is a text/template with sprig functions, executed with IntroData.
	Intro     string
	Separator string
	// Labels maps a field to the line printed above its value. A field with
	// an empty label is printed without a label line.
	Labels map[source.Field]string
	// Defaults substitute empty fields at render time.
	Defaults map[source.Field]string
	Now      func() time.Time
}

// IntroData is the data passed to the intro template.
type IntroData struct {
	Count  int
	Titles []string
	Date   string
}

// DefaultLabels are the section labels used by the built-in digests.
func DefaultLabels() map[source.Field]string {
	return map[source.Field]string{
		source.FieldBody:     "",
		source.FieldScript:   "",
		source.FieldSell:     "【卖点】",
		source.FieldDeliver:  "【交付】",
		source.FieldPYQ:      "【朋友圈】",
		source.FieldXHS:      "【小红书】",
		source.FieldPlatform: "【平台】",
		source.FieldReason:   "【推荐理由】",
		source.FieldKeywords: "【关键词】",
	}
}

func DefaultTemplate() Template {
	return Template{
		Separator: DefaultSeparator,
		Labels:    DefaultLabels(),
		Now:       time.Now,
	}
}

func (t Template) separator() string {
	if t.Separator == "" {
		return DefaultSeparator
	}
	return t.Separator
}

func (t Template) now() time.Time {
	if t.Now == nil {
		return time.Now()
	}
	return t.Now()
}

func (t Template) intro(batch source.Sequence) (string, error) {
	if strings.TrimSpace(t.Intro) == "" {
		return "", nil
	}
	tmpl, err := template.New("intro").Funcs(sprig.TxtFuncMap()).Parse(t.Intro)
	if err != nil {
		return "", fmt.Errorf("failed to parse intro template: %w", err)
	}
	var buf bytes.Buffer
	data := IntroData{
		Count:  len(batch),
		Titles: batch.Titles(),
		Date:   t.now().Format("2006-01-02"),
	}
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute intro template: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}
