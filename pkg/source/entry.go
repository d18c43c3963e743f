/*
SPDX-FileCopyrightText: 2025 jackieclzheng

SPDX-License-Identifier: Apache-2.0
*/

package source

import "strings"

// Field identifies one optional slot of an Entry.
type Field int

const (
	FieldBody Field = iota
	FieldScript
	FieldSell
	FieldDeliver
	FieldPYQ
	FieldXHS
	FieldPlatform
	FieldReason
	FieldKeywords
)

// FieldOrder is the schema-independent render order: primary text first,
// then the paired platform variants, then metadata.
var FieldOrder = []Field{
	FieldBody,
	FieldScript,
	FieldSell,
	FieldDeliver,
	FieldPYQ,
	FieldXHS,
	FieldPlatform,
	FieldReason,
	FieldKeywords,
}

var fieldNames = map[Field]string{
	FieldBody:     "body",
	FieldScript:   "script",
	FieldSell:     "sell",
	FieldDeliver:  "deliver",
	FieldPYQ:      "pyq",
	FieldXHS:      "xhs",
	FieldPlatform: "platform",
	FieldReason:   "reason",
	FieldKeywords: "keywords",
}

func (f Field) String() string {
	if name, ok := fieldNames[f]; ok {
		return name
	}
	return "unknown"
}

// ParseField resolves a field by its lower-case name as used in configuration files.
func ParseField(name string) (Field, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for f, n := range fieldNames {
		if n == name {
			return f, true
		}
	}
	return 0, false
}

// Entry is one unit of distributable content.
type Entry struct {
	Title    string `json:"title" yaml:"title"`
	Body     string `json:"body,omitempty" yaml:"body,omitempty"`
	Script   string `json:"script,omitempty" yaml:"script,omitempty"`
	Sell     string `json:"sell,omitempty" yaml:"sell,omitempty"`
	Deliver  string `json:"deliver,omitempty" yaml:"deliver,omitempty"`
	PYQ      string `json:"pyq,omitempty" yaml:"pyq,omitempty"`
	XHS      string `json:"xhs,omitempty" yaml:"xhs,omitempty"`
	Platform string `json:"platform,omitempty" yaml:"platform,omitempty"`
	Reason   string `json:"reason,omitempty" yaml:"reason,omitempty"`
	Keywords string `json:"keywords,omitempty" yaml:"keywords,omitempty"`
}

// Get returns the value stored in the given slot.
func (e Entry) Get(f Field) string {
	switch f {
	case FieldBody:
		return e.Body
	case FieldScript:
		return e.Script
	case FieldSell:
		return e.Sell
	case FieldDeliver:
		return e.Deliver
	case FieldPYQ:
		return e.PYQ
	case FieldXHS:
		return e.XHS
	case FieldPlatform:
		return e.Platform
	case FieldReason:
		return e.Reason
	case FieldKeywords:
		return e.Keywords
	}
	return ""
}

func (e *Entry) set(f Field, v string) {
	switch f {
	case FieldBody:
		e.Body = v
	case FieldScript:
		e.Script = v
	case FieldSell:
		e.Sell = v
	case FieldDeliver:
		e.Deliver = v
	case FieldPYQ:
		e.PYQ = v
	case FieldXHS:
		e.XHS = v
	case FieldPlatform:
		e.Platform = v
	case FieldReason:
		e.Reason = v
	case FieldKeywords:
		e.Keywords = v
	}
}

// HasOptional reports whether any slot besides the title is populated.
func (e Entry) HasOptional() bool {
	for _, f := range FieldOrder {
		if e.Get(f) != "" {
			return true
		}
	}
	return false
}

// Sequence is the ordered list of entries parsed in one run. Position is the
// identity used for rotation; callers must not reorder it.
type Sequence []Entry

// Titles returns the entry titles in sequence order.
func (s Sequence) Titles() []string {
	titles := make([]string, 0, len(s))
	for _, e := range s {
		titles = append(titles, e.Title)
	}
	return titles
}

// Meta holds optional front-matter settings carried by a Markdown source.
type Meta struct {
	SubjectPrefix string `yaml:"subject_prefix" json:"subject_prefix,omitempty"`
	Intro         string `yaml:"intro" json:"intro,omitempty"`
}

// Document is the result of parsing one source file.
type Document struct {
	Path    string
	Schema  Schema
	Entries Sequence
	Meta    Meta
	// Blocks counts raw blocks or rows seen before acceptance checks.
	Blocks int
}
