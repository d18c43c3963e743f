/*
SPDX-FileCopyrightText: 2025 jackieclzheng

SPDX-License-Identifier: Apache-2.0
*/

package source

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Schema names one recognized source structure.
type Schema string

const (
	SchemaAuto          Schema = ""
	SchemaNumbered      Schema = "numbered"
	SchemaVoiceover     Schema = "voiceover"
	SchemaHeadingPaired Schema = "heading-paired"
	SchemaSingleHeading Schema = "single-heading"
	SchemaCSVHeadered   Schema = "csv-headered"
	SchemaCSVPlain      Schema = "csv-plain"
	SchemaXLSXHeadered  Schema = "xlsx-headered"
	SchemaXLSXPlain     Schema = "xlsx-plain"
	SchemaUnknown       Schema = "unknown"
)

// Schemas lists every schema that can be forced through configuration.
var Schemas = []Schema{
	SchemaNumbered,
	SchemaVoiceover,
	SchemaHeadingPaired,
	SchemaSingleHeading,
	SchemaCSVHeadered,
	SchemaCSVPlain,
	SchemaXLSXHeadered,
	SchemaXLSXPlain,
}

// ParseSchema validates a configured schema name. The empty string and
// "auto" select classification.
func ParseSchema(name string) (Schema, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || name == "auto" {
		return SchemaAuto, nil
	}
	for _, s := range Schemas {
		if string(s) == name {
			return s, nil
		}
	}
	return SchemaUnknown, fmt.Errorf("unknown source schema %q", name)
}

func (s Schema) tabular() bool {
	switch s {
	case SchemaCSVHeadered, SchemaCSVPlain, SchemaXLSXHeadered, SchemaXLSXPlain:
		return true
	}
	return false
}

type format int

const (
	formatText format = iota
	formatCSV
	formatXLSX
)

func formatOf(name string) format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return formatCSV
	case ".xlsx", ".xlsm":
		return formatXLSX
	}
	return formatText
}

// Classify picks the schema for a source from its file extension and, for
// text sources, from the structural markers present in the content. It does
// not touch the filesystem.
func Classify(name string, data []byte) Schema {
	switch formatOf(name) {
	case formatCSV:
		rows, err := readCSV(data)
		if err != nil {
			return SchemaUnknown
		}
		return classifyRows(rows, SchemaCSVHeadered, SchemaCSVPlain)
	case formatXLSX:
		rows, err := readXLSX(data)
		if err != nil {
			return SchemaUnknown
		}
		return classifyRows(rows, SchemaXLSXHeadered, SchemaXLSXPlain)
	}
	return classifyText(splitLines(bodyWithoutFrontMatter(data)))
}

func classifyRows(rows [][]string, headered, plain Schema) Schema {
	if len(rows) > 0 {
		if _, ok := headerColumns(rows[0]); ok {
			return headered
		}
	}
	return plain
}

func classifyText(lines []string) Schema {
	var hasPYQ, hasXHS, hasScript, numbered, heading bool
	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		switch {
		case strings.HasPrefix(line, markerPYQ):
			hasPYQ = true
		case strings.HasPrefix(line, markerXHS):
			hasXHS = true
		}
		if m := itemPattern.FindStringSubmatch(line); m != nil {
			if f, ok := labelField(m[1]); ok && f == FieldScript {
				hasScript = true
			}
		}
		if _, ok := numberedTitle(line); ok {
			numbered = true
		} else if strings.HasPrefix(line, "##") {
			heading = true
		}
	}
	switch {
	case hasPYQ || hasXHS:
		return SchemaHeadingPaired
	case numbered && hasScript:
		return SchemaVoiceover
	case numbered:
		return SchemaNumbered
	case heading:
		return SchemaSingleHeading
	}
	return SchemaUnknown
}
