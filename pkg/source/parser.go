/*
SPDX-FileCopyrightText: 2025 jackieclzheng

SPDX-License-Identifier: Apache-2.0
*/

package source

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/adrg/frontmatter"
)

var (
	// ErrSourceNotFound is returned when the source path does not exist.
	ErrSourceNotFound = errors.New("source file not found")
	// ErrEmptyResult is returned when parsing accepted zero entries.
	ErrEmptyResult = errors.New("no entries parsed from source")
	// ErrMalformedSchema accompanies ErrEmptyResult when blocks were found but
	// none carried the fields the schema requires.
	ErrMalformedSchema = errors.New("no block satisfied the schema")
)

// Parse reads the source at path and parses it with the given schema, or with
// the classified schema when schema is SchemaAuto.
func Parse(path string, schema Schema) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, path)
		}
		return nil, fmt.Errorf("failed to read source %s: %w", path, err)
	}
	return ParseBytes(path, data, schema)
}

// ParseBytes parses in-memory source content. name is only used for its
// extension and in error messages.
func ParseBytes(name string, data []byte, schema Schema) (*Document, error) {
	doc := &Document{Path: name}

	var rows [][]string
	var err error
	switch formatOf(name) {
	case formatCSV:
		rows, err = readCSV(data)
	case formatXLSX:
		rows, err = readXLSX(data)
	default:
		data, err = doc.readFrontMatter(data)
	}
	if err != nil {
		return nil, fmt.Errorf("source %s: %w", name, err)
	}

	if schema == SchemaAuto {
		if rows != nil {
			schema = classifyRows(rows, headeredFor(name), plainFor(name))
		} else {
			schema = Classify(name, data)
		}
	}
	doc.Schema = schema
	if schema != SchemaUnknown && schema.tabular() != (formatOf(name) != formatText) {
		return nil, fmt.Errorf("source %s: schema %s does not match the file format", name, schema)
	}

	switch schema {
	case SchemaNumbered:
		doc.Entries, doc.Blocks = parseNumbered(splitLines(data))
	case SchemaVoiceover:
		doc.Entries, doc.Blocks = parseVoiceover(splitLines(data))
	case SchemaHeadingPaired:
		doc.Entries, doc.Blocks = parseHeadingPaired(splitLines(data))
	case SchemaSingleHeading:
		doc.Entries, doc.Blocks = parseSingleHeading(splitLines(data))
	case SchemaCSVHeadered, SchemaXLSXHeadered:
		doc.Entries, doc.Blocks = parseHeaderedRows(rows)
	case SchemaCSVPlain, SchemaXLSXPlain:
		doc.Entries, doc.Blocks = parsePlainRows(rows)
	}

	if len(doc.Entries) == 0 {
		if doc.Blocks > 0 {
			return nil, fmt.Errorf("%w: %w: %s (schema %s, %d blocks)", ErrEmptyResult, ErrMalformedSchema, name, schema, doc.Blocks)
		}
		return nil, fmt.Errorf("%w: %s (schema %s)", ErrEmptyResult, name, schema)
	}
	return doc, nil
}

func headeredFor(name string) Schema {
	if formatOf(name) == formatXLSX {
		return SchemaXLSXHeadered
	}
	return SchemaCSVHeadered
}

func plainFor(name string) Schema {
	if formatOf(name) == formatXLSX {
		return SchemaXLSXPlain
	}
	return SchemaCSVPlain
}

// readFrontMatter strips a leading YAML front-matter block and stores its
// settings on the document.
func (d *Document) readFrontMatter(data []byte) ([]byte, error) {
	if !hasFrontMatter(data) {
		return data, nil
	}
	data = bytes.TrimPrefix(data, []byte(bom))
	body, err := frontmatter.Parse(bytes.NewReader(data), &d.Meta)
	if err != nil {
		return nil, fmt.Errorf("parse front matter: %w", err)
	}
	return body, nil
}

func hasFrontMatter(data []byte) bool {
	data = bytes.TrimPrefix(data, []byte(bom))
	return bytes.HasPrefix(data, []byte("---\n")) || bytes.HasPrefix(data, []byte("---\r\n"))
}

func bodyWithoutFrontMatter(data []byte) []byte {
	var d Document
	body, err := d.readFrontMatter(data)
	if err != nil {
		return data
	}
	return body
}
