/*
SPDX-FileCopyrightText: 2025 jackieclzheng

SPDX-License-Identifier: Apache-2.0
*/

package source

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

const bom = "\ufeff"

var (
	titleTokens    = []string{"title", "标题", "选题", "topic", "主题"}
	platformTokens = []string{"platform", "平台"}
	reasonTokens   = []string{"reason", "理由", "推荐理由"}
	keywordTokens  = []string{"keywords", "keyword", "关键词"}
)

type columns struct {
	title, platform, reason, keywords int
}

func normalizeCell(cell string) string {
	return strings.TrimSpace(strings.ReplaceAll(cell, bom, ""))
}

func columnOf(header []string, tokens []string) int {
	for i, cell := range header {
		name := strings.ToLower(normalizeCell(cell))
		for _, t := range tokens {
			if name == t {
				return i
			}
		}
	}
	return -1
}

// headerColumns maps a header row to column positions. It fails when the row
// has no recognized title column.
func headerColumns(header []string) (columns, bool) {
	cols := columns{
		title:    columnOf(header, titleTokens),
		platform: columnOf(header, platformTokens),
		reason:   columnOf(header, reasonTokens),
		keywords: columnOf(header, keywordTokens),
	}
	return cols, cols.title >= 0
}

func isHeaderToken(cell string) bool {
	name := strings.ToLower(normalizeCell(cell))
	for _, group := range [][]string{titleTokens, platformTokens, reasonTokens, keywordTokens} {
		for _, t := range group {
			if name == t {
				return true
			}
		}
	}
	return false
}

func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return cleanField(normalizeCell(row[idx]))
}

func emptyRow(row []string) bool {
	for _, cell := range row {
		if normalizeCell(cell) != "" {
			return false
		}
	}
	return true
}

func parseHeaderedRows(rows [][]string) (Sequence, int) {
	if len(rows) == 0 {
		return nil, 0
	}
	cols, ok := headerColumns(rows[0])
	if !ok {
		return nil, 0
	}
	c := newCollector(false)
	blocks := 0
	for _, row := range rows[1:] {
		if emptyRow(row) {
			continue
		}
		blocks++
		c.add(Entry{
			Title:    cellAt(row, cols.title),
			Platform: cellAt(row, cols.platform),
			Reason:   cellAt(row, cols.reason),
			Keywords: cellAt(row, cols.keywords),
		})
	}
	return c.entries, blocks
}

func parsePlainRows(rows [][]string) (Sequence, int) {
	c := newCollector(false)
	blocks := 0
	for i, row := range rows {
		if emptyRow(row) {
			continue
		}
		if i == 0 && isHeaderToken(row[0]) {
			continue
		}
		blocks++
		c.add(Entry{Title: cellAt(row, 0)})
	}
	return c.entries, blocks
}

func readCSV(data []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	var rows [][]string
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv: %w", err)
		}
		rows = append(rows, record)
	}
}

// readXLSX returns the rows of the first worksheet.
func readXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}
