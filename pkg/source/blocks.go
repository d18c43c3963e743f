/*
SPDX-FileCopyrightText: 2025 jackieclzheng

SPDX-License-Identifier: Apache-2.0
*/

package source

import (
	"regexp"
	"strings"
	"unicode"
)

// block is one raw section of a text source: the line that opened it and the
// lines that follow until the next opening line.
type block struct {
	title string
	lines []string
}

// scanBlocks walks the lines once and cuts them into blocks. A line for which
// open reports true closes the current block and starts a new one; lines
// before the first opening line are discarded.
func scanBlocks(lines []string, open func(line string) (string, bool)) []block {
	var (
		blocks  []block
		current *block
	)
	for _, line := range lines {
		if title, ok := open(line); ok {
			if current != nil {
				blocks = append(blocks, *current)
			}
			current = &block{title: title}
			continue
		}
		if current != nil {
			current.lines = append(current.lines, line)
		}
	}
	if current != nil {
		blocks = append(blocks, *current)
	}
	return blocks
}

func splitLines(data []byte) []string {
	text := strings.TrimPrefix(string(data), bom)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.Split(text, "\n")
}

// cleanField trims surrounding whitespace and trailing sentence terminators.
func cleanField(s string) string {
	s = strings.TrimRightFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == '。' || r == '.'
	})
	return strings.TrimSpace(s)
}

func joinLines(lines []string) string {
	return cleanField(strings.Join(lines, "\n"))
}

var (
	// "12) title" or a heading such as "### 12) title".
	numberedPattern = regexp.MustCompile(`^(?:#{1,6}\s*\d+\)\s*|\d+\)\s+)(\S.*)$`)
	// Leading "3." / "3" ordinal of a level-2 heading.
	ordinalPattern = regexp.MustCompile(`^\d+\.?\s*`)
)

func numberedTitle(line string) (string, bool) {
	m := numberedPattern.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return "", false
	}
	return m[1], true
}

// level2Title matches "## <n>. <title>" and "## <title>", but not deeper
// headings.
func level2Title(line string) (string, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "##") || strings.HasPrefix(line, "###") {
		return "", false
	}
	title := strings.TrimSpace(line[2:])
	if stripped := strings.TrimSpace(ordinalPattern.ReplaceAllString(title, "")); stripped != "" {
		title = stripped
	}
	return title, title != ""
}

// anyHeadingTitle matches every heading of level two or deeper.
func anyHeadingTitle(line string) (string, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "##") {
		return "", false
	}
	return strings.TrimSpace(strings.TrimLeft(line, "#")), true
}
