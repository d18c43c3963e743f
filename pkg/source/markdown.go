/*
SPDX-FileCopyrightText: 2025 jackieclzheng

SPDX-License-Identifier: Apache-2.0
*/

package source

import (
	"regexp"
	"strings"
)

const (
	markerPYQ = "**朋友圈文案**"
	markerXHS = "**小红书文案**"
)

type label struct {
	name  string
	field Field
}

// Labels of "- 名称：value" items inside a numbered block.
var numberedLabels = []label{
	{name: "卖点", field: FieldSell},
	{name: "交付", field: FieldDeliver},
	{name: "口播脚本", field: FieldScript},
	{name: "口播稿", field: FieldScript},
}

func labelField(name string) (Field, bool) {
	for _, l := range numberedLabels {
		if l.name == name {
			return l.field, true
		}
	}
	return 0, false
}

// itemPattern matches a "- 名称：value" item line.
var itemPattern = regexp.MustCompile(`^\s*-\s*([^：\s]+)：\s*(.*)$`)

// item is one labeled entry of a block. Continuation lines up to the next
// item belong to it. Lines before the first item form an unlabeled item.
type item struct {
	label string
	lines []string
}

// raw is the item text with each line dedented, not otherwise cleaned.
func (it item) raw() string {
	out := make([]string, 0, len(it.lines))
	for _, line := range it.lines {
		out = append(out, strings.TrimLeft(line, " \t"))
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

func (it item) text() string {
	return cleanField(it.raw())
}

func splitItems(lines []string) []item {
	var items []item
	for _, line := range lines {
		if m := itemPattern.FindStringSubmatch(line); m != nil {
			items = append(items, item{label: m[1], lines: []string{m[2]}})
			continue
		}
		if len(items) == 0 {
			items = append(items, item{})
		}
		items[len(items)-1].lines = append(items[len(items)-1].lines, line)
	}
	return items
}

var headingPattern = regexp.MustCompile(`^#{1,6}(\s|$)`)

// untilHeading cuts a block body at the first Markdown heading line.
// Hashtags such as "#副业" are not headings.
func untilHeading(lines []string) []string {
	for i, line := range lines {
		if headingPattern.MatchString(strings.TrimSpace(line)) {
			return lines[:i]
		}
	}
	return lines
}

func parseNumbered(lines []string) (Sequence, int) {
	blocks := scanBlocks(lines, numberedTitle)
	c := newCollector(false)
	for _, b := range blocks {
		e := Entry{Title: b.title}
		for _, it := range splitItems(untilHeading(b.lines)) {
			if f, ok := labelField(it.label); ok && e.Get(f) == "" {
				e.set(f, it.text())
			}
		}
		c.add(e)
	}
	return c.entries, len(blocks)
}

// parseVoiceover reads numbered blocks that must carry a script item. A block
// holding only the script yields Script; a block with further items (hook,
// closing line) is kept whole as Body.
func parseVoiceover(lines []string) (Sequence, int) {
	blocks := scanBlocks(lines, numberedTitle)
	c := newCollector(false)
	for _, b := range blocks {
		items := splitItems(untilHeading(b.lines))
		var script string
		others := false
		for _, it := range items {
			if f, ok := labelField(it.label); ok && f == FieldScript {
				if script == "" {
					script = it.text()
				}
				continue
			}
			if it.raw() != "" {
				others = true
			}
		}
		if script == "" {
			continue
		}
		e := Entry{Title: b.title, Script: script}
		if others {
			e = Entry{Title: b.title, Body: voiceoverBody(items)}
		}
		c.add(e)
	}
	return c.entries, len(blocks)
}

func voiceoverBody(items []item) string {
	var parts []string
	for _, it := range items {
		text := it.raw()
		if it.label != "" {
			text = "- " + it.label + "：" + text
		}
		if text != "" {
			parts = append(parts, text)
		}
	}
	return cleanField(strings.Join(parts, "\n"))
}

func parseHeadingPaired(lines []string) (Sequence, int) {
	blocks := scanBlocks(lines, level2Title)
	c := newCollector(true)
	for _, b := range blocks {
		pyq, xhs, ok := splitPaired(b.lines)
		if !ok {
			continue
		}
		c.add(Entry{Title: b.title, PYQ: pyq, XHS: xhs})
	}
	return c.entries, len(blocks)
}

// splitPaired cuts a block body at the two bold markers. The PYQ marker must
// precede the XHS marker; text on a marker line after the marker is ignored.
func splitPaired(lines []string) (string, string, bool) {
	const (
		beforeMarkers = iota
		inPYQ
		inXHS
	)
	var (
		phase    = beforeMarkers
		pyq, xhs []string
	)
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case phase == beforeMarkers && strings.HasPrefix(trimmed, markerPYQ):
			phase = inPYQ
		case phase == beforeMarkers && strings.HasPrefix(trimmed, markerXHS):
			return "", "", false
		case phase == inPYQ && strings.HasPrefix(trimmed, markerXHS):
			phase = inXHS
		case phase == inPYQ:
			pyq = append(pyq, line)
		case phase == inXHS:
			xhs = append(xhs, line)
		}
	}
	if phase != inXHS {
		return "", "", false
	}
	return joinLines(pyq), joinLines(xhs), true
}

func parseSingleHeading(lines []string) (Sequence, int) {
	blocks := scanBlocks(lines, anyHeadingTitle)
	c := newCollector(false)
	for _, b := range blocks {
		body := joinLines(trimRules(b.lines))
		if body == "" {
			continue
		}
		c.add(Entry{Title: b.title, Body: body})
	}
	return c.entries, len(blocks)
}

// trimRules drops trailing blank and "---" lines that separate sections.
func trimRules(lines []string) []string {
	end := len(lines)
	for end > 0 {
		t := strings.TrimSpace(lines[end-1])
		if t != "" && strings.Trim(t, "-") != "" {
			break
		}
		end--
	}
	return lines[:end]
}
