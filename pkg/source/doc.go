/*
SPDX-FileCopyrightText: 2025 jackieclzheng

SPDX-License-Identifier: Apache-2.0
*/

// Package source parses digest sources (numbered topic lists, paired-copy
// Markdown, single-heading Markdown, CSV and XLSX sheets) into an ordered
// sequence of entries with one uniform record shape.
package source
