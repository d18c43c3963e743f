/*
SPDX-FileCopyrightText: 2025 jackieclzheng

SPDX-License-Identifier: Apache-2.0
*/

// Package digest renders a selected batch of entries into a mail subject
// suffix and a Markdown body, with an optional HTML alternative.
package digest
