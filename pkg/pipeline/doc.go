/*
SPDX-FileCopyrightText: 2025 jackieclzheng

SPDX-License-Identifier: Apache-2.0
*/

// Package pipeline runs one digest: parse the source, select the next batch
// from the rotation cursor, render it, deliver it and persist the advanced
// cursor once delivery succeeded.
package pipeline
