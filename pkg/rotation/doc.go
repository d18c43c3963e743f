/*
SPDX-FileCopyrightText: 2025 jackieclzheng

SPDX-License-Identifier: Apache-2.0
*/

// Package rotation persists the round-robin cursor of a digest and selects
// the next wrap-around batch from a parsed sequence.
package rotation
