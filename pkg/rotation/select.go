/*
SPDX-FileCopyrightText: 2025 jackieclzheng

SPDX-License-Identifier: Apache-2.0
*/

package rotation

import "errors"

// ErrEmptySequence is returned when selecting from an empty sequence.
var ErrEmptySequence = errors.New("cannot select from an empty sequence")

// Clamp bounds a requested batch size to [1, total].
func Clamp(count, total int) int {
	if count < 1 {
		count = 1
	}
	if count > total {
		count = total
	}
	return count
}

// Select returns count entries starting at the cursor, wrapping around the
// end of entries, and the cursor for the following run.
func Select[T any](entries []T, cursor State, count int) ([]T, State, error) {
	total := len(entries)
	if total == 0 {
		return nil, 0, ErrEmptySequence
	}
	count = Clamp(count, total)
	start := cursor.Start(total)

	batch := make([]T, 0, count)
	for i := 0; i < count; i++ {
		batch = append(batch, entries[(start+i)%total])
	}
	return batch, State((start + count) % total), nil
}
