// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package server

import (
	"strings"

	"github.com/google/uuid"
)

// GenerateToken returns a random access token: a v4 UUID without dashes.
func GenerateToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
