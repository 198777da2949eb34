// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package server

import (
	"strings"
	"sync"
)

// reservations tracks which server in this process owns a host:port.
var reservations = struct {
	mu    sync.Mutex
	owner map[string]*Server
}{
	owner: make(map[string]*Server),
}

func reserveKey(hostport string) string {
	return strings.ToLower(hostport)
}

// reserve claims hostport for s. It returns false when a different server holds it.
func reserve(hostport string, s *Server) bool {
	reservations.mu.Lock()
	defer reservations.mu.Unlock()

	key := reserveKey(hostport)
	if owner, ok := reservations.owner[key]; ok && owner != s {
		return false
	}
	reservations.owner[key] = s
	return true
}

func release(hostport string, s *Server) {
	reservations.mu.Lock()
	defer reservations.mu.Unlock()

	key := reserveKey(hostport)
	if reservations.owner[key] == s {
		delete(reservations.owner, key)
	}
}
