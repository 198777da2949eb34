// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"os"
	"strings"
)

// EnvSeparator splits an environment variable name into nested keys.
const EnvSeparator = "__"

// Env represents a Source where its underlying values
// are extracted from environment variables.
type Env struct {
	prefix  string
	environ func() []string
}

// FromEnv returns a Source which applies every environment variable
// starting with prefix. The prefix is stripped, the rest is lower cased
// and split on [EnvSeparator], so with the prefix "LOCALREST_" the
// variable LOCALREST_SERVER__URL sets server.url.
func FromEnv(prefix string) Env {
	return Env{
		prefix:  prefix,
		environ: os.Environ,
	}
}

// Apply implements the [Source] interface.
func (src Env) Apply(store Store) error {
	for _, pair := range src.environ() {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		name, ok := strings.CutPrefix(k, src.prefix)
		if !ok || name == "" {
			continue
		}

		path := strings.Split(strings.ToLower(name), EnvSeparator)
		err := store.Set(path, v)
		if err != nil {
			return err
		}
	}
	return nil
}
