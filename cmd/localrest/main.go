// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Command localrest inspects and calls a running localrest server.
//
// Every flag can also be set through a LOCALREST_ prefixed environment
// variable, e.g. LOCALREST_TOKEN, or a config file given with --config.
package main

import (
	"context"
	"os"
	"os/signal"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx)
	if err != nil {
		os.Exit(1)
	}
}
