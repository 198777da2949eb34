// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package synth generates route handlers for annotated methods ahead of time.
//
// A method is exposed by a directive in its doc comment:
//
//	// Hello greets someone.
//	//
//	//localrest:get /api/hello
//	//localrest:default name=world
//	func (c *SampleController) Hello(ctx context.Context, name string) (Greeting, error)
//
// Every package with annotated methods gets a localrest_routes.go file
// declaring one handler and parameter signature per endpoint and a
// RegisterRoutes function binding them to a route.Registrar. Parameter
// types are fixed at generation time so serving a request never inspects
// types.
package synth

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// Output describes what Synthesize did for one package.
type Output struct {
	Path    string
	Source  []byte
	Removed bool
}

// Synthesize loads the packages matched by cfg and writes a routes file
// into each one with endpoints. Existing generated files are fully
// overwritten and those of packages without endpoints are removed.
func Synthesize(ctx context.Context, cfg Config) ([]Output, error) {
	pkgs, err := load(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var outs []Output
	for _, pkg := range pkgs {
		path := filepath.Join(pkg.Dir, OutputFile)
		if len(pkg.Endpoints) == 0 {
			removed, err := removeStale(path, cfg.DryRun)
			if err != nil {
				return outs, err
			}
			if removed {
				outs = append(outs, Output{Path: path, Removed: true})
			}
			continue
		}

		src, err := Render(pkg, cfg.Header)
		if err != nil {
			return outs, err
		}
		outs = append(outs, Output{Path: path, Source: src})
		if cfg.DryRun {
			continue
		}

		err = os.WriteFile(path, src, 0o644)
		if err != nil {
			return outs, err
		}
	}
	return outs, nil
}

func removeStale(path string, dryRun bool) (bool, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if !bytes.Contains(b, []byte(GeneratedMarker)) {
		return false, nil
	}
	if dryRun {
		return true, nil
	}
	return true, os.Remove(path)
}
