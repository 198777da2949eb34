// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package app builds the sample host application.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/z5labs/localrest"
	"github.com/z5labs/localrest/app"
	"github.com/z5labs/localrest/example/hostapp/controllers"
	"github.com/z5labs/localrest/example/hostapp/scene"
	"github.com/z5labs/localrest/lifecycle"
)

// Config is the configuration of the sample host.
type Config struct {
	localrest.Config `config:",squash"`

	Scene struct {
		Name       string `config:"name"`
		MaxObjects int    `config:"max_objects"`
	} `config:"scene"`
}

// Options configure where Init writes the host log and the access token.
type Options struct {
	Log   io.Writer
	Token io.Writer
}

// Init returns an [localrest.AppBuilderFunc] which serves the scene
// controllers while a separate goroutine, locked to its OS thread, runs
// the main loop.
func Init(opts Options) localrest.AppBuilderFunc[Config] {
	if opts.Log == nil {
		opts.Log = os.Stderr
	}
	if opts.Token == nil {
		opts.Token = os.Stdout
	}

	return func(ctx context.Context, cfg Config) (localrest.App, error) {
		host := localrest.NewHost(cfg.Config, localrest.LogOutput(opts.Log))
		slog.SetDefault(host.Log)

		scene.Load(scene.New(cfg.Scene.Name, cfg.Scene.MaxObjects))
		controllers.RegisterRoutes(host.Server)

		_, err := fmt.Fprintf(opts.Token, "%s token: %s\n", host.URL(), host.Token())
		if err != nil {
			return nil, err
		}

		lc, ok := lifecycle.FromContext(ctx)
		if ok {
			lc.OnPostRun(lifecycle.HookFunc(func(ctx context.Context) error {
				host.Log.InfoContext(ctx, "scene unloaded", "objects", scene.Current().Len())
				return nil
			}))
		}

		return app.IgnoreCanceled(app.Group(
			localrest.AppFunc(host.Serve),
			app.LockOSThread(localrest.AppFunc(host.MainLoop)),
		)), nil
	}
}
