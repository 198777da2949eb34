// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"os"
	"syscall"

	"github.com/z5labs/localrest"
	"github.com/z5labs/localrest/app"
	"github.com/z5labs/localrest/appbuilder"
	"github.com/z5labs/localrest/config"
	hostapp "github.com/z5labs/localrest/example/hostapp/app"
)

//go:embed config.yaml
var configBytes []byte

func main() {
	err := run(context.Background())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	builder := appbuilder.Recover(
		appbuilder.Lifecycle(
			appbuilder.OTel(
				localrest.AppBuilderFunc[hostapp.Config](func(ctx context.Context, cfg hostapp.Config) (localrest.App, error) {
					a, err := hostapp.Init(hostapp.Options{})(ctx, cfg)
					if err != nil {
						return nil, err
					}
					return app.WithSignalNotifications(a, os.Interrupt, syscall.SIGTERM), nil
				}),
			),
		),
	)

	// localrest.yaml then localrest.json in the working directory override
	// the embedded config
	wd := os.DirFS(".")
	localYaml := config.NewFileReader(wd, "localrest.yaml", config.Optional())
	defer localYaml.Close()
	localJson := config.NewFileReader(wd, "localrest.json", config.Optional())
	defer localJson.Close()

	return localrest.Run(ctx, builder, localrest.Sources(bytes.NewReader(configBytes), localYaml, localJson)...)
}
