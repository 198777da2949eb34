// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package localrest

import (
	"context"
	"fmt"
	"strings"

	"github.com/z5labs/localrest/config"
)

func ExampleRun() {
	type myConfig struct {
		Config `config:",squash"`

		Greeting string `config:"greeting"`
	}

	builder := AppBuilderFunc[myConfig](func(ctx context.Context, cfg myConfig) (App, error) {
		app := AppFunc(func(ctx context.Context) error {
			fmt.Println(cfg.Greeting, cfg.Server.URL)
			return nil
		})
		return app, nil
	})

	doc := strings.NewReader("greeting: hello\nserver:\n  url: http://127.0.0.1:9000/\n")
	srcs := append([]config.Source{Defaults()}, config.FromYaml(doc))

	err := Run(context.Background(), builder, srcs...)
	if err != nil {
		fmt.Println(err)
		return
	}

	// Output: hello http://127.0.0.1:9000/
}
