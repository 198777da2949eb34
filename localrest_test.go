// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package localrest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/z5labs/localrest/config"
	"github.com/z5labs/localrest/param"
	"github.com/z5labs/localrest/route"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {
	t.Run("will return a ConfigReadError", func(t *testing.T) {
		t.Run("if a config source fails", func(t *testing.T) {
			srcErr := errors.New("failed to read")
			builder := AppBuilderFunc[Config](func(ctx context.Context, cfg Config) (App, error) {
				return AppFunc(func(ctx context.Context) error { return nil }), nil
			})

			err := Run(context.Background(), builder, config.SourceFunc(func(config.Store) error {
				return srcErr
			}))

			var cerr ConfigReadError
			if !assert.ErrorAs(t, err, &cerr) {
				return
			}
			if !assert.ErrorIs(t, err, srcErr) {
				return
			}
		})
	})

	t.Run("will return a ConfigUnmarshalError", func(t *testing.T) {
		t.Run("if a value does not fit the config type", func(t *testing.T) {
			builder := AppBuilderFunc[Config](func(ctx context.Context, cfg Config) (App, error) {
				return AppFunc(func(ctx context.Context) error { return nil }), nil
			})

			err := Run(context.Background(), builder, config.Map{
				"log": map[string]any{"level": "LOUD"},
			})

			var uerr ConfigUnmarshalError
			if !assert.ErrorAs(t, err, &uerr) {
				return
			}
		})
	})

	t.Run("will return an AppBuildError", func(t *testing.T) {
		t.Run("if the builder fails", func(t *testing.T) {
			buildErr := errors.New("failed to build")
			builder := AppBuilderFunc[Config](func(ctx context.Context, cfg Config) (App, error) {
				return nil, buildErr
			})

			err := Run(context.Background(), builder, Defaults())

			var berr AppBuildError
			if !assert.ErrorAs(t, err, &berr) {
				return
			}
			if !assert.ErrorIs(t, err, buildErr) {
				return
			}
		})
	})

	t.Run("will return an AppRunError", func(t *testing.T) {
		t.Run("if the app fails", func(t *testing.T) {
			runErr := errors.New("failed to run")
			builder := AppBuilderFunc[Config](func(ctx context.Context, cfg Config) (App, error) {
				return AppFunc(func(ctx context.Context) error { return runErr }), nil
			})

			err := Run(context.Background(), builder, Defaults())

			var rerr AppRunError
			if !assert.ErrorAs(t, err, &rerr) {
				return
			}
			if !assert.ErrorIs(t, err, runErr) {
				return
			}
		})
	})
}

func readConfig(t *testing.T, srcs ...config.Source) Config {
	t.Helper()

	m, err := config.Read(srcs...)
	require.Nil(t, err)

	var cfg Config
	require.Nil(t, m.Unmarshal(&cfg))
	return cfg
}

func TestSources(t *testing.T) {
	t.Run("will provide the defaults", func(t *testing.T) {
		cfg := readConfig(t, Sources(nil)...)

		if !assert.Equal(t, "http://localhost:8000/", cfg.Server.URL) {
			return
		}
		if !assert.Empty(t, cfg.Server.Token) {
			return
		}
		if !assert.Equal(t, 30*time.Second, cfg.Dispatch.Timeout) {
			return
		}
		if !assert.Equal(t, slog.LevelInfo, cfg.Log.Level) {
			return
		}
		if !assert.Equal(t, "none", cfg.OTel.Exporter) {
			return
		}
	})

	t.Run("will let the yaml document override the defaults", func(t *testing.T) {
		t.Setenv("LOCALREST_TEST_PORT", "8123")
		doc := strings.NewReader(`
server:
  url: http://127.0.0.1:{{ env "LOCALREST_TEST_PORT" }}/
dispatch:
  timeout: 2s
`)

		cfg := readConfig(t, Sources(doc)...)
		if !assert.Equal(t, "http://127.0.0.1:8123/", cfg.Server.URL) {
			return
		}
		if !assert.Equal(t, 2*time.Second, cfg.Dispatch.Timeout) {
			return
		}
	})

	t.Run("will let later yaml documents override earlier ones", func(t *testing.T) {
		base := strings.NewReader("server:\n  token: base\n  shutdown_timeout: 1s\n")
		local := strings.NewReader("server:\n  token: local\n")

		cfg := readConfig(t, Sources(base, nil, local)...)
		if !assert.Equal(t, "local", cfg.Server.Token) {
			return
		}
		if !assert.Equal(t, time.Second, cfg.Server.ShutdownTimeout) {
			return
		}
	})

	t.Run("will decode json config files", func(t *testing.T) {
		t.Run("if the file name ends in .json", func(t *testing.T) {
			fsys := fstest.MapFS{
				"localrest.json": &fstest.MapFile{Data: []byte(`{"server": {"token": "from-json"}, "dispatch": {"queue_size": 8}}`)},
			}

			cfg := readConfig(t, Sources(config.NewFileReader(fsys, "localrest.json"))...)
			if !assert.Equal(t, "from-json", cfg.Server.Token) {
				return
			}
			if !assert.Equal(t, 8, cfg.Dispatch.QueueSize) {
				return
			}
		})

		t.Run("if the file is missing but optional", func(t *testing.T) {
			r := config.NewFileReader(fstest.MapFS{}, "localrest.json", config.Optional())

			cfg := readConfig(t, Sources(r)...)
			if !assert.Equal(t, "http://localhost:8000/", cfg.Server.URL) {
				return
			}
		})
	})

	t.Run("will return an InvalidDocumentError", func(t *testing.T) {
		t.Run("if a .json file holds yaml", func(t *testing.T) {
			fsys := fstest.MapFS{
				"localrest.json": &fstest.MapFile{Data: []byte("server:\n  token: x\n")},
			}

			_, err := config.Read(Sources(config.NewFileReader(fsys, "localrest.json"))...)

			var ierr config.InvalidDocumentError
			if !assert.ErrorAs(t, err, &ierr) {
				return
			}
			if !assert.Equal(t, "json", ierr.Format) {
				return
			}
		})
	})

	t.Run("will let the environment override the yaml document", func(t *testing.T) {
		t.Setenv("LOCALREST_SERVER__TOKEN", "from-env")
		t.Setenv("LOCALREST_LOG__LEVEL", "debug")

		cfg := readConfig(t, Sources(strings.NewReader("server:\n  token: from-yaml\n"))...)
		if !assert.Equal(t, "from-env", cfg.Server.Token) {
			return
		}
		if !assert.Equal(t, slog.LevelDebug, cfg.Log.Level) {
			return
		}
	})
}

func TestNewHost(t *testing.T) {
	t.Run("will generate a token", func(t *testing.T) {
		t.Run("if none is configured", func(t *testing.T) {
			h := NewHost(Config{}, LogOutput(io.Discard))
			if !assert.Len(t, h.Token(), 32) {
				return
			}
		})
	})

	t.Run("will keep the configured token", func(t *testing.T) {
		cfg := Config{}
		cfg.Server.Token = "secret"

		h := NewHost(cfg, LogOutput(io.Discard))
		if !assert.Equal(t, "secret", h.Token()) {
			return
		}
	})
}

func TestHost_Serve(t *testing.T) {
	t.Run("will serve routes on the main loop", func(t *testing.T) {
		cfg := readConfig(t, Defaults(), config.Map{
			"server": map[string]any{"url": "http://127.0.0.1:0/", "token": "secret"},
			"dispatch": map[string]any{"tick": "1ms"},
		})
		h := NewHost(cfg, LogOutput(io.Discard))

		h.Server.RegisterRoute(
			http.MethodGet,
			"/api/main",
			route.HandlerFunc(func(ctx context.Context, args []any, buf *route.ResponseBuffer) error {
				return route.Ok(h.Dispatcher.OnMain(ctx)).Write(buf)
			}),
			param.Signature{},
			"Test",
			"Main",
		)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		if !assert.False(t, h.Ready(ctx)) {
			return
		}
		go h.MainLoop(ctx)
		served := make(chan error, 1)
		go func() {
			served <- h.Serve(ctx)
		}()

		require.Eventually(t, func() bool { return h.Ready(ctx) }, 5*time.Second, 10*time.Millisecond)

		req, err := http.NewRequest(http.MethodGet, strings.TrimSuffix(h.Server.URL(), "/")+"/api/main", nil)
		require.Nil(t, err)
		req.Header.Set("Authorization", "Bearer secret")

		resp, err := http.DefaultClient.Do(req)
		if !assert.Nil(t, err) {
			return
		}
		b, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if !assert.Nil(t, err) {
			return
		}
		if !assert.Equal(t, http.StatusOK, resp.StatusCode) {
			return
		}
		if !assert.Equal(t, "true", string(b)) {
			return
		}
		if !assert.Eventually(t, func() bool { return h.Metrics.Len() == 1 }, time.Second, 5*time.Millisecond) {
			return
		}

		cancel()
		select {
		case err := <-served:
			if !assert.Nil(t, err) {
				return
			}
		case <-time.After(10 * time.Second):
			t.Fatal("server did not stop")
		}
		if !assert.False(t, h.Server.Running()) {
			return
		}
		if !assert.False(t, h.Ready(context.Background())) {
			return
		}
	})

	t.Run("will return an error", func(t *testing.T) {
		t.Run("if the url is malformed", func(t *testing.T) {
			cfg := Config{}
			cfg.Server.URL = "ftp://localhost/"

			h := NewHost(cfg, LogOutput(io.Discard))
			err := h.Serve(context.Background())
			if !assert.Error(t, err) {
				return
			}
		})
	})
}
