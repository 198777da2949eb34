// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"io"
	"strings"
	"time"

	"github.com/z5labs/localrest/client"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	urlKey        = "url"
	tokenKey      = "token"
	timeoutKey    = "timeout"
	retriesKey    = "retries"
	verboseKey    = "verbose"
	configFileKey = "config"
)

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("LOCALREST")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:          "localrest",
		Short:        "Inspect and call a running localrest server",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			err := v.BindPFlags(cmd.Flags())
			if err != nil {
				return err
			}
			path := v.GetString(configFileKey)
			if path == "" {
				return nil
			}
			v.SetConfigFile(path)
			return v.ReadInConfig()
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	flags := cmd.PersistentFlags()
	flags.String(urlKey, "http://localhost:8000/", "base url of the server")
	flags.String(tokenKey, "", "access token")
	flags.Duration(timeoutKey, 30*time.Second, "request timeout")
	flags.Int(retriesKey, 2, "retries of failed connections")
	flags.BoolP(verboseKey, "v", false, "log transport activity to stderr")
	flags.String(configFileKey, "", "yaml, json or toml file providing flag values")

	newClient := func() (*client.Client, error) {
		logger := zap.NewNop()
		if v.GetBool(verboseKey) {
			cfg := zap.NewDevelopmentConfig()
			cfg.OutputPaths = []string{"stderr"}
			l, err := cfg.Build()
			if err != nil {
				return nil, err
			}
			logger = l
		}
		return client.New(
			v.GetString(urlKey),
			v.GetString(tokenKey),
			client.Logger(logger),
			client.Timeout(v.GetDuration(timeoutKey)),
			client.MaxRetries(v.GetInt(retriesKey)),
			client.TripAfter(5),
		), nil
	}

	cmd.AddCommand(
		newRoutesCmd(newClient),
		newCallCmd(newClient),
		newStatusCmd(newClient),
		newPortCmd(),
		newTokenCmd(),
	)
	return cmd
}
