// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/z5labs/localrest/client"
	"github.com/z5labs/localrest/internal/portcheck"
	"github.com/z5labs/localrest/server"

	"github.com/spf13/cobra"
)

type clientFactory func() (*client.Client, error)

func newRoutesCmd(newClient clientFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "List the registered routes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			routes, err := c.Routes(cmd.Context())
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "METHOD\tPATH\tHANDLER")
			for _, rt := range routes {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", rt.Method, rt.Path, rt.Handler)
			}
			return tw.Flush()
		},
	}
}

// StatusError is returned by the call command for non 2xx responses so
// the process exits non-zero.
type StatusError struct {
	StatusCode int
}

func (e StatusError) Error() string {
	return fmt.Sprintf("request failed with status code: %d", e.StatusCode)
}

func newCallCmd(newClient clientFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "call METHOD PATH [key=value...]",
		Short: "Call a route and print the response body",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := client.ParseParams(args[2:])
			if err != nil {
				return err
			}
			c, err := newClient()
			if err != nil {
				return err
			}

			resp, err := c.Call(cmd.Context(), args[0], args[1], params)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%d %s (%s)\n", resp.StatusCode, resp.ContentType, resp.Duration)
			fmt.Fprintln(cmd.OutOrStdout(), string(resp.Body))
			if !resp.OK() {
				return StatusError{StatusCode: resp.StatusCode}
			}
			return nil
		},
	}
}

func newStatusCmd(newClient clientFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report whether the server is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}

			status := c.Status(cmd.Context())
			out := cmd.OutOrStdout()
			if !status.Reachable {
				fmt.Fprintf(out, "unreachable: %s\n", status.Error)
				return fmt.Errorf("server is not reachable")
			}
			fmt.Fprintf(out, "reachable: %d routes in %s\n", status.Routes, status.Latency)
			return nil
		},
	}
}

func newPortCmd() *cobra.Command {
	var (
		host     string
		from, to int
	)

	cmd := &cobra.Command{
		Use:   "port",
		Short: "Find a free port for the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			port, err := portcheck.FindAvailable(cmd.Context(), host, from, to)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), port)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&host, "host", "localhost", "host the port is probed on")
	flags.IntVar(&from, "from", portcheck.DefaultFrom, "first port to try")
	flags.IntVar(&to, "to", portcheck.DefaultTo, "last port to try")
	return cmd
}

func newTokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "token",
		Short: "Generate a random access token",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), server.GenerateToken())
		},
	}
}
