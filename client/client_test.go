// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/z5labs/localrest/param"
	"github.com/z5labs/localrest/route"
	"github.com/z5labs/localrest/server"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToken = "secret"

func startServer(t *testing.T) *server.Server {
	t.Helper()

	s := server.New(nil)
	err := s.Start(context.Background(), "http://127.0.0.1:0/", testToken)
	require.Nil(t, err)
	t.Cleanup(func() {
		s.Stop(context.Background())
	})

	echo := route.HandlerFunc(func(ctx context.Context, args []any, buf *route.ResponseBuffer) error {
		return route.Ok(map[string]any{"name": args[0], "count": args[1]}).Write(buf)
	})
	sig := param.Signature{
		{Name: "name", Type: param.Of(param.String), Default: "world"},
		{Name: "count", Type: param.Of(param.Int32), Default: int32(1)},
	}
	s.RegisterRoute(http.MethodGet, "/api/echo", echo, sig, "Sample", "Echo")
	s.RegisterRoute(http.MethodPost, "/api/echo", echo, sig, "Sample", "EchoBody")
	s.RegisterRoute(http.MethodPost, "/api/fail", route.HandlerFunc(func(ctx context.Context, args []any, buf *route.ResponseBuffer) error {
		return errors.New("boom")
	}), nil, "Sample", "Fail")
	return s
}

func TestClient_Call(t *testing.T) {
	t.Run("will send params in the query string", func(t *testing.T) {
		t.Run("if the method is GET", func(t *testing.T) {
			s := startServer(t)
			c := New(s.URL(), testToken)

			resp, err := c.Call(context.Background(), "get", "/api/echo", Params{"name": "unit", "count": 3})
			if !assert.Nil(t, err) {
				return
			}
			if !assert.True(t, resp.OK()) {
				return
			}

			var body struct {
				Name  string `json:"name"`
				Count int    `json:"count"`
			}
			if !assert.Nil(t, resp.JSON(&body)) {
				return
			}
			if !assert.Equal(t, "unit", body.Name) {
				return
			}
			if !assert.Equal(t, 3, body.Count) {
				return
			}
		})
	})

	t.Run("will send params as a json body", func(t *testing.T) {
		t.Run("if the method is POST", func(t *testing.T) {
			s := startServer(t)
			c := New(s.URL(), testToken)

			resp, err := c.Call(context.Background(), http.MethodPost, "api/echo", Params{"name": "body", "count": 7})
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, http.StatusOK, resp.StatusCode) {
				return
			}
			if !assert.Contains(t, string(resp.Body), `"name":"body"`) {
				return
			}
			if !assert.Contains(t, resp.ContentType, "application/json") {
				return
			}
		})
	})

	t.Run("will return the response", func(t *testing.T) {
		t.Run("if the token is wrong", func(t *testing.T) {
			s := startServer(t)
			c := New(s.URL(), "wrong")

			resp, err := c.Call(context.Background(), http.MethodGet, "/api/echo", nil)
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, http.StatusUnauthorized, resp.StatusCode) {
				return
			}
			if !assert.Equal(t, "Unauthorized", string(resp.Body)) {
				return
			}
		})

		t.Run("if the handler fails", func(t *testing.T) {
			s := startServer(t)
			c := New(s.URL(), testToken, MaxRetries(3), RetryWait(time.Millisecond, time.Millisecond))

			resp, err := c.Call(context.Background(), http.MethodPost, "/api/fail", nil)
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, http.StatusInternalServerError, resp.StatusCode) {
				return
			}
			if !assert.JSONEq(t, `{"error":"boom"}`, string(resp.Body)) {
				return
			}
		})
	})

	t.Run("will return an error", func(t *testing.T) {
		t.Run("if the base url is not absolute", func(t *testing.T) {
			c := New("localhost", testToken)

			_, err := c.Call(context.Background(), http.MethodGet, "/api/echo", nil)
			if !assert.NotNil(t, err) {
				return
			}
		})
	})
}

func TestClient_Routes(t *testing.T) {
	t.Run("will list the registered routes", func(t *testing.T) {
		t.Run("without a token", func(t *testing.T) {
			s := startServer(t)
			c := New(s.URL(), "")

			routes, err := c.Routes(context.Background())
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, []route.Info{
				{Method: http.MethodGet, Path: "/api/echo", Handler: "Sample.Echo"},
				{Method: http.MethodPost, Path: "/api/echo", Handler: "Sample.EchoBody"},
				{Method: http.MethodPost, Path: "/api/fail", Handler: "Sample.Fail"},
			}, routes) {
				return
			}
		})
	})

	t.Run("will return an UnexpectedStatusError", func(t *testing.T) {
		t.Run("if the server does not answer with 200", func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusTeapot)
			}))
			defer srv.Close()

			c := New(srv.URL, "")
			_, err := c.Routes(context.Background())

			var uerr UnexpectedStatusError
			if !assert.ErrorAs(t, err, &uerr) {
				return
			}
			if !assert.Equal(t, http.StatusTeapot, uerr.StatusCode) {
				return
			}
		})
	})
}

func TestClient_Status(t *testing.T) {
	t.Run("will report the route count", func(t *testing.T) {
		t.Run("if the server is reachable", func(t *testing.T) {
			s := startServer(t)
			c := New(s.URL(), testToken)

			status := c.Status(context.Background())
			if !assert.True(t, status.Reachable) {
				return
			}
			if !assert.Equal(t, 3, status.Routes) {
				return
			}
			if !assert.Empty(t, status.Error) {
				return
			}
		})
	})

	t.Run("will report unreachable", func(t *testing.T) {
		t.Run("if nothing listens on the url", func(t *testing.T) {
			srv := httptest.NewServer(http.NotFoundHandler())
			url := srv.URL
			srv.Close()

			c := New(url, "")
			status := c.Status(context.Background())
			if !assert.False(t, status.Reachable) {
				return
			}
			if !assert.NotEmpty(t, status.Error) {
				return
			}
		})
	})
}

func TestCircuitBreaker(t *testing.T) {
	t.Run("will stop sending requests", func(t *testing.T) {
		t.Run("if the server keeps answering 503", func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(http.StatusServiceUnavailable)
			}))
			defer srv.Close()

			c := New(srv.URL, "", TripAfter(2), OpenStateTimeout(time.Minute))
			for i := 0; i < 2; i++ {
				resp, err := c.Call(context.Background(), http.MethodGet, "/", nil)
				if !assert.Nil(t, err) {
					return
				}
				if !assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode) {
					return
				}
			}

			_, err := c.Call(context.Background(), http.MethodGet, "/", nil)
			if !assert.NotNil(t, err) {
				return
			}
			if !assert.Equal(t, int32(2), calls.Load()) {
				return
			}
		})
	})
}

func TestParseParams(t *testing.T) {
	testCases := []struct {
		Name string
		Args []string
		Want Params
	}{
		{Name: "string", Args: []string{"name=unit"}, Want: Params{"name": "unit"}},
		{Name: "number", Args: []string{"count=3"}, Want: Params{"count": float64(3)}},
		{Name: "bool", Args: []string{"ok=true"}, Want: Params{"ok": true}},
		{Name: "null", Args: []string{"v=null"}, Want: Params{"v": nil}},
		{Name: "quoted string keeps quotes", Args: []string{`s="x"`}, Want: Params{"s": `"x"`}},
		{Name: "value with equals", Args: []string{"q=a=b"}, Want: Params{"q": "a=b"}},
		{Name: "empty value", Args: []string{"e="}, Want: Params{"e": ""}},
	}

	for _, testCase := range testCases {
		t.Run(fmt.Sprintf("will parse %s", testCase.Name), func(t *testing.T) {
			params, err := ParseParams(testCase.Args)
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, testCase.Want, params) {
				return
			}
		})
	}

	t.Run("will return an error", func(t *testing.T) {
		t.Run("if an argument has no equals sign", func(t *testing.T) {
			_, err := ParseParams([]string{"name"})
			if !assert.NotNil(t, err) {
				return
			}
		})
	})
}
