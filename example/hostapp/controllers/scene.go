// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package controllers

import (
	"context"
	"log/slog"

	"github.com/z5labs/localrest/example/hostapp/scene"
	"github.com/z5labs/localrest/pkg/slogfield"
)

// LogType is the severity of a message sent to SceneController.Log.
type LogType int

const (
	LogTypeInfo LogType = iota
	LogTypeWarning
	LogTypeError
)

func (t LogType) level() slog.Level {
	switch t {
	case LogTypeWarning:
		return slog.LevelWarn
	case LogTypeError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SceneController reads and changes the current scene.
type SceneController struct{}

// Objects lists every object in the scene.
//
//localrest:get /api/scene/objects
func (*SceneController) Objects() []scene.Object {
	return scene.Current().Objects()
}

// Spawn places a new object in the scene. The position defaults to the origin.
//
//localrest:post /api/scene/spawn
//localrest:default x=0
//localrest:default y=0
//localrest:default z=0
func (*SceneController) Spawn(name string, x, y, z float64) (scene.Object, error) {
	return scene.Current().Spawn(name, scene.Vector{X: x, Y: y, Z: z})
}

// Log writes message to the host log.
//
//localrest:post /api/scene/log
//localrest:default kind=info
func (*SceneController) Log(ctx context.Context, message string, kind LogType) {
	slog.Default().Log(ctx, kind.level(), message, slogfield.String("scene", scene.Current().Name()))
}
