// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package controllers exposes the sample host over HTTP.
package controllers

//go:generate go run github.com/z5labs/localrest/cmd/localrest-gen --header-file ../header.txt .
