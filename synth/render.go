// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package synth

import (
	"bytes"
	_ "embed"
	"strings"
	"text/template"

	"golang.org/x/tools/imports"
)

// GeneratedMarker identifies files written by the synthesizer.
const GeneratedMarker = "// Code generated by localrest-gen. DO NOT EDIT."

//go:embed routes.go.tmpl
var routesTmpl string

var tmpl = template.Must(
	template.New("routes").
		Funcs(template.FuncMap{
			"isValue":      func(k ResultKind) bool { return k == ValueResult },
			"isError":      func(k ResultKind) bool { return k == ErrorResult },
			"isValueError": func(k ResultKind) bool { return k == ValueErrorResult },
		}).
		Parse(routesTmpl),
)

type renderData struct {
	Header string
	Marker string
	Package
}

// Render produces the formatted source of the routes file for pkg.
// The output only depends on pkg so repeated renders are byte identical.
func Render(pkg Package, header string) ([]byte, error) {
	var buf bytes.Buffer
	err := tmpl.Execute(&buf, renderData{
		Header:  strings.TrimSpace(header),
		Marker:  GeneratedMarker,
		Package: pkg,
	})
	if err != nil {
		return nil, err
	}

	return imports.Process(OutputFile, buf.Bytes(), &imports.Options{
		Comments:  true,
		TabIndent: true,
		TabWidth:  8,
	})
}
