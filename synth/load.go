// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package synth

import (
	"context"
	"errors"
	"fmt"
	"go/ast"
	"go/constant"
	"go/parser"
	"go/token"
	"go/types"
	"path/filepath"
	"sort"
	"strings"

	"github.com/z5labs/localrest/param"

	"golang.org/x/tools/go/packages"
)

// OutputFile is the name of the file written into every package with endpoints.
const OutputFile = "localrest_routes.go"

// Config configures loading and synthesizing packages.
type Config struct {
	// Dir is the working directory patterns are resolved against.
	Dir string

	// Patterns are go list package patterns. Defaults to ".".
	Patterns []string

	// Tags are extra build tags.
	Tags []string

	// Header is written verbatim above the generated code marker.
	Header string

	// DryRun skips writing and removing files.
	DryRun bool
}

// LoadError joins the errors reported while loading packages.
type LoadError struct {
	Errors []packages.Error
}

// Error implements the [error] interface.
func (e LoadError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return "synth: failed to load packages:\n\t" + strings.Join(msgs, "\n\t")
}

// UnsupportedError reports an annotated method which cannot be exposed.
type UnsupportedError struct {
	Pos    string
	Method string
	Reason string
}

// Error implements the [error] interface.
func (e UnsupportedError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Pos, e.Method, e.Reason)
}

// Load type checks the packages matched by cfg and extracts their endpoints.
// Only packages with at least one endpoint are returned. Any existing
// generated file is ignored so stale output never breaks loading.
func Load(ctx context.Context, cfg Config) ([]Package, error) {
	all, err := load(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var pkgs []Package
	for _, pkg := range all {
		if len(pkg.Endpoints) > 0 {
			pkgs = append(pkgs, pkg)
		}
	}
	return pkgs, nil
}

func load(ctx context.Context, cfg Config) ([]Package, error) {
	patterns := cfg.Patterns
	if len(patterns) == 0 {
		patterns = []string{"."}
	}

	pcfg := &packages.Config{
		Context: ctx,
		Dir:     cfg.Dir,
		Mode: packages.NeedName |
			packages.NeedFiles |
			packages.NeedSyntax |
			packages.NeedTypes |
			packages.NeedTypesInfo,
		ParseFile: func(fset *token.FileSet, filename string, src []byte) (*ast.File, error) {
			mode := parser.ParseComments
			if filepath.Base(filename) == OutputFile {
				mode = parser.PackageClauseOnly
			}
			return parser.ParseFile(fset, filename, src, mode)
		},
	}
	if len(cfg.Tags) > 0 {
		pcfg.BuildFlags = []string{"-tags=" + strings.Join(cfg.Tags, ",")}
	}

	pkgs, err := packages.Load(pcfg, patterns...)
	if err != nil {
		return nil, err
	}

	var loadErrs []packages.Error
	packages.Visit(pkgs, nil, func(p *packages.Package) {
		loadErrs = append(loadErrs, p.Errors...)
	})
	if len(loadErrs) > 0 {
		return nil, LoadError{Errors: loadErrs}
	}

	out := make([]Package, 0, len(pkgs))
	for _, p := range pkgs {
		pkg, err := extract(p.Fset, p.Syntax, p.TypesInfo, p.Types)
		if err != nil {
			return nil, err
		}
		if len(p.GoFiles) > 0 {
			pkg.Dir = filepath.Dir(p.GoFiles[0])
		}
		out = append(out, pkg)
	}
	return out, nil
}

func extract(fset *token.FileSet, files []*ast.File, info *types.Info, tpkg *types.Package) (Package, error) {
	pkg := Package{
		Name:    tpkg.Name(),
		PkgPath: tpkg.Path(),
	}

	seen := make(map[string]string)
	for _, f := range files {
		for _, decl := range f.Decls {
			fn, ok := decl.(*ast.FuncDecl)
			if !ok || fn.Recv == nil || fn.Doc == nil {
				continue
			}

			d, err := parseDirectives(fn.Doc, func(c *ast.Comment) string {
				return fset.Position(c.Pos()).String()
			})
			if err != nil {
				return Package{}, err
			}
			if len(d.Routes) == 0 {
				if len(d.Defaults) > 0 {
					return Package{}, unsupported(fset, fn, "default directive without a route directive")
				}
				continue
			}

			eps, err := endpoints(fset, fn, info, tpkg, d)
			if err != nil {
				return Package{}, err
			}
			for _, ep := range eps {
				key := ep.Method + " " + ep.Path
				if prev, ok := seen[key]; ok {
					return Package{}, unsupported(fset, fn, fmt.Sprintf("%s is already bound to %s", key, prev))
				}
				seen[key] = ep.Owner + "." + ep.MethodName
				pkg.Endpoints = append(pkg.Endpoints, ep)
			}
		}
	}

	sort.Slice(pkg.Endpoints, func(i, j int) bool {
		a, b := pkg.Endpoints[i], pkg.Endpoints[j]
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		return a.Method < b.Method
	})
	return pkg, nil
}

func unsupported(fset *token.FileSet, fn *ast.FuncDecl, reason string) error {
	return UnsupportedError{
		Pos:    fset.Position(fn.Pos()).String(),
		Method: fn.Name.Name,
		Reason: reason,
	}
}

func endpoints(fset *token.FileSet, fn *ast.FuncDecl, info *types.Info, tpkg *types.Package, d directives) ([]Endpoint, error) {
	obj, ok := info.Defs[fn.Name].(*types.Func)
	if !ok {
		return nil, unsupported(fset, fn, "missing type information")
	}
	if !obj.Exported() {
		return nil, unsupported(fset, fn, "method must be exported")
	}

	sig := obj.Type().(*types.Signature)
	recvType := sig.Recv().Type()
	pointer := false
	if p, ok := recvType.(*types.Pointer); ok {
		recvType = p.Elem()
		pointer = true
	}
	named, ok := recvType.(*types.Named)
	if !ok || !named.Obj().Exported() {
		return nil, unsupported(fset, fn, "receiver must be an exported named type")
	}
	if named.TypeParams().Len() > 0 {
		return nil, unsupported(fset, fn, "receiver must not be generic")
	}
	if _, ok := named.Underlying().(*types.Struct); !ok {
		return nil, unsupported(fset, fn, "receiver must be a struct type")
	}
	if sig.Variadic() {
		return nil, unsupported(fset, fn, "variadic methods are not supported")
	}

	base := Endpoint{
		Owner:           named.Obj().Name(),
		MethodName:      obj.Name(),
		PointerReceiver: pointer,
	}

	params := sig.Params()
	for i := 0; i < params.Len(); i++ {
		v := params.At(i)
		if i == 0 && isContext(v.Type()) {
			base.Context = true
			continue
		}
		if v.Name() == "" || v.Name() == "_" {
			return nil, unsupported(fset, fn, fmt.Sprintf("parameter %d must be named", i))
		}

		p, err := paramOf(v.Name(), v.Type(), tpkg)
		if err != nil {
			return nil, unsupported(fset, fn, err.Error())
		}
		if raw, ok := d.Defaults[p.Name]; ok {
			p.Default, err = defaultExpr(p, raw)
			if err != nil {
				return nil, unsupported(fset, fn, fmt.Sprintf("default for %s: %s", p.Name, err))
			}
		}
		base.Params = append(base.Params, p)
	}
	for name := range d.Defaults {
		if !hasParam(base.Params, name) {
			return nil, unsupported(fset, fn, fmt.Sprintf("default for unknown parameter %s", name))
		}
	}

	result, err := resultOf(sig.Results())
	if err != nil {
		return nil, unsupported(fset, fn, err.Error())
	}
	base.Result = result

	eps := make([]Endpoint, len(d.Routes))
	for i, b := range d.Routes {
		ep := base
		ep.Method = b.Method
		ep.Path = b.Path
		eps[i] = ep
	}
	return eps, nil
}

func hasParam(ps []Param, name string) bool {
	for _, p := range ps {
		if p.Name == name {
			return true
		}
	}
	return false
}

var errorType = types.Universe.Lookup("error").Type()

func resultOf(results *types.Tuple) (ResultKind, error) {
	switch results.Len() {
	case 0:
		return NoResult, nil
	case 1:
		if types.Identical(results.At(0).Type(), errorType) {
			return ErrorResult, nil
		}
		return ValueResult, nil
	case 2:
		if !types.Identical(results.At(1).Type(), errorType) {
			return 0, errors.New("second result must be an error")
		}
		return ValueErrorResult, nil
	}
	return 0, errors.New("methods may return at most a value and an error")
}

func isContext(t types.Type) bool {
	return isNamed(t, "context", "Context")
}

func isNamed(t types.Type, pkgPath, name string) bool {
	named, ok := t.(*types.Named)
	if !ok {
		return false
	}
	obj := named.Obj()
	return obj.Pkg() != nil && obj.Pkg().Path() == pkgPath && obj.Name() == name
}

var basicKinds = map[types.BasicKind]param.Kind{
	types.String:  param.String,
	types.Bool:    param.Bool,
	types.Int:     param.Int,
	types.Int8:    param.Int8,
	types.Int16:   param.Int16,
	types.Int32:   param.Int32,
	types.Int64:   param.Int64,
	types.Uint:    param.Uint,
	types.Uint8:   param.Uint8,
	types.Uint16:  param.Uint16,
	types.Uint32:  param.Uint32,
	types.Uint64:  param.Uint64,
	types.Float32: param.Float32,
	types.Float64: param.Float64,
}

func paramOf(name string, t types.Type, tpkg *types.Package) (Param, error) {
	p := Param{Name: name}
	t = types.Unalias(t)
	if ptr, ok := t.(*types.Pointer); ok {
		p.Nullable = true
		t = types.Unalias(ptr.Elem())
	}

	switch {
	case isNamed(t, "time", "Time"):
		p.Kind = param.DateTime
		return p, nil
	case isNamed(t, "github.com/google/uuid", "UUID"):
		p.Kind = param.UUID
		return p, nil
	case isNamed(t, "github.com/shopspring/decimal", "Decimal"):
		p.Kind = param.Decimal
		return p, nil
	}

	switch tt := t.(type) {
	case *types.Basic:
		if tt.Name() == "rune" {
			p.Kind = param.Char
			return p, nil
		}
		k, ok := basicKinds[tt.Kind()]
		if !ok {
			return Param{}, fmt.Errorf("parameter %s has unsupported type %s", name, t)
		}
		p.Kind = k
		return p, nil
	case *types.Named:
		e, err := enumOf(tt, tpkg)
		if err != nil {
			return Param{}, fmt.Errorf("parameter %s: %w", name, err)
		}
		p.Kind = param.Enum
		p.Enum = e
		return p, nil
	}
	return Param{}, fmt.Errorf("parameter %s has unsupported type %s", name, t)
}

// enumOf collects the package level constants of a named integer type.
// Member names drop the type name when it prefixes the constant.
func enumOf(named *types.Named, tpkg *types.Package) (*Enum, error) {
	obj := named.Obj()
	if obj.Pkg() != tpkg {
		return nil, fmt.Errorf("enum %s must be declared in package %s", named, tpkg.Name())
	}
	basic, ok := named.Underlying().(*types.Basic)
	if !ok || basic.Info()&types.IsInteger == 0 {
		return nil, fmt.Errorf("unsupported type %s", named)
	}

	e := &Enum{TypeName: obj.Name()}
	scope := tpkg.Scope()
	for _, n := range scope.Names() {
		c, ok := scope.Lookup(n).(*types.Const)
		if !ok || !types.Identical(c.Type(), named) {
			continue
		}
		v, exact := constant.Int64Val(constant.ToInt(c.Val()))
		if !exact {
			return nil, fmt.Errorf("constant %s does not fit in int64", n)
		}

		member := n
		if trimmed := strings.TrimPrefix(n, obj.Name()); trimmed != "" && trimmed != n {
			member = trimmed
		}
		e.Members = append(e.Members, param.Member{Name: member, Value: v})
	}
	if len(e.Members) == 0 {
		return nil, fmt.Errorf("enum %s declares no constants", named)
	}

	sort.SliceStable(e.Members, func(i, j int) bool {
		if e.Members[i].Value != e.Members[j].Value {
			return e.Members[i].Value < e.Members[j].Value
		}
		return e.Members[i].Name < e.Members[j].Name
	})
	return e, nil
}
