// Package planfmt encodes and decodes ast.Node trees as plan files: a
// 1:1 structural serialization with no grammar or operator precedence
// of its own, used by cmd/shx's plan-file front door and by the
// background-command self-reexec payload.
package planfmt

import (
	"encoding/json"
	"fmt"

	"github.com/opal-lang/shx/ast"
)

// wireRedirect mirrors ast.Redirect with a string Kind for a readable
// wire form.
type wireRedirect struct {
	Kind string `json:"kind"`
	Spec string `json:"spec"`
}

type wireBinding struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// wireNode mirrors every ast.Node variant in one flat struct; Type picks
// which fields are meaningful. This is the plan file's only type.
type wireNode struct {
	Type   string        `json:"type"`
	Argv   []string      `json:"argv,omitempty"`
	Locals []wireBinding `json:"locals,omitempty"`
	Stdin  *wireRedirect `json:"stdin,omitempty"`
	Stdout *wireRedirect `json:"stdout,omitempty"`
	Left   *wireNode     `json:"left,omitempty"`
	Right  *wireNode     `json:"right,omitempty"`
	Body   *wireNode     `json:"body,omitempty"`
}

var kindNames = map[ast.RedirectKind]string{
	ast.InFile:    "in_file",
	ast.InHere:    "in_here",
	ast.OutTrunc:  "out_trunc",
	ast.OutAppend: "out_append",
	ast.OutErr:    "out_err",
}

var kindValues = func() map[string]ast.RedirectKind {
	m := make(map[string]ast.RedirectKind, len(kindNames))
	for k, v := range kindNames {
		m[v] = k
	}
	return m
}()

// Encode serializes node as a JSON plan document. It does not run the
// schema check; Decode does.
func Encode(node ast.Node) ([]byte, error) {
	w, err := toWire(node)
	if err != nil {
		return nil, err
	}
	return json.Marshal(w)
}

// Decode parses a JSON plan document, validating it against the bundled
// schema before building the ast.Node tree.
func Decode(data []byte) (ast.Node, error) {
	if err := Validate(data); err != nil {
		return nil, fmt.Errorf("planfmt: %w", err)
	}
	var w wireNode
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("planfmt: %w", err)
	}
	return fromWire(&w)
}

func toWire(node ast.Node) (*wireNode, error) {
	switch n := node.(type) {
	case *ast.Simple:
		return &wireNode{
			Type:   "simple",
			Argv:   n.Argv,
			Locals: toWireBindings(n.Locals),
			Stdin:  toWireRedirect(n.Stdin),
			Stdout: toWireRedirect(n.Stdout),
		}, nil
	case *ast.Pipe:
		return wireBinary("pipe", n.Left, n.Right, n.Stdin, n.Stdout, n.Locals)
	case *ast.And:
		return wireBinary("and", n.Left, n.Right, n.Stdin, n.Stdout, n.Locals)
	case *ast.Or:
		return wireBinary("or", n.Left, n.Right, n.Stdin, n.Stdout, n.Locals)
	case *ast.Seq:
		return wireBinary("seq", n.Left, n.Right, n.Stdin, n.Stdout, n.Locals)
	case *ast.Background:
		return wireBinary("background", n.Left, n.Right, n.Stdin, n.Stdout, n.Locals)
	case *ast.Subshell:
		body, err := toWire(n.Body)
		if err != nil {
			return nil, err
		}
		return &wireNode{
			Type:   "subshell",
			Body:   body,
			Locals: toWireBindings(n.Locals),
			Stdin:  toWireRedirect(n.Stdin),
			Stdout: toWireRedirect(n.Stdout),
		}, nil
	default:
		return nil, fmt.Errorf("planfmt: unsupported node type %T", node)
	}
}

func wireBinary(typ string, left, right ast.Node, stdin, stdout *ast.Redirect, locals []ast.Binding) (*wireNode, error) {
	l, err := toWire(left)
	if err != nil {
		return nil, err
	}
	var r *wireNode
	if right != nil {
		r, err = toWire(right)
		if err != nil {
			return nil, err
		}
	}
	return &wireNode{
		Type:   typ,
		Left:   l,
		Right:  r,
		Locals: toWireBindings(locals),
		Stdin:  toWireRedirect(stdin),
		Stdout: toWireRedirect(stdout),
	}, nil
}

func fromWire(w *wireNode) (ast.Node, error) {
	if w == nil {
		return nil, nil
	}
	locals := fromWireBindings(w.Locals)
	stdin, err := fromWireRedirect(w.Stdin)
	if err != nil {
		return nil, err
	}
	stdout, err := fromWireRedirect(w.Stdout)
	if err != nil {
		return nil, err
	}

	switch w.Type {
	case "simple":
		return &ast.Simple{Argv: w.Argv, Locals: locals, Stdin: stdin, Stdout: stdout}, nil
	case "pipe", "and", "or", "seq", "background":
		left, err := fromWire(w.Left)
		if err != nil {
			return nil, err
		}
		right, err := fromWire(w.Right)
		if err != nil {
			return nil, err
		}
		switch w.Type {
		case "pipe":
			return &ast.Pipe{Left: left, Right: right, Locals: locals, Stdin: stdin, Stdout: stdout}, nil
		case "and":
			return &ast.And{Left: left, Right: right, Locals: locals, Stdin: stdin, Stdout: stdout}, nil
		case "or":
			return &ast.Or{Left: left, Right: right, Locals: locals, Stdin: stdin, Stdout: stdout}, nil
		case "seq":
			return &ast.Seq{Left: left, Right: right, Locals: locals, Stdin: stdin, Stdout: stdout}, nil
		default: // background
			return &ast.Background{Left: left, Right: right, Locals: locals, Stdin: stdin, Stdout: stdout}, nil
		}
	case "subshell":
		body, err := fromWire(w.Body)
		if err != nil {
			return nil, err
		}
		return &ast.Subshell{Body: body, Locals: locals, Stdin: stdin, Stdout: stdout}, nil
	default:
		return nil, fmt.Errorf("planfmt: unknown node type %q", w.Type)
	}
}

func toWireBindings(bs []ast.Binding) []wireBinding {
	if len(bs) == 0 {
		return nil
	}
	out := make([]wireBinding, len(bs))
	for i, b := range bs {
		out[i] = wireBinding{Name: b.Name, Value: b.Value}
	}
	return out
}

func fromWireBindings(bs []wireBinding) []ast.Binding {
	if len(bs) == 0 {
		return nil
	}
	out := make([]ast.Binding, len(bs))
	for i, b := range bs {
		out[i] = ast.Binding{Name: b.Name, Value: b.Value}
	}
	return out
}

func toWireRedirect(r *ast.Redirect) *wireRedirect {
	if r == nil {
		return nil
	}
	return &wireRedirect{Kind: kindNames[r.Kind], Spec: r.Spec}
}

func fromWireRedirect(r *wireRedirect) (*ast.Redirect, error) {
	if r == nil {
		return nil, nil
	}
	kind, ok := kindValues[r.Kind]
	if !ok {
		return nil, fmt.Errorf("planfmt: unknown redirect kind %q", r.Kind)
	}
	return &ast.Redirect{Kind: kind, Spec: r.Spec}, nil
}
