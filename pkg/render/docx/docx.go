// Package docx fills Word documents whose body, headers and footers carry text/template
// placeholders such as {{.in_1}} or {{range .an_in}}...{{.}}...{{end}}.
package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"text/template"
	"text/template/parse"

	"github.com/rs/zerolog"
)

// Extension of template files inside the template directory.
const Extension = ".docx"

// parts that may carry placeholders
var templatedPart = regexp.MustCompile(`^word/(document|header\d*|footer\d*)\.xml$`)

type Renderer struct {
	dir string
}

func NewRenderer(dir string) *Renderer {
	return &Renderer{dir: dir}
}

func (r *Renderer) path(id string) string {
	return filepath.Join(r.dir, id+Extension)
}

func (r *Renderer) load(id string) ([]byte, error) {
	data, err := os.ReadFile(r.path(id))
	if err != nil {
		return nil, fmt.Errorf("load template %s: %w", id, err)
	}
	return data, nil
}

// Render fills template id with values.
func (r *Renderer) Render(ctx context.Context, id string, values map[string]any) ([]byte, error) {
	archive, err := r.load(id)
	if err != nil {
		return nil, err
	}
	out, err := Render(archive, values)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", id, err)
	}
	zerolog.Ctx(ctx).Debug().Str("template", id).Int("bytes", len(out)).Msg("document rendered")
	return out, nil
}

// Placeholders lists the keys referenced by template id.
func (r *Renderer) Placeholders(id string) ([]string, error) {
	archive, err := r.load(id)
	if err != nil {
		return nil, err
	}
	return Placeholders(archive)
}

// Render executes every templated part of archive and copies the rest unchanged.
// Executing a template that references an undefined key fails.
func Render(archive []byte, values map[string]any) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	escaped := escapeValues(values)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range zr.File {
		if !templatedPart.MatchString(f.Name) {
			if err := zw.Copy(f); err != nil {
				return nil, fmt.Errorf("copy %s: %w", f.Name, err)
			}
			continue
		}

		tmpl, err := parsePart(f)
		if err != nil {
			return nil, err
		}
		w, err := zw.CreateHeader(&zip.FileHeader{Name: f.Name, Method: f.Method, Modified: f.Modified})
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", f.Name, err)
		}
		if err := tmpl.Execute(w, escaped); err != nil {
			return nil, fmt.Errorf("execute %s: %w", f.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Placeholders walks the templated parts of archive and returns the sorted set of
// top-level keys they reference.
func Placeholders(archive []byte) ([]string, error) {
	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	seen := map[string]bool{}
	for _, f := range zr.File {
		if !templatedPart.MatchString(f.Name) {
			continue
		}
		tmpl, err := parsePart(f)
		if err != nil {
			return nil, err
		}
		for _, t := range tmpl.Templates() {
			if t.Tree != nil {
				collect(t.Tree.Root, false, seen)
			}
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func parsePart(f *zip.File) (*template.Template, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer rc.Close()
	src, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.Name, err)
	}
	tmpl, err := template.New(f.Name).Option("missingkey=error").Parse(mergeRuns(string(src)))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", f.Name, err)
	}
	return tmpl, nil
}

// mergeRuns rejoins template actions that Word split across runs. Markup found between
// "{{" and "}}" is moved right after the closing braces, so the action text becomes
// contiguous and the surrounding runs stay well formed. Text outside actions is untouched.
func mergeRuns(src string) string {
	var out, held strings.Builder
	var (
		open     bool // a lone '{' waits for its pair
		inAction bool
		last     byte
	)
	flush := func() {
		out.WriteString(held.String())
		held.Reset()
	}

	for i := 0; i < len(src); i++ {
		c := src[i]
		if c == '<' {
			end := strings.IndexByte(src[i:], '>')
			if end < 0 {
				flush()
				out.WriteString(src[i:])
				return out.String()
			}
			tag := src[i : i+end+1]
			if open || inAction {
				held.WriteString(tag)
			} else {
				out.WriteString(tag)
			}
			i += end
			continue
		}

		if open {
			open = false
			if c == '{' {
				out.WriteByte(c)
				inAction, last = true, 0
				continue
			}
			flush()
		}
		out.WriteByte(c)

		if inAction {
			if c == '}' && last == '}' {
				inAction = false
				flush()
			}
			last = c
			continue
		}
		open = c == '{'
	}
	flush()
	return out.String()
}

// collect records field references. Inside a range body dot is the element, so only
// $-rooted references count there.
func collect(node parse.Node, inRange bool, seen map[string]bool) {
	switch n := node.(type) {
	case *parse.ListNode:
		if n == nil {
			return
		}
		for _, c := range n.Nodes {
			collect(c, inRange, seen)
		}
	case *parse.ActionNode:
		collect(n.Pipe, inRange, seen)
	case *parse.PipeNode:
		if n == nil {
			return
		}
		for _, cmd := range n.Cmds {
			collect(cmd, inRange, seen)
		}
	case *parse.CommandNode:
		for _, arg := range n.Args {
			collect(arg, inRange, seen)
		}
	case *parse.FieldNode:
		if !inRange && len(n.Ident) > 0 {
			seen[n.Ident[0]] = true
		}
	case *parse.VariableNode:
		if len(n.Ident) > 1 && n.Ident[0] == "$" {
			seen[n.Ident[1]] = true
		}
	case *parse.IfNode:
		collect(n.Pipe, inRange, seen)
		collect(n.List, inRange, seen)
		collect(n.ElseList, inRange, seen)
	case *parse.WithNode:
		collect(n.Pipe, inRange, seen)
		collect(n.List, true, seen)
		collect(n.ElseList, inRange, seen)
	case *parse.RangeNode:
		collect(n.Pipe, inRange, seen)
		collect(n.List, true, seen)
		collect(n.ElseList, inRange, seen)
	}
}

// escapeValues XML-escapes strings and string lists so values cannot break the markup.
func escapeValues(values map[string]any) map[string]any {
	out := make(map[string]any, len(values))
	for k, v := range values {
		switch t := v.(type) {
		case string:
			out[k] = escape(t)
		case []string:
			list := make([]string, len(t))
			for i, s := range t {
				list[i] = escape(s)
			}
			out[k] = list
		default:
			out[k] = v
		}
	}
	return out
}

func escape(s string) string {
	var b bytes.Buffer
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
