package syntax

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

func languageFor(path string) *sitter.Language {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ts", ".mts", ".cts":
		return typescript.GetLanguage()
	case ".tsx":
		return tsx.GetLanguage()
	default:
		return javascript.GetLanguage()
	}
}

// Parse builds the program for src. Comments between top-level statements
// go to the returned store, keyed by the statement they precede.
func Parse(ctx context.Context, path string, src []byte) (*Program, *Comments, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(languageFor(path))

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, nil, fmt.Errorf("parse %s: %w", path, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, nil, fmt.Errorf("parse %s: syntax error near byte %d", path, firstError(root))
	}

	b := &builder{src: src, prog: &Program{Path: path, End: Pos(len(src)) + 1}, comments: NewComments()}
	b.program(root)
	return b.prog, b.comments, nil
}

func firstError(n *sitter.Node) uint32 {
	if n.IsError() || n.IsMissing() {
		return n.StartByte()
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if c := n.Child(i); c.HasError() {
			return firstError(c)
		}
	}
	return n.StartByte()
}

type builder struct {
	src      []byte
	prog     *Program
	comments *Comments
	pending  []string
}

func posOf(n *sitter.Node) Pos { return Pos(n.StartByte()) + 1 }

func (b *builder) text(n *sitter.Node) string { return n.Content(b.src) }

func (b *builder) attach(pos Pos) {
	for _, c := range b.pending {
		b.comments.AddLeading(pos, c)
	}
	b.pending = b.pending[:0]
}

func (b *builder) program(root *sitter.Node) {
	prologue := true
	for i := 0; i < int(root.NamedChildCount()); i++ {
		n := root.NamedChild(i)
		switch n.Type() {
		case "comment":
			b.pending = append(b.pending, b.text(n))
			continue
		case "hash_bang_line":
			b.add(&Item{Kind: ItemRaw, Pos: posOf(n), Text: b.text(n)})
			continue
		}
		if prologue {
			if d, ok := b.directive(n); ok {
				b.attach(posOf(n))
				b.prog.Directives = append(b.prog.Directives, Directive{Value: d, Pos: posOf(n)})
				continue
			}
			prologue = false
		}
		b.add(b.statement(n))
	}
	b.attach(b.prog.End)
	b.foldDefaultExports()
}

var exportDefaultIdent = regexp.MustCompile(`^export\s+default\s+([A-Za-z_$][\w$]*)\s*;?$`)

// foldDefaultExports turns `const f = async () => {}; export default f;`
// back into a single default-exported function item, which is how Print
// renders named default arrows.
func (b *builder) foldDefaultExports() {
	items := b.prog.Items[:0]
	for _, it := range b.prog.Items {
		if it.Kind == ItemRaw && len(items) > 0 {
			prev := items[len(items)-1]
			m := exportDefaultIdent.FindStringSubmatch(it.Text)
			if m != nil && prev.Kind == ItemFunction && !prev.Exported && prev.Keyword != "" && prev.Name == m[1] &&
				len(b.comments.Leading(it.Pos)) == 0 {
				prev.Exported, prev.Default = true, true
				continue
			}
		}
		items = append(items, it)
	}
	b.prog.Items = items
}

func (b *builder) add(it *Item) {
	b.attach(it.Pos)
	b.prog.Items = append(b.prog.Items, it)
}

// directive recognizes `"use server";` style expression statements.
func (b *builder) directive(n *sitter.Node) (string, bool) {
	if n.Type() != "expression_statement" || n.NamedChildCount() != 1 {
		return "", false
	}
	s := n.NamedChild(0)
	if s.Type() != "string" {
		return "", false
	}
	return unquote(b.text(s)), true
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}

func (b *builder) statement(n *sitter.Node) *Item {
	raw := &Item{Kind: ItemRaw, Pos: posOf(n), Text: b.text(n)}
	switch n.Type() {
	case "import_statement":
		raw.Kind = ItemImport
		return raw
	case "function_declaration":
		if it := b.function(n); it != nil {
			return it
		}
	case "lexical_declaration":
		if it := b.lexical(n); it != nil {
			return it
		}
	case "export_statement":
		return b.export(n, raw)
	}
	return raw
}

func (b *builder) export(n *sitter.Node, raw *Item) *Item {
	raw.Exported = true
	isDefault := false
	for i := 0; i < int(n.ChildCount()); i++ {
		if n.Child(i).Type() == "default" {
			isDefault = true
		}
	}

	var it *Item
	if decl := n.ChildByFieldName("declaration"); decl != nil {
		raw.Decl = decl.Type()
		switch decl.Type() {
		case "function_declaration":
			it = b.function(decl)
		case "lexical_declaration":
			it = b.lexical(decl)
		case "type_alias_declaration", "interface_declaration":
			raw.TypeOnly = true
		}
	} else if val := n.ChildByFieldName("value"); val != nil && isDefault {
		it = b.expression(val, "")
	} else if n.ChildByFieldName("source") != nil || hasChild(n, "export_clause") {
		raw.TypeOnly = strings.HasPrefix(strings.TrimSpace(strings.TrimPrefix(raw.Text, "export")), "type")
	}
	if it == nil {
		return raw
	}
	it.Pos = posOf(n)
	it.Exported = true
	it.Default = isDefault
	return it
}

func hasChild(n *sitter.Node, typ string) bool {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if n.NamedChild(i).Type() == typ {
			return true
		}
	}
	return false
}

func (b *builder) function(n *sitter.Node) *Item {
	body := n.ChildByFieldName("body")
	params := n.ChildByFieldName("parameters")
	if body == nil || params == nil || isGenerator(n) {
		return nil
	}
	it := &Item{
		Kind:   ItemFunction,
		Pos:    posOf(n),
		Async:  n.ChildCount() > 0 && n.Child(0).Type() == "async",
		Params: b.text(params),
		Body:   b.text(body),
	}
	if name := n.ChildByFieldName("name"); name != nil {
		it.Name = b.text(name)
	}
	if tp := n.ChildByFieldName("type_parameters"); tp != nil {
		it.TypeParams = b.text(tp)
	}
	if rt := n.ChildByFieldName("return_type"); rt != nil {
		it.ReturnType = b.text(rt)
	}
	it.BodyDirs = b.bodyDirectives(body)
	return it
}

func isGenerator(n *sitter.Node) bool {
	for i := 0; i < int(n.ChildCount()); i++ {
		if n.Child(i).Type() == "*" {
			return true
		}
	}
	return false
}

// lexical handles `const name = async (...) => {...}` with a single declarator.
func (b *builder) lexical(n *sitter.Node) *Item {
	if n.NamedChildCount() != 1 || n.ChildCount() == 0 {
		return nil
	}
	decl := n.NamedChild(0)
	if decl.Type() != "variable_declarator" {
		return nil
	}
	name, val := decl.ChildByFieldName("name"), decl.ChildByFieldName("value")
	if name == nil || val == nil || name.Type() != "identifier" || decl.ChildByFieldName("type") != nil {
		return nil
	}
	it := b.expression(val, b.text(n.Child(0)))
	if it == nil {
		return nil
	}
	it.Pos = posOf(n)
	it.Name = b.text(name)
	return it
}

func (b *builder) expression(n *sitter.Node, keyword string) *Item {
	switch n.Type() {
	case "arrow_function":
		body := n.ChildByFieldName("body")
		if body == nil {
			return nil
		}
		it := &Item{Kind: ItemFunction, Pos: posOf(n), Arrow: true, Keyword: keyword, Body: b.text(body)}
		it.Async = n.ChildCount() > 0 && n.Child(0).Type() == "async"
		if p := n.ChildByFieldName("parameters"); p != nil {
			it.Params = b.text(p)
		} else if p := n.ChildByFieldName("parameter"); p != nil {
			it.Params = "(" + b.text(p) + ")"
		} else {
			return nil
		}
		if tp := n.ChildByFieldName("type_parameters"); tp != nil {
			it.TypeParams = b.text(tp)
		}
		if rt := n.ChildByFieldName("return_type"); rt != nil {
			it.ReturnType = b.text(rt)
		}
		if body.Type() == "statement_block" {
			it.BodyDirs = b.bodyDirectives(body)
		} else if body.Type() == "object" {
			it.Body = "(" + it.Body + ")"
		}
		return it
	case "function_expression", "function":
		it := b.function(n)
		if it == nil {
			return nil
		}
		if it.Name != "" && keyword != "" {
			// Named function expressions keep their own binding; leave them raw.
			return nil
		}
		it.Keyword = keyword
		return it
	}
	return nil
}

func (b *builder) bodyDirectives(block *sitter.Node) []string {
	var out []string
	for i := 0; i < int(block.NamedChildCount()); i++ {
		c := block.NamedChild(i)
		if c.Type() == "comment" {
			continue
		}
		d, ok := b.directive(c)
		if !ok {
			break
		}
		out = append(out, d)
	}
	return out
}
