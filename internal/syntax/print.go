package syntax

import (
	"bytes"
	"fmt"
	"strconv"
)

// Print renders p with the leading comments held in c. Comments at
// ProgramStart come first.
func Print(p *Program, c *Comments) []byte {
	var buf bytes.Buffer
	line := func(s string) {
		buf.WriteString(s)
		buf.WriteByte('\n')
	}
	comments := func(pos Pos) {
		if c == nil {
			return
		}
		for _, s := range c.Leading(pos) {
			line(s)
		}
	}

	comments(ProgramStart)
	for _, d := range p.Directives {
		if d.Pos != ProgramStart {
			comments(d.Pos)
		}
		line(strconv.Quote(d.Value) + ";")
	}
	for _, it := range p.Items {
		if it.Pos != ProgramStart {
			comments(it.Pos)
		}
		line(it.Render())
	}
	if p.End != ProgramStart {
		comments(p.End)
	}
	return buf.Bytes()
}

// Render prints a single item.
func (it *Item) Render() string {
	switch it.Kind {
	case ItemFunction:
		return it.renderFunction()
	case ItemReference:
		ref := fmt.Sprintf("createServerReference(%s)", strconv.Quote(it.ActionID))
		if it.Default {
			return "export default " + ref + ";"
		}
		return fmt.Sprintf("export const %s = %s;", it.Name, ref)
	case ItemRegistration:
		return fmt.Sprintf("registerServerReference(%s, %s);", strconv.Quote(it.ActionID), it.Local)
	default:
		return it.Text
	}
}

func (it *Item) renderFunction() string {
	async := ""
	if it.Async {
		async = "async "
	}
	export := ""
	if it.Exported {
		export = "export "
	}

	if it.Arrow || it.Keyword != "" {
		var value string
		if it.Arrow {
			value = fmt.Sprintf("%s%s%s%s => %s", async, it.TypeParams, it.Params, it.ReturnType, it.Body)
		} else {
			value = fmt.Sprintf("%sfunction%s%s%s %s", async, it.TypeParams, it.Params, it.ReturnType, it.Body)
		}
		kw := it.Keyword
		if kw == "" {
			kw = "const"
		}
		switch {
		case it.Default && it.Name == "":
			return "export default " + value + ";"
		case it.Default:
			return fmt.Sprintf("%s %s = %s;\nexport default %s;", kw, it.Name, value, it.Name)
		default:
			return fmt.Sprintf("%s%s %s = %s;", export, kw, it.Name, value)
		}
	}

	if it.Default {
		export = "export default "
	}
	name := ""
	if it.Name != "" {
		name = " " + it.Name
	}
	return fmt.Sprintf("%s%sfunction%s%s%s%s %s", export, async, name, it.TypeParams, it.Params, it.ReturnType, it.Body)
}
