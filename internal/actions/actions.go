package actions

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"actionkit/internal/identity"
	"actionkit/internal/syntax"
)

const (
	DirectiveServer = "use server"
	EntryPrefix     = "/* __actionkit_action_entry__ "
	ServerRuntime   = "actionkit/server"
	ClientRuntime   = "actionkit/client"
)

var (
	ErrInlineActionInClient = errors.New("actions: inline \"use server\" functions are not allowed in a client module")
	ErrNotAsync             = errors.New("actions: only async functions can be exported from a \"use server\" module")
	ErrVisitorReused        = errors.New("actions: visitor already applied")
)

var (
	serverImport = fmt.Sprintf("import { registerServerReference } from %s;", strconv.Quote(ServerRuntime))
	clientImport = fmt.Sprintf("import { createServerReference } from %s;", strconv.Quote(ClientRuntime))
)

type Config struct {
	IsServerLayer bool
	Enabled       bool
}

// Action is one extracted server action.
type Action struct {
	ID    string
	Name  string // export name, or the local name of an inline action
	Local string
}

// Rewriter is a one-shot visitor over a single program.
type Rewriter struct {
	key      identity.Key
	cfg      Config
	comments *syntax.Comments

	used    bool
	actions []Action
}

func New(key identity.Key, cfg Config, comments *syntax.Comments) *Rewriter {
	return &Rewriter{key: key, cfg: cfg, comments: comments}
}

// ID hashes the file identity with the action name.
func ID(key identity.Key, name string) string {
	sum := sha1.Sum([]byte(string(key) + ":" + name))
	return hex.EncodeToString(sum[:])
}

// Actions returns what the last visit extracted.
func (r *Rewriter) Actions() []Action { return append([]Action(nil), r.actions...) }

func (r *Rewriter) VisitProgram(p *syntax.Program) error {
	if r.used {
		return ErrVisitorReused
	}
	r.used = true
	if !r.cfg.Enabled {
		return nil
	}

	moduleLevel := p.HasDirective(DirectiveServer)
	found, err := r.collect(p, moduleLevel)
	if err != nil {
		return err
	}
	if len(found) == 0 {
		return nil
	}

	if r.cfg.IsServerLayer {
		r.rewriteServer(p, found)
	} else {
		r.rewriteClient(p, found)
	}
	r.writeEntry()
	return nil
}

type candidate struct {
	item *syntax.Item
	Action
}

func (r *Rewriter) collect(p *syntax.Program, moduleLevel bool) ([]candidate, error) {
	var out []candidate
	anon := 0
	for _, it := range p.Items {
		switch {
		case moduleLevel && it.Kind == syntax.ItemFunction && it.Exported:
			if !it.Async {
				return nil, fmt.Errorf("%w: %q", ErrNotAsync, it.ExportName())
			}
		case moduleLevel && it.Kind == syntax.ItemRaw && it.Exported && it.Decl != "" && !it.TypeOnly:
			return nil, fmt.Errorf("%w: %s", ErrNotAsync, firstLine(it.Text))
		case it.Kind == syntax.ItemFunction && it.HasBodyDirective(DirectiveServer):
			if !it.Async {
				return nil, fmt.Errorf("%w: %q", ErrNotAsync, it.Name)
			}
			if !r.cfg.IsServerLayer {
				if !moduleLevel {
					return nil, fmt.Errorf("%w: %q", ErrInlineActionInClient, it.Name)
				}
				// Module-private; nothing on the client can reference it.
				continue
			}
		default:
			continue
		}

		name := it.ExportName()
		if !it.Exported {
			name = it.Name
		}
		local := it.Name
		if local == "" && r.cfg.IsServerLayer {
			local = "$$ACTION_" + strconv.Itoa(anon)
			anon++
		}
		out = append(out, candidate{item: it, Action: Action{ID: ID(r.key, name), Name: name, Local: local}})
	}
	return out, nil
}

func (r *Rewriter) rewriteServer(p *syntax.Program, found []candidate) {
	registered := map[string]bool{}
	hasImport := false
	for _, it := range p.Items {
		switch {
		case it.Kind == syntax.ItemRegistration:
			registered[it.ActionID] = true
		case it.Kind == syntax.ItemImport && it.Text == serverImport:
			hasImport = true
		}
	}
	for _, c := range found {
		r.actions = append(r.actions, c.Action)
		if c.item.Name == "" {
			c.item.Name = c.Local
		}
		if registered[c.ID] {
			continue
		}
		p.Items = append(p.Items, &syntax.Item{Kind: syntax.ItemRegistration, ActionID: c.ID, Local: c.Local})
	}
	if !hasImport {
		imp := &syntax.Item{Kind: syntax.ItemImport, Text: serverImport}
		p.Items = append([]*syntax.Item{imp}, p.Items...)
	}
}

// rewriteClient replaces a "use server" module with references only; none of
// the server code may reach the client bundle.
func (r *Rewriter) rewriteClient(p *syntax.Program, found []candidate) {
	items := []*syntax.Item{{Kind: syntax.ItemImport, Text: clientImport}}
	for _, c := range found {
		r.actions = append(r.actions, c.Action)
		items = append(items, &syntax.Item{
			Kind:     syntax.ItemReference,
			Name:     c.item.Name,
			Default:  c.item.Default,
			Exported: true,
			ActionID: c.ID,
		})
	}
	p.Items = items

	dirs := p.Directives[:0]
	for _, d := range p.Directives {
		if d.Value != DirectiveServer {
			dirs = append(dirs, d)
		}
	}
	p.Directives = dirs
}

func (r *Rewriter) writeEntry() {
	if r.comments == nil {
		return
	}
	entry := make(map[string]string, len(r.actions))
	for _, a := range r.actions {
		entry[a.ID] = a.Name
	}
	b, _ := json.Marshal(entry)
	r.comments.ReplaceLeading(syntax.ProgramStart, EntryPrefix, EntryPrefix+string(b)+" */")
}

// Entries reads the action entry comment back: action ID to name. ok is
// false when the module carries no actions.
func Entries(comments *syntax.Comments) (map[string]string, bool, error) {
	s, found := comments.Find(EntryPrefix)
	if !found {
		return nil, false, nil
	}
	body := strings.TrimSuffix(strings.TrimPrefix(s, EntryPrefix), " */")
	out := map[string]string{}
	if err := json.Unmarshal([]byte(body), &out); err != nil {
		return nil, true, fmt.Errorf("actions: malformed entry comment: %w", err)
	}
	return out, true, nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
