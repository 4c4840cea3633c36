package ops

import (
	"bytes"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"gopkg.in/yaml.v3"
)

type programDoc struct {
	Grammar  string    `yaml:"grammar"`
	Root     string    `yaml:"root"`
	Patterns []string  `yaml:"patterns,omitempty"`
	Actions  []string  `yaml:"actions,omitempty"`
	Types    []string  `yaml:"types,omitempty"`
	Procs    []procDoc `yaml:"procs"`
}

type procDoc struct {
	Rule string            `yaml:"rule"`
	Vars map[string]string `yaml:"vars"`
	Body []stmtDoc         `yaml:"body"`
}

type stmtDoc struct {
	Op       string    `yaml:"op"`
	Var      string    `yaml:"var,omitempty"`
	Init     string    `yaml:"init,omitempty"`
	N        int       `yaml:"n,omitempty"`
	Rule     string    `yaml:"rule,omitempty"`
	At       string    `yaml:"at,omitempty"`
	From     string    `yaml:"from,omitempty"`
	Advance  int       `yaml:"advance,omitempty"`
	Children string    `yaml:"children,omitempty"`
	Labels   []string  `yaml:"labels,omitempty"`
	Action   string    `yaml:"action,omitempty"`
	Type     string    `yaml:"type,omitempty"`
	Label    string    `yaml:"label,omitempty"`
	Index    int       `yaml:"index,omitempty"`
	Value    string    `yaml:"value,omitempty"`
	Cond     *condDoc  `yaml:"cond,omitempty"`
	Then     []stmtDoc `yaml:"then,omitempty"`
	Else     []stmtDoc `yaml:"else,omitempty"`
	Body     []stmtDoc `yaml:"body,omitempty"`
}

type condDoc struct {
	Test    string `yaml:"test"`
	Var     string `yaml:"var,omitempty"`
	Text    string `yaml:"text,omitempty"`
	CI      bool   `yaml:"ci,omitempty"`
	Pattern int    `yaml:"pattern,omitempty"`
	N       int    `yaml:"n,omitempty"`
}

var initNames = [...]string{
	InitFailure: "failure",
	InitCursor:  "cursor",
	InitChunk:   "chunk",
	InitList:    "list",
	InitNilList: "nil",
}

// Dump encodes program as YAML document.
func Dump(p *Program) ([]byte, error) {
	doc := programDoc{
		Grammar:  p.Grammar,
		Root:     p.Root,
		Patterns: p.Patterns,
		Actions:  p.Actions,
		Types:    p.Types,
		Procs:    make([]procDoc, len(p.Procs)),
	}
	for i, proc := range p.Procs {
		pd := procDoc{Rule: proc.Rule, Vars: make(map[string]string, len(proc.Vars))}
		for _, v := range proc.Vars {
			pd.Vars[v.Name()] = v.Kind.String()
		}
		body, e := blockDoc(proc.Body)
		if e != nil {
			return nil, e
		}
		pd.Body = body
		doc.Procs[i] = pd
	}

	buf := &bytes.Buffer{}
	enc := yaml.NewEncoder(buf)
	enc.SetIndent(2)
	if e := enc.Encode(doc); e != nil {
		return nil, e
	}
	if e := enc.Close(); e != nil {
		return nil, e
	}
	return buf.Bytes(), nil
}

func blockDoc(b Block) ([]stmtDoc, error) {
	res := make([]stmtDoc, 0, len(b))
	for _, s := range b {
		sd, e := stmtDocument(s)
		if e != nil {
			return nil, e
		}
		res = append(res, sd)
	}
	return res, nil
}

func stmtDocument(s Stmt) (sd stmtDoc, e error) {
	switch x := s.(type) {
	case *Alloc:
		if x.Init <= 0 || int(x.Init) >= len(initNames) {
			return sd, unknownStatementError(x)
		}
		sd = stmtDoc{Op: "alloc", Var: x.Var.Name(), Init: initNames[x.Init], N: x.N}
	case *MemoLookup:
		sd = stmtDoc{Op: "memo-lookup", Rule: x.Rule, At: x.At.Name(), Var: x.Result.Name()}
	case *MemoStore:
		sd = stmtDoc{Op: "memo-store", Rule: x.Rule, At: x.At.Name(), Var: x.Result.Name()}
	case *Call:
		sd = stmtDoc{Op: "call", Rule: x.Rule, Var: x.Result.Name()}
	case *If:
		sd = stmtDoc{Op: "if"}
		sd.Cond, e = condDocument(x.Cond)
		if e == nil {
			sd.Then, e = blockDoc(x.Then)
		}
		if e == nil && len(x.Else) > 0 {
			sd.Else, e = blockDoc(x.Else)
		}
	case *Loop:
		sd = stmtDoc{Op: "loop"}
		sd.Body, e = blockDoc(x.Body)
	case *Break:
		sd = stmtDoc{Op: "break"}
	case *Restore:
		sd = stmtDoc{Op: "restore", From: x.From.Name()}
	case *MakeNode:
		sd = stmtDoc{Op: "node", Var: x.Result.Name(), Advance: x.Advance, Action: x.Action}
		if x.From.Valid() {
			sd.From = x.From.Name()
		}
		if x.Children.Valid() {
			sd.Children = x.Children.Name()
		}
		for _, l := range x.Labels {
			sd.Labels = append(sd.Labels, l.Name+":"+strconv.Itoa(l.Index))
		}
	case *Extend:
		sd = stmtDoc{Op: "extend", Var: x.Var.Name(), Type: x.Type}
	case *Fail:
		sd = stmtDoc{Op: "fail", Var: x.Result.Name(), Label: x.Label}
	case *Reject:
		sd = stmtDoc{Op: "reject", Var: x.Result.Name()}
	case *ListSet:
		sd = stmtDoc{Op: "list-set", Var: x.List.Name(), Index: x.Index, Value: x.Value.Name()}
	case *ListAppend:
		sd = stmtDoc{Op: "list-append", Var: x.List.Name(), Value: x.Value.Name()}
	case *ListReset:
		sd = stmtDoc{Op: "list-reset", Var: x.List.Name()}
	case *Return:
		sd = stmtDoc{Op: "return", Var: x.Result.Name()}
	default:
		e = unknownStatementError(s)
	}
	return
}

func condDocument(c Cond) (*condDoc, error) {
	switch x := c.(type) {
	case *MatchText:
		return &condDoc{Test: "match-text", Var: x.Chunk.Name(), Text: x.Text, CI: x.CaseInsensitive}, nil
	case *MatchPattern:
		return &condDoc{Test: "match-pattern", Var: x.Chunk.Name(), Pattern: x.Pattern}, nil
	case *HasInput:
		return &condDoc{Test: "has-input"}, nil
	case *IsNode:
		return &condDoc{Test: "is-node", Var: x.Var.Name()}, nil
	case *IsFailure:
		return &condDoc{Test: "is-failure", Var: x.Var.Name()}, nil
	case *IsNilList:
		return &condDoc{Test: "is-nil-list", Var: x.List.Name()}, nil
	case *CountAtLeast:
		return &condDoc{Test: "count-at-least", Var: x.List.Name(), N: x.N}, nil
	case *CountReached:
		return &condDoc{Test: "count-reached", Var: x.List.Name(), N: x.N}, nil
	default:
		return nil, unknownStatementError(c)
	}
}

// Fingerprint returns a hash of program listing.
// Equal programs have equal fingerprints.
func Fingerprint(p *Program) uint64 {
	return xxhash.Sum64String(String(p))
}
