package langdef

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/ava12/packrat/grammar"
	"github.com/ava12/packrat/lexer"
	"github.com/ava12/packrat/source"
)

// ParseString parses grammar description and returns a grammar on success.
// Returns nil and *packrat.Error on error.
func ParseString(name, content string) (*grammar.Grammar, error) {
	return Parse(source.NewString(name, content))
}

// ParseBytes parses grammar description and returns a grammar on success.
// Returns nil and *packrat.Error on error.
func ParseBytes(name string, content []byte) (*grammar.Grammar, error) {
	return Parse(source.New(name, content))
}

// Parse parses grammar description and returns a grammar on success.
// Returns nil and *packrat.Error on error.
// Only syntax is checked, use grammar.Validate or compiler.Compile to check rule references.
func Parse(s *source.Source) (*grammar.Grammar, error) {
	c := newParseContext(s)
	return c.Parse()
}

const (
	stringTok = "string"
	ciTok     = "ci-string"
	classTok  = "class"
	labelTok  = "label"
	nameTok   = "name"
	actionTok = "action"
	typeTok   = "type"
	repeatTok = "repeat"
	opTok     = "op"
	wrongTok  = ""
)

const (
	arrowTok  = "<-"
	slashTok  = "/"
	lParenTok = "("
	rParenTok = ")"
	ampTok    = "&"
	bangTok   = "!"
	atTok     = "@"
	starTok   = "*"
	plusTok   = "+"
	questTok  = "?"
	dotTok    = "."
)

const grammarKeyword = "grammar"

var (
	itemTokens = []string{
		nameTok, labelTok, stringTok, ciTok, classTok, lParenTok, dotTok, ampTok, bangTok, atTok,
	}
	primaryTokens = []string{nameTok, stringTok, ciTok, classTok, lParenTok, dotTok}
	suffixTokens  = []string{starTok, plusTok, questTok, repeatTok}
)

type escapeCharEntry struct {
	substitute rune
	hexLen     int
}

var escapeCharMap = map[byte]escapeCharEntry{
	'\\': {'\\', 0},
	'"':  {'"', 0},
	'\'': {'\'', 0},
	'n':  {'\n', 0},
	'r':  {'\r', 0},
	't':  {'\t', 0},
	'a':  {'\a', 0},
	'b':  {'\b', 0},
	'f':  {'\f', 0},
	'v':  {'\v', 0},
	'x':  {0, 2},
	'u':  {0, 4},
	'U':  {0, 8},
}

var pegLexer *lexer.Lexer

func init() {
	tokenTypes := []lexer.TokenType{
		{1, stringTok},
		{2, ciTok},
		{3, classTok},
		{4, labelTok},
		{5, nameTok},
		{6, actionTok},
		{7, typeTok},
		{8, repeatTok},
		{9, opTok},
		{lexer.ErrorTokenType, wrongTok},
	}

	re := regexp.MustCompile(
		`^(?:\s+|#[^\n]*|` +
			`("(?:[^\\"\n]|\\.)*"|'(?:[^\\'\n]|\\.)*')|` +
			"(`[^`\\n]*`)|" +
			`(\[(?:[^\\\]\n]|\\.)*\])|` +
			`([a-zA-Z_][a-zA-Z_0-9]*:)|` +
			`([a-zA-Z_][a-zA-Z_0-9]*)|` +
			`(%[a-zA-Z_][a-zA-Z_0-9]*)|` +
			`(<[a-zA-Z_][a-zA-Z_0-9.]*>)|` +
			`(\{\s*\d+\s*(?:,\s*\d*\s*)?\})|` +
			`(<-|[/()&!@*+?.])|` +
			"([\"'`\\[<%{].{0,10}))")

	pegLexer = lexer.New(re, tokenTypes)
}

type parseContext struct {
	scanner     *lexer.Scanner
	savedTokens []*lexer.Token
}

func newParseContext(s *source.Source) *parseContext {
	return &parseContext{scanner: pegLexer.Scan(s)}
}

func (c *parseContext) Parse() (*grammar.Grammar, error) {
	g := &grammar.Grammar{}

	t, e := c.fetchOne(nameTok, true, nil)
	if e != nil {
		return nil, e
	}

	if t.Text() == grammarKeyword {
		nt, e := c.fetch([]string{nameTok, arrowTok}, true, nil)
		if e != nil {
			return nil, e
		}

		if nt.Text() == arrowTok {
			c.put(nt)
		} else {
			g.Name = nt.Text()
			t, e = c.fetchOne(nameTok, true, nil)
			if e != nil {
				return nil, e
			}
		}
	}

	for {
		e = c.skipOne(arrowTok, nil)
		if e != nil {
			return nil, e
		}

		var expr grammar.Expr
		expr, e = c.parseChoice()
		if e != nil {
			return nil, e
		}

		g.Rules = append(g.Rules, grammar.Rule{Name: t.Text(), Expr: expr})

		t, e = c.fetch([]string{nameTok, lexer.EofTokenName}, true, nil)
		if e != nil {
			return nil, e
		}

		if isEof(t) {
			break
		}
	}

	return g, nil
}

func (c *parseContext) put(t *lexer.Token) {
	c.savedTokens = append(c.savedTokens, t)
}

func isEof(t *lexer.Token) bool {
	return t.Type() == lexer.EofTokenType
}

func (c *parseContext) next() (*lexer.Token, error) {
	l := len(c.savedTokens)
	if l > 0 {
		t := c.savedTokens[l-1]
		c.savedTokens = c.savedTokens[:l-1]
		return t, nil
	}

	return c.scanner.Next()
}

// fetch returns next token if it has one of given type names or texts.
// Otherwise returns error if strict is set or keeps the token for next fetch and returns nil, nil.
func (c *parseContext) fetch(types []string, strict bool, e error) (*lexer.Token, error) {
	if e != nil {
		return nil, e
	}

	token, e := c.next()
	if e != nil {
		return nil, e
	}

	for _, typ := range types {
		if token.TypeName() == typ || (token.TypeName() == opTok && token.Text() == typ) {
			return token, nil
		}
	}

	if strict {
		if isEof(token) {
			return nil, eofError(token)
		}
		return nil, unexpectedTokenError(token)
	}

	c.put(token)
	return nil, nil
}

func (c *parseContext) fetchOne(typ string, strict bool, e error) (*lexer.Token, error) {
	return c.fetch([]string{typ}, strict, e)
}

func (c *parseContext) skipOne(typ string, e error) error {
	_, e = c.fetchOne(typ, true, e)
	return e
}

// isRuleStart reports whether the next token is arrow, i.e. previous name token starts a new rule.
func (c *parseContext) isRuleStart() (bool, error) {
	nt, e := c.next()
	if e != nil {
		return false, e
	}

	c.put(nt)
	return nt.TypeName() == opTok && nt.Text() == arrowTok, nil
}

func (c *parseContext) parseChoice() (grammar.Expr, error) {
	var alts []grammar.Expr
	for {
		alt, e := c.parseTagged()
		if e != nil {
			return nil, e
		}

		alts = append(alts, alt)
		t, e := c.fetchOne(slashTok, false, nil)
		if e != nil {
			return nil, e
		}
		if t == nil {
			break
		}
	}

	if len(alts) == 1 {
		return alts[0], nil
	}
	return &grammar.Choice{Alternatives: alts}, nil
}

func (c *parseContext) parseTagged() (grammar.Expr, error) {
	res, e := c.parseSequence()
	if e != nil {
		return nil, e
	}

	t, e := c.fetchOne(actionTok, false, nil)
	if e != nil {
		return nil, e
	}
	if t != nil {
		res = &grammar.Action{Expr: res, Name: t.Text()[1:]}
	}

	for {
		t, e = c.fetchOne(typeTok, false, nil)
		if e != nil {
			return nil, e
		}
		if t == nil {
			break
		}

		text := t.Text()
		res = &grammar.Extension{Expr: res, Type: text[1 : len(text)-1]}
	}

	return res, nil
}

func (c *parseContext) parseSequence() (grammar.Expr, error) {
	var (
		items    []grammar.Expr
		muted    []bool
		anyMuted bool
	)

	for {
		t, e := c.fetch(itemTokens, false, nil)
		if e != nil {
			return nil, e
		}
		if t == nil {
			break
		}

		if t.TypeName() == nameTok {
			isRule, e := c.isRuleStart()
			if e != nil {
				return nil, e
			}
			if isRule {
				c.put(t)
				break
			}
		}

		mute := t.TypeName() == opTok && t.Text() == atTok
		if mute {
			anyMuted = true
		} else {
			c.put(t)
		}

		item, e := c.parsePrefixed()
		if e != nil {
			return nil, e
		}

		items = append(items, item)
		muted = append(muted, mute)
	}

	if len(items) == 0 {
		t, e := c.fetch(itemTokens, true, nil)
		if e == nil {
			e = unexpectedTokenError(t)
		}
		return nil, e
	}

	if len(items) == 1 && !muted[0] {
		return items[0], nil
	}
	if !anyMuted {
		muted = nil
	}
	return &grammar.Sequence{Items: items, Muted: muted}, nil
}

func (c *parseContext) parsePrefixed() (grammar.Expr, error) {
	t, e := c.fetch([]string{labelTok, ampTok, bangTok}, false, nil)
	if e != nil {
		return nil, e
	}
	if t == nil {
		return c.parseSuffixed()
	}

	inner, e := c.parsePrefixed()
	if e != nil {
		return nil, e
	}

	if t.TypeName() == labelTok {
		text := t.Text()
		return &grammar.Labeled{Label: text[:len(text)-1], Expr: inner}, nil
	}
	return &grammar.Lookahead{Expr: inner, Negative: t.Text() == bangTok}, nil
}

func (c *parseContext) parseSuffixed() (grammar.Expr, error) {
	res, e := c.parsePrimary()
	if e != nil {
		return nil, e
	}

	t, e := c.fetch(suffixTokens, false, nil)
	if e != nil || t == nil {
		return res, e
	}

	rep := &grammar.Repetition{Expr: res}
	switch t.Text() {
	case starTok:
		rep.Min, rep.Max = 0, grammar.Unbounded
	case plusTok:
		rep.Min, rep.Max = 1, grammar.Unbounded
	case questTok:
		rep.Min, rep.Max = 0, 1
	default:
		rep.Min, rep.Max, e = parseBounds(t)
		if e != nil {
			return nil, e
		}
	}
	return rep, nil
}

// parseBounds parses {n}, {n,} and {n,m} suffixes.
func parseBounds(t *lexer.Token) (lo, hi int, e error) {
	text := t.Text()
	parts := strings.Split(text[1:len(text)-1], ",")
	lo, e = strconv.Atoi(strings.TrimSpace(parts[0]))
	if e != nil {
		return 0, 0, repetitionBoundsError(t)
	}

	hi = lo
	if len(parts) > 1 {
		hiText := strings.TrimSpace(parts[1])
		if hiText == "" {
			hi = grammar.Unbounded
		} else {
			hi, e = strconv.Atoi(hiText)
			if e != nil || hi < lo {
				return 0, 0, repetitionBoundsError(t)
			}
		}
	}
	if hi == 0 {
		return 0, 0, repetitionBoundsError(t)
	}

	return lo, hi, nil
}

func (c *parseContext) parsePrimary() (grammar.Expr, error) {
	t, e := c.fetch(primaryTokens, true, nil)
	if e != nil {
		return nil, e
	}

	text := t.Text()
	switch t.TypeName() {
	case nameTok:
		return &grammar.Reference{Name: text}, nil

	case stringTok:
		s, e := unquote(t)
		if e != nil {
			return nil, e
		}
		return &grammar.Literal{Text: s}, nil

	case ciTok:
		return &grammar.Literal{Text: text[1 : len(text)-1], CaseInsensitive: true}, nil

	case classTok:
		return parseClass(t)
	}

	if text == dotTok {
		return &grammar.Any{}, nil
	}

	rt, e := c.fetchOne(rParenTok, false, nil)
	if e != nil {
		return nil, e
	}
	if rt != nil {
		return &grammar.Sequence{}, nil
	}

	res, e := c.parseChoice()
	if e != nil {
		return nil, e
	}
	return res, c.skipOne(rParenTok, nil)
}

func unquote(token *lexer.Token) (string, error) {
	content := token.Text()
	content = content[1 : len(content)-1]
	if strings.IndexByte(content, '\\') < 0 {
		return content, nil
	}

	sb := &strings.Builder{}
	for {
		slashPos := strings.IndexByte(content, '\\')
		if slashPos < 0 {
			sb.WriteString(content)
			break
		}

		sb.WriteString(content[:slashPos])
		content = content[slashPos:]
		r, l, e := unescape(token, content)
		if e != nil {
			return "", e
		}

		sb.WriteRune(r)
		content = content[l:]
	}

	return sb.String(), nil
}

// unescape decodes escape sequence at the start of content,
// returns decoded rune and sequence length in bytes.
func unescape(token *lexer.Token, content string) (rune, int, error) {
	if len(content) < 2 {
		return 0, 0, invalidEscapeError(token, content)
	}

	entry, valid := escapeCharMap[content[1]]
	if !valid {
		return 0, 0, invalidEscapeError(token, content[:2])
	}
	if entry.hexLen == 0 {
		return entry.substitute, 2, nil
	}

	if len(content) < entry.hexLen+2 {
		return 0, 0, invalidEscapeError(token, content)
	}

	hex := content[2 : entry.hexLen+2]
	codePoint, e := strconv.ParseUint(hex, 16, 32)
	if e != nil {
		return 0, 0, invalidEscapeError(token, content[:entry.hexLen+2])
	}
	if !utf8.ValidRune(rune(codePoint)) {
		return 0, 0, invalidRuneError(token, hex)
	}
	return rune(codePoint), entry.hexLen + 2, nil
}

func parseClass(t *lexer.Token) (grammar.Expr, error) {
	text := t.Text()
	content := text[1 : len(text)-1]
	res := &grammar.Class{Source: text}
	if strings.HasPrefix(content, "^") {
		res.Negated = true
		content = content[1:]
	}

	for content != "" {
		low, l, e := classChar(t, content)
		if e != nil {
			return nil, e
		}
		content = content[l:]

		high := low
		if len(content) > 1 && content[0] == '-' {
			high, l, e = classChar(t, content[1:])
			if e != nil {
				return nil, e
			}
			if high < low {
				return nil, malformedClassError(t, "range bounds out of order")
			}
			content = content[l+1:]
		}

		res.Ranges = append(res.Ranges, grammar.Range{Low: low, High: high})
	}

	return res, nil
}

// classChar returns the first char of class content and its length in bytes.
// Class escapes are \n, \r, \t, \x{hex} and backslash followed by a char taken literally.
func classChar(t *lexer.Token, content string) (rune, int, error) {
	if content[0] != '\\' {
		r, l := utf8.DecodeRuneInString(content)
		return r, l, nil
	}

	if len(content) < 2 {
		return 0, 0, malformedClassError(t, "dangling backslash")
	}

	switch content[1] {
	case 'n':
		return '\n', 2, nil
	case 'r':
		return '\r', 2, nil
	case 't':
		return '\t', 2, nil
	case 'x':
		if len(content) > 2 && content[2] == '{' {
			end := strings.IndexByte(content, '}')
			if end < 0 {
				return 0, 0, invalidEscapeError(t, content)
			}
			hex := content[3:end]
			codePoint, e := strconv.ParseUint(hex, 16, 32)
			if e != nil {
				return 0, 0, invalidEscapeError(t, content[:end+1])
			}
			if !utf8.ValidRune(rune(codePoint)) {
				return 0, 0, invalidRuneError(t, hex)
			}
			return rune(codePoint), end + 1, nil
		}
	}

	r, l := utf8.DecodeRuneInString(content[1:])
	return r, l + 1, nil
}
