package expr

import (
	"fmt"
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokOpen tokenKind = iota // {{
	tokClose                 // }}
	tokWord                  // keyword or id
	tokString                // quoted, unescaped
	tokLParen
	tokRParen
	tokComma
	tokEOF
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

type lexer struct {
	input string
	pos   int
}

func newLexer(input string) *lexer {
	return &lexer{input: input}
}

func (l *lexer) next() (token, error) {
	for l.pos < len(l.input) && unicode.IsSpace(rune(l.input[l.pos])) {
		l.pos++
	}
	if l.pos >= len(l.input) {
		return token{kind: tokEOF, pos: l.pos}, nil
	}
	start := l.pos
	c := l.input[l.pos]
	switch {
	case strings.HasPrefix(l.input[l.pos:], "{{"):
		l.pos += 2
		return token{kind: tokOpen, text: "{{", pos: start}, nil
	case strings.HasPrefix(l.input[l.pos:], "}}"):
		l.pos += 2
		return token{kind: tokClose, text: "}}", pos: start}, nil
	case c == '(':
		l.pos++
		return token{kind: tokLParen, text: "(", pos: start}, nil
	case c == ')':
		l.pos++
		return token{kind: tokRParen, text: ")", pos: start}, nil
	case c == ',':
		l.pos++
		return token{kind: tokComma, text: ",", pos: start}, nil
	case c == '"':
		return l.lexString()
	case isWordChar(c):
		for l.pos < len(l.input) && isWordChar(l.input[l.pos]) {
			l.pos++
		}
		return token{kind: tokWord, text: l.input[start:l.pos], pos: start}, nil
	default:
		return token{}, fmt.Errorf("unexpected character %q at offset %d", c, start)
	}
}

// lexString consumes a quoted string, resolving \" and \n escapes. A raw
// newline inside the quotes is not allowed; the escape form must be used.
func (l *lexer) lexString() (token, error) {
	start := l.pos
	l.pos++ // opening quote
	var b strings.Builder
	for l.pos < len(l.input) {
		c := l.input[l.pos]
		switch c {
		case '"':
			l.pos++
			return token{kind: tokString, text: b.String(), pos: start}, nil
		case '\\':
			if l.pos+1 >= len(l.input) {
				return token{}, fmt.Errorf("unterminated escape at offset %d", l.pos)
			}
			switch l.input[l.pos+1] {
			case '"':
				b.WriteByte('"')
			case 'n':
				b.WriteByte('\n')
			case '\\':
				b.WriteByte('\\')
			default:
				return token{}, fmt.Errorf("unknown escape \\%c at offset %d", l.input[l.pos+1], l.pos)
			}
			l.pos += 2
		case '\n':
			return token{}, fmt.Errorf("raw newline in string at offset %d", l.pos)
		default:
			b.WriteByte(c)
			l.pos++
		}
	}
	return token{}, fmt.Errorf("unterminated string starting at offset %d", start)
}

func isWordChar(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '-' || c == '_'
}

type parser struct {
	lex    *lexer
	cur    token
	primed bool
}

func (p *parser) advance() error {
	t, err := p.lex.next()
	if err != nil {
		return err
	}
	p.cur = t
	p.primed = true
	return nil
}

func (p *parser) expect(kind tokenKind, what string) (token, error) {
	if p.cur.kind != kind {
		return token{}, fmt.Errorf("expected %s at offset %d, got %q", what, p.cur.pos, p.cur.text)
	}
	t := p.cur
	if err := p.advance(); err != nil {
		return token{}, err
	}
	return t, nil
}

// parse implements
//
//	expr   := "{{" "DEFAULT" STRING clause* "}}"
//	clause := command "SAYS" STRING
func (p *parser) parse() (*Expression, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	if _, err := p.expect(tokOpen, `"{{"`); err != nil {
		return nil, err
	}
	if err := p.keyword("DEFAULT"); err != nil {
		return nil, err
	}
	def, err := p.expect(tokString, "default string")
	if err != nil {
		return nil, err
	}
	e := &Expression{Default: def.text}
	for p.cur.kind != tokClose {
		clause, err := p.parseClause()
		if err != nil {
			return nil, err
		}
		e.Clauses = append(e.Clauses, clause)
	}
	if _, err := p.expect(tokClose, `"}}"`); err != nil {
		return nil, err
	}
	if p.cur.kind != tokEOF {
		return nil, fmt.Errorf("trailing input after %q at offset %d", "}}", p.cur.pos)
	}
	return e, nil
}

func (p *parser) parseClause() (Clause, error) {
	cmd, err := p.parseCommand()
	if err != nil {
		return Clause{}, err
	}
	if err := p.keyword("SAYS"); err != nil {
		return Clause{}, err
	}
	says, err := p.expect(tokString, "clause string")
	if err != nil {
		return Clause{}, err
	}
	return Clause{Command: cmd, Says: says.text}, nil
}

func (p *parser) parseCommand() (Command, error) {
	word, err := p.expect(tokWord, "command keyword")
	if err != nil {
		return Command{}, err
	}
	var kind CommandKind
	switch strings.ToUpper(word.text) {
	case "HASROLE":
		kind = CmdHasRole
	case "HASANYROLE":
		kind = CmdHasAnyRole
	case "FIELDVALUE":
		kind = CmdFieldValue
	default:
		return Command{}, fmt.Errorf("unknown command %q at offset %d", word.text, word.pos)
	}
	if _, err := p.expect(tokLParen, `"("`); err != nil {
		return Command{}, err
	}
	ids, err := p.parseIDList()
	if err != nil {
		return Command{}, err
	}
	if _, err := p.expect(tokRParen, `")"`); err != nil {
		return Command{}, err
	}
	return Command{Kind: kind, IDs: ids}, nil
}

func (p *parser) parseIDList() ([]string, error) {
	id, err := p.expect(tokWord, "id")
	if err != nil {
		return nil, err
	}
	ids := []string{id.text}
	for p.cur.kind == tokComma {
		if err := p.advance(); err != nil {
			return nil, err
		}
		id, err := p.expect(tokWord, "id")
		if err != nil {
			return nil, err
		}
		ids = append(ids, id.text)
	}
	return ids, nil
}

func (p *parser) keyword(kw string) error {
	if p.cur.kind != tokWord || !strings.EqualFold(p.cur.text, kw) {
		return fmt.Errorf("expected %s at offset %d, got %q", kw, p.cur.pos, p.cur.text)
	}
	return p.advance()
}
