package stacksh

import (
	"math"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// SourcePosition tracks the position of code in source files
type SourcePosition struct {
	Line         int
	Column       int
	OriginalText string
	Filename     string
}

// ExprKind identifies the form of a parsed expression
type ExprKind int

const (
	ExprLiteral ExprKind = iota
	ExprBlock
	ExprVarRef
	ExprWord
)

func (k ExprKind) String() string {
	switch k {
	case ExprLiteral:
		return "literal"
	case ExprBlock:
		return "block"
	case ExprVarRef:
		return "varref"
	case ExprWord:
		return "word"
	}
	return "unknown"
}

// TemplatePart is one piece of an interpolated string: literal text or a
// variable name resolved at evaluation time
type TemplatePart struct {
	Text string
	Var  string
}

// Expr is a single parsed expression
type Expr struct {
	Kind     ExprKind
	Value    Value          // ExprLiteral
	Template []TemplatePart // ExprLiteral from a double-quoted string with $refs
	Block    *Block         // ExprBlock
	Name     string         // ExprVarRef, ExprWord
	Position *SourcePosition
}

// Parser turns source text into expressions in a single pass.
// It never evaluates anything.
type Parser struct {
	runes    []rune
	pos      int
	line     int
	column   int
	filename string
}

// NewParser creates a new parser. Input is normalized to NFC first.
func NewParser(source, filename string) *Parser {
	return &Parser{
		runes:    []rune(norm.NFC.String(source)),
		line:     1,
		column:   1,
		filename: filename,
	}
}

// Parse is a convenience wrapper around NewParser(...).ParseExpressions()
func Parse(source string) ([]Expr, error) {
	return NewParser(source, "").ParseExpressions()
}

// ParseExpressions parses the whole input
func (p *Parser) ParseExpressions() ([]Expr, error) {
	exprs, err := p.parseSequence(0)
	if err != nil {
		return nil, err
	}
	return exprs, nil
}

func (p *Parser) eof() bool {
	return p.pos >= len(p.runes)
}

func (p *Parser) peek() rune {
	return p.runes[p.pos]
}

func (p *Parser) advance() rune {
	r := p.runes[p.pos]
	p.pos++
	if r == '\n' {
		p.line++
		p.column = 1
	} else {
		p.column++
	}
	return r
}

func (p *Parser) position() *SourcePosition {
	return &SourcePosition{Line: p.line, Column: p.column, Filename: p.filename}
}

func (p *Parser) errorAt(pos *SourcePosition, incomplete bool, format string, args ...interface{}) *ErrorValue {
	err := NewError(ParseError, format, args...)
	err.Position = pos
	err.incomplete = incomplete
	return err
}

// parseSequence reads expressions until EOF (depth 0) or a closing bracket
func (p *Parser) parseSequence(depth int) ([]Expr, error) {
	var exprs []Expr
	for {
		p.skipSpaceAndComments()
		if p.eof() {
			return exprs, nil
		}

		start := p.position()
		switch r := p.peek(); r {
		case ']':
			if depth == 0 {
				return nil, p.errorAt(start, false, "unexpected ']'")
			}
			return exprs, nil
		case '[':
			expr, err := p.parseBlock()
			if err != nil {
				return nil, err
			}
			exprs = append(exprs, expr)
		case '"':
			expr, err := p.parseDoubleQuoted()
			if err != nil {
				return nil, err
			}
			exprs = append(exprs, expr)
		case '\'':
			expr, err := p.parseSingleQuoted()
			if err != nil {
				return nil, err
			}
			exprs = append(exprs, expr)
		default:
			expr, err := p.parseBare()
			if err != nil {
				return nil, err
			}
			exprs = append(exprs, expr)
		}
	}
}

func (p *Parser) skipSpaceAndComments() {
	for !p.eof() {
		r := p.peek()
		if unicode.IsSpace(r) {
			p.advance()
			continue
		}
		if r == '#' {
			for !p.eof() && p.peek() != '\n' {
				p.advance()
			}
			continue
		}
		return
	}
}

func (p *Parser) parseBlock() (Expr, error) {
	start := p.position()
	p.advance() // [
	bodyStart := p.pos
	body, err := p.parseSequence(1)
	if err != nil {
		return Expr{}, err
	}
	if p.eof() {
		return Expr{}, p.errorAt(start, true, "unterminated block")
	}
	source := strings.TrimSpace(string(p.runes[bodyStart:p.pos]))
	p.advance() // ]
	start.OriginalText = "[" + source + "]"
	return Expr{Kind: ExprBlock, Block: NewBlock(body, source), Position: start}, nil
}

func (p *Parser) parseSingleQuoted() (Expr, error) {
	start := p.position()
	p.advance() // '
	var sb strings.Builder
	for {
		if p.eof() {
			return Expr{}, p.errorAt(start, true, "unterminated string")
		}
		r := p.advance()
		if r == '\\' && !p.eof() && (p.peek() == '\'' || p.peek() == '\\') {
			sb.WriteRune(p.advance())
			continue
		}
		if r == '\'' {
			break
		}
		sb.WriteRune(r)
	}
	return Expr{Kind: ExprLiteral, Value: Str(sb.String()), Position: start}, nil
}

func (p *Parser) parseDoubleQuoted() (Expr, error) {
	start := p.position()
	p.advance() // "
	var parts []TemplatePart
	var sb strings.Builder
	hasVars := false

	flush := func() {
		if sb.Len() > 0 {
			parts = append(parts, TemplatePart{Text: sb.String()})
			sb.Reset()
		}
	}

	for {
		if p.eof() {
			return Expr{}, p.errorAt(start, true, "unterminated string")
		}
		r := p.advance()
		switch r {
		case '"':
			flush()
			if !hasVars {
				text := ""
				if len(parts) > 0 {
					text = parts[0].Text
				}
				return Expr{Kind: ExprLiteral, Value: Str(text), Position: start}, nil
			}
			return Expr{Kind: ExprLiteral, Value: Str(""), Template: parts, Position: start}, nil
		case '\\':
			if p.eof() {
				return Expr{}, p.errorAt(start, true, "unterminated string")
			}
			esc := p.advance()
			switch esc {
			case 'n':
				sb.WriteRune('\n')
			case 't':
				sb.WriteRune('\t')
			case 'r':
				sb.WriteRune('\r')
			case '0':
				sb.WriteRune(0)
			case '\\', '"', '$':
				sb.WriteRune(esc)
			default:
				sb.WriteRune('\\')
				sb.WriteRune(esc)
			}
		case '$':
			name, ok := p.readInterpolationName()
			if !ok {
				sb.WriteRune('$')
				continue
			}
			flush()
			parts = append(parts, TemplatePart{Var: name})
			hasVars = true
		default:
			sb.WriteRune(r)
		}
	}
}

// readInterpolationName reads `name` or `{name}` after a `$` inside a string
func (p *Parser) readInterpolationName() (string, bool) {
	if p.eof() {
		return "", false
	}
	if p.peek() == '{' {
		end := p.pos + 1
		for end < len(p.runes) && p.runes[end] != '}' && p.runes[end] != '"' {
			end++
		}
		if end >= len(p.runes) || p.runes[end] != '}' || end == p.pos+1 {
			return "", false
		}
		name := string(p.runes[p.pos+1 : end])
		for p.pos <= end {
			p.advance()
		}
		return name, true
	}
	var sb strings.Builder
	for !p.eof() {
		r := p.peek()
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(p.advance())
			continue
		}
		break
	}
	return sb.String(), sb.Len() > 0
}

func isTokenBoundary(r rune) bool {
	return unicode.IsSpace(r) || r == '[' || r == ']'
}

func (p *Parser) parseBare() (Expr, error) {
	start := p.position()
	begin := p.pos
	for !p.eof() && !isTokenBoundary(p.peek()) {
		p.advance()
	}
	token := string(p.runes[begin:p.pos])
	start.OriginalText = token

	switch {
	case strings.HasPrefix(token, "$"):
		name := token[1:]
		if strings.HasPrefix(name, "{") && strings.HasSuffix(name, "}") {
			name = name[1 : len(name)-1]
		}
		if name == "" {
			return Expr{}, p.errorAt(start, false, "empty variable name")
		}
		return Expr{Kind: ExprVarRef, Name: name, Position: start}, nil
	case token == "nil":
		return Expr{Kind: ExprLiteral, Value: Nil{}, Position: start}, nil
	}

	if n, ok := parseNumberToken(token); ok {
		return Expr{Kind: ExprLiteral, Value: n, Position: start}, nil
	}
	if isFlagToken(token) {
		return Expr{Kind: ExprLiteral, Value: Str(token), Position: start}, nil
	}
	if token == ":" {
		return Expr{}, p.errorAt(start, false, "definition needs a name after ':'")
	}
	return Expr{Kind: ExprWord, Name: token, Position: start}, nil
}

// parseNumberToken recognizes numeric literals. Only tokens that start like
// a number are tried, so words such as "inf" or "nan" stay words.
func parseNumberToken(token string) (Number, bool) {
	if token == "" {
		return 0, false
	}
	body := token
	if body[0] == '-' || body[0] == '+' {
		body = body[1:]
	}
	if body == "" {
		return 0, false
	}
	if !(body[0] >= '0' && body[0] <= '9') && !(body[0] == '.' && len(body) > 1 && body[1] >= '0' && body[1] <= '9') {
		return 0, false
	}
	if strings.HasPrefix(body, "0x") || strings.HasPrefix(body, "0X") {
		i, err := strconv.ParseInt(body[2:], 16, 64)
		if err != nil {
			return 0, false
		}
		if token[0] == '-' {
			i = -i
		}
		return Number(i), true
	}
	f, err := strconv.ParseFloat(token, 64)
	if err != nil {
		// overflowing literals such as 1e400 are ±Inf
		if ne, ok := err.(*strconv.NumError); !ok || ne.Err != strconv.ErrRange {
			return 0, false
		}
	}
	return Number(f), true
}

// isFlagToken matches command-line flags like -la or --all
func isFlagToken(token string) bool {
	if len(token) < 2 || token[0] != '-' {
		return false
	}
	rest := strings.TrimPrefix(token[1:], "-")
	if rest == "" {
		return false
	}
	r := []rune(rest)[0]
	return unicode.IsLetter(r)
}

// parseNumericString is the explicit string→number coercion used by
// arithmetic and column sorting. Surrounding whitespace is ignored. Only
// finite values count, so text such as "nan" or "inf" stays text.
func parseNumericString(s string) (Number, bool) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return Number(f), true
}
