package expr

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/hmaldonadovilla/community-kitchen-sub000/pkg/model"
)

// Parse compiles a shorthand expression into a condition tree.
//
// Grammar:
//   - comparisons: `field == "value"`, `field != 3`, `qty > 0`, `qty <= 10`
//   - membership: `service in ("Lunch", "Dinner")`
//   - field references on the right-hand side: `end >= @start`
//   - null checks: `field == null` (isEmpty), `field != null` (notEmpty)
//   - bare identifiers: `field` (notEmpty), `!field` (isEmpty)
//   - composition: `a && b`, `a || b`, `!(a)`, parentheses
//
// Bare words on the right-hand side are treated as strings. An empty input
// returns a nil condition, which always holds.
func Parse(input string) (*model.Condition, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return nil, nil
	}

	tokens, err := tokenize(trimmed)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, nil
	}

	stream := &tokenStream{tokens: tokens}
	node, err := parseOr(stream)
	if err != nil {
		return nil, err
	}
	if stream.pos < len(stream.tokens) {
		return nil, fmt.Errorf("expr: unexpected token %q", stream.tokens[stream.pos].raw)
	}
	return &node, nil
}

// MustParse is Parse for literals known to be valid; it panics on error.
func MustParse(input string) *model.Condition {
	cond, err := Parse(input)
	if err != nil {
		panic(err)
	}
	return cond
}

type tokenKind int

const (
	tokenIdentifier tokenKind = iota
	tokenString
	tokenNumber
	tokenBool
	tokenNull
	tokenEq
	tokenNeq
	tokenGt
	tokenGte
	tokenLt
	tokenLte
	tokenAnd
	tokenOr
	tokenNot
	tokenLParen
	tokenRParen
	tokenComma
)

type token struct {
	kind tokenKind
	raw  string
}

func isDelimiter(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '(', ')', '!', '=', '&', '|', '<', '>', ',':
		return true
	}
	return false
}

func tokenize(input string) ([]token, error) {
	var tokens []token
	i := 0

	next := func() byte {
		if i >= len(input) {
			return 0
		}
		return input[i]
	}

	consume := func() byte {
		if i >= len(input) {
			return 0
		}
		ch := input[i]
		i++
		return ch
	}

	for i < len(input) {
		ch := next()
		if ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' {
			i++
			continue
		}

		switch ch {
		case '(':
			consume()
			tokens = append(tokens, token{kind: tokenLParen, raw: "("})
			continue
		case ')':
			consume()
			tokens = append(tokens, token{kind: tokenRParen, raw: ")"})
			continue
		case ',':
			consume()
			tokens = append(tokens, token{kind: tokenComma, raw: ","})
			continue
		case '!':
			consume()
			if next() == '=' {
				consume()
				tokens = append(tokens, token{kind: tokenNeq, raw: "!="})
				continue
			}
			tokens = append(tokens, token{kind: tokenNot, raw: "!"})
			continue
		case '=':
			consume()
			if next() != '=' {
				return nil, errors.New("expr: unexpected '='; use '=='")
			}
			consume()
			tokens = append(tokens, token{kind: tokenEq, raw: "=="})
			continue
		case '>':
			consume()
			if next() == '=' {
				consume()
				tokens = append(tokens, token{kind: tokenGte, raw: ">="})
				continue
			}
			tokens = append(tokens, token{kind: tokenGt, raw: ">"})
			continue
		case '<':
			consume()
			if next() == '=' {
				consume()
				tokens = append(tokens, token{kind: tokenLte, raw: "<="})
				continue
			}
			tokens = append(tokens, token{kind: tokenLt, raw: "<"})
			continue
		case '&':
			consume()
			if next() != '&' {
				return nil, errors.New("expr: unexpected '&'; use '&&'")
			}
			consume()
			tokens = append(tokens, token{kind: tokenAnd, raw: "&&"})
			continue
		case '|':
			consume()
			if next() != '|' {
				return nil, errors.New("expr: unexpected '|'; use '||'")
			}
			consume()
			tokens = append(tokens, token{kind: tokenOr, raw: "||"})
			continue
		case '"', '\'':
			quote := consume()
			start := i
			escaped := false
			closed := false
			for i < len(input) {
				c := consume()
				if escaped {
					escaped = false
					continue
				}
				if c == '\\' {
					escaped = true
					continue
				}
				if c == quote {
					closed = true
					break
				}
			}
			if !closed {
				return nil, errors.New("expr: unterminated string literal")
			}
			body := input[start : i-1]
			if quote == '\'' {
				body = strings.ReplaceAll(body, `\'`, `'`)
				body = strings.ReplaceAll(body, `"`, `\"`)
			}
			value, err := strconv.Unquote(`"` + body + `"`)
			if err != nil {
				return nil, fmt.Errorf("expr: invalid string literal: %w", err)
			}
			tokens = append(tokens, token{kind: tokenString, raw: value})
			continue
		}

		start := i
		for i < len(input) && !isDelimiter(input[i]) {
			i++
		}
		raw := strings.TrimSpace(input[start:i])
		if raw == "" {
			continue
		}
		switch strings.ToLower(raw) {
		case "true", "false":
			tokens = append(tokens, token{kind: tokenBool, raw: strings.ToLower(raw)})
		case "null", "nil":
			tokens = append(tokens, token{kind: tokenNull, raw: "null"})
		default:
			if looksLikeNumber(raw) {
				tokens = append(tokens, token{kind: tokenNumber, raw: raw})
			} else {
				tokens = append(tokens, token{kind: tokenIdentifier, raw: raw})
			}
		}
	}

	return tokens, nil
}

func looksLikeNumber(raw string) bool {
	if raw == "" {
		return false
	}
	_, err := strconv.ParseFloat(raw, 64)
	return err == nil
}

type tokenStream struct {
	tokens []token
	pos    int
}

func parseOr(stream *tokenStream) (model.Condition, error) {
	left, err := parseAnd(stream)
	if err != nil {
		return model.Condition{}, err
	}
	operands := []model.Condition{left}
	for stream.match(tokenOr) {
		right, err := parseAnd(stream)
		if err != nil {
			return model.Condition{}, err
		}
		operands = append(operands, right)
	}
	if len(operands) == 1 {
		return left, nil
	}
	return model.Any(operands...), nil
}

func parseAnd(stream *tokenStream) (model.Condition, error) {
	left, err := parseUnary(stream)
	if err != nil {
		return model.Condition{}, err
	}
	operands := []model.Condition{left}
	for stream.match(tokenAnd) {
		right, err := parseUnary(stream)
		if err != nil {
			return model.Condition{}, err
		}
		operands = append(operands, right)
	}
	if len(operands) == 1 {
		return left, nil
	}
	return model.All(operands...), nil
}

func parseUnary(stream *tokenStream) (model.Condition, error) {
	if stream.match(tokenNot) {
		inner, err := parseUnary(stream)
		if err != nil {
			return model.Condition{}, err
		}
		return model.Not(inner), nil
	}
	return parsePrimary(stream)
}

func parsePrimary(stream *tokenStream) (model.Condition, error) {
	if stream.match(tokenLParen) {
		inner, err := parseOr(stream)
		if err != nil {
			return model.Condition{}, err
		}
		if !stream.match(tokenRParen) {
			return model.Condition{}, errors.New("expr: missing closing ')'")
		}
		return inner, nil
	}

	ident, ok := stream.consume(tokenIdentifier)
	if !ok {
		if stream.pos >= len(stream.tokens) {
			return model.Condition{}, errors.New("expr: empty expression")
		}
		return model.Condition{}, fmt.Errorf("expr: expected identifier, got %q", stream.tokens[stream.pos].raw)
	}
	field := ident.raw

	if stream.matchKeyword("in") {
		values, err := stream.consumeList()
		if err != nil {
			return model.Condition{}, err
		}
		return model.Condition{Op: model.OpIn, Field: field, Values: values}, nil
	}

	ops := map[tokenKind]model.ConditionOp{
		tokenEq:  model.OpEquals,
		tokenNeq: model.OpNotEquals,
		tokenGt:  model.OpGreaterThan,
		tokenGte: model.OpGreaterOrEqual,
		tokenLt:  model.OpLessThan,
		tokenLte: model.OpLessOrEqual,
	}
	for kind, op := range ops {
		if !stream.match(kind) {
			continue
		}
		return stream.consumeOperand(field, op)
	}

	return model.NotEmpty(field), nil
}

func (s *tokenStream) match(kind tokenKind) bool {
	if s.pos >= len(s.tokens) {
		return false
	}
	if s.tokens[s.pos].kind != kind {
		return false
	}
	s.pos++
	return true
}

func (s *tokenStream) matchKeyword(word string) bool {
	if s.pos >= len(s.tokens) {
		return false
	}
	tok := s.tokens[s.pos]
	if tok.kind != tokenIdentifier || !strings.EqualFold(tok.raw, word) {
		return false
	}
	s.pos++
	return true
}

func (s *tokenStream) consume(kind tokenKind) (token, bool) {
	if s.pos >= len(s.tokens) {
		return token{}, false
	}
	if s.tokens[s.pos].kind != kind {
		return token{}, false
	}
	out := s.tokens[s.pos]
	s.pos++
	return out, true
}

func (s *tokenStream) consumeOperand(field string, op model.ConditionOp) (model.Condition, error) {
	if s.pos >= len(s.tokens) {
		return model.Condition{}, errors.New("expr: missing literal")
	}
	tok := s.tokens[s.pos]
	s.pos++

	if tok.kind == tokenNull {
		switch op {
		case model.OpEquals:
			return model.Empty(field), nil
		case model.OpNotEquals:
			return model.NotEmpty(field), nil
		default:
			return model.Condition{}, fmt.Errorf("expr: unsupported operator for null literal on %q", field)
		}
	}
	if tok.kind == tokenIdentifier && strings.HasPrefix(tok.raw, "@") && len(tok.raw) > 1 {
		return model.Condition{Op: op, Field: field, Ref: tok.raw[1:]}, nil
	}
	value, err := literalValue(tok)
	if err != nil {
		return model.Condition{}, err
	}
	return model.Condition{Op: op, Field: field, Value: value}, nil
}

func (s *tokenStream) consumeList() ([]any, error) {
	if !s.match(tokenLParen) {
		return nil, errors.New("expr: expected '(' after in")
	}
	var values []any
	for {
		if s.match(tokenRParen) {
			return values, nil
		}
		if s.pos >= len(s.tokens) {
			return nil, errors.New("expr: missing closing ')' in list")
		}
		tok := s.tokens[s.pos]
		s.pos++
		value, err := literalValue(tok)
		if err != nil {
			return nil, err
		}
		values = append(values, value)
		s.match(tokenComma)
	}
}

func literalValue(tok token) (any, error) {
	switch tok.kind {
	case tokenString:
		return tok.raw, nil
	case tokenNumber:
		f, err := strconv.ParseFloat(tok.raw, 64)
		if err != nil {
			return nil, fmt.Errorf("expr: invalid number literal %q", tok.raw)
		}
		return f, nil
	case tokenBool:
		return tok.raw == "true", nil
	case tokenNull:
		return nil, nil
	case tokenIdentifier:
		// Bare identifiers are treated as strings to keep the grammar forgiving.
		return tok.raw, nil
	default:
		return nil, fmt.Errorf("expr: expected literal, got %q", tok.raw)
	}
}
