// Copyright (C) 2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package pep508

import (
	"fmt"
	"strings"
	"unicode"
)

// The marker grammar, from the PEP:
//
//     marker        = marker_or
//     marker_or     = marker_and wsp* 'or' marker_or
//                   | marker_and
//     marker_and    = marker_expr wsp* 'and' marker_and
//                   | marker_expr
//     marker_expr   = marker_var marker_op marker_var
//                   | wsp* '(' marker wsp* ')'
//     marker_var    = wsp* (env_var | python_str)
//     marker_op     = version_cmp | (wsp* 'in') | (wsp* 'not' wsp+ 'in')

// ParseExpr parses a marker expression.
func ParseExpr(str string) (Expr, error) {
	p := &parser{input: str}
	expr, err := p.parseOr()
	if err != nil {
		return nil, fmt.Errorf("pep508.ParseExpr: %w", err)
	}
	p.skipSpace()
	if p.pos != len(p.input) {
		return nil, fmt.Errorf("pep508.ParseExpr: trailing junk at position %d: %q",
			p.pos, p.input[p.pos:])
	}
	return expr, nil
}

type parser struct {
	input string
	pos   int
}

func (p *parser) skipSpace() {
	for p.pos < len(p.input) && unicode.IsSpace(rune(p.input[p.pos])) {
		p.pos++
	}
}

func (p *parser) rest() string {
	return p.input[p.pos:]
}

// takeWord consumes `word` only if it is followed by a non-identifier
// character; "order" must not parse as 'or'+'der'.
func (p *parser) takeWord(word string) bool {
	p.skipSpace()
	if !strings.HasPrefix(p.rest(), word) {
		return false
	}
	end := p.pos + len(word)
	if end < len(p.input) && isIdentRune(rune(p.input[end])) {
		return false
	}
	p.pos = end
	return true
}

func isIdentRune(r rune) bool {
	return r == '_' || r == '.' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func (p *parser) parseOr() (Expr, error) {
	first, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	operands := []Expr{first}
	for p.takeWord("or") {
		operand, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		operands = append(operands, operand)
	}
	if len(operands) == 1 {
		return first, nil
	}
	return OrExpr(operands), nil
}

func (p *parser) parseAnd() (Expr, error) {
	first, err := p.parseUnit()
	if err != nil {
		return nil, err
	}
	operands := []Expr{first}
	for p.takeWord("and") {
		operand, err := p.parseUnit()
		if err != nil {
			return nil, err
		}
		operands = append(operands, operand)
	}
	if len(operands) == 1 {
		return first, nil
	}
	return AndExpr(operands), nil
}

func (p *parser) parseUnit() (Expr, error) {
	p.skipSpace()
	if strings.HasPrefix(p.rest(), "(") {
		p.pos++
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if !strings.HasPrefix(p.rest(), ")") {
			return nil, fmt.Errorf("expected ')' at position %d", p.pos)
		}
		p.pos++
		return inner, nil
	}
	return p.parseComparison()
}

func (p *parser) parseComparison() (Expr, error) {
	lhs, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	op, err := p.parseOp()
	if err != nil {
		return nil, err
	}
	rhs, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	return Comparison{Lhs: lhs, Op: op, Rhs: rhs}, nil
}

func (p *parser) parseValue() (Value, error) {
	p.skipSpace()
	if p.pos == len(p.input) {
		return Value{}, fmt.Errorf("expected a value at position %d", p.pos)
	}
	if quote := p.input[p.pos]; quote == '\'' || quote == '"' {
		end := strings.IndexByte(p.input[p.pos+1:], quote)
		if end < 0 {
			return Value{}, fmt.Errorf("unterminated string at position %d", p.pos)
		}
		val := Value{Literal: p.input[p.pos+1 : p.pos+1+end]}
		p.pos += end + 2
		return val, nil
	}
	start := p.pos
	for p.pos < len(p.input) && isIdentRune(rune(p.input[p.pos])) {
		p.pos++
	}
	if p.pos == start {
		return Value{}, fmt.Errorf("expected a value at position %d: %q", p.pos, p.rest())
	}
	return Value{Variable: p.input[start:p.pos], IsVar: true}, nil
}

func (p *parser) parseOp() (Op, error) {
	p.skipSpace()
	switch {
	case strings.HasPrefix(p.rest(), "==="):
		return 0, fmt.Errorf("=== is not supported in marker expressions")
	case strings.HasPrefix(p.rest(), "<="):
		p.pos += 2
		return OpLE, nil
	case strings.HasPrefix(p.rest(), ">="):
		p.pos += 2
		return OpGE, nil
	case strings.HasPrefix(p.rest(), "=="):
		p.pos += 2
		return OpEQ, nil
	case strings.HasPrefix(p.rest(), "!="):
		p.pos += 2
		return OpNE, nil
	case strings.HasPrefix(p.rest(), "~="):
		p.pos += 2
		return OpCompatible, nil
	case strings.HasPrefix(p.rest(), "<"):
		p.pos++
		return OpLT, nil
	case strings.HasPrefix(p.rest(), ">"):
		p.pos++
		return OpGT, nil
	case p.takeWord("not"):
		if !p.takeWord("in") {
			return 0, fmt.Errorf("expected 'in' after 'not' at position %d", p.pos)
		}
		return OpNotIn, nil
	case p.takeWord("in"):
		return OpIn, nil
	default:
		return 0, fmt.Errorf("expected a comparison operator at position %d: %q", p.pos, p.rest())
	}
}
