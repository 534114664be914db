// Copyright (C) 2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

// Package pep508 implements the environment-marker mini-language of PEP 508
// -- Dependency specification for Python Software Packages.
//
// Well, just the marker expressions; the full dependency-specification
// grammar (name, extras, URL) is not needed for consuming lock files.
//
// https://www.python.org/dev/peps/pep-0508/
package pep508

import (
	"fmt"
	"strings"

	"github.com/datawire/pylock/pkg/python/pep440"
)

// Env is the set of concrete marker-variable values describing one
// environment; the keys are the marker variable names ("os_name",
// "sys_platform", "python_version", ...).
type Env map[string]string

// UnknownVariableError is returned by Expr.Eval when an expression references
// a marker variable that the Env does not define.
type UnknownVariableError struct {
	Variable string
}

func (e *UnknownVariableError) Error() string {
	return fmt.Sprintf("undefined environment marker variable: %q", e.Variable)
}

// An Expr is a parsed marker expression; a tree of comparisons joined by
// 'and'/'or'.  Exprs are immutable once parsed.
type Expr interface {
	fmt.Stringer
	Eval(env Env) (bool, error)
}

// AndExpr evaluates to true iff all of its operands do.
type AndExpr []Expr

func (x AndExpr) Eval(env Env) (bool, error) {
	for _, operand := range x {
		val, err := operand.Eval(env)
		if err != nil {
			return false, err
		}
		if !val {
			return false, nil
		}
	}
	return true, nil
}

func (x AndExpr) String() string {
	parts := make([]string, 0, len(x))
	for _, operand := range x {
		if _, ok := operand.(OrExpr); ok {
			parts = append(parts, "("+operand.String()+")")
		} else {
			parts = append(parts, operand.String())
		}
	}
	return strings.Join(parts, " and ")
}

// OrExpr evaluates to true iff any of its operands does.
type OrExpr []Expr

func (x OrExpr) Eval(env Env) (bool, error) {
	for _, operand := range x {
		val, err := operand.Eval(env)
		if err != nil {
			return false, err
		}
		if val {
			return true, nil
		}
	}
	return false, nil
}

func (x OrExpr) String() string {
	parts := make([]string, 0, len(x))
	for _, operand := range x {
		parts = append(parts, operand.String())
	}
	return strings.Join(parts, " or ")
}

type Op int

const (
	OpLT Op = iota
	OpGT
	OpLE
	OpGE
	OpEQ
	OpNE
	OpCompatible
	OpIn
	OpNotIn
)

func (op Op) String() string {
	str, ok := map[Op]string{
		OpLT:         "<",
		OpGT:         ">",
		OpLE:         "<=",
		OpGE:         ">=",
		OpEQ:         "==",
		OpNE:         "!=",
		OpCompatible: "~=",
		OpIn:         "in",
		OpNotIn:      "not in",
	}[op]
	if !ok {
		panic(fmt.Errorf("invalid Op: %d", op))
	}
	return str
}

// A Value is one side of a comparison: either a marker variable name or a
// quoted string literal.
type Value struct {
	Variable string
	Literal  string
	IsVar    bool
}

func (v Value) String() string {
	if v.IsVar {
		return v.Variable
	}
	return `"` + v.Literal + `"`
}

func (v Value) resolve(env Env) (string, error) {
	if !v.IsVar {
		return v.Literal, nil
	}
	val, ok := env[v.Variable]
	if !ok {
		return "", &UnknownVariableError{Variable: v.Variable}
	}
	return val, nil
}

// Comparison is a single "LHS op RHS" marker expression.
type Comparison struct {
	Lhs Value
	Op  Op
	Rhs Value
}

func (c Comparison) String() string {
	return c.Lhs.String() + " " + c.Op.String() + " " + c.Rhs.String()
}

// Eval evaluates the comparison against env.  For the PEP 440 comparison
// operators, if both sides parse as versions then PEP 440 ordering rules are
// used; otherwise it falls back to plain string comparison ('~=' has no
// string fallback and is an error).  'in' / 'not in' are substring tests.
func (c Comparison) Eval(env Env) (bool, error) {
	lhs, err := c.Lhs.resolve(env)
	if err != nil {
		return false, err
	}
	rhs, err := c.Rhs.resolve(env)
	if err != nil {
		return false, err
	}

	switch c.Op {
	case OpIn:
		return strings.Contains(rhs, lhs), nil
	case OpNotIn:
		return !strings.Contains(rhs, lhs), nil
	}

	// The left-hand side is always the candidate and the right-hand side
	// always the specifier, no matter which of them is the variable; that
	// keeps '"3.13" > python_version' meaning what it says.
	candidate, specifier := lhs, rhs
	candidateVer, candidateErr := pep440.ParseVersion(candidate)
	specifierVer, specifierErr := pep440.ParseVersion(specifier)
	if candidateErr == nil && specifierErr == nil {
		if c.Op == OpCompatible && len(specifierVer.Release) < 2 {
			return false, fmt.Errorf("at least 2 release segments required in ~= comparisons: %q", specifier)
		}
		clause := pep440.SpecifierClause{
			CmpOp:   c.Op.pep440op(),
			Version: *specifierVer,
		}
		return clause.Match(*candidateVer), nil
	}
	if c.Op == OpCompatible {
		return false, fmt.Errorf("~= requires version operands: %q ~= %q", lhs, rhs)
	}

	switch c.Op {
	case OpLT:
		return lhs < rhs, nil
	case OpGT:
		return lhs > rhs, nil
	case OpLE:
		return lhs <= rhs, nil
	case OpGE:
		return lhs >= rhs, nil
	case OpEQ:
		return lhs == rhs, nil
	case OpNE:
		return lhs != rhs, nil
	default:
		panic(fmt.Errorf("invalid Op: %d", c.Op))
	}
}

func (op Op) pep440op() pep440.CmpOp {
	cmpOp, ok := map[Op]pep440.CmpOp{
		OpLT:         pep440.CmpOpLT,
		OpGT:         pep440.CmpOpGT,
		OpLE:         pep440.CmpOpLE,
		OpGE:         pep440.CmpOpGE,
		OpEQ:         pep440.CmpOpStrictMatch,
		OpNE:         pep440.CmpOpStrictExclude,
		OpCompatible: pep440.CmpOpCompatible,
	}[op]
	if !ok {
		panic(fmt.Errorf("Op has no pep440 equivalent: %d", op))
	}
	return cmpOp
}
