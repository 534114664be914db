package pep508_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datawire/pylock/pkg/python/pep508"
)

func TestParse(t *testing.T) {
	t.Parallel()
	testcases := map[string]struct {
		Input  string
		Output string // re-serialized form; empty for parse error
	}{
		"comparison":       {`python_version < "3.9"`, `python_version < "3.9"`},
		"single-quotes":    {`sys_platform == 'win32'`, `sys_platform == "win32"`},
		"reversed":         {`"win32" == sys_platform`, `"win32" == sys_platform`},
		"and":              {`a == "1" and b == "2"`, `a == "1" and b == "2"`},
		"or":               {`a == "1" or b == "2"`, `a == "1" or b == "2"`},
		"precedence":       {`a == "1" and b == "2" or c == "3"`, `a == "1" and b == "2" or c == "3"`},
		"parens":           {`a == "1" and (b == "2" or c == "3")`, `a == "1" and (b == "2" or c == "3")`},
		"redundant-parens": {`(a == "1")`, `a == "1"`},
		"not-in":           {`sys_platform not in "win32 cygwin"`, `sys_platform not in "win32 cygwin"`},
		"in":               {`sys_platform in "linux"`, `sys_platform in "linux"`},
		"whitespace":       {`  a=="1"   and   b  !=  "2" `, `a == "1" and b != "2"`},
		"ident-prefix":     {`order == "1"`, `order == "1"`},

		"empty":           {``, ``},
		"unbalanced":      {`(a == "1"`, ``},
		"unterminated":    {`a == "1`, ``},
		"missing-op":      {`a "1"`, ``},
		"missing-rhs":     {`a ==`, ``},
		"trailing-junk":   {`a == "1" banana`, ``},
		"arbitrary-eq":    {`a === "1"`, ``},
		"dangling-not":    {`a not "1"`, ``},
		"op-only":         {`==`, ``},
		"double-operator": {`a == == "1"`, ``},
	}
	for tcName, tc := range testcases {
		tc := tc
		t.Run(tcName, func(t *testing.T) {
			t.Parallel()
			expr, err := pep508.ParseExpr(tc.Input)
			if tc.Output == "" {
				assert.Error(t, err)
				assert.Nil(t, expr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tc.Output, expr.String())

				// The serialized form parses back to the same tree.
				reparsed, err := pep508.ParseExpr(expr.String())
				require.NoError(t, err)
				assert.Equal(t, expr, reparsed)
			}
		})
	}
}
