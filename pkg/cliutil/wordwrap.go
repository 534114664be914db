// Copyright (C) 2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package cliutil

import (
	"strings"
)

// Wrap the string `s` to a maximum width `w`.  Pass `w` == 0 to do no wrapping.
//
// In order to have some room for slop to avoid things like a short word being on a line by itself,
// most lines are actually wrapped to `w - 5`.
func Wrap(w int, s string) string {
	return wrap(0, w, s)
}

// Wrap the string `s` to a maximum width `w` with leading indent `i`.  The first line is not
// indented (this is assumed to be done by caller).  Pass `w` == 0 to do no wrapping
//
// In order to have some room for slop to avoid things like a short word being on a line by itself,
// most lines are actually wrapped to `w - 5`.
func WrapIndent(i, w int, s string) string {
	return wrap(i, w, s)
}

func wrap(indent, width int, s string) string {
	if width == 0 {
		return s
	}
	limit := width - 5
	if limit <= indent {
		limit = indent + 1
	}
	prefix := strings.Repeat(" ", indent)

	var ret strings.Builder
	lineLen := indent
	for pi, paragraph := range strings.Split(s, "\n\n") {
		if pi > 0 {
			ret.WriteString("\n\n")
			ret.WriteString(prefix)
			lineLen = indent
		}
		for wi, word := range strings.Fields(paragraph) {
			switch {
			case wi == 0:
				ret.WriteString(word)
				lineLen += len(word)
			case lineLen+1+len(word) > limit:
				ret.WriteString("\n")
				ret.WriteString(prefix)
				ret.WriteString(word)
				lineLen = indent + len(word)
			default:
				ret.WriteString(" ")
				ret.WriteString(word)
				lineLen += 1 + len(word)
			}
		}
	}
	return ret.String()
}
