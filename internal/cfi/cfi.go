// Package cfi parses and orders EPUB canonical fragment identifiers.
//
// Only the structure needed to order positions is kept: the step indexes,
// indirection boundaries and a trailing character offset. ID assertions,
// temporal and spatial offsets are accepted and ignored.
package cfi

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/khaleelElias/YA/internal/errs"
)

// Step is one "/N" path component. Indirect marks a step that follows "!".
type Step struct {
	Index    int
	Indirect bool
}

// CFI is a parsed fragment identifier.
type CFI struct {
	Steps     []Step
	Offset    int
	HasOffset bool
	raw       string
}

// String returns the identifier as it was given to Parse.
func (c CFI) String() string {
	return c.raw
}

// Parse accepts both the wrapped form "epubcfi(/6/4!/2:10)" and the bare
// path "/6/4!/2:10". A range identifier is reduced to its start position.
func Parse(s string) (CFI, error) {
	raw := s
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "epubcfi(") && strings.HasSuffix(s, ")") {
		s = s[len("epubcfi(") : len(s)-1]
	}
	if parent, rest, isRange := strings.Cut(s, ","); isRange {
		start, _, _ := strings.Cut(rest, ",")
		s = parent + start
	}
	if s == "" {
		return CFI{}, fmt.Errorf("%w: empty fragment identifier", errs.ErrInvalidArgument)
	}

	c := CFI{raw: raw}
	indirect := false
	for i := 0; i < len(s); {
		switch s[i] {
		case '/':
			n, next, ok := readInt(s, i+1)
			if !ok {
				return CFI{}, fmt.Errorf("%w: fragment identifier %q: expected step index at %d", errs.ErrInvalidArgument, raw, i+1)
			}
			c.Steps = append(c.Steps, Step{Index: n, Indirect: indirect})
			indirect = false
			i = next
		case '!':
			indirect = true
			i++
		case '[':
			end := skipAssertion(s, i)
			if end < 0 {
				return CFI{}, fmt.Errorf("%w: fragment identifier %q: unterminated assertion", errs.ErrInvalidArgument, raw)
			}
			i = end
		case ':':
			n, next, ok := readInt(s, i+1)
			if !ok {
				return CFI{}, fmt.Errorf("%w: fragment identifier %q: bad character offset", errs.ErrInvalidArgument, raw)
			}
			c.Offset, c.HasOffset = n, true
			i = next
		case '~', '@':
			// Temporal and spatial offsets do not affect ordering.
			i = len(s)
		default:
			return CFI{}, fmt.Errorf("%w: fragment identifier %q: unexpected %q at %d", errs.ErrInvalidArgument, raw, s[i], i)
		}
	}

	if len(c.Steps) == 0 {
		return CFI{}, fmt.Errorf("%w: fragment identifier %q has no steps", errs.ErrInvalidArgument, raw)
	}
	return c, nil
}

func readInt(s string, i int) (int, int, bool) {
	j := i
	for j < len(s) && s[j] >= '0' && s[j] <= '9' {
		j++
	}
	if j == i {
		return 0, i, false
	}
	n, err := strconv.Atoi(s[i:j])
	if err != nil {
		return 0, i, false
	}
	return n, j, true
}

// skipAssertion returns the index after the "]" closing the assertion that
// opens at i, honouring "^" escapes, or -1.
func skipAssertion(s string, i int) int {
	for j := i + 1; j < len(s); j++ {
		switch s[j] {
		case '^':
			j++
		case ']':
			return j + 1
		}
	}
	return -1
}

// Compare orders two positions in reading order, returning -1, 0 or +1.
func Compare(a, b CFI) int {
	n := len(a.Steps)
	if len(b.Steps) < n {
		n = len(b.Steps)
	}
	for i := 0; i < n; i++ {
		if a.Steps[i].Index != b.Steps[i].Index {
			if a.Steps[i].Index < b.Steps[i].Index {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a.Steps) < len(b.Steps):
		return -1
	case len(a.Steps) > len(b.Steps):
		return 1
	case a.Offset < b.Offset:
		return -1
	case a.Offset > b.Offset:
		return 1
	}
	return 0
}
