// Package markup is a tolerant scanner for tag-shaped markup embedded in
// component source files. It understands just enough structure (tags with
// attribute lists, balanced delimiters, string literals, routine bodies) to
// let rewrite rules find their sites without a full parser. Malformed input
// is skipped, never reported.
package markup

import "strings"

// IsSpace reports whether c is an ASCII whitespace byte.
func IsSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

// IsIdentStart reports whether c can start a JavaScript identifier.
func IsIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// IsIdentChar reports whether c can continue a JavaScript identifier.
func IsIdentChar(c byte) bool {
	return IsIdentStart(c) || (c >= '0' && c <= '9')
}

// IsOpener reports whether c opens a balanced group.
func IsOpener(c byte) bool {
	return c == '(' || c == '[' || c == '{'
}

// IsCloser reports whether c closes a balanced group.
func IsCloser(c byte) bool {
	return c == ')' || c == ']' || c == '}'
}

// CloserFor returns the closing delimiter that matches opener.
func CloserFor(opener byte) byte {
	switch opener {
	case '(':
		return ')'
	case '[':
		return ']'
	case '{':
		return '}'
	}
	return 0
}

// IsQuote reports whether c starts a string literal.
func IsQuote(c byte) bool {
	return c == '"' || c == '\'' || c == '`'
}

// SkipString returns the offset just past the string literal whose opening
// quote is at text[i]. Single and double quoted strings stop at an unescaped
// newline when unterminated; template literals may span lines and skip
// `${...}` substitutions as balanced groups.
func SkipString(text string, i int) int {
	quote := text[i]
	j := i + 1
	for j < len(text) {
		c := text[j]
		switch {
		case c == '\\':
			j += 2
			continue
		case c == quote:
			return j + 1
		case c == '\n' && quote != '`':
			return j
		case quote == '`' && c == '$' && j+1 < len(text) && text[j+1] == '{':
			closeAt := SkipBalanced(text, j+1)
			if closeAt < 0 {
				return len(text)
			}
			j = closeAt + 1
			continue
		}
		j++
	}
	return len(text)
}

// SkipComment returns the offset just past a // or /* comment starting at i,
// or i itself when no comment starts there.
func SkipComment(text string, i int) int {
	if i+1 >= len(text) || text[i] != '/' {
		return i
	}
	switch text[i+1] {
	case '/':
		end := strings.IndexByte(text[i:], '\n')
		if end < 0 {
			return len(text)
		}
		return i + end
	case '*':
		end := strings.Index(text[i+2:], "*/")
		if end < 0 {
			return len(text)
		}
		return i + 2 + end + 2
	}
	return i
}

// SkipBalanced returns the offset of the delimiter closing the group opened at
// text[open], or -1 when the group is unterminated or closed by a mismatched
// delimiter. Strings and comments inside the group are skipped.
func SkipBalanced(text string, open int) int {
	if open < 0 || open >= len(text) || !IsOpener(text[open]) {
		return -1
	}
	stack := []byte{CloserFor(text[open])}
	i := open + 1
	for i < len(text) {
		c := text[i]
		switch {
		case IsQuote(c):
			i = SkipString(text, i)
			continue
		case c == '/':
			if next := SkipComment(text, i); next != i {
				i = next
				continue
			}
		case IsOpener(c):
			stack = append(stack, CloserFor(c))
		case IsCloser(c):
			if stack[len(stack)-1] != c {
				return -1
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return i
			}
		}
		i++
	}
	return -1
}

// FindClosing returns the offset of the first occurrence of fragment at the
// nesting level of from. Groups opened after from are skipped whole; an
// unmatched closing delimiter ends the search. Returns -1 when not found.
func FindClosing(text string, from int, fragment string) int {
	if fragment == "" {
		return -1
	}
	i := from
	for i < len(text) {
		if strings.HasPrefix(text[i:], fragment) {
			return i
		}
		c := text[i]
		switch {
		case IsQuote(c):
			i = SkipString(text, i)
			continue
		case c == '/':
			if next := SkipComment(text, i); next != i {
				i = next
				continue
			}
		case IsOpener(c):
			closeAt := SkipBalanced(text, i)
			if closeAt < 0 {
				return -1
			}
			i = closeAt + 1
			continue
		case IsCloser(c):
			return -1
		}
		i++
	}
	return -1
}

// HasWord reports whether word occurs in text with identifier boundaries on
// both sides.
func HasWord(text, word string) bool {
	return IndexWord(text, word, 0) >= 0
}

// IndexWord returns the offset of the first occurrence of word at or after
// from that is not part of a longer identifier, or -1.
func IndexWord(text, word string, from int) int {
	if word == "" {
		return -1
	}
	for from <= len(text) {
		idx := strings.Index(text[from:], word)
		if idx < 0 {
			return -1
		}
		start := from + idx
		end := start + len(word)
		before := start == 0 || !IsIdentChar(text[start-1]) || !IsIdentChar(word[0])
		after := end == len(text) || !IsIdentChar(text[end]) || !IsIdentChar(word[len(word)-1])
		if before && after {
			return start
		}
		from = start + 1
	}
	return -1
}

// CollapseSpace replaces every whitespace run in s with a single space and
// trims the ends.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// LineIndent returns the leading whitespace of the line containing offset.
func LineIndent(text string, offset int) string {
	start := strings.LastIndexByte(text[:offset], '\n') + 1
	end := start
	for end < len(text) && (text[end] == ' ' || text[end] == '\t') {
		end++
	}
	return text[start:end]
}
