package markup

// Routine is a named routine located by a literal anchor. Open and Close are
// the offsets of the braces delimiting its body.
type Routine struct {
	Name  string
	Start int
	End   int
	Open  int
	Close int
}

// Body returns the text between the body braces.
func (r Routine) Body(text string) string {
	return text[r.Open+1 : r.Close]
}

// FindRoutines returns every routine introduced by anchor (for example
// "function Chart" or "const Chart ="). The anchor must end on an identifier
// boundary. Occurrences whose body cannot be located, such as overload
// declarations or expression-bodied arrows, are ignored.
func FindRoutines(text, anchor, name string) []Routine {
	var routines []Routine
	from := 0
	for {
		start := IndexWord(text, anchor, from)
		if start < 0 {
			return routines
		}
		end := start + len(anchor)
		from = end
		open, ok := blockOpen(text, end)
		if !ok {
			continue
		}
		closeAt := SkipBalanced(text, open)
		if closeAt < 0 {
			continue
		}
		routines = append(routines, Routine{Name: name, Start: start, End: end, Open: open, Close: closeAt})
		from = open + 1
	}
}

// blockOpen scans forward from the end of a routine anchor to the brace that
// opens its body. Only top-level punctuation counts: generic parameters, the
// parameter list and a return type annotation are skipped as groups.
func blockOpen(text string, i int) (int, bool) {
	paramsSeen := false
	inReturnType := false
	for i < len(text) {
		c := text[i]
		switch {
		case IsSpace(c):
			i++
		case c == '/' && SkipComment(text, i) != i:
			i = SkipComment(text, i)
		case c == '<':
			closeAt := skipAngles(text, i)
			if closeAt < 0 {
				return -1, false
			}
			i = closeAt + 1
		case c == '(':
			if paramsSeen && !inReturnType {
				return -1, false
			}
			closeAt := SkipBalanced(text, i)
			if closeAt < 0 {
				return -1, false
			}
			paramsSeen = true
			i = closeAt + 1
		case c == ':' && paramsSeen:
			inReturnType = true
			i++
			for i < len(text) && IsSpace(text[i]) {
				i++
			}
			if i < len(text) && text[i] == '{' {
				closeAt := SkipBalanced(text, i)
				if closeAt < 0 {
					return -1, false
				}
				i = closeAt + 1
			}
		case c == '=' && i+1 < len(text) && text[i+1] == '>':
			i += 2
			for i < len(text) && IsSpace(text[i]) {
				i++
			}
			if i < len(text) && text[i] == '{' {
				return i, true
			}
			return -1, false
		case c == '{':
			if !paramsSeen {
				return -1, false
			}
			return i, true
		case c == '[':
			closeAt := SkipBalanced(text, i)
			if closeAt < 0 {
				return -1, false
			}
			i = closeAt + 1
		case c == ';' || IsCloser(c):
			return -1, false
		default:
			i++
		}
	}
	return -1, false
}

func skipAngles(text string, open int) int {
	depth := 0
	for i := open; i < len(text); i++ {
		switch c := text[i]; {
		case c == '<':
			depth++
		case c == '>':
			if i > 0 && text[i-1] == '=' {
				continue
			}
			depth--
			if depth == 0 {
				return i
			}
		case IsOpener(c):
			closeAt := SkipBalanced(text, i)
			if closeAt < 0 {
				return -1
			}
			i = closeAt
		case c == ';' || IsCloser(c):
			return -1
		}
	}
	return -1
}
