package markup

// Attr is one attribute in a tag's attribute list. Value offsets cover the
// raw value including its quotes or braces; both are -1 for a bare attribute.
// Spread attributes ({...rest}) have an empty Name.
type Attr struct {
	Name       string
	Start      int
	End        int
	ValueStart int
	ValueEnd   int
}

// HasValue reports whether the attribute carries a value.
func (a Attr) HasValue() bool {
	return a.ValueStart >= 0
}

// Value returns the raw attribute value from text.
func (a Attr) Value(text string) string {
	if !a.HasValue() {
		return ""
	}
	return text[a.ValueStart:a.ValueEnd]
}

// Tag is an opening (or self-closing) tag. Close is the offset of the closing
// delimiter: the '>' of an opening tag or the '/' of "/>".
type Tag struct {
	Name        string
	Start       int
	NameEnd     int
	Close       int
	End         int
	SelfClosing bool
	Attrs       []Attr
}

// Attr returns the first attribute named name.
func (t Tag) Attr(name string) (Attr, bool) {
	for _, attr := range t.Attrs {
		if attr.Name == name {
			return attr, true
		}
	}
	return Attr{}, false
}

// HasAttr reports whether the tag declares an attribute named name.
func (t Tag) HasAttr(name string) bool {
	_, ok := t.Attr(name)
	return ok
}

// InsertionPoint returns the offset just before the closing delimiter, with
// any whitespace preceding the delimiter left after the insertion point.
func (t Tag) InsertionPoint(text string) int {
	at := t.Close
	for at > t.NameEnd && IsSpace(text[at-1]) {
		at--
	}
	return at
}

// ScanTags returns every opening tag in text ordered by start offset,
// including tags nested inside attribute values.
func ScanTags(text string) []Tag {
	var tags []Tag
	for i := 0; i < len(text); i++ {
		if text[i] != '<' {
			continue
		}
		if tag, ok := TagAt(text, i); ok {
			tags = append(tags, tag)
		}
	}
	return tags
}

// TagsIn returns the tags that start inside [start, end).
func TagsIn(text string, start, end int) []Tag {
	var tags []Tag
	if end > len(text) {
		end = len(text)
	}
	for i := start; i < end; i++ {
		if text[i] != '<' {
			continue
		}
		if tag, ok := TagAt(text, i); ok {
			tags = append(tags, tag)
		}
	}
	return tags
}

// TagAt parses the opening tag whose '<' is at offset at.
func TagAt(text string, at int) (Tag, bool) {
	if at < 0 || at+1 >= len(text) || text[at] != '<' || !IsIdentStart(text[at+1]) {
		return Tag{}, false
	}

	i := at + 1
	for i < len(text) && (IsIdentChar(text[i]) || text[i] == '.' || text[i] == ':' || text[i] == '-') {
		i++
	}
	tag := Tag{Name: text[at+1 : i], Start: at, NameEnd: i}

	for {
		for i < len(text) && IsSpace(text[i]) {
			i++
		}
		if i >= len(text) {
			return Tag{}, false
		}

		c := text[i]
		switch {
		case c == '>':
			tag.Close = i
			tag.End = i + 1
			return tag, true
		case c == '/' && i+1 < len(text) && text[i+1] == '>':
			tag.Close = i
			tag.End = i + 2
			tag.SelfClosing = true
			return tag, true
		case c == '{':
			closeAt := SkipBalanced(text, i)
			if closeAt < 0 {
				return Tag{}, false
			}
			tag.Attrs = append(tag.Attrs, Attr{Start: i, End: closeAt + 1, ValueStart: i, ValueEnd: closeAt + 1})
			i = closeAt + 1
		case IsIdentStart(c):
			attr, next, ok := parseAttr(text, i)
			if !ok {
				return Tag{}, false
			}
			tag.Attrs = append(tag.Attrs, attr)
			i = next
		default:
			return Tag{}, false
		}
	}
}

func parseAttr(text string, i int) (Attr, int, bool) {
	start := i
	for i < len(text) && (IsIdentChar(text[i]) || text[i] == '-' || text[i] == ':' || text[i] == '.') {
		i++
	}
	attr := Attr{Name: text[start:i], Start: start, End: i, ValueStart: -1, ValueEnd: -1}

	j := i
	for j < len(text) && IsSpace(text[j]) {
		j++
	}
	if j >= len(text) || text[j] != '=' {
		return attr, i, true
	}
	j++
	for j < len(text) && IsSpace(text[j]) {
		j++
	}
	if j >= len(text) {
		return Attr{}, 0, false
	}

	switch c := text[j]; c {
	case '"', '\'':
		end := j + 1
		for end < len(text) && text[end] != c {
			end++
		}
		if end >= len(text) {
			return Attr{}, 0, false
		}
		attr.ValueStart, attr.ValueEnd = j, end+1
	case '{':
		closeAt := SkipBalanced(text, j)
		if closeAt < 0 {
			return Attr{}, 0, false
		}
		attr.ValueStart, attr.ValueEnd = j, closeAt+1
	default:
		return Attr{}, 0, false
	}
	attr.End = attr.ValueEnd
	return attr, attr.End, true
}
