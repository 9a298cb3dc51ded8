package exd

import (
	"bufio"
	"bytes"
	"maps"
	"strconv"
	"strings"
)

const listMagic = "EXLT"

// List is the decoded sheet listing (root.exl).
//
// Each sheet carries a signed 32-bit tag. Its sign separates two categories of
// sheets; the value is opaque to this package.
type List struct {
	names []string
	tags  map[string]int32
}

// NewList builds a List from name/tag pairs, preserving the order of names.
func NewList(names []string, tags map[string]int32) *List {
	l := &List{tags: make(map[string]int32, len(names))}
	for _, n := range names {
		if _, dup := l.tags[n]; dup {
			continue
		}
		l.names = append(l.names, n)
		l.tags[n] = tags[n]
	}
	return l
}

// DecodeList decodes a root.exl listing.
//
// The first line is "EXLT,<version>"; every following non-empty line is
// "<name>,<tag>". Both CRLF and LF line endings are accepted.
func DecodeList(buf []byte) (*List, error) {
	sc := bufio.NewScanner(bytes.NewReader(buf))
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, &DecodeError{What: "list", Reason: "read", Err: err}
		}
		return nil, decodeErr("list", "empty listing")
	}
	first := strings.TrimSpace(sc.Text())
	if !strings.HasPrefix(first, listMagic) {
		return nil, decodeErr("list", "bad magic %q", first)
	}

	l := &List{tags: make(map[string]int32)}
	line := 1
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		i := strings.LastIndexByte(text, ',')
		if i <= 0 {
			return nil, decodeErr("list", "line %d: missing tag in %q", line, text)
		}
		tag, err := strconv.ParseInt(text[i+1:], 10, 32)
		if err != nil {
			return nil, &DecodeError{What: "list", Reason: "line " + strconv.Itoa(line) + ": bad tag", Err: err}
		}
		name := text[:i]
		if _, dup := l.tags[name]; !dup {
			l.names = append(l.names, name)
		}
		l.tags[name] = int32(tag)
	}
	if err := sc.Err(); err != nil {
		return nil, &DecodeError{What: "list", Reason: "read", Err: err}
	}
	return l, nil
}

// Names returns the sheet names in listing order.
func (l *List) Names() []string {
	out := make([]string, len(l.names))
	copy(out, l.names)
	return out
}

// Len returns the number of sheets.
func (l *List) Len() int { return len(l.names) }

// Has reports whether the listing contains name.
func (l *List) Has(name string) bool {
	_, ok := l.tags[name]
	return ok
}

// Tag returns the tag of name.
func (l *List) Tag(name string) (int32, bool) {
	t, ok := l.tags[name]
	return t, ok
}

// Tags returns a copy of the name to tag mapping.
func (l *List) Tags() map[string]int32 {
	return maps.Clone(l.tags)
}
