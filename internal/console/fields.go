package console

import "strconv"

// MaxLine is the longest command line accepted; longer input is cut.
const MaxLine = 80

// fieldKind classifies a token: alphabetic or numeric.
type fieldKind byte

const (
	alpha   fieldKind = 'a'
	numeric fieldKind = 'n'
)

type field struct {
	text string
	kind fieldKind
}

// parseFields splits line into runs of letters and runs of number
// characters (digits, '-' and '.'). Every other character delimits. A
// letter directly followed by a digit, or the reverse, also starts a new
// field.
func parseFields(line string) []field {
	var out []field
	start := -1
	var kind fieldKind
	flush := func(end int) {
		if start >= 0 {
			out = append(out, field{text: line[start:end], kind: kind})
			start = -1
		}
	}
	for i := 0; i < len(line); i++ {
		k, ok := classify(line[i])
		if !ok {
			flush(i)
			continue
		}
		if start >= 0 && k != kind {
			flush(i)
		}
		if start < 0 {
			start, kind = i, k
		}
	}
	flush(len(line))
	return out
}

func classify(c byte) (fieldKind, bool) {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		return alpha, true
	case c >= '0' && c <= '9', c == '-', c == '.':
		return numeric, true
	}
	return 0, false
}

// command is a parsed line: fields[0] is the command name.
type command struct {
	fields []field
}

// is reports whether the command is name with at least minArgs arguments.
func (c command) is(name string, minArgs int) bool {
	return len(c.fields) > minArgs && c.fields[0].kind == alpha && c.fields[0].text == name
}

// name returns the first field, or "" for an empty line.
func (c command) name() string {
	if len(c.fields) == 0 {
		return ""
	}
	return c.fields[0].text
}

// str returns argument n (1-based) if it is alphabetic.
func (c command) str(n int) (string, bool) {
	if n >= len(c.fields) || c.fields[n].kind != alpha {
		return "", false
	}
	return c.fields[n].text, true
}

// num returns argument n (1-based) if it is a whole number.
func (c command) num(n int) (int64, bool) {
	if n >= len(c.fields) || c.fields[n].kind != numeric {
		return 0, false
	}
	v, err := strconv.ParseInt(c.fields[n].text, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// lineBuffer assembles bytes into lines the way a serial terminal
// delivers them.
type lineBuffer struct {
	buf []byte
}

// feed adds b. It returns the completed line on CR or LF, or when the
// buffer reaches MaxLine. Backspace and DEL remove the last character;
// other control characters are dropped.
func (l *lineBuffer) feed(b byte) (string, bool) {
	switch {
	case b == 8 || b == 127:
		if len(l.buf) > 0 {
			l.buf = l.buf[:len(l.buf)-1]
		}
	case b == '\r' || b == '\n':
		return l.take(), true
	case b >= 32:
		l.buf = append(l.buf, b)
		if len(l.buf) >= MaxLine {
			return l.take(), true
		}
	}
	return "", false
}

func (l *lineBuffer) take() string {
	s := string(l.buf)
	l.buf = l.buf[:0]
	return s
}

// pending returns the partially typed line.
func (l *lineBuffer) pending() string {
	return string(l.buf)
}
