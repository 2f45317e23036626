package commands

// MaxLineLength is the longest accepted command. Longer input is dropped up to the next separator.
const MaxLineLength = 32

// LineReader assembles commands from single bytes. Commands are separated by a newline,
// carriage return, space or semicolon.
type LineReader struct {
	buf      [MaxLineLength]byte
	n        int
	overflow bool
}

// Add appends b and returns the complete command once a separator is read. Empty commands are
// skipped.
func (l *LineReader) Add(b byte) (string, bool) {
	switch b {
	case '\n', '\r', ' ', ';':
		line := string(l.buf[:l.n])
		overflow := l.overflow
		l.n = 0
		l.overflow = false
		if overflow || line == "" {
			return "", false
		}
		return line, true
	}

	if l.n == len(l.buf) {
		l.overflow = true
		return "", false
	}
	l.buf[l.n] = b
	l.n++
	return "", false
}
