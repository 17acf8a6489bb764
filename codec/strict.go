package codec

import "strings"

// encoder applies STOMP 1.2's header escape rules in a single left-to-right pass:
// CR, then LF, then backslash, then colon. strings.Replacer scans the
// source once and never reprocesses bytes it has just written, so the
// backslashes introduced by one rule are never mistaken for literal
// backslashes and re-escaped by a later rule — any rule ordering would
// behave the same way under this replacer, but CR/LF/backslash/colon is
// the order actually observed on the wire.
var encoder = strings.NewReplacer(
	"\r", "\\r",
	"\n", "\\n",
	"\\", "\\\\",
	":", "\\c",
)

// StrictCodec decodes inbound header escapes, the behavior required by
// STOMP 1.2.
type StrictCodec struct{}

func (c *StrictCodec) Type() Type { return TypeStrict }

func (c *StrictCodec) Encode(value string) string {
	return encoder.Replace(value)
}

// Decode reverses those escapes. An escape sequence with an
// unrecognized character following the backslash is passed through
// unescaped (the backslash is kept) rather than erroring, since STOMP 1.2
// only promises decoding of the four documented sequences.
func (c *StrictCodec) Decode(value string) string {
	if !strings.ContainsRune(value, '\\') {
		return value
	}
	var b strings.Builder
	b.Grow(len(value))
	for i := 0; i < len(value); i++ {
		ch := value[i]
		if ch != '\\' || i+1 >= len(value) {
			b.WriteByte(ch)
			continue
		}
		switch value[i+1] {
		case 'r':
			b.WriteByte('\r')
			i++
		case 'n':
			b.WriteByte('\n')
			i++
		case 'c':
			b.WriteByte(':')
			i++
		case '\\':
			b.WriteByte('\\')
			i++
		default:
			b.WriteByte(ch)
		}
	}
	return b.String()
}
