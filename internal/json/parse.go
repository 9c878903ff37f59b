package json

import (
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/ecmacore/jsvm/internal/agent"
	"github.com/ecmacore/jsvm/internal/errors"
	"github.com/ecmacore/jsvm/internal/value"
)

// Parse implements JSON.parse(text, reviver) (ECMA-262 25.5.1): an
// ECMA-404 JSON text is parsed into Values directly (skipping the
// original's "wrap in a Script and evaluate it" indirection, which has
// no meaning without a real parser/evaluator pipeline here), then, if
// reviver is callable, walked bottom-up via InternalizeJSONProperty.
func Parse(a *agent.Agent, text string, reviver value.Value) (value.Value, error) {
	p := &jsonParser{a: a, src: text}
	p.skipWhitespace()
	v, err := p.parseValue()
	if err != nil {
		return value.Value{}, err
	}
	p.skipWhitespace()
	if p.pos != len(p.src) {
		return value.Value{}, errors.SyntaxError("unexpected trailing character in JSON at position %d", p.pos)
	}

	if !a.IsCallable(reviver) {
		return v, nil
	}

	root := a.NewPlainObject()
	if err := a.Set(root, keyOf(a, ""), v, root); err != nil {
		return value.Value{}, err
	}
	return internalizeJSONProperty(a, root, "", reviver)
}

// internalizeJSONProperty implements InternalizeJSONProperty (ECMA-262
// 25.5.1.1).
func internalizeJSONProperty(a *agent.Agent, holder value.Value, name string, reviver value.Value) (value.Value, error) {
	val, err := a.Get(holder, keyOf(a, name), holder)
	if err != nil {
		return value.Value{}, err
	}
	if val.IsObject() {
		if elems, ok := a.DenseElements(val); ok {
			for i := range elems {
				prop := strconv.Itoa(i)
				newElement, err := internalizeJSONProperty(a, val, prop, reviver)
				if err != nil {
					return value.Value{}, err
				}
				if newElement.IsUndefined() {
					if _, err := a.DeleteProperty(val, keyOf(a, prop)); err != nil {
						return value.Value{}, err
					}
				} else if err := a.Set(val, keyOf(a, prop), newElement, val); err != nil {
					return value.Value{}, err
				}
			}
		} else {
			keys, err := a.EnumerableOwnAndInheritedStringKeys(val)
			if err != nil {
				return value.Value{}, err
			}
			for _, prop := range keys {
				newElement, err := internalizeJSONProperty(a, val, prop, reviver)
				if err != nil {
					return value.Value{}, err
				}
				if newElement.IsUndefined() {
					if _, err := a.DeleteProperty(val, keyOf(a, prop)); err != nil {
						return value.Value{}, err
					}
				} else if err := a.Set(val, keyOf(a, prop), newElement, val); err != nil {
					return value.Value{}, err
				}
			}
		}
	}
	return a.Call(reviver, holder, []value.Value{heapStr(a, name), val})
}

// jsonParser implements the ECMA-404 JSON grammar directly over a Go
// string, realizing JSON objects/arrays/strings/numbers/booleans/null
// as engine Values the way value_from_json does in the original, but
// without a separate intermediate JSON-library tree (no parser lives in
// this pack's third-party dependency set suited to a custom Value
// model, so this follows the grammar by hand the way a scanner/parser
// would in internal/compiler).
type jsonParser struct {
	a   *agent.Agent
	src string
	pos int
}

func (p *jsonParser) skipWhitespace() {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *jsonParser) errf(format string, args ...any) error {
	return errors.SyntaxError(format, args...)
}

func (p *jsonParser) parseValue() (value.Value, error) {
	if p.pos >= len(p.src) {
		return value.Value{}, p.errf("unexpected end of JSON input")
	}
	switch c := p.src[p.pos]; {
	case c == '{':
		return p.parseObject()
	case c == '[':
		return p.parseArray()
	case c == '"':
		s, err := p.parseString()
		if err != nil {
			return value.Value{}, err
		}
		return heapStr(p.a, s), nil
	case c == 't':
		return p.parseLiteral("true", value.Boolean(true))
	case c == 'f':
		return p.parseLiteral("false", value.Boolean(false))
	case c == 'n':
		return p.parseLiteral("null", value.Null())
	case c == '-' || (c >= '0' && c <= '9'):
		return p.parseNumber()
	default:
		return value.Value{}, p.errf("unexpected character %q in JSON at position %d", c, p.pos)
	}
}

func (p *jsonParser) parseLiteral(lit string, v value.Value) (value.Value, error) {
	if !strings.HasPrefix(p.src[p.pos:], lit) {
		return value.Value{}, p.errf("invalid JSON literal at position %d", p.pos)
	}
	p.pos += len(lit)
	return v, nil
}

func (p *jsonParser) parseObject() (value.Value, error) {
	p.pos++ // '{'
	obj := p.a.NewPlainObject()
	p.skipWhitespace()
	if p.pos < len(p.src) && p.src[p.pos] == '}' {
		p.pos++
		return obj, nil
	}
	for {
		p.skipWhitespace()
		if p.pos >= len(p.src) || p.src[p.pos] != '"' {
			return value.Value{}, p.errf("expected property name in JSON at position %d", p.pos)
		}
		key, err := p.parseString()
		if err != nil {
			return value.Value{}, err
		}
		p.skipWhitespace()
		if p.pos >= len(p.src) || p.src[p.pos] != ':' {
			return value.Value{}, p.errf("expected ':' after property name in JSON at position %d", p.pos)
		}
		p.pos++
		p.skipWhitespace()
		v, err := p.parseValue()
		if err != nil {
			return value.Value{}, err
		}
		if err := p.a.Set(obj, keyOf(p.a, key), v, obj); err != nil {
			return value.Value{}, err
		}
		p.skipWhitespace()
		if p.pos >= len(p.src) {
			return value.Value{}, p.errf("unexpected end of JSON input")
		}
		switch p.src[p.pos] {
		case ',':
			p.pos++
			continue
		case '}':
			p.pos++
			return obj, nil
		default:
			return value.Value{}, p.errf("expected ',' or '}' in JSON at position %d", p.pos)
		}
	}
}

func (p *jsonParser) parseArray() (value.Value, error) {
	p.pos++ // '['
	var elems []value.Value
	p.skipWhitespace()
	if p.pos < len(p.src) && p.src[p.pos] == ']' {
		p.pos++
		return p.a.NewArray(nil), nil
	}
	for {
		p.skipWhitespace()
		v, err := p.parseValue()
		if err != nil {
			return value.Value{}, err
		}
		elems = append(elems, v)
		p.skipWhitespace()
		if p.pos >= len(p.src) {
			return value.Value{}, p.errf("unexpected end of JSON input")
		}
		switch p.src[p.pos] {
		case ',':
			p.pos++
			continue
		case ']':
			p.pos++
			return p.a.NewArray(elems), nil
		default:
			return value.Value{}, p.errf("expected ',' or ']' in JSON at position %d", p.pos)
		}
	}
}

func (p *jsonParser) parseString() (string, error) {
	p.pos++ // opening quote
	var b strings.Builder
	for {
		if p.pos >= len(p.src) {
			return "", p.errf("unterminated string in JSON")
		}
		c := p.src[p.pos]
		if c == '"' {
			p.pos++
			return b.String(), nil
		}
		if c == '\\' {
			p.pos++
			if p.pos >= len(p.src) {
				return "", p.errf("unterminated escape sequence in JSON")
			}
			switch p.src[p.pos] {
			case '"':
				b.WriteByte('"')
			case '\\':
				b.WriteByte('\\')
			case '/':
				b.WriteByte('/')
			case 'b':
				b.WriteByte('\b')
			case 'f':
				b.WriteByte('\f')
			case 'n':
				b.WriteByte('\n')
			case 'r':
				b.WriteByte('\r')
			case 't':
				b.WriteByte('\t')
			case 'u':
				r, err := p.parseUnicodeEscape()
				if err != nil {
					return "", err
				}
				b.WriteRune(r)
				continue
			default:
				return "", p.errf("invalid escape sequence in JSON at position %d", p.pos)
			}
			p.pos++
			continue
		}
		if c < 0x20 {
			return "", p.errf("invalid control character in JSON string at position %d", p.pos)
		}
		r, size := utf8.DecodeRuneInString(p.src[p.pos:])
		b.WriteRune(r)
		p.pos += size
	}
}

// parseUnicodeEscape consumes a \uXXXX escape (and a following low
// surrogate's \uXXXX, if the first formed a high surrogate) and returns
// the decoded rune, advancing p.pos past the last consumed hex digit.
func (p *jsonParser) parseUnicodeEscape() (rune, error) {
	hi, err := p.readHex4()
	if err != nil {
		return 0, err
	}
	if utf16.IsSurrogate(rune(hi)) && hi >= 0xD800 && hi <= 0xDBFF &&
		p.pos+1 < len(p.src) && p.src[p.pos] == '\\' && p.src[p.pos+1] == 'u' {
		save := p.pos
		p.pos++ // '\\'; readHex4 skips the 'u'
		lo, err := p.readHex4()
		if err == nil {
			if r := utf16.DecodeRune(rune(hi), rune(lo)); r != utf8.RuneError {
				return r, nil
			}
		}
		p.pos = save
	}
	return rune(hi), nil
}

func (p *jsonParser) readHex4() (uint16, error) {
	p.pos++ // 'u'
	if p.pos+4 > len(p.src) {
		return 0, p.errf("incomplete unicode escape in JSON")
	}
	n, err := strconv.ParseUint(p.src[p.pos:p.pos+4], 16, 16)
	if err != nil {
		return 0, p.errf("invalid unicode escape in JSON at position %d", p.pos)
	}
	p.pos += 4
	return uint16(n), nil
}

func (p *jsonParser) parseNumber() (value.Value, error) {
	start := p.pos
	if p.src[p.pos] == '-' {
		p.pos++
	}
	if p.pos >= len(p.src) || p.src[p.pos] < '0' || p.src[p.pos] > '9' {
		return value.Value{}, p.errf("invalid number in JSON at position %d", start)
	}
	if p.src[p.pos] == '0' {
		p.pos++
	} else {
		for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
			p.pos++
		}
	}
	if p.pos < len(p.src) && p.src[p.pos] == '.' {
		p.pos++
		digits := 0
		for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
			p.pos++
			digits++
		}
		if digits == 0 {
			return value.Value{}, p.errf("invalid number in JSON at position %d", start)
		}
	}
	if p.pos < len(p.src) && (p.src[p.pos] == 'e' || p.src[p.pos] == 'E') {
		p.pos++
		if p.pos < len(p.src) && (p.src[p.pos] == '+' || p.src[p.pos] == '-') {
			p.pos++
		}
		digits := 0
		for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
			p.pos++
			digits++
		}
		if digits == 0 {
			return value.Value{}, p.errf("invalid number in JSON at position %d", start)
		}
	}
	f, err := strconv.ParseFloat(p.src[start:p.pos], 64)
	if err != nil {
		return value.Value{}, p.errf("invalid number in JSON at position %d: %v", start, err)
	}
	if f == float64(int64(f)) && f >= float64(value.MinSmallInteger) && f <= float64(value.MaxSmallInteger) {
		return value.SmallInteger(int64(f)), nil
	}
	return p.a.Heap.NewNumber(f), nil
}
