package extract

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"golang.org/x/text/encoding/charmap"
)

// decodeText reads UTF-8 when the bytes are valid UTF-8 and Windows-1252 otherwise,
// which is what office software on French Windows writes.
func decodeText(data []byte) string {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if utf8.Valid(data) {
		return string(data)
	}
	out, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return string(data)
	}
	return string(out)
}

var blockElements = "p, div, li, tr, h1, h2, h3, h4, h5, h6, blockquote, pre, table, section, article, header, footer"

func htmlText(data []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	doc.Find("script, style, noscript, head").Remove()
	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find("td, th").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml(" ")
	})
	doc.Find(blockElements).Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})
	return doc.Text(), nil
}

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

func markdownText(data []byte) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert(data, &buf); err != nil {
		return "", err
	}
	return htmlText(buf.Bytes())
}

func isPDFSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', '\f', 0:
		return true
	}
	return false
}

func isPDFDelimiter(c byte) bool {
	return strings.IndexByte("()<>[]{}/%", c) >= 0
}

// contentText rebuilds the lines of a page from its content stream. Text-positioning
// operators start a new line; large negative kerning inside TJ arrays is read as a space.
func contentText(content []byte) string {
	var out, line strings.Builder
	flush := func() {
		if s := strings.TrimSpace(line.String()); s != "" {
			out.WriteString(s)
			out.WriteByte('\n')
		}
		line.Reset()
	}

	for i := 0; i < len(content); {
		c := content[i]
		switch {
		case c == '(':
			raw, next := literalString(content, i)
			line.WriteString(decodeLiteral(raw))
			i = next
		case c == '<' && i+1 < len(content) && content[i+1] == '<':
			i += 2
		case c == '<':
			end := bytes.IndexByte(content[i:], '>')
			if end < 0 {
				i = len(content)
				continue
			}
			line.WriteString(decodeHex(content[i+1 : i+end]))
			i += end + 1
		case c == '%':
			for i < len(content) && content[i] != '\n' && content[i] != '\r' {
				i++
			}
		case isPDFSpace(c) || isPDFDelimiter(c):
			i++
		default:
			j := i
			for j < len(content) && !isPDFSpace(content[j]) && !isPDFDelimiter(content[j]) {
				j++
			}
			switch tok := string(content[i:j]); tok {
			case "Td", "TD", "T*", "Tm", "ET", "'", "\"":
				flush()
			case "ID":
				// inline image data runs until EI
				if end := bytes.Index(content[j:], []byte("EI")); end >= 0 {
					j += end + 2
				} else {
					j = len(content)
				}
			default:
				if kerningSpace(tok) && line.Len() > 0 {
					line.WriteByte(' ')
				}
			}
			i = j
		}
	}
	flush()
	return out.String()
}

func kerningSpace(tok string) bool {
	if len(tok) < 4 || tok[0] != '-' {
		return false
	}
	n := 0
	for _, c := range tok[1:] {
		if c == '.' {
			break
		}
		if c < '0' || c > '9' {
			return false
		}
		n = n*10 + int(c-'0')
	}
	return n >= 200
}

// literalString returns the raw bytes of the parenthesised string starting at start and
// the index following its closing parenthesis.
func literalString(content []byte, start int) ([]byte, int) {
	var raw []byte
	depth := 0
	for i := start; i < len(content); i++ {
		c := content[i]
		switch {
		case c == '\\' && i+1 < len(content):
			raw = append(raw, c, content[i+1])
			i++
		case c == '(':
			depth++
			if depth > 1 {
				raw = append(raw, c)
			}
		case c == ')':
			depth--
			if depth == 0 {
				return raw, i + 1
			}
			raw = append(raw, c)
		default:
			raw = append(raw, c)
		}
	}
	return raw, len(content)
}

func decodeLiteral(raw []byte) string {
	b := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		if raw[i] != '\\' || i+1 >= len(raw) {
			b = append(b, raw[i])
			continue
		}
		i++
		switch c := raw[i]; c {
		case 'n':
			b = append(b, '\n')
		case 'r':
			b = append(b, '\r')
		case 't':
			b = append(b, '\t')
		case 'b', 'f':
		case '\n', '\r':
			// line continuation
		default:
			if c >= '0' && c <= '7' {
				v := int(c - '0')
				for k := 0; k < 2 && i+1 < len(raw) && raw[i+1] >= '0' && raw[i+1] <= '7'; k++ {
					i++
					v = v*8 + int(raw[i]-'0')
				}
				b = append(b, byte(v))
				continue
			}
			b = append(b, c)
		}
	}
	return decodeBytes(b)
}

func decodeHex(hex []byte) string {
	digits := make([]byte, 0, len(hex))
	for _, c := range hex {
		if !isPDFSpace(c) {
			digits = append(digits, c)
		}
	}
	if len(digits)%2 != 0 {
		digits = append(digits, '0')
	}
	b := make([]byte, 0, len(digits)/2)
	for i := 0; i < len(digits); i += 2 {
		hi, ok1 := hexValue(digits[i])
		lo, ok2 := hexValue(digits[i+1])
		if !ok1 || !ok2 {
			return ""
		}
		b = append(b, hi<<4|lo)
	}
	return decodeBytes(b)
}

func hexValue(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// decodeBytes reads UTF-16BE when the string carries a byte order mark or looks like
// UTF-16 Latin text, and WinAnsi otherwise.
func decodeBytes(b []byte) string {
	if len(b) >= 2 && b[0] == 0xFE && b[1] == 0xFF {
		return utf16BE(b[2:])
	}
	if looksUTF16(b) {
		return utf16BE(b)
	}
	for _, c := range b {
		if c >= 0x80 {
			out, err := charmap.Windows1252.NewDecoder().Bytes(b)
			if err != nil {
				return string(b)
			}
			return string(out)
		}
	}
	return strings.Map(func(r rune) rune {
		if r < 0x20 && r != '\n' && r != '\t' {
			return -1
		}
		return r
	}, string(b))
}

func looksUTF16(b []byte) bool {
	if len(b) < 4 || len(b)%2 != 0 {
		return false
	}
	for i := 0; i < len(b); i += 2 {
		if b[i] != 0 {
			return false
		}
	}
	return true
}

func utf16BE(b []byte) string {
	var sb strings.Builder
	for i := 0; i+1 < len(b); i += 2 {
		r := rune(b[i])<<8 | rune(b[i+1])
		if r >= 0xD800 && r < 0xDC00 && i+3 < len(b) {
			lo := rune(b[i+2])<<8 | rune(b[i+3])
			r = (r-0xD800)<<10 + (lo - 0xDC00) + 0x10000
			i += 2
		}
		if r != 0 {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
