package mathexpr

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokIdent
	tokOp
	tokLParen
	tokRParen
	tokComma
)

type token struct {
	kind tokenKind
	text string
	num  Value
	pos  int
}

// lex splits expr into tokens. Lexical errors do not stop scanning so that
// every identifier is seen by the allow-list check; the first one is returned.
func lex(expr string) ([]token, error) {
	var (
		tokens []token
		lexErr error
	)
	runes := []rune(expr)

	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++

		case unicode.IsDigit(r) || (r == '.' && i+1 < len(runes) && unicode.IsDigit(runes[i+1])):
			start := i
			isFloat := false
			for i < len(runes) && (unicode.IsDigit(runes[i]) || runes[i] == '_') {
				i++
			}
			if i < len(runes) && runes[i] == '.' {
				isFloat = true
				i++
				for i < len(runes) && unicode.IsDigit(runes[i]) {
					i++
				}
			}
			if i < len(runes) && (runes[i] == 'e' || runes[i] == 'E') {
				j := i + 1
				if j < len(runes) && (runes[j] == '+' || runes[j] == '-') {
					j++
				}
				if j < len(runes) && unicode.IsDigit(runes[j]) {
					isFloat = true
					i = j
					for i < len(runes) && unicode.IsDigit(runes[i]) {
						i++
					}
				}
			}
			text := strings.ReplaceAll(string(runes[start:i]), "_", "")
			var num Value
			if isFloat {
				f, err := strconv.ParseFloat(text, 64)
				if err != nil && lexErr == nil {
					lexErr = fmt.Errorf("invalid number %q", text)
				}
				num = Float(f)
			} else if n, ok := new(big.Int).SetString(text, 10); ok && n.BitLen() <= maxIntBits {
				num = bigValue(n)
			} else if lexErr == nil {
				lexErr = fmt.Errorf("invalid number %q", text)
			}
			tokens = append(tokens, token{kind: tokNumber, text: text, num: num, pos: start})

		case unicode.IsLetter(r) || r == '_':
			start := i
			for i < len(runes) && (unicode.IsLetter(runes[i]) || unicode.IsDigit(runes[i]) || runes[i] == '_') {
				i++
			}
			tokens = append(tokens, token{kind: tokIdent, text: string(runes[start:i]), pos: start})

		case r == '(':
			tokens = append(tokens, token{kind: tokLParen, text: "(", pos: i})
			i++
		case r == ')':
			tokens = append(tokens, token{kind: tokRParen, text: ")", pos: i})
			i++
		case r == ',':
			tokens = append(tokens, token{kind: tokComma, text: ",", pos: i})
			i++

		case r == '*' || r == '/':
			if i+1 < len(runes) && runes[i+1] == r {
				tokens = append(tokens, token{kind: tokOp, text: string([]rune{r, r}), pos: i})
				i += 2
				continue
			}
			tokens = append(tokens, token{kind: tokOp, text: string(r), pos: i})
			i++
		case r == '+' || r == '-' || r == '%':
			tokens = append(tokens, token{kind: tokOp, text: string(r), pos: i})
			i++

		default:
			if lexErr == nil {
				lexErr = fmt.Errorf("invalid syntax at position %d", i)
			}
			i++
		}
	}

	tokens = append(tokens, token{kind: tokEOF, pos: len(runes)})
	return tokens, lexErr
}
