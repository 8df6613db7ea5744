// Package mathexpr evaluates arithmetic expressions against a fixed
// allow-list of math functions and constants. Nothing outside the grammar
// can be reached: there are no attributes, strings or assignments.
package mathexpr

import (
	"fmt"
	"regexp"
	"strings"
)

// ForbiddenError reports an identifier outside the allow-list
type ForbiddenError struct {
	Name string
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("Forbidden function or variable '%s'", e.Name)
}

var markerRe = regexp.MustCompile(`\{\{(.+?)\}\}`)

// Evaluate parses and evaluates expr.
func Evaluate(expr string) (Value, error) {
	tokens, lexErr := lex(expr)

	for _, t := range tokens {
		if t.kind == tokIdent && !IsAllowed(t.text) {
			return Value{}, &ForbiddenError{Name: t.text}
		}
	}
	if lexErr != nil {
		return Value{}, lexErr
	}

	p := &parser{tokens: tokens}
	return p.parse()
}

// Calculate evaluates expr and renders the result as text. Failures come back
// as "Error: ..." strings so the caller can hand them straight to the model.
func Calculate(expr string) string {
	expr = strings.TrimSpace(strings.Trim(strings.TrimSpace(expr), "`"))
	if expr == "" {
		return "Error: empty expression"
	}

	v, err := Evaluate(expr)
	if err != nil {
		return "Error: " + err.Error()
	}
	return v.String()
}

// ProcessMarkdown replaces every {{ expr }} marker in text with its result.
// Markers that fail to evaluate are replaced with the "Error: ..." text.
func ProcessMarkdown(text string) string {
	if !strings.Contains(text, "{{") {
		return text
	}
	return markerRe.ReplaceAllStringFunc(text, func(m string) string {
		return Calculate(markerRe.FindStringSubmatch(m)[1])
	})
}
