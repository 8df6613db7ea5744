package agent

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// StepKind is the accept state a model response parses into
type StepKind int

const (
	// StepNone means nothing actionable; the response is appended and the loop goes on
	StepNone StepKind = iota
	// StepFinalAnswer is an explicit "Final Answer: X"
	StepFinalAnswer
	// StepAction is an "Action:" / "Action Input:" pair
	StepAction
	// StepFreeAnswer is an answer phrase or a bare letter without the final marker
	StepFreeAnswer
)

func (k StepKind) String() string {
	switch k {
	case StepFinalAnswer:
		return "final_answer"
	case StepAction:
		return "action"
	case StepFreeAnswer:
		return "free_answer"
	}
	return "none"
}

// Step is one parsed model response
type Step struct {
	Kind    StepKind
	Letter  string
	Action  string
	Input   string
	Thought string
}

var (
	finalMarkerRe = regexp.MustCompile(`(?i)final answer`)
	actionRe      = regexp.MustCompile(`(?i)Action:\s*(.+?)(?:\n|$)`)
	actionInputRe = regexp.MustCompile(`(?is)Action Input:\s*(.+?)(?:\n|$)`)
)

// Parser classifies model responses against a fixed answer alphabet
type Parser struct {
	alphabet    string
	finalAnswer *regexp.Regexp
	answerLike  *regexp.Regexp
}

func NewParser(alphabet string) *Parser {
	if alphabet == "" {
		alphabet = "A"
	}
	class := "[" + regexp.QuoteMeta(alphabet) + "]"
	return &Parser{
		alphabet:    alphabet,
		finalAnswer: regexp.MustCompile(`(?i)Final Answer:\s*(` + class + `)`),
		answerLike:  regexp.MustCompile(`(?i)(?:đáp án|answer)[:\s]*(` + class + `)`),
	}
}

// ParseStep applies the response grammar, first match wins:
//
//	final  = "Final Answer:" letter | "final answer" ... bare-letter
//	action = "Action:" name NL "Action Input:" line
//	free   = ("đáp án" | "answer") [":" | space]* letter | bare-letter
//
// Markers are case-insensitive. A bare letter is an alphabet letter not
// touching other letters, digits or underscores.
func (p *Parser) ParseStep(text string) Step {
	if letter, ok := p.parseFinal(text); ok {
		return Step{Kind: StepFinalAnswer, Letter: letter, Thought: thought(text)}
	}

	if action, input, ok := parseAction(text); ok {
		return Step{Kind: StepAction, Action: action, Input: input, Thought: thought(text)}
	}

	if m := p.answerLike.FindStringSubmatch(text); m != nil {
		return Step{Kind: StepFreeAnswer, Letter: strings.ToUpper(m[1]), Thought: thought(text)}
	}
	if letter, ok := p.BareLetter(text); ok {
		return Step{Kind: StepFreeAnswer, Letter: letter, Thought: thought(text)}
	}

	return Step{Kind: StepNone, Thought: thought(text)}
}

func (p *Parser) parseFinal(text string) (string, bool) {
	if m := p.finalAnswer.FindStringSubmatch(text); m != nil {
		return strings.ToUpper(m[1]), true
	}
	if loc := finalMarkerRe.FindStringIndex(text); loc != nil {
		return p.BareLetter(text[loc[0]:])
	}
	return "", false
}

// BareLetter returns the first standalone uppercase alphabet letter in text
func (p *Parser) BareLetter(text string) (string, bool) {
	prev := rune(-1)
	for i, r := range text {
		if strings.ContainsRune(p.alphabet, r) && !isWordRune(prev) {
			next, _ := utf8.DecodeRuneInString(text[i+utf8.RuneLen(r):])
			if i+utf8.RuneLen(r) == len(text) || !isWordRune(next) {
				return string(r), true
			}
		}
		prev = r
	}
	return "", false
}

func parseAction(text string) (string, string, bool) {
	am := actionRe.FindStringSubmatch(text)
	im := actionInputRe.FindStringSubmatch(text)
	if am == nil || im == nil {
		return "", "", false
	}

	action := strings.TrimSpace(am[1])
	input := strings.TrimSpace(im[1])
	input = strings.TrimSpace(strings.SplitN(input, "\n", 2)[0])
	input = strings.Trim(input, `'"`)
	if action == "" || input == "" {
		return "", "", false
	}
	return action, input, true
}

// thought is the reasoning before any Action or Final Answer marker
func thought(text string) string {
	for _, marker := range []string{"Action:", "Final Answer:"} {
		if i := strings.Index(text, marker); i >= 0 {
			text = text[:i]
		}
	}
	return strings.TrimSpace(text)
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
