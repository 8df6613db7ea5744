package answer

import (
	"strings"
)

var refusalPhrases = []string{
	"tôi không thể trả lời",
	"tôi không thể cung cấp",
	"từ chối trả lời",
	"không thể trả lời câu hỏi",
	"tôi không thể hỗ trợ",
	"xin lỗi, tôi không thể",
}

// FindRefusal returns the letter of the first choice that declines to
// answer, e.g. "Tôi không thể trả lời câu hỏi này".
func FindRefusal(choices []string) (string, bool) {
	for i, choice := range choices {
		if i >= 26 {
			break
		}
		lower := strings.ToLower(choice)
		for _, phrase := range refusalPhrases {
			if strings.Contains(lower, phrase) {
				return string(rune('A' + i)), true
			}
		}
	}
	return "", false
}
