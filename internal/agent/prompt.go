package agent

import (
	"strings"
)

const promptTemplate = `Bạn là một trợ lý AI thông minh. Hãy trả lời câu hỏi trắc nghiệm bằng cách suy luận từng bước.

Bạn có thể sử dụng các công cụ sau:

{tools}

Sử dụng định dạng sau:

Question: câu hỏi cần trả lời
Thought: suy nghĩ về cách giải quyết
Action: tên công cụ cần sử dụng (một trong [{tool_names}])
Action Input: input cho công cụ
Observation: kết quả từ công cụ
... (có thể lặp lại Thought/Action/Action Input/Observation nhiều lần)
Thought: Tôi đã có đủ thông tin để trả lời
Final Answer: đáp án cuối cùng (chỉ ghi một chữ cái {letters})

Lưu ý:
- Nếu câu hỏi yêu cầu tính toán, hãy dùng Calculator
- Nếu không cần công cụ, có thể đưa ra Final Answer trực tiếp
- Đáp án cuối cùng PHẢI là một chữ cái duy nhất ({letters})

{context}

Question: {question}

Các lựa chọn:
{choices}

Thought:`

// buildPrompt renders the opening transcript
func buildPrompt(toolCatalogue string, toolNames []string, alphabet, passage, question, choices string) string {
	context := ""
	if passage != "" {
		context = "Đoạn thông tin:\n" + passage + "\n"
	}

	r := strings.NewReplacer(
		"{tools}", toolCatalogue,
		"{tool_names}", strings.Join(toolNames, ", "),
		"{letters}", letterList(alphabet),
		"{context}", context,
		"{question}", question,
		"{choices}", choices,
	)
	return r.Replace(promptTemplate)
}

// letterList renders "A, B, C, hoặc D"
func letterList(alphabet string) string {
	letters := strings.Split(alphabet, "")
	if len(letters) <= 1 {
		return alphabet
	}
	return strings.Join(letters[:len(letters)-1], ", ") + ", hoặc " + letters[len(letters)-1]
}
