package inference

import (
	"strings"

	"github.com/futig/mcq-reasoner/internal/entity"
)

const directTemplate = `Bạn là một trợ lý AI thông minh. Hãy trả lời câu hỏi trắc nghiệm một cách chính xác dựa trên thông tin được cung cấp.

{context}

Câu hỏi: {question}

Các lựa chọn:
{choices}

Định dạng câu trả lời bắt buộc:
Giải thích: [Giải thích ngắn gọn]
Đáp án: [Chỉ ghi duy nhất một chữ cái in hoa ({letters}) không kèm ký tự đặc biệt]`

const chainOfThoughtTemplate = `Bạn là một trợ lý AI thông minh. Hãy trả lời câu hỏi trắc nghiệm bằng cách suy luận từng bước.

HƯỚNG DẪN TÍNH TOÁN:
Nếu cần thực hiện tính toán toán học, hãy viết biểu thức trong cặp dấu ngoặc nhọn đôi. Hệ thống sẽ tự động tính toán cho bạn.
Ví dụ: "Độ co giãn là {{ (80 - 100) / 100 }}." sẽ được hiển thị là "Độ co giãn là -0.2."
Hỗ trợ các phép tính: +, -, *, /, pow, sqrt, abs, round, min, max.

{context}

Câu hỏi: {question}

Các lựa chọn:
{choices}

HÃY SUY LUẬN TỪNG BƯỚC (Chain of Thought):

Bước 1: Phân tích yêu cầu câu hỏi.
Bước 2: (Nếu có đoạn thông tin) Tìm chi tiết liên quan trong đoạn thông tin. Trích dẫn ngắn gọn nếu cần.
Bước 3: Phân tích từng lựa chọn {choice_list}.
Bước 4: Loại trừ phương án sai và xác định phương án đúng.
Bước 5: Kết luận.

Định dạng câu trả lời:
Suy luận: [Viết đầy đủ các bước suy luận]
Đáp án: [Chỉ ghi duy nhất một chữ cái in hoa ({letters}) không kèm ký tự đặc biệt]`

// buildPrompt renders the direct or chain-of-thought prompt
func buildPrompt(q *entity.Question, passage string, chainOfThought bool) string {
	context := ""
	if passage != "" {
		context = "Đoạn thông tin:\n" + passage + "\n"
	}

	letters := strings.Split(q.Letters(), "")
	tmpl := directTemplate
	if chainOfThought {
		tmpl = chainOfThoughtTemplate
	}

	r := strings.NewReplacer(
		"{context}", context,
		"{question}", q.QuestionText(),
		"{choices}", q.FormatChoices(),
		"{letters}", joinOr(letters, "hoặc"),
		"{choice_list}", strings.Join(letters, ", "),
	)
	return r.Replace(tmpl)
}

// joinOr renders "A, B, C, hoặc D"
func joinOr(items []string, conj string) string {
	if len(items) <= 1 {
		return strings.Join(items, "")
	}
	return strings.Join(items[:len(items)-1], ", ") + ", " + conj + " " + items[len(items)-1]
}

// truncate caps text at max characters, marking the cut
func truncate(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "...(truncated)"
}
