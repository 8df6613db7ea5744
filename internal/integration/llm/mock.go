package llm

import (
	"context"
	"hash/fnv"
	"strings"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// MockConnector answers offline with a deterministic letter derived from the
// prompt text. It speaks the agent format when the prompt asks for it.
type MockConnector struct {
	model  string
	logger *zap.Logger
}

func NewMockConnector(model string, logger *zap.Logger) *MockConnector {
	return &MockConnector{
		model:  model,
		logger: logger,
	}
}

func (m *MockConnector) Model() string {
	return m.model
}

func (m *MockConnector) Invoke(ctx context.Context, prompt string, stop ...string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	letter := mockLetter(prompt)
	ctxzap.Debug(ctx, "[MOCK] invoking model",
		zap.Int("prompt_length", len(prompt)),
		zap.String("letter", letter),
	)

	if strings.Contains(prompt, "Final Answer:") {
		return "Tôi đã đọc kỹ câu hỏi và các lựa chọn.\nFinal Answer: " + letter, nil
	}
	return "Phân tích ngắn gọn các lựa chọn.\nĐáp án: " + letter, nil
}

func mockLetter(prompt string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(prompt))
	return string(rune('A' + h.Sum32()%4))
}
