package tools

import (
	"context"
	"fmt"

	"github.com/futig/mcq-reasoner/internal/entity"
	"github.com/futig/mcq-reasoner/internal/pkg/mathexpr"
	"github.com/futig/mcq-reasoner/internal/retrieval"
)

const (
	ragSearchTopK     = 3
	ragSearchMaxChars = 3000
)

// Calculator evaluates an arithmetic expression
type Calculator struct{}

func (Calculator) Name() string { return "Calculator" }

func (Calculator) Description() string {
	return "Tính toán biểu thức toán học. Input là một biểu thức Python hợp lệ. Ví dụ: 'sqrt(144) + 50' hoặc '(100 - 80) / 100'"
}

func (Calculator) Execute(_ context.Context, input string) (string, error) {
	return mathexpr.Calculate(input), nil
}

// ContextAnalyzer acknowledges a lookup in the question's own passage. The
// passage is already in the prompt, so the observation only echoes the query.
type ContextAnalyzer struct{}

func (ContextAnalyzer) Name() string { return "ContextAnalyzer" }

func (ContextAnalyzer) Description() string {
	return "Phân tích và trích xuất thông tin từ đoạn văn được cung cấp. Input là câu hỏi cần tìm trong context."
}

func (ContextAnalyzer) Execute(_ context.Context, input string) (string, error) {
	return "Đang tìm kiếm thông tin về: " + input, nil
}

// Retriever is the knowledge-base lookup RAGSearch proxies to
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int, category string) ([]entity.RetrievedChunk, error)
}

// RAGSearch looks a query up in the knowledge base
type RAGSearch struct {
	retriever Retriever
}

func NewRAGSearch(r Retriever) *RAGSearch {
	return &RAGSearch{retriever: r}
}

func (*RAGSearch) Name() string { return "RAGSearch" }

func (*RAGSearch) Description() string {
	return "Tìm kiếm thông tin từ knowledge base. Input là câu hỏi hoặc từ khóa cần tìm."
}

// Execute reports lookup failures in the observation itself
func (s *RAGSearch) Execute(ctx context.Context, input string) (string, error) {
	chunks, err := s.retriever.Retrieve(ctx, input, ragSearchTopK, "")
	if err != nil {
		return fmt.Sprintf("Lỗi tìm kiếm: %v", err), nil
	}
	if text := retrieval.FormatContext(chunks, ragSearchMaxChars); text != "" {
		return text, nil
	}
	return "Không tìm thấy thông tin liên quan.", nil
}
