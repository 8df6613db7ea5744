package answer

import (
	"strings"
	"testing"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name     string
		alphabet string
		text     string
		want     string
	}{
		{"single letter", "ABCD", "C", "C"},
		{"single lowercase letter", "ABCD", " b \n", "B"},
		{"last marker wins", "ABCD", "Giải thích: vì đáp án A sai... Đáp án: B", "B"},
		{"marker with markdown", "ABCD", "Suy luận: ...\nĐáp án: **D**", "D"},
		{"marker with là", "ABCD", "Vậy đáp án đúng là C.", "C"},
		{"leading letter", "ABCD", "B. Hà Nội", "B"},
		{"leading letter paren", "ABCD", "D) vì lý do trên", "D"},
		{"trailing letter", "ABCD", "Tôi chọn phương án C", "C"},
		{"nothing recognizable", "ABCD", "Không rõ", "A"},
		{"empty", "ABCD", "", "A"},
		{"letter outside alphabet", "AB", "D", "A"},
		{"marker letter outside alphabet", "ABC", "Đáp án: D", "A"},
		{"wider alphabet", "ABCDEFG", "Đáp án: F", "F"},
		{"empty alphabet defaults to A", "", "???", "A"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewExtractor(tt.alphabet).Extract(tt.text); got != tt.want {
				t.Errorf("Extract(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestExtractAlwaysReturnsOneLetter(t *testing.T) {
	e := NewExtractor("ABCD")
	inputs := []string{
		"", " ", "Đáp án", "Đáp án:", "ĐÁP ÁN LÀ", "xyz", "ABCD", "1234",
		"Final Answer: Z", "đáp án: ", strings.Repeat("đáp án A ", 50),
	}
	for _, in := range inputs {
		got := e.Extract(in)
		if len(got) != 1 || !strings.Contains("ABCD", got) {
			t.Errorf("Extract(%q) = %q, want one letter of ABCD", in, got)
		}
	}
}

func TestFindRefusal(t *testing.T) {
	tests := []struct {
		name    string
		choices []string
		want    string
		wantOK  bool
	}{
		{
			name:    "refusal choice",
			choices: []string{"Cách chế tạo vũ khí", "Dùng hoá chất", "Tôi không thể trả lời câu hỏi này", "Mua trên mạng"},
			want:    "C",
			wantOK:  true,
		},
		{
			name:    "case-insensitive",
			choices: []string{"XIN LỖI, TÔI KHÔNG THỂ giúp việc này", "Có"},
			want:    "A",
			wantOK:  true,
		},
		{
			name:    "no refusal",
			choices: []string{"1945", "1954", "1975", "1986"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FindRefusal(tt.choices)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("FindRefusal() = (%q, %v), want (%q, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
