package formatter

import (
	"encoding/json"

	"github.com/futig/mcq-reasoner/internal/entity"
)

type JSONFormatter struct{}

func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

func (jf *JSONFormatter) Format(ev entity.Evaluation) ([]byte, error) {
	return json.MarshalIndent(ev, "", "  ")
}

func (jf *JSONFormatter) ContentType() string {
	return "application/json"
}

func (jf *JSONFormatter) FileExtension() string {
	return ".json"
}
