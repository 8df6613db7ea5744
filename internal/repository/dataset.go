package repository

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/futig/mcq-reasoner/internal/entity"
)

// LoadQuestions reads a question set and splits embedded passages off the
// question text
func LoadQuestions(path string) ([]entity.Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read questions %s: %w", path, err)
	}

	var questions []entity.Question
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, fmt.Errorf("parse questions %s: %w", path, err)
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("%s: %w", path, entity.ErrNoQuestions)
	}

	seen := make(map[string]bool, len(questions))
	for i := range questions {
		q := &questions[i]
		if q.ID == "" {
			return nil, fmt.Errorf("%w: question #%d has no qid", entity.ErrInvalidQuestion, i)
		}
		if seen[q.ID] {
			return nil, fmt.Errorf("%w: duplicate qid %s", entity.ErrInvalidQuestion, q.ID)
		}
		seen[q.ID] = true
		q.Answer = strings.ToUpper(strings.TrimSpace(q.Answer))
		q.Normalize()
	}
	return questions, nil
}

// QuestionStats summarizes a question set for the preprocess command
type QuestionStats struct {
	Total          int            `json:"total"`
	WithContext    int            `json:"with_context"`
	WithoutContext int            `json:"without_context"`
	Questions      []QuestionInfo `json:"questions"`
}

type QuestionInfo struct {
	QID        string  `json:"qid"`
	HasContext bool    `json:"has_context"`
	NumChoices int     `json:"num_choices"`
	Answer     *string `json:"answer"`
}

func DescribeQuestions(questions []entity.Question) QuestionStats {
	stats := QuestionStats{
		Total:     len(questions),
		Questions: make([]QuestionInfo, 0, len(questions)),
	}
	for i := range questions {
		q := &questions[i]
		if q.HasContext() {
			stats.WithContext++
		} else {
			stats.WithoutContext++
		}

		info := QuestionInfo{QID: q.ID, HasContext: q.HasContext(), NumChoices: len(q.Choices)}
		if q.Answer != "" {
			answer := q.Answer
			info.Answer = &answer
		}
		stats.Questions = append(stats.Questions, info)
	}
	return stats
}

// WriteJSON writes v as an indented JSON document, atomically
func WriteJSON(path string, v any) error {
	return writeJSONAtomic(path, v)
}

// LoadKnowledgeBase reads knowledge chunks. A missing file yields an empty
// set so callers can decide whether retrieval is optional.
func LoadKnowledgeBase(path string) ([]entity.KnowledgeChunk, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read knowledge base %s: %w", path, err)
	}

	var chunks []entity.KnowledgeChunk
	if err := json.Unmarshal(data, &chunks); err != nil {
		return nil, fmt.Errorf("parse knowledge base %s: %w", path, err)
	}
	return chunks, nil
}

// KnowledgeBaseMeta is written next to the knowledge base on ingest
type KnowledgeBaseMeta struct {
	TotalChunks int      `json:"total_chunks"`
	Categories  []string `json:"categories"`
	Articles    []string `json:"articles"`
}

func DescribeKnowledgeBase(chunks []entity.KnowledgeChunk) KnowledgeBaseMeta {
	categories := make(map[string]struct{})
	titles := make(map[string]struct{})
	for _, c := range chunks {
		categories[c.Category] = struct{}{}
		titles[c.Title] = struct{}{}
	}
	return KnowledgeBaseMeta{
		TotalChunks: len(chunks),
		Categories:  sortedKeys(categories),
		Articles:    sortedKeys(titles),
	}
}

type rawArticle struct {
	Title   string `json:"title"`
	Text    string `json:"text"`
	Content string `json:"content"`
	URL     string `json:"url"`
}

// LoadArticles reads a corpus dump, either a JSON array or one JSON object
// per line. Articles without a title are named "Unknown"; a missing URL
// points at the Vietnamese Wikipedia page of the title.
func LoadArticles(path string) ([]entity.Article, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read corpus %s: %w", path, err)
	}

	var raw []rawArticle
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return nil, fmt.Errorf("parse corpus %s: %w", path, err)
		}
	} else {
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		for dec.More() {
			var a rawArticle
			if err := dec.Decode(&a); err != nil {
				return nil, fmt.Errorf("parse corpus %s record %d: %w", path, len(raw), err)
			}
			raw = append(raw, a)
		}
	}

	articles := make([]entity.Article, 0, len(raw))
	for _, a := range raw {
		text := a.Text
		if text == "" {
			text = a.Content
		}
		if text == "" {
			continue
		}
		title := a.Title
		if title == "" {
			title = "Unknown"
		}
		url := a.URL
		if url == "" {
			url = "https://vi.wikipedia.org/wiki/" + strings.ReplaceAll(title, " ", "_")
		}
		articles = append(articles, entity.Article{Title: title, Text: text, URL: url})
	}
	return articles, nil
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
