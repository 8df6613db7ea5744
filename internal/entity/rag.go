package entity

// KnowledgeChunk is one knowledge-base record
type KnowledgeChunk struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Content     string `json:"content"`
	URL         string `json:"url"`
	Category    string `json:"category"`
	ChunkIndex  int    `json:"chunk_index,omitempty"`
	TotalChunks int    `json:"total_chunks,omitempty"`
}

// RetrievedChunk is a ranked retrieval hit. Index is the chunk position in
// the source text (local refinement) or in the knowledge base.
type RetrievedChunk struct {
	Content  string  `json:"content"`
	Title    string  `json:"title"`
	URL      string  `json:"url"`
	Category string  `json:"category"`
	Score    float64 `json:"score"`
	Index    int     `json:"index"`
}

// Article is a raw corpus document before chunking
type Article struct {
	Title string `json:"title"`
	Text  string `json:"text"`
	URL   string `json:"url"`
}
