package models

// Section is a logical subdivision of a source document produced by the
// segmenter. Sections are transient: only their derived chunks are persisted.
type Section struct {
	Label     string // hierarchical clause number (e.g. "6.1.1.1.5"), "" when none
	Title     string
	PageStart int // 1-indexed, inclusive
	PageEnd   int
	Text      string
}

// Chunk is a citation-decorated, embedded unit of text ready for storage.
type Chunk struct {
	Content     string
	Embedding   []float32
	Source      string
	Section     string
	Title       string
	PageStart   int
	PageEnd     int
	Bucket      string
	ContentHash string
}

// Candidate is a retrieved chunk together with its distance to the query
// embedding. Lower distance means more similar.
type Candidate struct {
	Content   string
	Source    string
	Section   string
	Title     string
	PageStart int
	PageEnd   int
	Bucket    string
	Distance  float64
}

// Turn is one entry of the caller-supplied conversation history.
type Turn struct {
	Role    string `json:"role"` // RoleUser or RoleAssistant
	Content string `json:"content"`
}

// Source points the reader at the cited location backing an answer.
type Source struct {
	Doc     string `json:"doc"`
	Page    int    `json:"page"`
	Section string `json:"section"`
	Snippet string `json:"snippet"`
}

// AnswerResult is the terminal artifact of one answered query.
type AnswerResult struct {
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources"`
}
