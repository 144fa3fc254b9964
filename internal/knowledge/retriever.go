// Package knowledge retrieves evidence-based content (CBT exercises,
// psychoeducation, crisis protocols) from a vector knowledge base.
package knowledge

import "context"

// Snippet is one piece of retrieved knowledge-base content.
type Snippet struct {
	Title    string  `json:"title"`
	Content  string  `json:"content"`
	Category string  `json:"category"`
	Source   string  `json:"source"`
	Score    float64 `json:"score"`
}

// Retriever performs semantic search over the knowledge base. An empty
// result is not an error; only transport or query failures are.
type Retriever interface {
	Retrieve(ctx context.Context, query, category string, limit int) ([]Snippet, error)
}
