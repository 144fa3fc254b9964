package knowledge

import (
	"context"
	"fmt"
	"strings"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/havenproj/haven/internal/logging"
)

const defaultClassName = "MentalHealthResource"

// Weaviate implements Retriever backed by a Weaviate instance holding the
// mental health resource corpus.
type Weaviate struct {
	client    *weaviate.Client
	className string
	log       *logging.Logger
}

// NewWeaviate connects to a Weaviate instance. url accepts "host:port" or
// a full http(s) URL.
func NewWeaviate(url, className string, log *logging.Logger) (*Weaviate, error) {
	cfg := weaviate.Config{Host: url, Scheme: "http"}
	if strings.HasPrefix(url, "https://") {
		cfg.Host = strings.TrimPrefix(url, "https://")
		cfg.Scheme = "https"
	} else if strings.HasPrefix(url, "http://") {
		cfg.Host = strings.TrimPrefix(url, "http://")
	}

	client, err := weaviate.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating weaviate client: %w", err)
	}

	if className == "" {
		className = defaultClassName
	}
	return &Weaviate{client: client, className: className, log: log.Sub("knowledge")}, nil
}

// Retrieve performs a nearText semantic search, optionally filtered to a
// single category. limit <= 0 defaults to 3.
func (w *Weaviate) Retrieve(ctx context.Context, query, category string, limit int) ([]Snippet, error) {
	if query == "" {
		return nil, fmt.Errorf("query cannot be empty")
	}
	if limit <= 0 {
		limit = 3
	}

	nearText := w.client.GraphQL().NearTextArgBuilder().
		WithConcepts([]string{query})

	fields := []graphql.Field{
		{Name: "title"},
		{Name: "content"},
		{Name: "category"},
		{Name: "source"},
		{Name: "_additional { certainty }"},
	}

	q := w.client.GraphQL().Get().
		WithClassName(w.className).
		WithFields(fields...).
		WithNearText(nearText).
		WithLimit(limit)

	if category != "" {
		q = q.WithWhere(filters.Where().
			WithPath([]string{"category"}).
			WithOperator(filters.Equal).
			WithValueString(category))
	}

	result, err := q.Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("knowledge base search: %w", err)
	}
	if len(result.Errors) > 0 {
		return nil, fmt.Errorf("knowledge base search: %s", result.Errors[0].Message)
	}

	snippets := w.parse(result.Data)
	w.log.Debug().Str("query", query).Str("category", category).Int("count", len(snippets)).Msg("retrieved snippets")
	return snippets, nil
}

func (w *Weaviate) parse(data map[string]models.JSONObject) []Snippet {
	get, ok := data["Get"].(map[string]any)
	if !ok {
		return nil
	}
	objects, ok := get[w.className].([]any)
	if !ok {
		return nil
	}

	snippets := make([]Snippet, 0, len(objects))
	for _, obj := range objects {
		m, ok := obj.(map[string]any)
		if !ok {
			continue
		}
		s := Snippet{
			Title:    getString(m, "title"),
			Content:  getString(m, "content"),
			Category: getString(m, "category"),
			Source:   getString(m, "source"),
		}
		if additional, ok := m["_additional"].(map[string]any); ok {
			if certainty, ok := additional["certainty"].(float64); ok {
				s.Score = certainty
			}
		}
		if s.Content == "" {
			continue
		}
		snippets = append(snippets, s)
	}
	return snippets
}

func getString(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}
