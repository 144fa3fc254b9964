package knowledge

import (
	"context"
	"fmt"

	"github.com/weaviate/weaviate/entities/models"
)

// classSchema returns the Weaviate class definition for the resource corpus.
func (w *Weaviate) classSchema() *models.Class {
	indexFilterable := new(bool)
	*indexFilterable = true

	return &models.Class{
		Class:       w.className,
		Description: "Mental health support content: exercises, psychoeducation and crisis protocols",
		Vectorizer:  "text2vec-transformers",
		ModuleConfig: map[string]interface{}{
			"text2vec-transformers": map[string]interface{}{
				"vectorizeClassName": false,
			},
		},
		Properties: []*models.Property{
			{
				Name:         "title",
				DataType:     []string{"text"},
				Tokenization: "word",
			},
			{
				Name:         "content",
				DataType:     []string{"text"},
				Tokenization: "word",
			},
			{
				Name:            "category",
				DataType:        []string{"text"},
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
				ModuleConfig: map[string]interface{}{
					"text2vec-transformers": map[string]interface{}{
						"skip": true,
					},
				},
			},
			{
				Name:         "source",
				DataType:     []string{"text"},
				Tokenization: "field",
				ModuleConfig: map[string]interface{}{
					"text2vec-transformers": map[string]interface{}{
						"skip": true,
					},
				},
			},
		},
	}
}

// EnsureSchema creates the resource class if it does not exist. Idempotent.
func (w *Weaviate) EnsureSchema(ctx context.Context) error {
	_, err := w.client.Schema().ClassGetter().WithClassName(w.className).Do(ctx)
	if err == nil {
		w.log.Debug().Str("class", w.className).Msg("schema already present")
		return nil
	}

	if err := w.client.Schema().ClassCreator().WithClass(w.classSchema()).Do(ctx); err != nil {
		return fmt.Errorf("creating class %s: %w", w.className, err)
	}
	w.log.Info().Str("class", w.className).Msg("schema created")
	return nil
}

// Seed imports snippets into the class. Intended for bootstrapping a fresh
// instance with the builtin corpus.
func (w *Weaviate) Seed(ctx context.Context, snippets []Snippet) error {
	if err := w.EnsureSchema(ctx); err != nil {
		return err
	}

	for _, s := range snippets {
		_, err := w.client.Data().Creator().
			WithClassName(w.className).
			WithProperties(map[string]any{
				"title":    s.Title,
				"content":  s.Content,
				"category": s.Category,
				"source":   s.Source,
			}).
			Do(ctx)
		if err != nil {
			return fmt.Errorf("seeding %q: %w", s.Title, err)
		}
	}
	w.log.Info().Int("count", len(snippets)).Msg("corpus seeded")
	return nil
}
