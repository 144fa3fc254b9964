package knowledge

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/havenproj/haven/internal/logging"
)

func TestWeaviateParseGraphQLResponse(t *testing.T) {
	w := &Weaviate{className: defaultClassName, log: logging.New(io.Discard, "silent")}

	data := map[string]models.JSONObject{
		"Get": map[string]any{
			defaultClassName: []any{
				map[string]any{
					"title":       "Grounding Techniques",
					"content":     "Name five things you can see around you.",
					"category":    CategoryCBT,
					"source":      "coping-library",
					"_additional": map[string]any{"certainty": 0.92},
				},
				map[string]any{
					// empty content is dropped
					"title":   "Blank",
					"content": "",
				},
			},
		},
	}

	snippets := w.parse(data)
	require.Len(t, snippets, 1)
	assert.Equal(t, "Grounding Techniques", snippets[0].Title)
	assert.Equal(t, CategoryCBT, snippets[0].Category)
	assert.Equal(t, 0.92, snippets[0].Score)
}

func TestWeaviateParseMalformedShapes(t *testing.T) {
	w := &Weaviate{className: defaultClassName, log: logging.New(io.Discard, "silent")}

	assert.Empty(t, w.parse(map[string]models.JSONObject{}))
	assert.Empty(t, w.parse(map[string]models.JSONObject{"Get": "not-a-map"}))
	assert.Empty(t, w.parse(map[string]models.JSONObject{
		"Get": map[string]any{"OtherClass": []any{}},
	}))
}
