package search

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-library-management/internal/domain/entity"
)

func TestHitIDsKeepRankOrder(t *testing.T) {
	body := `{"hits":{"total":{"value":3},"hits":[
		{"_index":"books","_id":"42","_score":3.1},
		{"_index":"books","_id":"7","_score":2.4},
		{"_index":"books","_id":"19","_score":0.9}]}}`

	ids, err := hitIDs(strings.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, []int64{42, 7, 19}, ids)
}

func TestHitIDsRejectsForeignDocuments(t *testing.T) {
	_, err := hitIDs(strings.NewReader(`{"hits":{"hits":[{"_id":"not-a-book"}]}}`))
	assert.Error(t, err)

	ids, err := hitIDs(strings.NewReader(`{"hits":{"hits":[]}}`))
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestSearchBodyAsksOnlyForIDs(t *testing.T) {
	body, err := searchBody("borges", 60)
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(body, &parsed))
	assert.EqualValues(t, 60, parsed["size"])
	assert.Equal(t, false, parsed["_source"])

	body, err = searchBody("borges", 0)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(body, &parsed))
	assert.EqualValues(t, defaultSize, parsed["size"])
}

func TestDocumentOmitsCopyCounts(t *testing.T) {
	doc, err := json.Marshal(documentOf(&entity.Book{ID: 3, Title: "Aura", Author: "Fuentes", TotalCopies: 5, AvailableCopies: 2}))
	require.NoError(t, err)
	assert.NotContains(t, string(doc), "copies")
	assert.Contains(t, string(doc), `"title":"Aura"`)
}
