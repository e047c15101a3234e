package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const productReply = "```json\n" + `{
  "productName": "Zero Sugar Cola",
  "brand": "Fizz",
  "category": "Food&Drink",
  "packagingColors": ["#D00000", "#FFFFFF"],
  "suggestedBackground": "#00539F",
  "confidence": 0.92
}` + "\n```"

func TestCleanJSONBlock_ProductAnalysisReply(t *testing.T) {
	cleaned := CleanJSONBlock(productReply)

	var product struct {
		ProductName         string   `json:"productName"`
		Category            string   `json:"category"`
		PackagingColors     []string `json:"packagingColors"`
		SuggestedBackground string   `json:"suggestedBackground"`
		Confidence          float64  `json:"confidence"`
	}
	require.NoError(t, json.Unmarshal([]byte(cleaned), &product))
	assert.Equal(t, "Zero Sugar Cola", product.ProductName)
	assert.Equal(t, "Food&Drink", product.Category)
	assert.Equal(t, []string{"#D00000", "#FFFFFF"}, product.PackagingColors)
	assert.Equal(t, "#00539F", product.SuggestedBackground)
	assert.InDelta(t, 0.92, product.Confidence, 1e-9)
}

func TestCleanJSONBlock_ModelReplies(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "fenced without language",
			input: "```\n{\"suggestions\": [\"Fresh Taste Daily\"]}\n```",
			want:  `{"suggestions": ["Fresh Taste Daily"]}`,
		},
		{
			name:  "fenced with other language",
			input: "```javascript\n{\"peopleDetected\": false}\n```",
			want:  `{"peopleDetected": false}`,
		},
		{
			name:  "preamble before copy",
			input: "Here are three headlines for the oat milk launch:\n{\"suggestions\": [\"Morning Made Easy\"]}",
			want:  `{"suggestions": ["Morning Made Easy"]}`,
		},
		{
			name:  "trailing advice after campaign",
			input: "{\"campaign\": {\"name\": \"Summer Fest\"}}\n\nLet me know if you want a bolder tone!",
			want:  `{"campaign": {"name": "Summer Fest"}}`,
		},
		{
			name:  "bare background list",
			input: "Backgrounds:\n[\"#00539F\", \"#FFFFFF\"] work well with this pack.",
			want:  `["#00539F", "#FFFFFF"]`,
		},
		{
			name:  "braces and quotes inside copy",
			input: `{"headline": "Pick {any} 2", "subheadline": "The \"big\" shop}"}`,
			want:  `{"headline": "Pick {any} 2", "subheadline": "The \"big\" shop}"}`,
		},
		{
			name:  "refusal without json",
			input: "  I can't describe people in this image. ",
			want:  "I can't describe people in this image.",
		},
		{
			name:  "truncated reply left for the decoder",
			input: `{"variants": [{"tone": "bold"`,
			want:  `{"variants": [{"tone": "bold"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanJSONBlock(tt.input))
		})
	}
}

func TestExtractJSONObject_VariantReply(t *testing.T) {
	reply := `Sure, five variants: {"variants": [{"tone": "premium", "layout": {"packshot": {"x": 0.5, "y": 0.55}}}]} Enjoy!`

	assert.Equal(t, `{"variants": [{"tone": "premium", "layout": {"packshot": {"x": 0.5, "y": 0.55}}}]}`, ExtractJSONObject(reply))
	assert.Equal(t, "", ExtractJSONObject(`["#00539F"]`))
	assert.Equal(t, "", ExtractJSONObject(`{"variants": [`))
}

func TestExtractBalanced(t *testing.T) {
	assert.Equal(t, `[["#FFF"], ["#000"]]`, extractJSONArray(`[["#FFF"], ["#000"]] trailing`))
	assert.Equal(t, `{"tag": "Only at Tesco"}`, extractJSONObject(`{"tag": "Only at Tesco"}{"tag": "x"}`))
	assert.Equal(t, "", extractJSONObject(` {"tag": "x"}`))
	assert.Equal(t, "", extractJSONArray(""))
}
