package ai

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/creative-compliance/internal/compliance"
	"github.com/jonathan/creative-compliance/internal/llm"
	"github.com/jonathan/creative-compliance/internal/rulebook"
	"github.com/jonathan/creative-compliance/internal/types"
)

type reply struct {
	text string
	err  error
}

// fakeClient answers every request from a queue of replies
type fakeClient struct {
	replies []reply
	prompts []string
	images  [][]llm.Image
	opts    []llm.Options
}

func (f *fakeClient) next(prompt string, images []llm.Image, opts llm.Options) (string, error) {
	f.prompts = append(f.prompts, prompt)
	f.images = append(f.images, images)
	f.opts = append(f.opts, opts)
	if len(f.replies) == 0 {
		return "", errors.New("no scripted reply")
	}
	r := f.replies[0]
	f.replies = f.replies[1:]
	return r.text, r.err
}

func (f *fakeClient) GenerateContent(ctx context.Context, prompt string, opts llm.Options) (string, error) {
	return f.next(prompt, nil, opts)
}

func (f *fakeClient) GenerateJSON(ctx context.Context, prompt string, opts llm.Options) (string, error) {
	return f.next(prompt, nil, opts)
}

func (f *fakeClient) GenerateVision(ctx context.Context, prompt string, images []llm.Image, opts llm.Options) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return f.next(prompt, images, opts)
}

func (f *fakeClient) GetModel(tier llm.ModelTier) string { return "fake" }
func (f *fakeClient) Close() error                       { return nil }

func replies(texts ...string) []reply {
	out := make([]reply, len(texts))
	for i, t := range texts {
		out[i] = reply{text: t}
	}
	return out
}

func pngImage(t *testing.T) Image {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 200, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return Image{Data: buf.Bytes()}
}

const productJSON = `{"productName":"Sugar free Cola","brand":"Fizz","category":"Food and Drink","isAlcohol":false,
"packagingColors":["#FF0000","red","#00ff00","#0000FF","#111111","#222222","#333333"],
"dominantColor":"#ff0000","suggestedBackground":"#FFFFFF","suggestedAccent":"nope","suggestedTextColor":"#000000","confidence":1.4}`

func TestNormalizeCategory(t *testing.T) {
	tests := []struct {
		in   string
		want Category
	}{
		{"Food & Drink", CategoryFoodDrink},
		{"health and beauty", CategoryHealthBeauty},
		{"FROZEN", CategoryFrozen},
		{"Health&Beauty", CategoryHealthBeauty},
		{"Electronics", CategoryFoodDrink},
		{"", CategoryFoodDrink},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeCategory(tt.in))
		})
	}
}

func TestAnalyzeProductImage_NormalizesResponse(t *testing.T) {
	client := &fakeClient{replies: replies("Here is the analysis:\n```json\n" + productJSON + "\n```")}
	o := New(client)

	p, err := o.AnalyzeProductImage(context.Background(), pngImage(t))
	require.NoError(t, err)

	assert.False(t, p.Fallback)
	assert.Equal(t, "Zero Sugar Cola", p.ProductName)
	assert.Equal(t, CategoryFoodDrink, p.Category)
	assert.Equal(t, []string{"#FF0000", "#00FF00", "#0000FF", "#111111", "#222222"}, p.PackagingColors)
	assert.Equal(t, "#FF0000", p.DominantColor)
	assert.Equal(t, rulebook.ColorTescoBlue, p.SuggestedAccent)
	assert.Equal(t, 1.0, p.Confidence)

	require.Len(t, client.images, 1)
	assert.Equal(t, "image/png", client.images[0][0].MIMEType)
	assert.Contains(t, client.prompts[0], "packshot")
	assert.Equal(t, llm.TierStandard, client.opts[0].Tier)
}

func TestAnalyzeProductImage_AlcoholCategorySetsFlag(t *testing.T) {
	client := &fakeClient{replies: replies(`{"productName":"Red Wine","category":"alcohol","isAlcohol":false}`)}

	p, err := New(client).AnalyzeProductImage(context.Background(), pngImage(t))
	require.NoError(t, err)

	assert.Equal(t, CategoryAlcohol, p.Category)
	assert.True(t, p.IsAlcohol)
}

func TestAnalyzeProductImage_FallbackOnGarbage(t *testing.T) {
	client := &fakeClient{replies: replies("I cannot see a product.")}

	p, err := New(client).AnalyzeProductImage(context.Background(), pngImage(t))
	require.NoError(t, err)

	assert.True(t, p.Fallback)
	assert.Equal(t, FallbackProduct(), p)
}

func TestAnalyzeProductImage_FallbackOnFatal(t *testing.T) {
	client := &fakeClient{replies: []reply{{err: &llm.RemoteError{Kind: llm.KindFatal, StatusCode: 403}}}}

	p, err := New(client).AnalyzeProductImage(context.Background(), pngImage(t))
	require.NoError(t, err)
	assert.True(t, p.Fallback)
}

func TestAnalyzeProductImage_NoKeys(t *testing.T) {
	_, err := New(nil).AnalyzeProductImage(context.Background(), pngImage(t))
	assert.ErrorIs(t, err, llm.ErrNoKeys)

	client := &fakeClient{replies: []reply{{err: llm.ErrNoKeys}}}
	_, err = New(client).AnalyzeProductImage(context.Background(), pngImage(t))
	assert.ErrorIs(t, err, llm.ErrNoKeys)
}

func TestAnalyzeProductImage_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(&fakeClient{}).AnalyzeProductImage(ctx, pngImage(t))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAnalyzeProductImage_RejectsNonImage(t *testing.T) {
	_, err := New(&fakeClient{}).AnalyzeProductImage(context.Background(), Image{Data: []byte("hello")})

	var inputErr *InputError
	require.ErrorAs(t, err, &inputErr)
	assert.Equal(t, "image", inputErr.Field)
}

func TestDetectPeople_Gate(t *testing.T) {
	tests := []struct {
		name     string
		response string
		gate     bool
		fallback bool
	}{
		{"confident person", `{"containsPeople":true,"confidence":0.8,"description":"a hand"}`, true, false},
		{"low confidence", `{"containsPeople":true,"confidence":0.4}`, false, false},
		{"at threshold", `{"containsPeople":true,"confidence":0.5}`, false, false},
		{"no people", `{"containsPeople":false,"confidence":0.99}`, false, false},
		{"missing field", `{"confidence":0.9}`, true, true},
		{"unparseable", `maybe`, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeClient{replies: replies(tt.response)}

			r, err := New(client).DetectPeople(context.Background(), pngImage(t))
			require.NoError(t, err)

			assert.Equal(t, tt.gate, PeopleGate(r))
			assert.Equal(t, tt.fallback, r.Fallback)
			assert.Equal(t, llm.TierLite, client.opts[0].Tier)
		})
	}
}

const variantsJSON = `{"backgrounds":["#abc","nope"],"variants":[
{"tone":"premium","headline":"Sugar free refreshment","subheadline":"Chilled and crisp","priceType":"new",
 "backgroundColor":"#101010","textColor":"#FFFFFF","accentColor":"#C8A951",
 "layout":{"packshot":{"x":1.5,"y":-0.2},"headline":{"x":0.5,"y":0.1}}},
{"tone":"premium","headline":"Just £1.99","priceType":"clubcard","tag":"Buy now","backgroundColor":"blue"},
{"tone":"value","headline":"Great Taste","subheadline":"Win a prize","priceType":"bogus"}
]}`

func fixedClock(times ...time.Time) func() time.Time {
	i := 0
	return func() time.Time {
		t := times[i]
		if i < len(times)-1 {
			i++
		}
		return t
	}
}

func TestGenerateAutonomousCreative_NormalizesAndPads(t *testing.T) {
	client := &fakeClient{replies: replies(
		`{"productName":"Cola","category":"Food&Drink","isAlcohol":false,"suggestedBackground":"#FFFFFF"}`,
		variantsJSON,
	)}
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	o := New(client, WithClock(fixedClock(t0, t0.Add(1500*time.Millisecond))))

	res, err := o.GenerateAutonomousCreative(context.Background(), CreativeRequest{Image: pngImage(t), UserPrompt: "summer picnic"})
	require.NoError(t, err)

	assert.False(t, res.Fallback)
	assert.Equal(t, int64(1500), res.GenerationTimeMs)
	assert.Equal(t, []string{"#ABC"}, res.Backgrounds)
	assert.Contains(t, client.prompts[1], "summer picnic")
	assert.Contains(t, client.prompts[1], "Product: Cola")
	require.Len(t, res.Variants, VariantCount)

	tones := make([]string, 0, VariantCount)
	for i, v := range res.Variants {
		tones = append(tones, v.Tone)
		assert.Equal(t, variantID(i), v.ID)
		assert.True(t, compliance.IsClean(v.Headline+" "+v.Subheadline+" "+v.Tag), v.ID)
		assert.NoError(t, validator.New().Struct(v))
	}
	assert.Equal(t, []string{"premium", "bold", "value", "friendly", "seasonal"}, tones)

	first := res.Variants[0]
	assert.Equal(t, "Zero Sugar refreshment", first.Headline)
	assert.Equal(t, types.PriceNew, first.PriceType)
	assert.Equal(t, types.Point{X: 1, Y: 0}, first.Layout.Packshot)
	assert.Equal(t, DefaultLayout.Tag, first.Layout.Tag)

	second := res.Variants[1]
	assert.Equal(t, rulebook.FallbackCopy(types.PriceClubcard).Headline, second.Headline)
	assert.Regexp(t, rulebook.ClubcardTagPattern, second.Tag)
	assert.Equal(t, rulebook.ColorNewRed, second.BackgroundColor)

	third := res.Variants[2]
	assert.Equal(t, types.PriceWhite, third.PriceType)
	assert.Equal(t, "Great Taste", third.Headline)
	assert.Equal(t, rulebook.FallbackCopy(types.PriceWhite).Subheadline, third.Subheadline)

	assert.Equal(t, FallbackVariant(4, "seasonal", ""), res.Variants[4])
}

func TestNormalizeVariant_ProhibitedCopyFallsBack(t *testing.T) {
	fb := rulebook.FallbackCopy(types.PriceWhite)

	v := normalizeVariant(rawVariant{Headline: "Win a prize today", Subheadline: "Quality guaranteed", PriceType: "white"}, 0, "value", "")

	assert.Equal(t, fb.Headline, v.Headline)
	assert.Equal(t, fb.Subheadline, v.Subheadline)

	v = normalizeVariant(rawVariant{Headline: "Fat free yoghurt", Subheadline: "Free range eggs", Tag: "Free delivery", PriceType: "white"}, 0, "value", "")

	assert.Equal(t, "Low Fat yoghurt", v.Headline)
	assert.Equal(t, "Farm Fresh eggs", v.Subheadline)
	assert.Equal(t, "delivery", v.Tag)
}

func TestGenerateAutonomousCreative_FallbackVariants(t *testing.T) {
	client := &fakeClient{replies: []reply{
		{text: `{"productName":"Lager","category":"Alcohol"}`},
		{err: errors.New("upstream timeout")},
	}}

	res, err := New(client).GenerateAutonomousCreative(context.Background(), CreativeRequest{Image: pngImage(t)})
	require.NoError(t, err)

	assert.True(t, res.Fallback)
	assert.True(t, res.IsAlcohol)
	assert.Equal(t, FallbackVariants(VariantCount, ""), res.Variants)
	assert.Equal(t, []string{rulebook.ColorWhite, rulebook.ColorTescoBlue}, res.Backgrounds)
}

func TestGenerateAutonomousCreative_NoKeys(t *testing.T) {
	_, err := New(nil).GenerateAutonomousCreative(context.Background(), CreativeRequest{Image: pngImage(t)})
	assert.ErrorIs(t, err, llm.ErrNoKeys)
}

func TestGenerateCopySuggestions_DropsProhibitedAndPads(t *testing.T) {
	client := &fakeClient{replies: replies(`{"suggestions":["Fresh Taste Daily",
{"headline":"Win Big Today","subheadline":"Guaranteed joy"},"fresh taste daily","£3 Deal"]}`)}

	res, err := New(client).GenerateCopySuggestions(context.Background(), CopyRequest{ProductName: "Oat Milk", Format: "instagram-feed"})
	require.NoError(t, err)

	require.Len(t, res.Suggestions, 3)
	assert.False(t, res.Fallback)
	assert.Equal(t, "Fresh Taste Daily", res.Suggestions[0].Headline)
	assert.Equal(t, FallbackSuggestions("friendly")[:2], res.Suggestions[1:])
	for _, s := range res.Suggestions {
		assert.Equal(t, "friendly", s.Tone)
		assert.True(t, compliance.IsClean(s.Headline))
	}
	assert.Contains(t, client.prompts[0], "Product: Oat Milk")
}

func TestGenerateCopySuggestions_Fallback(t *testing.T) {
	client := &fakeClient{replies: replies(`{"suggestions":["Free prize","Only £2"]}`)}

	res, err := New(client).GenerateCopySuggestions(context.Background(), CopyRequest{ProductName: "Oat Milk", Tone: "bold"})
	require.NoError(t, err)

	assert.True(t, res.Fallback)
	assert.Equal(t, FallbackSuggestions("bold"), res.Suggestions)
}

func TestGenerateCopySuggestions_RequiresProduct(t *testing.T) {
	_, err := New(&fakeClient{}).GenerateCopySuggestions(context.Background(), CopyRequest{})

	var inputErr *InputError
	assert.ErrorAs(t, err, &inputErr)
}

func TestGenerateCompleteCampaign_ForcesPriceType(t *testing.T) {
	client := &fakeClient{replies: replies(`{"campaign":{"name":"Free Summer Fest","objective":"Grow trial","audience":"Families","keyMessage":"Best ever oats"},
"variants":[{"tone":"bold","headline":"Oat Season","priceType":"new"},{"tone":"friendly","headline":"Morning Made Easy"}]}`)}

	res, err := New(client).GenerateCompleteCampaign(context.Background(), CampaignRequest{
		ProductName: "Oat Milk", Category: "food & drink", PriceType: "CLUBCARD", VariantCount: 3,
		Formats: []string{"instagram-feed", "instagram-story"},
	})
	require.NoError(t, err)

	assert.False(t, res.Fallback)
	assert.Equal(t, "Summer Fest", res.Campaign.Name)
	assert.Equal(t, rulebook.FallbackCopy(types.PriceClubcard).Headline, res.Campaign.KeyMessage)
	assert.Equal(t, "Grow trial", res.Campaign.Objective)
	require.Len(t, res.Variants, 3)
	for _, v := range res.Variants {
		assert.Equal(t, types.PriceClubcard, v.PriceType)
		assert.Regexp(t, rulebook.ClubcardTagPattern, v.Tag)
	}
	assert.Equal(t, "Oat Season", res.Variants[0].Headline)
	assert.Contains(t, client.prompts[0], "Category: Food&Drink")
	assert.Contains(t, client.prompts[0], "Formats: instagram-feed, instagram-story")
}

func TestGenerateCompleteCampaign_FallbackWithoutCampaign(t *testing.T) {
	client := &fakeClient{replies: replies(`{"variants":[]}`)}

	res, err := New(client).GenerateCompleteCampaign(context.Background(), CampaignRequest{ProductName: "Oat Milk"})
	require.NoError(t, err)

	assert.True(t, res.Fallback)
	assert.Equal(t, "Oat Milk Campaign", res.Campaign.Name)
	assert.Len(t, res.Variants, VariantCount)
}

func TestGenerateCompleteCampaign_UnknownPriceType(t *testing.T) {
	_, err := New(&fakeClient{}).GenerateCompleteCampaign(context.Background(), CampaignRequest{ProductName: "x", PriceType: "half"})

	var inputErr *InputError
	require.ErrorAs(t, err, &inputErr)
	assert.Equal(t, "priceType", inputErr.Field)
}

func TestFallbackVariants_Compliant(t *testing.T) {
	v := validator.New()
	vs := FallbackVariants(10, "")

	require.Len(t, vs, len(Tones))
	for _, variant := range vs {
		assert.NoError(t, v.Struct(variant))
		assert.True(t, acceptableCopy(variant.Headline))
		assert.True(t, acceptableCopy(variant.Subheadline))
		if variant.PriceType == types.PriceClubcard {
			assert.Regexp(t, rulebook.ClubcardTagPattern, variant.Tag)
		} else {
			assert.Empty(t, variant.Tag)
		}
	}
}

func TestClamp01(t *testing.T) {
	assert.Equal(t, 0.0, clamp01(-3))
	assert.Equal(t, 1.0, clamp01(7))
	assert.Equal(t, 0.25, clamp01(0.25))
}
