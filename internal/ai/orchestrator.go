package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/creative-compliance/internal/llm"
	"github.com/jonathan/creative-compliance/internal/observability"
	"github.com/jonathan/creative-compliance/internal/prompts"
	"github.com/jonathan/creative-compliance/internal/render"
	"github.com/jonathan/creative-compliance/internal/rulebook"
	"github.com/jonathan/creative-compliance/internal/schemas"
	"github.com/jonathan/creative-compliance/internal/types"
)

const promptFile = "creative.json"

// Operation names used in logs and metrics
const (
	OpAnalyzeProduct     = "analyze_product"
	OpDetectPeople       = "detect_people"
	OpAutonomousCreative = "autonomous_creative"
	OpCopySuggestions    = "copy_suggestions"
	OpCompleteCampaign   = "complete_campaign"
)

// PeopleConfidenceThreshold is the confidence above which detected people need confirmation
const PeopleConfidenceThreshold = 0.5

// PeopleGate reports whether the user must confirm before an image is used.
// A failed detection also requires confirmation.
func PeopleGate(r PeopleDetection) bool {
	return r.Fallback || (r.ContainsPeople && r.Confidence > PeopleConfidenceThreshold)
}

// Orchestrator runs the creative assistant operations against a model client
type Orchestrator struct {
	client   llm.Client
	validate *validator.Validate
	log      *observability.Logger
	now      func() time.Time
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithLogger sets the orchestrator logger
func WithLogger(l *observability.Logger) Option {
	return func(o *Orchestrator) { o.log = observability.OrNop(l) }
}

// WithClock replaces the time source used for generation timings
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// New creates an orchestrator. A nil client behaves like an empty key pool.
func New(client llm.Client, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		client:   client,
		validate: validator.New(),
		log:      observability.Nop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// outcome records a model failure and decides whether the caller gets a fallback.
// Only an empty key pool and cancellation are returned as errors.
func (o *Orchestrator) outcome(ctx context.Context, op string, err error) error {
	if err == nil {
		observability.AICalls.WithLabelValues(op, "ok").Inc()
		return nil
	}
	if errors.Is(err, llm.ErrNoKeys) {
		observability.AICalls.WithLabelValues(op, "error").Inc()
		return err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		observability.AICalls.WithLabelValues(op, "error").Inc()
		return ctxErr
	}
	observability.AICalls.WithLabelValues(op, "fallback").Inc()
	o.log.Warn("using fallback", "operation", op, "error", err)
	return nil
}

func (o *Orchestrator) available() error {
	if o.client == nil {
		return llm.ErrNoKeys
	}
	return nil
}

func (o *Orchestrator) prompt(key string, data map[string]string, schema llm.ExtractionSchema, input string) string {
	if text, err := prompts.Render(promptFile, key, data); err == nil {
		schema = schema.WithDescription(text)
	} else {
		o.log.Warn("prompt template missing", "key", key, "error", err)
	}
	return llm.BuildExtractionPrompt(schema, input)
}

// decodeJSON parses a model response, tolerating a code fence and text around the object
func decodeJSON(raw string, v any) error {
	text := llm.CleanJSONBlock(raw)
	err := json.Unmarshal([]byte(text), v)
	if err == nil {
		return nil
	}
	if obj := llm.ExtractJSONObject(raw); obj != "" {
		if err2 := json.Unmarshal([]byte(obj), v); err2 == nil {
			return nil
		}
	}
	return fmt.Errorf("unparseable model response: %w", err)
}

func (o *Orchestrator) checkSchema(name schemas.Name, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return schemas.Validate(name, data)
}

func visionImage(img Image) ([]llm.Image, error) {
	if len(img.Data) == 0 {
		return nil, &InputError{Field: "image", Message: "empty image"}
	}
	mime, ok := render.DetectImage(img.Data)
	if !ok {
		return nil, &InputError{Field: "image", Message: fmt.Sprintf("unsupported image type %s", mime)}
	}
	return []llm.Image{{MIMEType: mime, Data: img.Data}}, nil
}

// AnalyzeProductImage identifies the product in a packshot
func (o *Orchestrator) AnalyzeProductImage(ctx context.Context, img Image) (ProductAnalysis, error) {
	images, err := visionImage(img)
	if err != nil {
		return ProductAnalysis{}, err
	}
	result, err := o.analyzeProduct(ctx, images)
	if err = o.outcome(ctx, OpAnalyzeProduct, err); err != nil {
		return ProductAnalysis{}, err
	}
	return result, nil
}

func (o *Orchestrator) analyzeProduct(ctx context.Context, images []llm.Image) (ProductAnalysis, error) {
	fallback := FallbackProduct()
	if err := o.available(); err != nil {
		return fallback, err
	}
	prompt := o.prompt("analyze-product", nil, llm.ProductAnalysisSchema(), "")
	raw, err := o.client.GenerateVision(ctx, prompt, images, llm.Options{Tier: llm.TierStandard, Temperature: 0.2})
	if err != nil {
		return fallback, err
	}
	var p ProductAnalysis
	if err := decodeJSON(raw, &p); err != nil {
		return fallback, err
	}
	p = normalizeProduct(p)
	if err := o.checkSchema(schemas.ProductAnalysis, p); err != nil {
		return fallback, err
	}
	if err := o.validate.Struct(p); err != nil {
		return fallback, err
	}
	return p, nil
}

// DetectPeople reports whether an image shows people. Use PeopleGate on the result.
func (o *Orchestrator) DetectPeople(ctx context.Context, img Image) (PeopleDetection, error) {
	images, err := visionImage(img)
	if err != nil {
		return PeopleDetection{}, err
	}
	result, err := o.detectPeople(ctx, images)
	if err = o.outcome(ctx, OpDetectPeople, err); err != nil {
		return PeopleDetection{}, err
	}
	return result, nil
}

func (o *Orchestrator) detectPeople(ctx context.Context, images []llm.Image) (PeopleDetection, error) {
	fallback := FallbackPeople()
	if err := o.available(); err != nil {
		return fallback, err
	}
	prompt := o.prompt("detect-people", nil, llm.PeopleDetectionSchema(), "")
	raw, err := o.client.GenerateVision(ctx, prompt, images, llm.Options{Tier: llm.TierLite, Temperature: 0.1})
	if err != nil {
		return fallback, err
	}
	var p PeopleDetection
	if err := decodeJSON(raw, &p); err != nil {
		return fallback, err
	}
	if err := schemas.Validate(schemas.PeopleDetection, []byte(llm.CleanJSONBlock(raw))); err != nil {
		return fallback, err
	}
	return normalizePeople(p), nil
}

type variantsResponse struct {
	Campaign    *Campaign    `json:"campaign"`
	Backgrounds []string     `json:"backgrounds"`
	Variants    []rawVariant `json:"variants"`
}

// buildVariants normalizes up to n model variants and pads the rest from fallbacks
func (o *Orchestrator) buildVariants(raws []rawVariant, n int, forced types.PriceType) []types.Variant {
	tones := assignTones(raws, n)
	out := make([]types.Variant, n)
	for i := 0; i < n; i++ {
		if i >= len(raws) {
			out[i] = FallbackVariant(i, tones[i], forced)
			continue
		}
		v := normalizeVariant(raws[i], i, tones[i], forced)
		if err := o.validate.Struct(v); err != nil {
			o.log.Warn("variant failed validation", "tone", tones[i], "error", err)
			v = FallbackVariant(i, tones[i], forced)
		}
		out[i] = v
	}
	return out
}

func (o *Orchestrator) checkVariants(vs []types.Variant) error {
	return o.checkSchema(schemas.Variants, map[string]any{"variants": vs})
}

func productContext(p ProductAnalysis) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Product: %s\n", p.ProductName)
	if p.Brand != "" {
		fmt.Fprintf(&sb, "Brand: %s\n", p.Brand)
	}
	fmt.Fprintf(&sb, "Category: %s\n", p.Category)
	fmt.Fprintf(&sb, "Alcohol: %t\n", p.IsAlcohol)
	if len(p.PackagingColors) > 0 {
		fmt.Fprintf(&sb, "Packaging colors: %s\n", strings.Join(p.PackagingColors, ", "))
	}
	return sb.String()
}

func backgroundsFor(raw []string, p ProductAnalysis) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(c string) {
		if c = colorOr(c, ""); c != "" && !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	for _, c := range raw {
		add(c)
	}
	if len(out) == 0 {
		add(p.SuggestedBackground)
		add(rulebook.ColorWhite)
		add(rulebook.ColorTescoBlue)
	}
	return out
}

// GenerateAutonomousCreative analyzes the product photo and proposes five variants
func (o *Orchestrator) GenerateAutonomousCreative(ctx context.Context, req CreativeRequest) (CreativeResult, error) {
	start := o.now()
	images, err := visionImage(req.Image)
	if err != nil {
		return CreativeResult{}, err
	}
	product, err := o.AnalyzeProductImage(ctx, req.Image)
	if err != nil {
		return CreativeResult{}, err
	}

	result := CreativeResult{Product: product}
	resp, genErr := o.generateVariants(ctx, req, product, images)
	if err := o.outcome(ctx, OpAutonomousCreative, genErr); err != nil {
		return CreativeResult{}, err
	}
	if genErr != nil {
		result.Variants = FallbackVariants(VariantCount, "")
		result.Fallback = true
	} else {
		result.Variants = resp.variants
	}
	result.Backgrounds = backgroundsFor(resp.backgrounds, product)
	result.IsAlcohol = product.IsAlcohol || product.Category == CategoryAlcohol
	result.GenerationTimeMs = o.now().Sub(start).Milliseconds()
	return result, nil
}

type generated struct {
	backgrounds []string
	variants    []types.Variant
}

func (o *Orchestrator) generateVariants(ctx context.Context, req CreativeRequest, product ProductAnalysis, images []llm.Image) (generated, error) {
	if err := o.available(); err != nil {
		return generated{}, err
	}
	mood := strings.TrimSpace(req.Mood)
	if mood == "" {
		mood = "bright and appetising"
	}
	prompt := o.prompt("autonomous-creative", map[string]string{
		"UserPrompt": strings.TrimSpace(req.UserPrompt),
		"Mood":       mood,
	}, llm.CreativeVariantsSchema(), productContext(product))

	raw, err := o.client.GenerateVision(ctx, prompt, images, llm.Options{Tier: llm.TierAdvanced, Temperature: 0.8, MaxOutputTokens: 4096})
	if err != nil {
		return generated{}, err
	}
	var resp variantsResponse
	if err := decodeJSON(raw, &resp); err != nil {
		return generated{}, err
	}
	variants := o.buildVariants(resp.Variants, VariantCount, "")
	if err := o.checkVariants(variants); err != nil {
		return generated{}, err
	}
	return generated{backgrounds: resp.Backgrounds, variants: variants}, nil
}

type copyResponse struct {
	Suggestions []json.RawMessage `json:"suggestions"`
}

// GenerateCopySuggestions proposes three compliant headlines
func (o *Orchestrator) GenerateCopySuggestions(ctx context.Context, req CopyRequest) (CopyResult, error) {
	if err := o.validate.Struct(req); err != nil {
		return CopyResult{}, &InputError{Field: "productName", Message: "product name is required"}
	}
	suggestions, genErr := o.generateCopy(ctx, req)
	if err := o.outcome(ctx, OpCopySuggestions, genErr); err != nil {
		return CopyResult{}, err
	}
	if genErr != nil {
		return CopyResult{Suggestions: FallbackSuggestions(req.Tone), Fallback: true}, nil
	}
	return CopyResult{Suggestions: suggestions}, nil
}

func (o *Orchestrator) generateCopy(ctx context.Context, req CopyRequest) ([]CopySuggestion, error) {
	if err := o.available(); err != nil {
		return nil, err
	}
	tone := strings.TrimSpace(req.Tone)
	if tone == "" {
		tone = "friendly"
	}
	prompt := o.prompt("copy-suggestions", map[string]string{
		"ProductName": strings.TrimSpace(req.ProductName),
		"Tone":        tone,
		"Format":      req.Format,
	}, llm.CopySuggestionsSchema(), "")

	raw, err := o.client.GenerateJSON(ctx, prompt, llm.Options{Tier: llm.TierStandard, Temperature: 0.9})
	if err != nil {
		return nil, err
	}
	var resp copyResponse
	if err := decodeJSON(raw, &resp); err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var out []CopySuggestion
	for _, item := range resp.Suggestions {
		s, ok := parseSuggestion(item)
		if !ok {
			continue
		}
		s.Headline = rewriteCopy(s.Headline)
		if !acceptableCopy(s.Headline) || seen[strings.ToLower(s.Headline)] {
			continue
		}
		s.Subheadline = rewriteCopy(s.Subheadline)
		if !acceptableCopy(s.Subheadline) {
			s.Subheadline = ""
		}
		s.Tone = tone
		seen[strings.ToLower(s.Headline)] = true
		out = append(out, s)
		if len(out) == 3 {
			break
		}
	}
	if len(out) == 0 {
		return nil, errors.New("no usable suggestions")
	}
	for _, fb := range FallbackSuggestions(tone) {
		if len(out) == 3 {
			break
		}
		if !seen[strings.ToLower(fb.Headline)] {
			out = append(out, fb)
		}
	}
	if err := o.checkSchema(schemas.CopySuggestions, map[string]any{"suggestions": out}); err != nil {
		return nil, err
	}
	return out, nil
}

// parseSuggestion accepts either a bare string or a suggestion object
func parseSuggestion(item json.RawMessage) (CopySuggestion, bool) {
	var text string
	if err := json.Unmarshal(item, &text); err == nil {
		return CopySuggestion{Headline: text}, true
	}
	var s CopySuggestion
	if err := json.Unmarshal(item, &s); err == nil {
		return s, true
	}
	return CopySuggestion{}, false
}

// GenerateCompleteCampaign plans a campaign and its variants
func (o *Orchestrator) GenerateCompleteCampaign(ctx context.Context, req CampaignRequest) (CampaignResult, error) {
	if err := o.validate.Struct(req); err != nil {
		return CampaignResult{}, &InputError{Field: "productName", Message: "product name is required"}
	}
	if req.PriceType != "" {
		price := normalizePriceType(string(req.PriceType), "")
		if price == "" {
			return CampaignResult{}, &InputError{Field: "priceType", Message: fmt.Sprintf("unknown price type %q", req.PriceType)}
		}
		req.PriceType = price
	}
	n := req.VariantCount
	if n <= 0 || n > VariantCount {
		n = VariantCount
	}

	result, genErr := o.generateCampaign(ctx, req, n)
	if err := o.outcome(ctx, OpCompleteCampaign, genErr); err != nil {
		return CampaignResult{}, err
	}
	if genErr != nil {
		return CampaignResult{
			Campaign: FallbackCampaign(req),
			Variants: FallbackVariants(n, req.PriceType),
			Fallback: true,
		}, nil
	}
	return result, nil
}

func (o *Orchestrator) generateCampaign(ctx context.Context, req CampaignRequest, n int) (CampaignResult, error) {
	if err := o.available(); err != nil {
		return CampaignResult{}, err
	}
	category := req.Category
	if category != "" {
		category = string(NormalizeCategory(category))
	}
	prompt := o.prompt("complete-campaign", map[string]string{
		"ProductName":  strings.TrimSpace(req.ProductName),
		"Category":     category,
		"Objective":    req.Objective,
		"Audience":     req.Audience,
		"Formats":      strings.Join(req.Formats, ", "),
		"VariantCount": strconv.Itoa(n),
	}, llm.CampaignSchema(), "")

	raw, err := o.client.GenerateJSON(ctx, prompt, llm.Options{Tier: llm.TierAdvanced, Temperature: 0.7, MaxOutputTokens: 4096})
	if err != nil {
		return CampaignResult{}, err
	}
	var resp variantsResponse
	if err := decodeJSON(raw, &resp); err != nil {
		return CampaignResult{}, err
	}
	if resp.Campaign == nil {
		return CampaignResult{}, errors.New("response has no campaign")
	}

	fb := FallbackCampaign(req)
	campaign := Campaign{
		Name:       copyOr(resp.Campaign.Name, fb.Name),
		Objective:  copyOr(resp.Campaign.Objective, fb.Objective),
		Audience:   copyOr(resp.Campaign.Audience, fb.Audience),
		KeyMessage: copyOr(resp.Campaign.KeyMessage, fb.KeyMessage),
	}
	variants := o.buildVariants(resp.Variants, n, req.PriceType)
	if err := o.checkVariants(variants); err != nil {
		return CampaignResult{}, err
	}
	return CampaignResult{Campaign: campaign, Variants: variants}, nil
}
