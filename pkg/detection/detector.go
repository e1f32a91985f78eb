package detection

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/menta2k/fashion-search/pkg/catalog"
	"github.com/menta2k/fashion-search/pkg/client"
	"github.com/menta2k/fashion-search/pkg/cropper"
	"github.com/menta2k/fashion-search/pkg/processing"
	"github.com/menta2k/fashion-search/pkg/region"
	"github.com/menta2k/fashion-search/pkg/types"
)

// SimpleTestPrompt for testing if the model can see images
const SimpleTestPrompt = `What do you see in this image? Describe it briefly.`

const promptTemplate = `You are a fashion garment tagger. The image is a crop a shopper selected.

Return JSON only:
{
  "primary": {
    "label": "string",
    "confidence": 0.0,
    "box": {"x": 0.0, "y": 0.0, "w": 0.0, "h": 0.0}
  },
  "items": ["item"],
  "colors": ["color"],
  "styles": ["style"],
  "patterns": ["pattern"],
  "materials": ["material"],
  "description": "short neutral sentence (<= 20 words)"
}

HARD RULES
- "primary.label" is the single dominant garment, chosen from: %s.
- "items" lists every garment visible, most dominant first, from the same list.
- "colors" come from: %s.
- "styles" come from: %s.
- "patterns" come from: %s.
- "materials" come from: %s.
- Box coordinates are normalized to [0,1] (NOT pixels).
- Lowercase, at most 5 entries per list, no duplicates.
- If no garment is visible, return {"primary":{"label":"none","confidence":0.0,"box":{"x":0.25,"y":0.25,"w":0.5,"h":0.5}},"items":[],"colors":[],"styles":[],"patterns":[],"materials":[],"description":"no garment"}
- JSON only. No markdown, no code fences, no comments, no trailing commas.`

// MaxListEntries caps every descriptor list returned by a model
const MaxListEntries = 5

// Labels containing one of these mean the model gave up
var fallbackIndicators = []string{"unclear", "empty", "parse", "error", "fallback", "non-json", "generic", "no garment"}

// Analyzer is the contract shared with the heuristic stand-in
type Analyzer interface {
	Analyze(ctx context.Context, img image.Image, r region.ImageRegion) (types.Descriptors, error)
}

// Config controls how selections are sent to the model
type Config struct {
	Model       string
	SendSize    int
	SendQuality int
	Prompt      string
}

// Detector describes garments using a vision language model
type Detector struct {
	client    client.VisionClient
	config    Config
	fallback  Analyzer
	processor *processing.Processor
	log       logrus.FieldLogger
}

// NewDetector creates a new detector with a vision client. fallback, when
// non-nil, answers whenever the model fails or returns nothing usable.
func NewDetector(c client.VisionClient, config Config, fallback Analyzer) *Detector {
	if config.SendSize <= 0 {
		config.SendSize = 768
	}
	if config.SendQuality <= 0 {
		config.SendQuality = 85
	}
	if config.Prompt == "" {
		config.Prompt = BuildPrompt(catalog.Default())
	}
	return &Detector{
		client:    c,
		config:    config,
		fallback:  fallback,
		processor: processing.NewProcessor(),
		log:       logrus.StandardLogger(),
	}
}

// SetLogger replaces the logger used for fallback warnings
func (d *Detector) SetLogger(log logrus.FieldLogger) {
	if log != nil {
		d.log = log
	}
}

// BuildPrompt fills the prompt with the catalog's vocabularies
func BuildPrompt(cat *catalog.Catalog) string {
	names := make([]string, 0, len(cat.ItemTypes()))
	for _, it := range cat.ItemTypes() {
		names = append(names, it.Name)
	}
	return fmt.Sprintf(promptTemplate,
		strings.Join(names, ", "),
		strings.Join(cat.Colors(), ", "),
		strings.Join(cat.Styles(), ", "),
		strings.Join(cat.Patterns(), ", "),
		strings.Join(cat.Materials(), ", "),
	)
}

// Analyze crops the selection, asks the model to describe it and converts the
// answer into query descriptors.
func (d *Detector) Analyze(ctx context.Context, img image.Image, r region.ImageRegion) (types.Descriptors, error) {
	if err := ctx.Err(); err != nil {
		return types.Descriptors{}, err
	}

	crop, err := cropper.Crop(img, r)
	if err != nil {
		return types.Descriptors{}, fmt.Errorf("%w: %v", region.ErrNoRegion, err)
	}

	desc, err := d.describe(ctx, crop)
	if err == nil {
		return desc, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return types.Descriptors{}, ctxErr
	}
	if d.fallback == nil {
		return types.Descriptors{}, err
	}

	d.log.WithError(err).WithField("model", d.config.Model).Warn("vision model failed, using heuristic analysis")
	return d.fallback.Analyze(ctx, img, r)
}

func (d *Detector) describe(ctx context.Context, crop image.Image) (types.Descriptors, error) {
	b64, err := d.processor.PrepareImageForModel(crop, "jpg", d.config.SendSize, d.config.SendQuality)
	if err != nil {
		return types.Descriptors{}, fmt.Errorf("failed to encode selection: %w", err)
	}

	result, err := d.DetectGarment(ctx, d.config.Model, b64)
	if err != nil {
		return types.Descriptors{}, err
	}

	desc := result.Descriptors()
	if desc.IsEmpty() {
		return types.Descriptors{}, errors.New("model found no garment")
	}
	return desc, nil
}

// DetectGarment analyzes a base64 image and validates the model's answer
func (d *Detector) DetectGarment(ctx context.Context, model, imageB64 string) (*types.AnalysisResult, error) {
	result, err := d.client.AnalyzeImage(ctx, model, d.config.Prompt, imageB64)
	if err != nil {
		return nil, err
	}
	return validateResult(result), nil
}

// TestVision tests if the model can actually see the image with a simple prompt
func (d *Detector) TestVision(ctx context.Context, model, imageB64 string) (string, error) {
	return d.client.SimpleQuery(ctx, model, SimpleTestPrompt, imageB64)
}

// validateResult normalizes lists and marks give-up answers as "none"
func validateResult(result *types.AnalysisResult) *types.AnalysisResult {
	result.Primary.Label = strings.ToLower(strings.TrimSpace(result.Primary.Label))
	result.Primary.Confidence = clamp(result.Primary.Confidence, 0, 1)
	result.Primary.Box = normalizeBox(result.Primary.Box)

	result.Items = normalizeList(result.Items)
	result.Colors = normalizeList(result.Colors)
	result.Styles = normalizeList(result.Styles)
	result.Patterns = normalizeList(result.Patterns)
	result.Materials = normalizeList(result.Materials)

	if result.Primary.Label == "none" {
		return result
	}
	for _, indicator := range fallbackIndicators {
		if strings.Contains(result.Primary.Label, indicator) {
			result.Primary.Label = "none"
			result.Primary.Confidence = 0
			break
		}
	}
	return result
}

// clamp ensures a value is within the given bounds
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// normalizeBox keeps the box inside the unit square
func normalizeBox(b types.Box) types.Box {
	b.X = clamp(b.X, 0, 1)
	b.Y = clamp(b.Y, 0, 1)
	b.W = clamp(b.W, 0, 1-b.X)
	b.H = clamp(b.H, 0, 1-b.Y)
	return b
}

// normalizeList lowercases, dedupes and limits a descriptor list
func normalizeList(list []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, MaxListEntries)
	for _, t := range list {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || t == "none" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
		if len(out) == MaxListEntries {
			break
		}
	}
	return out
}
