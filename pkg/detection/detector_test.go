package detection

import (
	"context"
	"errors"
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/fashion-search/pkg/catalog"
	"github.com/menta2k/fashion-search/pkg/client"
	"github.com/menta2k/fashion-search/pkg/region"
	"github.com/menta2k/fashion-search/pkg/types"
	"github.com/menta2k/fashion-search/pkg/vision"
)

type fakeClient struct {
	result *types.AnalysisResult
	err    error
	calls  int
	prompt string
	image  string
	onCall func()
}

func (f *fakeClient) SimpleQuery(ctx context.Context, model, prompt, imgB64 string) (string, error) {
	return "a red dress", nil
}

func (f *fakeClient) AnalyzeImage(ctx context.Context, model, prompt, imgB64 string) (*types.AnalysisResult, error) {
	f.calls++
	f.prompt = prompt
	f.image = imgB64
	if f.onCall != nil {
		f.onCall()
	}
	if f.err != nil {
		return nil, f.err
	}
	copied := *f.result
	return &copied, nil
}

func (f *fakeClient) Ping(ctx context.Context) error { return nil }

var _ client.VisionClient = (*fakeClient)(nil)

func testImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 200, 400))
	for y := 0; y < 400; y++ {
		for x := 0; x < 200; x++ {
			img.Set(x, y, color.RGBA{200, 30, 30, 255})
		}
	}
	return img
}

func TestAnalyzeUsesModel(t *testing.T) {
	fc := &fakeClient{result: &types.AnalysisResult{
		Primary: types.Primary{Label: " Jacket ", Confidence: 1.4, Box: types.Box{X: 0.5, Y: -1, W: 0.9, H: 0.5}},
		Items:   []string{"Jacket", "jacket", "shirt"},
		Colors:  []string{"Black", "", "none"},
	}}
	d := NewDetector(fc, Config{Model: "llava"}, nil)

	desc, err := d.Analyze(context.Background(), testImage(), region.ImageRegion{X: 10, Y: 10, Width: 100, Height: 100})
	require.NoError(t, err)
	assert.Equal(t, []string{"jacket", "jacket", "shirt"}, desc.Items)
	assert.Equal(t, []string{"black"}, desc.Colors)
	assert.Equal(t, 1, fc.calls)
	assert.NotEmpty(t, fc.image)
}

func TestAnalyzeFallsBackOnError(t *testing.T) {
	fc := &fakeClient{err: client.ErrNoJSON}
	logger, hook := test.NewNullLogger()
	d := NewDetector(fc, Config{Model: "llava"}, vision.New())
	d.SetLogger(logger)

	desc, err := d.Analyze(context.Background(), testImage(), region.ImageRegion{X: 50, Y: 100, Width: 100, Height: 80})
	require.NoError(t, err)
	assert.Equal(t, []string{"shirt"}, desc.Items)
	assert.Equal(t, []string{"red"}, desc.Colors)

	require.Len(t, hook.Entries, 1)
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

func TestAnalyzeFallsBackOnGiveUp(t *testing.T) {
	fc := &fakeClient{result: &types.AnalysisResult{
		Primary: types.Primary{Label: "unclear image", Confidence: 0.3},
	}}
	logger, _ := test.NewNullLogger()
	d := NewDetector(fc, Config{}, vision.New())
	d.SetLogger(logger)

	desc, err := d.Analyze(context.Background(), testImage(), region.ImageRegion{X: 50, Y: 100, Width: 100, Height: 80})
	require.NoError(t, err)
	assert.Equal(t, []string{"shirt"}, desc.Items)
}

func TestAnalyzeWithoutFallback(t *testing.T) {
	fc := &fakeClient{err: errors.New("connection refused")}
	d := NewDetector(fc, Config{}, nil)

	_, err := d.Analyze(context.Background(), testImage(), region.ImageRegion{Width: 50, Height: 50})
	assert.EqualError(t, err, "connection refused")
}

func TestAnalyzeOutsideImage(t *testing.T) {
	fc := &fakeClient{}
	d := NewDetector(fc, Config{}, vision.New())

	_, err := d.Analyze(context.Background(), testImage(), region.ImageRegion{X: 500, Y: 500, Width: 10, Height: 10})
	assert.ErrorIs(t, err, region.ErrNoRegion)
	assert.Zero(t, fc.calls)
}

func TestAnalyzeCancelledSkipsFallback(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	fc := &fakeClient{err: context.Canceled, onCall: cancel}
	fallback := &countingAnalyzer{}
	d := NewDetector(fc, Config{}, fallback)

	_, err := d.Analyze(ctx, testImage(), region.ImageRegion{Width: 10, Height: 10})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, fc.calls)
	assert.Zero(t, fallback.calls)
}

type countingAnalyzer struct{ calls int }

func (c *countingAnalyzer) Analyze(ctx context.Context, img image.Image, r region.ImageRegion) (types.Descriptors, error) {
	c.calls++
	return types.Descriptors{Items: []string{"hat"}}, nil
}

func TestBuildPromptListsVocabulary(t *testing.T) {
	p := BuildPrompt(catalog.Default())
	for _, want := range []string{"hawaiian shirt", "turquoise", "denim", "striped"} {
		assert.True(t, strings.Contains(p, want), "prompt missing %q", want)
	}
	assert.NotContains(t, p, "%!")
}

func TestValidateResult(t *testing.T) {
	r := validateResult(&types.AnalysisResult{
		Primary: types.Primary{Label: "Parse Error", Confidence: 0.9},
		Items:   []string{"a", "b", "c", "d", "e", "f"},
	})
	assert.Equal(t, "none", r.Primary.Label)
	assert.Zero(t, r.Primary.Confidence)
	assert.Len(t, r.Items, MaxListEntries)
}

func TestNormalizeBox(t *testing.T) {
	b := normalizeBox(types.Box{X: 0.5, Y: 0.25, W: 0.9, H: 2})
	assert.Equal(t, types.Box{X: 0.5, Y: 0.25, W: 0.5, H: 0.75}, b)

	b = normalizeBox(types.Box{X: -1, Y: 2, W: 0.5, H: 0.5})
	assert.Equal(t, types.Box{X: 0, Y: 1, W: 0.5, H: 0}, b)
}

func TestTestVision(t *testing.T) {
	d := NewDetector(&fakeClient{}, Config{}, nil)
	out, err := d.TestVision(context.Background(), "llava", "")
	require.NoError(t, err)
	assert.Equal(t, "a red dress", out)
}
