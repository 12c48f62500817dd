package actions

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strings"
	"time"

	"github.com/aretw0/leadflow/pkg/domain"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Plan is one side of a comparison.
type Plan struct {
	Name       string   `mapstructure:"name"`
	Advantages []string `mapstructure:"advantages"`
}

// ComparisonRenderer draws two plans side by side.
type ComparisonRenderer interface {
	RenderComparison(ctx context.Context, planA, planB Plan, presenter domain.Presenter) ([]byte, error)
}

// Comparison image geometry.
const (
	ComparisonWidth  = 800
	ComparisonHeight = 600
)

// DefaultComparisonTitle heads the image when the renderer has no title.
const DefaultComparisonTitle = "Comparativo de planos"

var (
	colorHeader  = color.RGBA{R: 0x1e, G: 0x5a, B: 0xa8, A: 0xff}
	colorCard    = color.RGBA{R: 0xf2, G: 0xf6, B: 0xfc, A: 0xff}
	colorBorder  = color.RGBA{R: 0xc5, G: 0xd3, B: 0xe8, A: 0xff}
	colorText    = color.RGBA{R: 0x22, G: 0x22, B: 0x22, A: 0xff}
	colorCTA     = color.RGBA{R: 0x25, G: 0xd3, B: 0x66, A: 0xff}
	colorInverse = color.White
)

// ImageRenderer renders comparisons as PNG images.
type ImageRenderer struct {
	Title string
	CTA   string
}

// NewImageRenderer returns a renderer with the default title.
func NewImageRenderer() *ImageRenderer {
	return &ImageRenderer{Title: DefaultComparisonTitle}
}

// RenderComparison implements ComparisonRenderer.
func (r *ImageRenderer) RenderComparison(ctx context.Context, planA, planB Plan, presenter domain.Presenter) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img := image.NewRGBA(image.Rect(0, 0, ComparisonWidth, ComparisonHeight))
	draw.Draw(img, img.Bounds(), image.NewUniform(colorInverse), image.Point{}, draw.Src)

	title := r.Title
	if title == "" {
		title = DefaultComparisonTitle
	}
	fill(img, image.Rect(0, 0, ComparisonWidth, 90), colorHeader)
	drawText(img, 40, 26, title, colorInverse, 3)

	drawCard(img, image.Rect(40, 120, 390, 470), planA)
	drawCard(img, image.Rect(410, 120, 760, 470), planB)

	if presenter.Name != "" {
		line := presenter.Name
		if presenter.Years > 0 {
			line = fmt.Sprintf("%s - %d anos de experiencia", presenter.Name, presenter.Years)
		}
		drawText(img, 40, 488, line, colorText, 2)
	}

	cta := r.CTA
	if cta == "" && presenter.Name != "" {
		cta = "Fale com " + presenter.Name
	}
	if cta != "" {
		fill(img, image.Rect(0, 530, ComparisonWidth, ComparisonHeight), colorCTA)
		drawText(img, 40, 552, cta, colorInverse, 2)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode comparison: %w", err)
	}
	return buf.Bytes(), nil
}

func drawCard(img *image.RGBA, rect image.Rectangle, plan Plan) {
	fill(img, rect, colorBorder)
	fill(img, rect.Inset(2), colorCard)

	x := rect.Min.X + 16
	y := rect.Min.Y + 16
	drawText(img, x, y, plan.Name, colorHeader, 3)
	y += 56

	maxChars := (rect.Dx() - 32) / (basicfont.Face7x13.Width * 2)
	for _, adv := range plan.Advantages {
		for i, line := range wrap(adv, maxChars-2) {
			prefix := "  "
			if i == 0 {
				prefix = "- "
			}
			if y+26 > rect.Max.Y-8 {
				return
			}
			drawText(img, x, y, prefix+line, colorText, 2)
			y += 30
		}
	}
}

func fill(img *image.RGBA, rect image.Rectangle, c color.Color) {
	draw.Draw(img, rect, image.NewUniform(c), image.Point{}, draw.Src)
}

// drawText renders text with the basic bitmap face magnified by scale.
func drawText(dst *image.RGBA, x, y int, text string, c color.Color, scale int) {
	face := basicfont.Face7x13
	w := font.MeasureString(face, text).Ceil()
	if w == 0 {
		return
	}
	h := face.Height

	glyphs := image.NewRGBA(image.Rect(0, 0, w, h))
	d := &font.Drawer{
		Dst:  glyphs,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(0, face.Ascent),
	}
	d.DrawString(text)

	target := image.Rect(x, y, x+w*scale, y+h*scale)
	xdraw.NearestNeighbor.Scale(dst, target, glyphs, glyphs.Bounds(), xdraw.Over, nil)
}

func wrap(text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 || width <= 0 {
		return nil
	}
	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		if len(line)+1+len(w) > width {
			lines = append(lines, line)
			line = w
			continue
		}
		line += " " + w
	}
	return append(lines, line)
}

type comparisonParams struct {
	PlanA   Plan   `mapstructure:"plan_a"`
	PlanB   Plan   `mapstructure:"plan_b"`
	Caption string `mapstructure:"caption"`
}

// ComparisonHandler renders the plans named in the step params, stores the
// image and returns its reference as the artifact of the outgoing message.
func ComparisonHandler(r ComparisonRenderer, store ArtifactStore, presenter domain.Presenter, now func() time.Time) Handler {
	return func(ctx context.Context, req domain.ActionRequest) (domain.ActionResponse, error) {
		var params comparisonParams
		if err := decodeParams(req.Params, &params); err != nil {
			return domain.ActionResponse{}, err
		}
		if params.PlanA.Name == "" || params.PlanB.Name == "" {
			return domain.ActionResponse{}, fmt.Errorf("%w: plan_a and plan_b need a name", ErrInvalidParams)
		}

		img, err := r.RenderComparison(ctx, params.PlanA, params.PlanB, presenter)
		if err != nil {
			return domain.ActionResponse{}, err
		}

		leadID := "anonymous"
		if req.Lead != nil {
			leadID = req.Lead.ID
		}
		key := fmt.Sprintf("comparisons/%s/%s-%d.png", leadID, req.StepID, now().UnixNano())
		ref, err := store.Put(ctx, key, img, "image/png")
		if err != nil {
			return domain.ActionResponse{}, err
		}

		caption := params.Caption
		if caption == "" {
			caption = fmt.Sprintf("%s x %s", params.PlanA.Name, params.PlanB.Name)
		}
		return domain.ActionResponse{Text: caption, Artifact: ref}, nil
	}
}
