package actions_test

import (
	"bytes"
	"context"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/leadflow/pkg/actions"
	"github.com/aretw0/leadflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	essencial = actions.Plan{Name: "Essencial", Advantages: []string{"Rede regional ampla", "Consultas e exames"}}
	premium   = actions.Plan{Name: "Premium", Advantages: []string{"Cobertura nacional", "Reembolso", "Quarto privativo com acompanhante em todas as internacoes"}}
)

func TestImageRenderer_Dimensions(t *testing.T) {
	r := actions.NewImageRenderer()

	data, err := r.RenderComparison(context.Background(), essencial, premium, domain.Presenter{Name: "Joana", Years: 12})
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, actions.ComparisonWidth, img.Bounds().Dx())
	assert.Equal(t, actions.ComparisonHeight, img.Bounds().Dy())
}

func TestImageRenderer_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := actions.NewImageRenderer().RenderComparison(ctx, essencial, premium, domain.Presenter{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestComparisonHandler_StoresArtifact(t *testing.T) {
	dir := t.TempDir()
	store := actions.NewDirStore(dir, "/artifacts")
	d := actions.NewDispatcher(
		actions.WithClock(func() time.Time { return testNow }),
		actions.WithComparison(actions.NewImageRenderer(), store, domain.Presenter{Name: "Joana"}),
	)

	resp, err := d.Dispatch(context.Background(), domain.ActionRequest{
		Name:   actions.AliasRenderComparison,
		StepID: "comparison",
		Lead:   domain.NewLead("lead-1", "c", "Ana", "comparison", testNow),
		Params: map[string]any{
			"plan_a": map[string]any{"name": "Essencial", "advantages": []any{"Rede regional"}},
			"plan_b": map[string]any{"name": "Premium", "advantages": []any{"Cobertura nacional"}},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "Essencial x Premium", resp.Text)
	require.True(t, strings.HasPrefix(resp.Artifact, "/artifacts/comparisons/lead-1/comparison-"), resp.Artifact)

	rel := strings.TrimPrefix(resp.Artifact, "/artifacts/")
	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(rel)))
	require.NoError(t, err)
	_, err = png.Decode(bytes.NewReader(data))
	assert.NoError(t, err)
}

func TestComparisonHandler_InvalidParams(t *testing.T) {
	h := actions.ComparisonHandler(actions.NewImageRenderer(), actions.NewDirStore(t.TempDir(), ""), domain.Presenter{}, time.Now)

	_, err := h(context.Background(), domain.ActionRequest{
		Name:   domain.ActionRenderComparison,
		Params: map[string]any{"plan_a": map[string]any{"name": "Only one"}},
	})
	assert.ErrorIs(t, err, actions.ErrInvalidParams)
}
