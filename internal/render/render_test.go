package render

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/previewd/previewd/internal/preview"
)

func TestRenderNonePreviewRendersBareContent(t *testing.T) {
	t.Parallel()

	out, err := New().Render(preview.ContentItem{Content: "check https://example.org"}, preview.None())
	require.NoError(t, err)
	require.Equal(t, "<p>check https://example.org</p>", out)
}

func TestRenderBasicCard(t *testing.T) {
	t.Parallel()

	p := preview.NewBasic("The Rock", "The Rock film", "http://ia.example.com/rock.jpg")
	out, err := New().Render(preview.ContentItem{Content: "see this"}, p)
	require.NoError(t, err)
	require.Contains(t, out, `link-preview-basic`)
	require.Contains(t, out, `<div class="link-preview-title">The Rock</div>`)
	require.Contains(t, out, `src="http://ia.example.com/rock.jpg"`)
}

func TestRenderEscapesContent(t *testing.T) {
	t.Parallel()

	p := preview.NewBasic("<script>alert(1)</script>", "", "")
	out, err := New().Render(preview.ContentItem{Content: "hi"}, p)
	require.NoError(t, err)
	require.NotContains(t, out, "<script>")
	require.Contains(t, out, "&lt;script&gt;")
}

func TestRenderVideoEmbedsMarkup(t *testing.T) {
	t.Parallel()

	p := preview.NewVideo("https://i.example.com/t.jpg", `<iframe src="https://player.example.com/v/1"></iframe>`, "Clip", "")
	out, err := New().Render(preview.ContentItem{Content: "watch"}, p)
	require.NoError(t, err)
	require.Contains(t, out, `<iframe src="https://player.example.com/v/1"></iframe>`)
	require.Contains(t, out, `link-preview-video`)
}
