// Package render produces the inline HTML for a content item with its
// resolved preview attached.
package render

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/previewd/previewd/internal/preview"
)

const cardTemplate = `<p>{{.Content}}</p>
{{- if .HasCard}}
<div class="link-preview link-preview-{{.Kind}}">
{{- if .Image}}
  <img class="link-preview-image" src="{{.Image}}">
{{- end}}
{{- if .Title}}
  <div class="link-preview-title">{{.Title}}</div>
{{- end}}
{{- if .Description}}
  <div class="link-preview-description">{{.Description}}</div>
{{- end}}
{{- if .Embed}}
  <div class="link-preview-embed">{{.Embed}}</div>
{{- end}}
</div>
{{- end}}`

// Renderer renders content items with a preview card appended.
type Renderer struct {
	tmpl *template.Template
}

// New compiles the card template.
func New() *Renderer {
	return &Renderer{
		tmpl: template.Must(template.New("card").Parse(cardTemplate)),
	}
}

type cardData struct {
	Content     string
	HasCard     bool
	Kind        preview.Kind
	Title       string
	Description string
	Image       string
	Embed       template.HTML
}

// Render returns the item content with the preview card inlined. A none
// preview renders the bare content, which clears any pending state the
// item was displayed in.
func (r *Renderer) Render(item preview.ContentItem, p preview.Preview) (string, error) {
	data := cardData{Content: item.Content}
	if !p.IsNone() {
		data.HasCard = true
		data.Kind = p.Kind
		data.Title = p.Title
		data.Description = p.Description
		data.Image = p.Image
		if p.Kind == preview.KindVideo {
			// Embed markup comes from a vetted provider endpoint and is
			// inserted as-is; everything else is escaped by the template.
			data.Embed = template.HTML(p.HTML)
		}
	}

	var sb strings.Builder
	if err := r.tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("render preview card: %w", err)
	}
	return sb.String(), nil
}
