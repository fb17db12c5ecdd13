package wordpress

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"KhiphopPipeline/internal/domain"
)

var postTemplate = template.Must(template.New("post").Funcs(template.FuncMap{
	"join": strings.Join,
	"paragraphs": func(s string) template.HTML {
		escaped := template.HTMLEscapeString(s)
		return template.HTML(strings.ReplaceAll(escaped, "\n", "<br>"))
	},
}).Parse(`{{- if .Music -}}
{{- if .Item.HasWork}}<p><strong>Artist:</strong> {{.Item.Artist}}</p>
<p><strong>Title:</strong> {{.Item.WorkTitle}}</p>
{{end -}}
{{- with .Item.ReleaseDate}}<p><strong>Release Date:</strong> {{.}}</p>
{{end -}}
{{- with .Item.Producers}}<p><strong>Producer(s):</strong> {{join . ", "}}</p>

{{end -}}
{{- end -}}
{{- with .Item.Synopsis}}<h2>Synopsis</h2>
<p>{{paragraphs .}}</p>

{{end -}}
{{- with .Item.CatalogLink}}<h2>Stream/Listen</h2>
<ul>
  <li><a href="{{.}}" target="_blank" rel="noopener noreferrer">Spotify</a></li>
</ul>

{{end -}}
<p><em>Source: <a href="{{.Item.SourceLink}}" target="_blank" rel="noopener noreferrer">{{.SourceLabel}}</a>
{{- if .ShowOrigin}} | <a href="{{.Item.OriginLink}}" target="_blank" rel="noopener noreferrer">Original Source</a>{{end -}}
</em></p>
`))

type postView struct {
	Item        domain.CanonicalItem
	Music       bool
	ShowOrigin  bool
	SourceLabel string
}

// RenderContent builds the HTML body of a post for an enriched item.
func RenderContent(item domain.CanonicalItem, sourceLabel string) (string, error) {
	view := postView{
		Item:        item,
		Music:       !item.Category.IsArticle(),
		ShowOrigin:  showOrigin(item),
		SourceLabel: sourceLabel,
	}
	var buf bytes.Buffer
	if err := postTemplate.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("render post content: %w", err)
	}
	return buf.String(), nil
}

// showOrigin hides links that point back at the post itself or at hosted media.
func showOrigin(item domain.CanonicalItem) bool {
	link := item.OriginLink
	if link == "" || link == item.SourceLink {
		return false
	}
	return !strings.Contains(link, "i.redd.it") && !strings.Contains(link, "v.redd.it")
}
