package widget

import (
	"html/template"
	"io"
)

// TemplateName is the name of the widget fragment template
const TemplateName = "widget"

const fragment = `{{define "widget"}}<div class="muse">
  <img class="muse-image" src="{{.ImageURL}}" alt="">
  <p class="muse-prompt">{{.Prompt}}</p>
</div>{{end}}`

// NewTemplate returns a template set holding the widget fragment. Pages can
// parse more templates into it and call {{template "widget" .}}.
func NewTemplate() *template.Template {
	return template.Must(template.New("widget-root").Parse(fragment))
}

var fragmentTemplate = NewTemplate()

// RenderHTML writes the image element and the prompt block for the current
// state. Both are always present, empty before data arrives.
func (w *Widget) RenderHTML(out io.Writer) error {
	return fragmentTemplate.ExecuteTemplate(out, TemplateName, w.Render())
}
