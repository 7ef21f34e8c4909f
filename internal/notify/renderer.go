package notify

import (
	"embed"
	"fmt"

	"github.com/akeren/go-waitlist/internal/models"
	"github.com/akeren/go-waitlist/pkg/utils"
	"github.com/osteele/liquid"
)

//go:embed templates/*.liquid
var templateFS embed.FS

type confirmationTemplates struct {
	subject *liquid.Template
	html    *liquid.Template
}

// Renderer turns a stored signup into the confirmation mail for one locale.
type Renderer struct {
	appName   string
	templates confirmationTemplates
}

// NewRenderer parses the bundled templates for the closest supported locale.
func NewRenderer(appName, locale string) (*Renderer, error) {
	engine := liquid.NewEngine()
	lang := utils.MatchLocale(locale)

	subject, err := parseTemplate(engine, fmt.Sprintf("templates/confirmation_%s.subject.liquid", lang))
	if err != nil {
		return nil, err
	}
	html, err := parseTemplate(engine, fmt.Sprintf("templates/confirmation_%s.html.liquid", lang))
	if err != nil {
		return nil, err
	}

	return &Renderer{
		appName:   appName,
		templates: confirmationTemplates{subject: subject, html: html},
	}, nil
}

func parseTemplate(engine *liquid.Engine, name string) (*liquid.Template, error) {
	raw, err := templateFS.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("read template %s: %w", name, err)
	}

	tpl, parseErr := engine.ParseTemplate(raw)
	if parseErr != nil {
		return nil, fmt.Errorf("parse template %s: %w", name, parseErr)
	}
	return tpl, nil
}

func (r *Renderer) Render(entry models.WaitlistEntry) (*Message, error) {
	bindings := map[string]any{
		"app_name": r.appName,
		"name":     entry.Name,
		"position": entry.Position,
	}

	subject, err := r.templates.subject.RenderString(bindings)
	if err != nil {
		return nil, fmt.Errorf("render subject: %w", err)
	}
	html, err := r.templates.html.RenderString(bindings)
	if err != nil {
		return nil, fmt.Errorf("render body: %w", err)
	}

	return &Message{To: entry.Email, Subject: subject, HTML: html}, nil
}
