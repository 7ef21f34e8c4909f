package notify

import (
	"fmt"
	"testing"

	"github.com/akeren/go-waitlist/internal/models"
	"github.com/akeren/go-waitlist/pkg/utils"
	"github.com/osteele/liquid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderer_French(t *testing.T) {
	r, err := NewRenderer("Chimera", "fr")
	require.NoError(t, err)

	msg, err := r.Render(models.WaitlistEntry{Email: "a@x.com", Name: "Ann", Position: 7})
	require.NoError(t, err)

	assert.Equal(t, "a@x.com", msg.To)
	assert.Equal(t, "Bienvenue sur la waitlist Chimera ! 🎉", msg.Subject)
	assert.Contains(t, msg.HTML, "<p>Bonjour Ann 👋,</p>")
	assert.Contains(t, msg.HTML, "#7</h1>")
	assert.Contains(t, msg.HTML, "L'équipe Chimera")
}

func TestRenderer_OmitsEmptyName(t *testing.T) {
	r, err := NewRenderer("Chimera", "")
	require.NoError(t, err)

	msg, err := r.Render(models.WaitlistEntry{Email: "a@x.com", Position: 1})
	require.NoError(t, err)

	assert.Contains(t, msg.HTML, "<p>Bonjour 👋,</p>")
}

func TestRenderer_EscapesName(t *testing.T) {
	r, err := NewRenderer("Chimera", "fr")
	require.NoError(t, err)

	msg, err := r.Render(models.WaitlistEntry{Email: "a@x.com", Name: "<script>x</script>", Position: 1})
	require.NoError(t, err)

	assert.NotContains(t, msg.HTML, "<script>")
	assert.Contains(t, msg.HTML, "&lt;script&gt;")
}

func TestRenderer_English(t *testing.T) {
	r, err := NewRenderer("Acme", "en-GB")
	require.NoError(t, err)

	msg, err := r.Render(models.WaitlistEntry{Email: "a@x.com", Name: "Ann", Position: 2})
	require.NoError(t, err)

	assert.Equal(t, "Welcome to the Acme waitlist! 🎉", msg.Subject)
	assert.Contains(t, msg.HTML, "<p>Hello Ann 👋,</p>")
	assert.Contains(t, msg.HTML, "#2</h1>")
}

func TestParseTemplate_BundledLocales(t *testing.T) {
	engine := liquid.NewEngine()

	for _, tag := range utils.SupportedLocales {
		lang := utils.MatchLocale(tag.String())
		for _, part := range []string{"subject", "html"} {
			name := fmt.Sprintf("templates/confirmation_%s.%s.liquid", lang, part)
			t.Run(name, func(t *testing.T) {
				tpl, err := parseTemplate(engine, name)
				require.NoError(t, err)

				out, err := tpl.RenderString(liquid.Bindings{"app_name": "Chimera", "name": "", "position": 1})
				require.NoError(t, err)
				assert.NotEmpty(t, out)
			})
		}
	}

	_, err := parseTemplate(engine, "templates/confirmation_xx.subject.liquid")
	assert.ErrorContains(t, err, "read template")
}
