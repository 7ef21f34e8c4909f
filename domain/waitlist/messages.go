package waitlist

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/akeren/go-waitlist/pkg/utils"
	"gopkg.in/yaml.v3"
)

//go:embed messages.yaml
var bundledMessages []byte

// Messages holds every user-facing string returned by the waitlist endpoints.
type Messages struct {
	InvalidEmail      string `yaml:"invalid_email"`
	InvalidBody       string `yaml:"invalid_body"`
	AlreadyRegistered string `yaml:"already_registered"`
	SignupSuccess     string `yaml:"signup_success"`
	SignupFailed      string `yaml:"signup_failed"`
	CountFailed       string `yaml:"count_failed"`
	Unauthorized      string `yaml:"unauthorized"`
	ListFailed        string `yaml:"list_failed"`
}

// LoadMessages picks the bundled catalogue closest to locale, then applies any
// non-empty values from overridePath.
func LoadMessages(locale, overridePath string) (*Messages, error) {
	var catalogue map[string]Messages
	if err := yaml.Unmarshal(bundledMessages, &catalogue); err != nil {
		return nil, fmt.Errorf("parse bundled messages: %w", err)
	}

	msgs, ok := catalogue[utils.MatchLocale(locale)]
	if !ok {
		return nil, fmt.Errorf("no bundled messages for locale %q", locale)
	}

	if overridePath == "" {
		return &msgs, nil
	}

	raw, err := os.ReadFile(overridePath)
	if err != nil {
		return nil, fmt.Errorf("read messages file: %w", err)
	}

	var override Messages
	if err := yaml.Unmarshal(raw, &override); err != nil {
		return nil, fmt.Errorf("parse messages file %s: %w", overridePath, err)
	}
	msgs.merge(override)

	return &msgs, nil
}

// DefaultMessages returns the French catalogue.
func DefaultMessages() *Messages {
	msgs, err := LoadMessages("", "")
	if err != nil {
		panic(err)
	}
	return msgs
}

func (m *Messages) merge(o Messages) {
	pick := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	pick(&m.InvalidEmail, o.InvalidEmail)
	pick(&m.InvalidBody, o.InvalidBody)
	pick(&m.AlreadyRegistered, o.AlreadyRegistered)
	pick(&m.SignupSuccess, o.SignupSuccess)
	pick(&m.SignupFailed, o.SignupFailed)
	pick(&m.CountFailed, o.CountFailed)
	pick(&m.Unauthorized, o.Unauthorized)
	pick(&m.ListFailed, o.ListFailed)
}
