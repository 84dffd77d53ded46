// internal/service/template_service.go
package service

import (
	"strings"

	appErrors "github.com/touchloop/touchloop-backend/internal/errors"
	"github.com/touchloop/touchloop-backend/internal/model"
)

// Template is resolved subject/body text. Template content is owned by an
// external collaborator; the core passes ids through and substitutes
// placeholders without interpreting anything else.
type Template struct {
	Subject string
	Body    string
}

type TemplateResolverInterface interface {
	Resolve(templateID *int) (Template, error)
}

// StaticTemplates is a map-backed resolver used in development and tests.
type StaticTemplates struct {
	Default Template
	ByID    map[int]Template
}

func (s *StaticTemplates) Resolve(templateID *int) (Template, error) {
	if templateID == nil {
		return s.Default, nil
	}
	t, ok := s.ByID[*templateID]
	if !ok {
		return Template{}, appErrors.NewValidation(map[string]string{
			"template_id": "unknown template",
		})
	}
	return t, nil
}

var _ TemplateResolverInterface = (*StaticTemplates)(nil)

func RenderTemplate(template string, data map[string]string) string {
	result := template
	for k, v := range data {
		if v == "" {
			v = "<unknown>"
		}
		result = strings.ReplaceAll(result, "{"+k+"}", v)
	}
	return result
}

// PersonalizationData maps a customer to the placeholder values templates may
// reference.
func PersonalizationData(c *model.Customer) map[string]string {
	return map[string]string{
		"first_name": c.FirstName,
		"last_name":  c.LastName,
	}
}
