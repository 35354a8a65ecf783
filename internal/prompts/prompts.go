// Package prompts holds the static catalog of system prompt templates a chat
// can be configured with.
package prompts

import (
	"fmt"
	"strings"
)

type TemplateID string

const (
	LegalAssistant    TemplateID = "legal_assistant"
	ContractReviewer  TemplateID = "contract_reviewer"
	LegalSummarizer   TemplateID = "legal_summarizer"
	ComplianceChecker TemplateID = "compliance_checker"
	LegalResearcher   TemplateID = "legal_researcher"
	CaseAnalyzer      TemplateID = "case_analyzer"
	LegalDrafter      TemplateID = "legal_drafter"
	SimpleExplainer   TemplateID = "eli5_legal"
	QuestionAnswer    TemplateID = "q_and_a"

	// Default is used when a chat references a template that no longer
	// exists in the catalog.
	Default = LegalAssistant
)

type Template struct {
	ID           TemplateID `json:"id"`
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	Category     string     `json:"category"`
	Instructions string     `json:"-"`
}

// Render builds the system instruction with retrieved context and the
// formatted chat history filled in.
func (t Template) Render(context, history string) string {
	return fmt.Sprintf("%s\n\nCONTEXT FROM DOCUMENTS:\n%s\n\nCHAT HISTORY:\n%s", t.Instructions, context, history)
}

// Lookup is strict: unknown ids report false.
func Lookup(id string) (Template, bool) {
	for _, t := range catalog {
		if string(t.ID) == id {
			return t, true
		}
	}
	return Template{}, false
}

// Select returns the template for id, or the Default template when id is not
// in the catalog. Requests that set a template are validated with Valid
// first, so the fallback only covers ids persisted before a template was
// retired.
func Select(id string) Template {
	if t, ok := Lookup(id); ok {
		return t
	}
	t, _ := Lookup(string(Default))
	return t
}

func Valid(id string) bool {
	_, ok := Lookup(id)
	return ok
}

func All() []Template {
	out := make([]Template, len(catalog))
	copy(out, catalog)
	return out
}

// ByCategory matches the category case-insensitively.
func ByCategory(category string) []Template {
	out := []Template{}
	for _, t := range catalog {
		if strings.EqualFold(t.Category, category) {
			out = append(out, t)
		}
	}
	return out
}
