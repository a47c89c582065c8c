package llm

import (
	"fmt"
	"strings"

	"github.com/complaints/backend/internal/storage/models"
)

// vocabulary is the set of words the model is asked to answer with, in the
// prompt's language, mapped to canonical categories.
type vocabulary struct {
	template string
	labels   map[string]string
}

var vocabularies = map[string]vocabulary{
	"ru": {
		template: `Определи категорию жалобы: "%s". Варианты: техническая, оплата, другое. Ответ только одним словом.`,
		labels: map[string]string{
			"техническая": models.CategoryTechnical,
			"оплата":      models.CategoryPayment,
			"другое":      models.CategoryOther,
		},
	},
	"en": {
		template: `Determine the category of the complaint: "%s". Options: technical, payment, other. Answer with one word only.`,
		labels: map[string]string{
			"technical": models.CategoryTechnical,
			"payment":   models.CategoryPayment,
			"other":     models.CategoryOther,
		},
	},
}

func vocabularyFor(language string) (vocabulary, error) {
	if language == "" {
		language = "ru"
	}

	v, ok := vocabularies[language]
	if !ok {
		return vocabulary{}, fmt.Errorf("unsupported category language %q", language)
	}
	return v, nil
}

func (v vocabulary) prompt(text string) string {
	return fmt.Sprintf(v.template, text)
}

// match accepts only an exact word from the vocabulary after trimming and
// lowercasing; near misses such as "технический" are rejected.
func (v vocabulary) match(content string) (string, bool) {
	category, ok := v.labels[strings.ToLower(strings.TrimSpace(content))]
	return category, ok
}
