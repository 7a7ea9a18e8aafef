package nlp

import "github.com/infra-nli/internal/domain"

// Classify returns the first intent in IntentPriority whose pattern matches text,
// or IntentUnknown when none do.
func Classify(text string) domain.Intent {
	for _, intent := range IntentPriority {
		if intentPatterns[intent].MatchString(text) {
			return intent
		}
	}
	return domain.IntentUnknown
}
