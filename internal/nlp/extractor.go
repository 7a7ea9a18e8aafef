package nlp

import (
	"strconv"

	"github.com/infra-nli/internal/domain"
)

// MaxEntityValue is the largest count or size Extract accepts. Larger
// numbers are treated as not mentioned.
const MaxEntityValue = 10000

// Extract scans text for every modifier and numeric pattern.
// Booleans are only ever set to true; unmatched keys stay nil.
func Extract(text string) domain.Entities {
	var e domain.Entities

	if highAvailabilityPattern.MatchString(text) {
		e.HighAvailability = boolPtr(true)
	}
	if autoScalingPattern.MatchString(text) {
		e.AutoScaling = boolPtr(true)
	}

	for _, np := range numericPatterns {
		m := firstMatch(np, text)
		if m == nil {
			continue
		}
		v, err := strconv.Atoi(m[1])
		if err != nil || v > MaxEntityValue {
			continue
		}
		np.assign(&e, v)
	}

	return e
}

func firstMatch(np numericPattern, text string) []string {
	if np.skip == nil {
		return np.pattern.FindStringSubmatch(text)
	}
	for _, m := range np.pattern.FindAllStringSubmatch(text, -1) {
		if !np.skip.MatchString(m[0]) {
			return m
		}
	}
	return nil
}

func boolPtr(b bool) *bool {
	return &b
}
