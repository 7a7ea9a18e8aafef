package nlp

import "github.com/infra-nli/internal/domain"

// Resolve merges caller hints with what the text implies.
//
// Provider: a valid explicit value, then the first provider named in text
// (aws, azure, gcp), then aws. Environment: a valid explicit value, then the
// first tier named in text (dev, staging, production), then production.
// Unrecognised explicit values are ignored.
func Resolve(explicit *domain.CommandContext, text string) domain.ResolvedContext {
	rc := domain.ResolvedContext{
		Provider:    domain.DefaultProvider,
		Environment: domain.DefaultEnvironment,
	}

	if p, ok := explicitProvider(explicit); ok {
		rc.Provider = p
	} else {
		for _, pp := range providerPatterns {
			if pp.pattern.MatchString(text) {
				rc.Provider = pp.provider
				break
			}
		}
	}

	if env, ok := explicitEnvironment(explicit); ok {
		rc.Environment = env
	} else {
		for _, tp := range environmentPatterns {
			if tp.pattern.MatchString(text) {
				rc.Environment = tp.env
				break
			}
		}
	}

	return rc
}

func explicitProvider(c *domain.CommandContext) (domain.CloudProvider, bool) {
	if c == nil {
		return "", false
	}
	return domain.ParseCloudProvider(c.Provider)
}

func explicitEnvironment(c *domain.CommandContext) (domain.Environment, bool) {
	if c == nil {
		return "", false
	}
	return domain.ParseEnvironment(c.Environment)
}
