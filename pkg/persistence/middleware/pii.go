package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aretw0/ticketflow/pkg/domain"
	"github.com/aretw0/ticketflow/pkg/ports"
)

// Mask replaces every redacted value.
const Mask = "***"

// DefaultPIIPatterns match the customer identity fields of a ticket.
var DefaultPIIPatterns = []string{`^customer_name$`, `^email$`}

// Masker redacts record fields whose key matches any pattern, at any nesting
// depth.
type Masker struct {
	patterns []*regexp.Regexp
}

// NewMasker compiles the patterns.
func NewMasker(patternStrings []string) (*Masker, error) {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid PII pattern %q: %w", p, err)
		}
		patterns[i] = re
	}
	return &Masker{patterns: patterns}, nil
}

// Mask returns a masked copy of s. s itself is left untouched.
func (m *Masker) Mask(s *domain.State) *domain.State {
	fields := s.DeepClone().Fields()
	maskMap(fields, m.patterns)
	return domain.NewStateFrom(fields)
}

type piiMiddleware struct {
	next   ports.RunStore
	masker *Masker
}

// NewPIIMiddleware creates a middleware that masks matching record fields on
// Save. Masking is one-way: Load returns the masked values.
func NewPIIMiddleware(patternStrings []string) (Middleware, error) {
	masker, err := NewMasker(patternStrings)
	if err != nil {
		return nil, err
	}
	return NewMaskingMiddleware(masker), nil
}

// NewMaskingMiddleware is NewPIIMiddleware for an already built Masker.
func NewMaskingMiddleware(masker *Masker) Middleware {
	return func(next ports.RunStore) ports.RunStore {
		return &piiMiddleware{next: next, masker: masker}
	}
}

func (m *piiMiddleware) Save(ctx context.Context, record *domain.RunRecord) error {
	// Copy so the record the caller holds keeps its real values.
	masked := *record
	masked.State = m.masker.Mask(record.State)

	return m.next.Save(ctx, &masked)
}

func (m *piiMiddleware) Load(ctx context.Context, runID string) (*domain.RunRecord, error) {
	return m.next.Load(ctx, runID)
}

func (m *piiMiddleware) Delete(ctx context.Context, runID string) error {
	return m.next.Delete(ctx, runID)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

// Helpers

func maskMap(m map[string]any, patterns []*regexp.Regexp) {
	for k, v := range m {
		masked := false
		for _, p := range patterns {
			if p.MatchString(k) {
				m[k] = Mask
				masked = true
				break
			}
		}

		// Recurse if map
		if subMap, ok := v.(map[string]any); ok && !masked {
			maskMap(subMap, patterns)
		}
	}
}
