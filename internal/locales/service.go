package locales

import (
	"context"
	"errors"
	"slices"
	"strings"
)

// Service manages locale records and answers fallback questions.
type Service interface {
	List(ctx context.Context) ([]*Locale, error)
	ListEnabled(ctx context.Context) ([]*Locale, error)
	Get(ctx context.Context, code string) (*Locale, error)
	Upsert(ctx context.Context, locale *Locale) (*Locale, error)
	SetDefault(ctx context.Context, code string) error
	// Fallback builds the resolver configuration from stored state.
	Fallback(ctx context.Context) (Fallback, error)
}

type service struct {
	repo          Repository
	defaultLocale string
}

// ServiceOption configures the service at construction time.
type ServiceOption func(*service)

// WithDefaultLocale sets the default used when no stored locale is flagged as
// default.
func WithDefaultLocale(code string) ServiceOption {
	return func(s *service) {
		s.defaultLocale = NormalizeCode(code)
	}
}

func NewService(repo Repository, opts ...ServiceOption) Service {
	s := &service{repo: repo}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *service) List(ctx context.Context) ([]*Locale, error) {
	return s.repo.List(ctx)
}

// ListEnabled returns enabled locales with the default first, then by code.
func (s *service) ListEnabled(ctx context.Context) ([]*Locale, error) {
	records, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	enabled := slices.DeleteFunc(records, func(l *Locale) bool { return l == nil || !l.IsEnabled })
	slices.SortStableFunc(enabled, func(a, b *Locale) int {
		if a.IsDefault != b.IsDefault {
			if a.IsDefault {
				return -1
			}
			return 1
		}
		return strings.Compare(a.Code, b.Code)
	})
	return enabled, nil
}

func (s *service) Get(ctx context.Context, code string) (*Locale, error) {
	if NormalizeCode(code) == "" {
		return nil, ErrCodeRequired
	}
	return s.repo.GetByCode(ctx, code)
}

func (s *service) Upsert(ctx context.Context, locale *Locale) (*Locale, error) {
	if locale == nil || NormalizeCode(locale.Code) == "" {
		return nil, ErrCodeRequired
	}
	if strings.TrimSpace(locale.Name) == "" {
		return nil, ErrNameRequired
	}
	if locale.IsDefault && !locale.IsEnabled {
		return nil, ErrDefaultDisabled
	}
	return s.repo.Upsert(ctx, locale)
}

func (s *service) SetDefault(ctx context.Context, code string) error {
	record, err := s.Get(ctx, code)
	if err != nil {
		return err
	}
	if !record.IsEnabled {
		return ErrDefaultDisabled
	}
	return s.repo.SetDefault(ctx, record.Code)
}

// Fallback uses the stored default when one exists, otherwise the configured
// default. With no stored locales the enabled set is left unrestricted.
func (s *service) Fallback(ctx context.Context) (Fallback, error) {
	records, err := s.repo.List(ctx)
	if err != nil {
		return Fallback{}, err
	}
	fb := Fallback{Default: s.defaultLocale}
	if len(records) == 0 {
		return fb, nil
	}
	fb.Enabled = make(map[string]bool, len(records))
	for _, record := range records {
		if record == nil || !record.IsEnabled {
			continue
		}
		fb.Enabled[record.Code] = true
		if record.IsDefault {
			fb.Default = record.Code
		}
	}
	return fb, nil
}

// IsNotFound reports whether err marks a missing locale.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
