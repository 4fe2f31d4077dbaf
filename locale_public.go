package pageblocks

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/goliatone/go-pageblocks/internal/locales"
)

var (
	// ErrLocaleCodeRequired indicates locale lookups require a non-empty locale code.
	ErrLocaleCodeRequired = errors.New("pageblocks: locale code is required")
	// ErrUnknownLocale indicates locale lookup failed because the locale code is unknown.
	ErrUnknownLocale = locales.ErrNotFound
)

// LocaleNotFoundError describes unknown locale-code lookups and unwraps to ErrUnknownLocale.
type LocaleNotFoundError struct {
	Code string
}

func (e *LocaleNotFoundError) Error() string {
	code := strings.TrimSpace(e.Code)
	if code == "" {
		return "pageblocks: locale not found"
	}
	return fmt.Sprintf("pageblocks: locale %q not found", code)
}

func (e *LocaleNotFoundError) Unwrap() error {
	return ErrUnknownLocale
}

// LocaleInfo is the stable public locale view.
type LocaleInfo struct {
	ID         uuid.UUID
	Code       string
	Name       string
	NativeName string
	IsEnabled  bool
	IsDefault  bool
	IsRTL      bool
}

// LocaleService resolves and manages locale records through the public contract.
type LocaleService interface {
	ResolveByCode(ctx context.Context, code string) (LocaleInfo, error)
	// SetDefault makes code the only default locale and invalidates every
	// entry that may have been served through the previous default.
	SetDefault(ctx context.Context, code string) error
}

type localeService struct {
	module *Module
}

func newLocaleService(m *Module) LocaleService {
	return &localeService{module: m}
}

func (s *localeService) ResolveByCode(ctx context.Context, code string) (LocaleInfo, error) {
	if s == nil || s.module == nil || s.module.container == nil {
		return LocaleInfo{}, errNilModule
	}

	code = strings.TrimSpace(code)
	if code == "" {
		return LocaleInfo{}, ErrLocaleCodeRequired
	}

	locale, err := s.module.container.LocaleService().Get(ctx, code)
	if err != nil {
		if locales.IsNotFound(err) {
			return LocaleInfo{}, &LocaleNotFoundError{Code: code}
		}
		return LocaleInfo{}, err
	}
	if locale == nil {
		return LocaleInfo{}, &LocaleNotFoundError{Code: code}
	}

	return LocaleInfo{
		ID:         locale.ID,
		Code:       locale.Code,
		Name:       locale.Name,
		NativeName: locale.NativeName,
		IsEnabled:  locale.IsEnabled,
		IsDefault:  locale.IsDefault,
		IsRTL:      locale.IsRTL,
	}, nil
}

func (s *localeService) SetDefault(ctx context.Context, code string) error {
	if s == nil || s.module == nil || s.module.container == nil {
		return errNilModule
	}
	err := s.module.container.SeedingService().SetDefaultLocale(ctx, code)
	if locales.IsNotFound(err) {
		return &LocaleNotFoundError{Code: code}
	}
	return err
}
