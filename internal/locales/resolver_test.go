package locales_test

import (
	"testing"

	"github.com/goliatone/go-pageblocks/internal/locales"
)

type translation struct {
	locale string
	body   string
}

func localeOf(tr translation) string { return tr.locale }

func TestResolveTiers(t *testing.T) {
	candidates := []translation{
		{locale: "fr", body: "bonjour"},
		{locale: "EN", body: "hello"},
		{locale: "de", body: "hallo"},
	}

	cases := []struct {
		name      string
		requested string
		fallback  locales.Fallback
		want      string
		tier      locales.Tier
	}{
		{"exact", "de", locales.Fallback{Default: "en"}, "hallo", locales.TierExact},
		{"exact is case insensitive", " En ", locales.Fallback{}, "hello", locales.TierExact},
		{"default", "es", locales.Fallback{Default: "en"}, "hello", locales.TierDefault},
		{"first in insertion order", "es", locales.Fallback{Default: "it"}, "bonjour", locales.TierFirst},
		{"empty request falls back", "", locales.Fallback{Default: "de"}, "hallo", locales.TierDefault},
		{
			"disabled default skipped",
			"es",
			locales.Fallback{Default: "en", Enabled: map[string]bool{"de": true}},
			"hallo",
			locales.TierFirst,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := locales.Resolve(candidates, localeOf, tc.requested, tc.fallback)
			if !res.Found() {
				t.Fatalf("expected resolution for %q", tc.requested)
			}
			if res.Value.body != tc.want || res.Tier != tc.tier {
				t.Fatalf("expected %q via %s, got %q via %s", tc.want, tc.tier, res.Value.body, res.Tier)
			}
		})
	}
}

func TestResolveIsTotal(t *testing.T) {
	requests := []string{"", "en", "zz-ZZ", "🙂", "en_US", "   "}
	for _, requested := range requests {
		res := locales.Resolve[translation](nil, localeOf, requested, locales.Fallback{Default: "en"})
		if res.Found() {
			t.Fatalf("expected no resolution for empty candidates, got %+v", res)
		}

		res = locales.Resolve([]translation{{locale: "pt"}}, localeOf, requested, locales.Fallback{Default: "en"})
		if !res.Found() || res.Locale != "pt" {
			t.Fatalf("expected pt for %q, got %+v", requested, res)
		}
	}
}

func TestResolveNoEnabledCandidate(t *testing.T) {
	res := locales.Resolve([]translation{{locale: "fr"}}, localeOf, "es", locales.Fallback{Enabled: map[string]bool{}})
	if res.Found() {
		t.Fatalf("expected disabled-only candidates to resolve to none, got %+v", res)
	}
	if res.Fallback() {
		t.Fatalf("expected no fallback flag on empty resolution")
	}
}
