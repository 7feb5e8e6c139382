package vocabulary

import "testing"

func TestAliasTargetsAreCanonical(t *testing.T) {
	for alias, code := range aliases {
		if !IsCanonical(code) {
			t.Errorf("alias %q maps to non-canonical %q", alias, code)
		}
		if IsCanonical(alias) {
			t.Errorf("alias %q shadows a canonical code", alias)
		}
	}
}

func TestCrisisCodesAreCanonical(t *testing.T) {
	for _, c := range CrisisCodes {
		if !IsCanonical(c) {
			t.Errorf("crisis code %q is not canonical", c)
		}
	}
}

func TestNormalize(t *testing.T) {
	tests := map[string]string{
		"Crisis Hotline":     "crisis_hotline",
		"  peer-support ":    "peer_support",
		"OUTPATIENT_THERAPY": "outpatient_therapy",
		"":                   "",
	}
	for in, want := range tests {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestAlias(t *testing.T) {
	code, ok := Alias("crisis_hotline")
	if !ok || code != CrisisLine {
		t.Errorf("Alias(crisis_hotline) = %q, %v", code, ok)
	}
	if _, ok := Alias("astrology"); ok {
		t.Error("unexpected alias for unknown value")
	}
}

func TestCodes(t *testing.T) {
	if got := len(Codes()); got != len(canonical) {
		t.Errorf("Codes() returned %d codes, want %d", got, len(canonical))
	}
}
