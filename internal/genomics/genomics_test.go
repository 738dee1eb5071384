package genomics

import "testing"

func TestParseRegion(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  Region
	}{
		{"full range", "chr22:16051400-16051500", Region{"chr22", 16051400, 16051500}},
		{"bare reference", "chr22", Region{ReferenceName: "chr22"}},
		{"bare numeric reference", "22", Region{ReferenceName: "22"}},
		{"open end", "22:100-0", Region{"22", 100, 0}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseRegion(tc.input)
			if err != nil {
				t.Fatalf("ParseRegion(%q) failed: %v", tc.input, err)
			}
			if got != tc.want {
				t.Errorf("Wrong region: got %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestParseRegion_Invalid(t *testing.T) {
	testCases := []struct{ name, input string }{
		{"empty", ""},
		{"missing name", ":100-200"},
		{"missing end", "22:100"},
		{"non-numeric start", "22:abc-200"},
		{"non-numeric end", "22:100-def"},
		{"end before start", "22:200-100"},
		{"negative start", "22:-1-200"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got, err := ParseRegion(tc.input); err == nil {
				t.Errorf("ParseRegion(%q) = %+v, expected an error", tc.input, got)
			}
		})
	}
}

func TestReferenceName(t *testing.T) {
	testCases := []struct {
		input string
		style string
		want  string
	}{
		{"22", StyleUCSC, "chr22"},
		{"chr22", StyleUCSC, "chr22"},
		{"chr22", StyleNCBI, "22"},
		{"22", StyleNCBI, "22"},
		{"22", StyleEnsembl, "22"},
		{"22", StyleDBSNP, "ch22"},
		{"ch22", StyleUCSC, "chr22"},
		{"MT", StyleUCSC, "chrM"},
		{"chrM", StyleNCBI, "MT"},
		{"M", StyleDBSNP, "chMT"},
		{"X", StyleUCSC, "chrX"},
	}
	for _, tc := range testCases {
		t.Run(tc.input+"_"+tc.style, func(t *testing.T) {
			got, err := ReferenceName(tc.input, tc.style)
			if err != nil {
				t.Fatalf("ReferenceName failed: %v", err)
			}
			if got != tc.want {
				t.Errorf("Wrong name: got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestReferenceName_UnknownStyle(t *testing.T) {
	if got, err := ReferenceName("22", "GRC"); err == nil {
		t.Errorf("ReferenceName = %q, expected an error", got)
	}
	if err := CheckStyle("GRC"); err == nil {
		t.Error("CheckStyle accepted an unknown style")
	}
}
