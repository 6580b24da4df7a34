package outlier

import (
	"strings"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	got, err := LoadConfig("testfiles/config.toml")
	if err != nil {
		t.Fatal(err)
	}
	s6 := 1.0
	want := Config{
		NumFeatures:            64,
		NumBasis:               32,
		NumBlocks:              3,
		NumResidualAtomic:      1,
		NumResidualInteraction: 2,
		NumResidualOutput:      1,
		Cutoff:                 6.5,
		UseElectrostatic:       true,
		UseDispersion:          false,
		GrimmeS6:               &s6,
		Device:                 "cpu",
		DERType:                "MD",
	}
	compConfig(t, got, want)
}

func TestLoadConfigLegacy(t *testing.T) {
	got, err := LoadConfig("testfiles/legacy.cfg")
	if err != nil {
		t.Fatal(err)
	}
	s6, s8, a1, a2 := 1.0, 2.0, 0.5, 5.0
	want := Config{
		NumFeatures:            128,
		NumBasis:               64,
		NumBlocks:              5,
		NumResidualAtomic:      2,
		NumResidualInteraction: 3,
		NumResidualOutput:      1,
		Cutoff:                 10.0,
		UseElectrostatic:       true,
		UseDispersion:          true,
		GrimmeS6:               &s6,
		GrimmeS8:               &s8,
		GrimmeA1:               &a1,
		GrimmeA2:               &a2,
		Device:                 "cpu",
		DERType:                "simple",
	}
	compConfig(t, got, want)
}

func TestLoadConfigMissing(t *testing.T) {
	_, err := LoadConfig("testfiles/no_such_file")
	if err == nil {
		t.Error("wanted an error for a missing config")
	}
}

func TestLoadConfigBadValue(t *testing.T) {
	_, err := LoadConfig("testfiles/bad.cfg")
	if err == nil {
		t.Fatal("wanted an error for a malformed value")
	}
	if !strings.Contains(err.Error(), "cutoff") {
		t.Errorf("error %q does not name the bad key", err)
	}
}

func compConfig(t *testing.T, got, want Config) {
	t.Helper()
	if got.NumFeatures != want.NumFeatures ||
		got.NumBasis != want.NumBasis ||
		got.NumBlocks != want.NumBlocks ||
		got.NumResidualAtomic != want.NumResidualAtomic ||
		got.NumResidualInteraction != want.NumResidualInteraction ||
		got.NumResidualOutput != want.NumResidualOutput ||
		got.Cutoff != want.Cutoff ||
		got.UseElectrostatic != want.UseElectrostatic ||
		got.UseDispersion != want.UseDispersion ||
		got.Device != want.Device ||
		got.DERType != want.DERType {
		t.Errorf("got %+v, wanted %+v\n", got, want)
	}
	for _, p := range []struct {
		name      string
		got, want *float64
	}{
		{"grimme_s6", got.GrimmeS6, want.GrimmeS6},
		{"grimme_s8", got.GrimmeS8, want.GrimmeS8},
		{"grimme_a1", got.GrimmeA1, want.GrimmeA1},
		{"grimme_a2", got.GrimmeA2, want.GrimmeA2},
	} {
		switch {
		case (p.got == nil) != (p.want == nil):
			t.Errorf("%s: got %v, wanted %v\n", p.name, p.got, p.want)
		case p.got != nil && *p.got != *p.want:
			t.Errorf("%s: got %v, wanted %v\n", p.name, *p.got, *p.want)
		}
	}
}
