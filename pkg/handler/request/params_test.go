package request

import (
	"errors"
	"net/url"
	"testing"

	"github.com/yumyai/roaryviz/pkg/model"
)

func TestThresholds(t *testing.T) {
	def := model.DefaultThresholds()

	tests := []struct {
		query   string
		want    model.Thresholds
		wantErr error
	}{
		{"", def, nil},
		{"core=0.9&softcore=0.8&shell=0.1", model.Thresholds{Core: 0.9, Softcore: 0.8, Shell: 0.1}, nil},
		{"shell=0.2", model.Thresholds{Core: 0.99, Softcore: 0.95, Shell: 0.2}, nil},
		{"core=abc", def, ErrInvalidParam},
		{"core=0.5", def, model.ErrInvalidThresholds},
		{"shell=-1", def, model.ErrInvalidThresholds},
	}

	for _, tt := range tests {
		q, _ := url.ParseQuery(tt.query)
		got, err := Thresholds(q, def)
		if !errors.Is(err, tt.wantErr) {
			t.Errorf("Thresholds(%q) error = %v, want %v", tt.query, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("Thresholds(%q) = %+v, want %+v", tt.query, got, tt.want)
		}
	}
}

func TestPermutations(t *testing.T) {
	tests := []struct {
		query   string
		want    int
		wantErr error
	}{
		{"", 50, nil},
		{"permutations=200", 200, nil},
		{"permutations=0", 0, model.ErrInvalidPermutations},
		{"permutations=-3", 0, model.ErrInvalidPermutations},
		{"permutations=1001", 0, model.ErrInvalidPermutations},
		{"permutations=x", 0, ErrInvalidParam},
	}

	for _, tt := range tests {
		q, _ := url.ParseQuery(tt.query)
		got, err := Permutations(q, 50, 1000)
		if !errors.Is(err, tt.wantErr) || got != tt.want {
			t.Errorf("Permutations(%q) = %d, %v; want %d, %v", tt.query, got, err, tt.want, tt.wantErr)
		}
	}
}

func TestSeedPatternFlag(t *testing.T) {
	q, _ := url.ParseQuery("seed=-42&pattern=Rare&regions=yes")

	seed, ok, err := Seed(q)
	if err != nil || !ok || seed != -42 {
		t.Errorf("Seed = %d, %v, %v", seed, ok, err)
	}
	if _, ok, _ := Seed(url.Values{}); ok {
		t.Errorf("Seed without value reported ok")
	}
	if _, _, err := Seed(url.Values{"seed": {"1.5"}}); !errors.Is(err, ErrInvalidParam) {
		t.Errorf("Seed(1.5) error = %v", err)
	}

	p, err := Pattern(q)
	if err != nil || p != model.PatternRare {
		t.Errorf("Pattern = %v, %v", p, err)
	}
	if _, err := Pattern(url.Values{"pattern": {"frequent"}}); !errors.Is(err, model.ErrUnknownPattern) {
		t.Errorf("Pattern(frequent) error = %v", err)
	}

	if !Flag(q, KeyRegions) || Flag(q, "missing") {
		t.Errorf("Flag mismatch")
	}
}
