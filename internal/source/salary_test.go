package source

import "testing"

func TestParseSalaryRange(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantMin float64
		wantMax float64
		wantNil bool
	}{
		{
			name:    "dollar range with commas",
			text:    "$50,000 - $75,000 a year",
			wantMin: 50000,
			wantMax: 75000,
		},
		{
			name:    "k suffix range",
			text:    "$50k-$75k",
			wantMin: 50000,
			wantMax: 75000,
		},
		{
			name:    "single value",
			text:    "$120,000 per year",
			wantMin: 120000,
			wantMax: 120000,
		},
		{
			name:    "single k value",
			text:    "Up to $80k",
			wantMin: 80000,
			wantMax: 80000,
		},
		{
			name:    "range without symbols",
			text:    "90000 - 110000",
			wantMin: 90000,
			wantMax: 110000,
		},
		{
			name:    "no salary",
			text:    "Full-time",
			wantNil: true,
		},
		{
			name:    "empty",
			text:    "",
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			min, max := ParseSalaryRange(tt.text)
			if tt.wantNil {
				if min != nil || max != nil {
					t.Errorf("ParseSalaryRange(%q) = (%v, %v), want nils", tt.text, min, max)
				}
				return
			}
			if min == nil || max == nil {
				t.Fatalf("ParseSalaryRange(%q) = (%v, %v), want values", tt.text, min, max)
			}
			if *min != tt.wantMin || *max != tt.wantMax {
				t.Errorf("ParseSalaryRange(%q) = (%v, %v), want (%v, %v)",
					tt.text, *min, *max, tt.wantMin, tt.wantMax)
			}
		})
	}
}
