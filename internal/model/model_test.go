package model

import "testing"

func TestProfileNameSplit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		full  string
		first string
		last  string
	}{
		{
			name:  "simple pair",
			full:  "Jane Doe",
			first: "Jane",
			last:  "Doe",
		},
		{
			name:  "multi-part last name",
			full:  "Maria del Carmen Ruiz",
			first: "Maria",
			last:  "del Carmen Ruiz",
		},
		{
			name:  "single word",
			full:  "Cher",
			first: "Cher",
			last:  "",
		},
		{
			name:  "empty",
			full:  "",
			first: "",
			last:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := &Profile{FullName: tt.full}
			if got := p.FirstName(); got != tt.first {
				t.Fatalf("expected first name %q, got %q", tt.first, got)
			}
			if got := p.LastName(); got != tt.last {
				t.Fatalf("expected last name %q, got %q", tt.last, got)
			}
		})
	}
}

func TestQuotaPolicyNormalize(t *testing.T) {
	t.Parallel()

	p := &QuotaPolicy{MaxDailyApplications: -1, MinMatchScore: 150, Mode: "bogus"}
	p.Normalize()

	if p.MaxDailyApplications != 0 {
		t.Fatalf("expected daily cap clamped to 0, got %d", p.MaxDailyApplications)
	}
	if p.MinMatchScore != 100 {
		t.Fatalf("expected min score clamped to 100, got %d", p.MinMatchScore)
	}
	if p.Mode != ModeReview {
		t.Fatalf("expected unknown mode to fall back to review, got %q", p.Mode)
	}
}

func TestScanIntervalDefaultsToOneHour(t *testing.T) {
	t.Parallel()

	p := &QuotaPolicy{}
	if got := p.ScanInterval().Hours(); got != 1 {
		t.Fatalf("expected 1 hour default, got %v", got)
	}
}
