package model

import "testing"

func TestAggregate(t *testing.T) {
	v := Verification{Status: StatusVerified}
	p := Verification{Status: StatusPartialMatch}
	n := Verification{Status: StatusNotFound}
	c := Verification{Status: StatusContextMismatch}

	tests := []struct {
		name     string
		outcomes []Verification
		want     VerificationStatus
	}{
		{"no outcomes", nil, StatusNotFound},
		{"all verified", []Verification{v, v}, StatusVerified},
		{"single verified", []Verification{v}, StatusVerified},
		{"verified and not found", []Verification{v, n}, StatusPartialMatch},
		{"verified and mismatch", []Verification{v, c}, StatusPartialMatch},
		{"fuzzy only", []Verification{p, p}, StatusNotFound},
		{"none verified", []Verification{n, c}, StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Aggregate(tt.outcomes); got != tt.want {
				t.Errorf("Aggregate = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestTally(t *testing.T) {
	r := ExtractionResult{
		TotalAssertions: 4,
		Items: []EvidenceItem{
			{Status: StatusVerified},
			{Status: StatusPartialMatch},
			{Status: StatusNotFound},
			{Status: StatusContextMismatch},
		},
	}
	r.Tally()

	if r.VerifiedCount != 1 || r.PartialCount != 1 || r.NotFoundCount != 2 {
		t.Errorf("tally = %d/%d/%d, want 1/1/2",
			r.VerifiedCount, r.PartialCount, r.NotFoundCount)
	}
}

func TestTally_Recomputes(t *testing.T) {
	r := ExtractionResult{VerifiedCount: 99, Items: []EvidenceItem{{Status: StatusNotFound}}}
	r.Tally()
	if r.VerifiedCount != 0 || r.NotFoundCount != 1 {
		t.Errorf("stale counters survived: %+v", r)
	}
}
