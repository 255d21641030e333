package models

import (
	"errors"
	"testing"
)

var errTest = errors.New("boom")

func TestNewPagination_RoundsPagesUp(t *testing.T) {
	cases := []struct {
		page, limit int
		total       int64
		pages       int
	}{
		{1, 20, 0, 0},
		{1, 20, 20, 1},
		{1, 20, 21, 2},
		{3, 10, 95, 10},
	}
	for _, tc := range cases {
		p := NewPagination(tc.page, tc.limit, tc.total)
		if p.Pages != tc.pages {
			t.Fatalf("pages for total=%d limit=%d: expected %d, got %d", tc.total, tc.limit, tc.pages, p.Pages)
		}
	}
}

func TestSeverityRank_Ordering(t *testing.T) {
	if !(SeverityError.Rank() > SeverityWarning.Rank() &&
		SeverityWarning.Rank() > SeverityInfo.Rank() &&
		SeverityInfo.Rank() > SeverityOK.Rank()) {
		t.Fatal("severity ranks out of order")
	}
}

func TestFailedFinding_Shape(t *testing.T) {
	f := FailedFinding(errTest)
	if f.Checks != 1 || f.Passed != 0 || f.Failed != 1 || f.Warnings != 0 {
		t.Fatalf("unexpected synthetic finding %+v", f)
	}
	if f.Error != "boom" {
		t.Fatalf("expected error message preserved, got %q", f.Error)
	}
}
