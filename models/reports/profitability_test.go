package reports

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestComputeProfitability_ZeroOverheadIsZeroNotFault(t *testing.T) {
	got := ComputeProfitability(decimal.NewFromInt(5000), decimal.Zero)
	if !got.IsZero() {
		t.Fatalf("expected 0 for zero overhead, got %s", got)
	}
}

func TestComputeProfitability_Ratio(t *testing.T) {
	cases := []struct {
		revenue  int64
		overhead int64
		want     string
	}{
		{3000, 1000, "3"},
		{1000, 3000, "0.3333"},
		{0, 1000, "0"},
		{1500, 1500, "1"},
	}
	for _, c := range cases {
		got := ComputeProfitability(decimal.NewFromInt(c.revenue), decimal.NewFromInt(c.overhead))
		if got.String() != c.want {
			t.Fatalf("revenue=%d overhead=%d: expected %s, got %s", c.revenue, c.overhead, c.want, got)
		}
	}
}
