package strategy

import (
	"math"
	"testing"

	"github.com/eddiefleurent/income_radar/internal/options"
)

func bullPutFixture() *options.ChainSet {
	return testSet(100, testChain(100, 30, nil, []options.Leg{
		testLeg(options.Put, 90, 0.50, 0.60, -0.18),
		testLeg(options.Put, 95, 1.00, 1.10, -0.30),
	}))
}

func TestVertical_BullPut(t *testing.T) {
	// Short 95 (bid 1.00), matched long 90 (ask 0.60): net 0.40,
	// capital (5-0.40)*100 = 460, roi about 8.7%.
	cands := VerticalSpreadBuilder{}.Build(bullPutFixture(), DefaultParams())
	if len(cands) != 1 {
		t.Fatalf("got %d candidates, want 1", len(cands))
	}

	c := cands[0]
	if c.Variant != options.VariantBullPut {
		t.Fatalf("Variant = %s, want bull_put", c.Variant)
	}
	if c.NetPrice != 0.40 {
		t.Errorf("NetPrice = %.4f, want 0.40", c.NetPrice)
	}
	if math.Abs(c.CapitalAtRisk-460) > 1e-9 {
		t.Errorf("CapitalAtRisk = %.2f, want 460", c.CapitalAtRisk)
	}
	wantROI := 0.40 / 4.60
	if math.Abs(c.ROI-wantROI) > 1e-9 {
		t.Errorf("ROI = %.6f, want %.6f", c.ROI, wantROI)
	}
	if len(c.Breakevens) != 1 || math.Abs(c.Breakevens[0]-94.60) > 1e-9 {
		t.Errorf("Breakevens = %v, want [94.60]", c.Breakevens)
	}
	if math.Abs(c.NetDelta-0.12) > 1e-9 {
		t.Errorf("NetDelta = %.4f, want 0.12", c.NetDelta)
	}

	if len(c.Legs) != 2 {
		t.Fatalf("got %d legs, want 2", len(c.Legs))
	}
	if c.Legs[0].Side != options.Sell || c.Legs[0].Strike != 95 {
		t.Errorf("short leg = %+v, want sell at 95", c.Legs[0])
	}
	if c.Legs[1].Side != options.Buy || c.Legs[1].Strike != 90 {
		t.Errorf("long leg = %+v, want buy at 90", c.Legs[1])
	}
}

func TestVertical_CapitalMatchesWidthMinusCredit(t *testing.T) {
	// For every credit vertical surfaced, capital = (width-net)*100 > 0.
	set := testSet(100, testChain(100, 30, []options.Leg{
		testLeg(options.Call, 103, 1.40, 1.50, 0.38),
		testLeg(options.Call, 105, 0.90, 1.00, 0.28),
		testLeg(options.Call, 108, 0.55, 0.65, 0.21),
		testLeg(options.Call, 110, 0.45, 0.55, 0.16),
		testLeg(options.Call, 113, 0.25, 0.35, 0.10),
	}, []options.Leg{
		testLeg(options.Put, 87, 0.30, 0.40, -0.12),
		testLeg(options.Put, 90, 0.50, 0.60, -0.18),
		testLeg(options.Put, 92, 0.70, 0.80, -0.24),
		testLeg(options.Put, 95, 1.00, 1.10, -0.30),
		testLeg(options.Put, 97, 1.40, 1.50, -0.36),
	}))

	cands := VerticalSpreadBuilder{}.Build(set, DefaultParams())
	if len(cands) == 0 {
		t.Fatal("no candidates built")
	}

	for _, c := range cands {
		if c.Variant != options.VariantBullPut && c.Variant != options.VariantBearCall {
			continue
		}
		width := math.Abs(c.Legs[0].Strike - c.Legs[1].Strike)
		want := (width - c.NetPrice) * 100
		if math.Abs(c.CapitalAtRisk-want) > 1e-9 {
			t.Errorf("%s %v: CapitalAtRisk = %.2f, want %.2f", c.Variant, c.ShortStrikes(), c.CapitalAtRisk, want)
		}
		if c.CapitalAtRisk <= 0 {
			t.Errorf("%s %v: CapitalAtRisk = %.2f, want > 0", c.Variant, c.ShortStrikes(), c.CapitalAtRisk)
		}
		if !c.AnnualizedValid {
			t.Errorf("%s %v: AnnualizedValid = false, want true", c.Variant, c.ShortStrikes())
		}
	}
}

func TestVertical_NoLegWithinTolerance(t *testing.T) {
	// Gap chain: short anchor at 95 but nothing near the 90 target, so no
	// spread may be fabricated with a missing leg.
	set := testSet(100, testChain(100, 30, nil, []options.Leg{
		testLeg(options.Put, 87, 0.30, 0.40, -0.12),
		testLeg(options.Put, 95, 1.00, 1.10, -0.30),
	}))

	cands := VerticalSpreadBuilder{}.Build(set, DefaultParams())
	if len(cands) != 0 {
		t.Errorf("got %d candidates, want 0 when no protective leg matches", len(cands))
	}
}

func TestVertical_BullCallDebit(t *testing.T) {
	set := testSet(100, testChain(100, 30, []options.Leg{
		testLeg(options.Call, 98, 2.90, 3.00, 0.58),
		testLeg(options.Call, 103, 1.30, 1.40, 0.38),
	}, nil))

	bulls := byVariant(VerticalSpreadBuilder{}.Build(set, DefaultParams()), options.VariantBullCall)
	if len(bulls) != 1 {
		t.Fatalf("got %d bull call spreads, want 1", len(bulls))
	}

	c := bulls[0]
	// Debit = long ask 3.00 - short bid 1.30 = 1.70, against a 5 width.
	if math.Abs(c.NetPrice-(-1.70)) > 1e-9 {
		t.Errorf("NetPrice = %.4f, want -1.70", c.NetPrice)
	}
	if math.Abs(c.CapitalAtRisk-170) > 1e-9 {
		t.Errorf("CapitalAtRisk = %.2f, want 170", c.CapitalAtRisk)
	}
	wantROI := (5.0 - 1.70) / 1.70
	if math.Abs(c.ROI-wantROI) > 1e-9 {
		t.Errorf("ROI = %.6f, want %.6f", c.ROI, wantROI)
	}
	if len(c.Breakevens) != 1 || math.Abs(c.Breakevens[0]-99.70) > 1e-9 {
		t.Errorf("Breakevens = %v, want [99.70]", c.Breakevens)
	}
	if c.Legs[0].Side != options.Buy || c.Legs[1].Side != options.Sell {
		t.Errorf("legs = %+v, want long then short", c.Legs)
	}
	if !c.AnnualizedValid {
		t.Error("AnnualizedValid = false, want true for a bounded debit spread")
	}
}

func TestVertical_BearPutDebit(t *testing.T) {
	set := testSet(100, testChain(100, 30, nil, []options.Leg{
		testLeg(options.Put, 97, 1.40, 1.50, -0.40),
		testLeg(options.Put, 102, 3.10, 3.20, -0.55),
	}))

	bears := byVariant(VerticalSpreadBuilder{}.Build(set, DefaultParams()), options.VariantBearPut)
	if len(bears) != 1 {
		t.Fatalf("got %d bear put spreads, want 1", len(bears))
	}

	c := bears[0]
	// Debit = 3.20 - 1.40 = 1.80; breakeven = 102 - 1.80 = 100.20.
	if math.Abs(c.NetPrice-(-1.80)) > 1e-9 {
		t.Errorf("NetPrice = %.4f, want -1.80", c.NetPrice)
	}
	if len(c.Breakevens) != 1 || math.Abs(c.Breakevens[0]-100.20) > 1e-9 {
		t.Errorf("Breakevens = %v, want [100.20]", c.Breakevens)
	}
	if c.NetDelta >= 0 {
		t.Errorf("NetDelta = %.4f, want negative for a bearish spread", c.NetDelta)
	}
}
