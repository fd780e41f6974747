package strategy

import (
	"testing"

	"github.com/eddiefleurent/income_radar/internal/options"
)

func TestMatchLeg(t *testing.T) {
	pool := []options.Leg{
		testLeg(options.Put, 85, 0.30, 0.40, -0.10),
		testLeg(options.Put, 90, 0.50, 0.60, -0.18),
		testLeg(options.Put, 95, 1.00, 1.10, -0.30),
		testLeg(options.Put, 100, 2.00, 2.10, -0.48),
	}

	tests := []struct {
		name       string
		anchor     float64
		width      float64
		dir        MatchDirection
		tolerance  float64
		wantStrike float64
		wantOK     bool
	}{
		{
			name:   "exact match below",
			anchor: 95, width: 5, dir: MatchBelow, tolerance: 0.5,
			wantStrike: 90, wantOK: true,
		},
		{
			name:   "exact match above",
			anchor: 90, width: 5, dir: MatchAbove, tolerance: 0.5,
			wantStrike: 95, wantOK: true,
		},
		{
			name:   "no strike within tolerance",
			anchor: 95, width: 7, dir: MatchBelow, tolerance: 0.5,
			wantOK: false, // target 88, nearest grid strikes are 2 away
		},
		{
			name:   "sparse tolerance admits nearby strike",
			anchor: 95, width: 7, dir: MatchBelow, tolerance: 2.0,
			wantStrike: 90, wantOK: true,
		},
		{
			name:   "anchor strike itself is never matched",
			anchor: 95, width: 0.2, dir: MatchBelow, tolerance: 0.5,
			wantOK: false, // target 94.8; only the anchor is that close
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			anchor := testLeg(options.Put, tt.anchor, 1.00, 1.10, -0.30)
			got, ok := MatchLeg(anchor, pool, tt.width, tt.dir, tt.tolerance)
			if ok != tt.wantOK {
				t.Fatalf("MatchLeg() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got.Strike != tt.wantStrike {
				t.Errorf("MatchLeg() strike = %.1f, want %.1f", got.Strike, tt.wantStrike)
			}
		})
	}
}

func TestBuildCreditSpread(t *testing.T) {
	p := DefaultParams()

	tests := []struct {
		name    string
		anchor  options.Leg
		pool    []options.Leg
		wantNet float64
		wantOK  bool
	}{
		{
			name:   "standard bull put pricing",
			anchor: testLeg(options.Put, 95, 1.00, 1.10, -0.30),
			pool: []options.Leg{
				testLeg(options.Put, 90, 0.50, 0.60, -0.18),
				testLeg(options.Put, 95, 1.00, 1.10, -0.30),
			},
			wantNet: 0.40, // short bid 1.00 minus long ask 0.60
			wantOK:  true,
		},
		{
			name:   "credit below minimum rejected",
			anchor: testLeg(options.Put, 95, 0.605, 0.70, -0.30),
			pool: []options.Leg{
				testLeg(options.Put, 90, 0.50, 0.60, -0.18),
			},
			wantOK: false, // net 0.005 is below the 0.01 floor
		},
		{
			name:   "credit swallowing the width rejected",
			anchor: testLeg(options.Put, 95, 6.00, 6.20, -0.30),
			pool: []options.Leg{
				testLeg(options.Put, 90, 0.50, 0.60, -0.18),
			},
			wantOK: false, // net 5.40 against a 5 width leaves no loss side
		},
		{
			name:   "no protective leg in range",
			anchor: testLeg(options.Put, 95, 1.00, 1.10, -0.30),
			pool: []options.Leg{
				testLeg(options.Put, 80, 0.10, 0.20, -0.05),
			},
			wantOK: false,
		},
		{
			name:   "unquoted long ask rejected",
			anchor: testLeg(options.Put, 95, 1.00, 1.10, -0.30),
			pool: []options.Leg{
				testLeg(options.Put, 90, 0.50, 0, -0.18),
			},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cs, ok := buildCreditSpread(tt.anchor, tt.pool, MatchBelow, p)
			if ok != tt.wantOK {
				t.Fatalf("buildCreditSpread() ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if cs.net != tt.wantNet {
				t.Errorf("net = %.2f, want %.2f", cs.net, tt.wantNet)
			}
			if cs.maxLoss != cs.width-cs.net {
				t.Errorf("maxLoss = %.2f, want width-net = %.2f", cs.maxLoss, cs.width-cs.net)
			}
			if cs.maxLoss <= 0 {
				t.Errorf("maxLoss = %.2f, want > 0", cs.maxLoss)
			}
		})
	}
}
