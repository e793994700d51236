package services

import (
	"math"
	"testing"

	"strangler/contexts/migration-control/arbiter-service/domain/entities"
)

func TestCompareBalancesEpsilonBoundary(t *testing.T) {
	cases := []struct {
		name    string
		legacy  float64
		modern  float64
		matched bool
	}{
		{name: "delta equal to epsilon", legacy: 100.0000, modern: 99.9999, matched: false},
		{name: "delta below epsilon", legacy: 100.00000, modern: 100.00005, matched: true},
		{name: "identical balances", legacy: 42.5, modern: 42.5, matched: true},
		{name: "large drift", legacy: 150, modern: 100, matched: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := CompareBalances(
				"tx-1",
				"php",
				entities.AccountSnapshot{AccountNumber: "ACC-1", Balance: tc.legacy},
				entities.AccountSnapshot{AccountNumber: "ACC-1", Balance: tc.modern, IsShadow: true},
				entities.DefaultBalanceEpsilon,
			)
			if result.Matched != tc.matched {
				t.Fatalf("expected matched=%v, got %v (delta=%v)", tc.matched, result.Matched, result.Delta)
			}
			if want := math.Abs(tc.legacy - tc.modern); result.Delta != want {
				t.Fatalf("expected delta %v, got %v", want, result.Delta)
			}
			if result.TransactionID != "tx-1" || result.AccountNumber != "ACC-1" {
				t.Fatalf("unexpected identity fields: %+v", result)
			}
		})
	}
}

func TestCompareBalancesFallsBackToDefaultEpsilon(t *testing.T) {
	result := CompareBalances(
		"tx-2",
		"php",
		entities.AccountSnapshot{Balance: 10},
		entities.AccountSnapshot{Balance: 10.00001, IsShadow: true},
		0,
	)
	if !result.Matched {
		t.Fatalf("expected match under default epsilon, got delta=%v", result.Delta)
	}
}

func TestNormalizeWeight(t *testing.T) {
	eighty, seventy, step := 0.8, 0.7, 0.1
	cases := []struct {
		in   float64
		want float64
	}{
		{in: -0.2, want: 0},
		{in: 0, want: 0},
		{in: eighty + step, want: 0.9},
		{in: seventy + step, want: 0.8},
		{in: 1.0000001, want: 1},
		{in: math.NaN(), want: 0},
		{in: 0.333333333, want: 0.333333333},
	}
	for _, tc := range cases {
		if got := NormalizeWeight(tc.in); got != tc.want {
			t.Fatalf("NormalizeWeight(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestNextWeightWalksToOneInTenSteps(t *testing.T) {
	weight := 0.0
	for i := 0; i < 10; i++ {
		weight = NextWeight(weight, 0.10)
	}
	if weight != 1.0 {
		t.Fatalf("expected weight 1.0 after ten steps, got %v", weight)
	}
	if got := NextWeight(0.95, 0.10); got != 1.0 {
		t.Fatalf("expected cap at 1.0, got %v", got)
	}
}
