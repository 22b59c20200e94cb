package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func bal(pending, extra string) Balance {
	return Balance{
		Pending: decimal.RequireFromString(pending),
		Extra:   decimal.RequireFromString(extra),
	}
}

func TestApplyCharge(t *testing.T) {
	cases := []struct {
		name      string
		start     Balance
		amount    string
		want      Balance
		wantDrawn string
	}{
		{"no extra raises pending", bal("100", "0"), "50", bal("150", "0"), "0"},
		{"extra covers charge fully", bal("0", "80"), "50", bal("0", "30"), "50"},
		{"extra covers charge partly", bal("20", "30"), "100", bal("90", "0"), "30"},
		{"zero charge", bal("40", "10"), "0", bal("40", "10"), "0"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, drawn := ApplyCharge(tc.start, decimal.RequireFromString(tc.amount))
			assert.True(t, tc.want.Pending.Equal(got.Pending), "pending %s != %s", got.Pending, tc.want.Pending)
			assert.True(t, tc.want.Extra.Equal(got.Extra), "extra %s != %s", got.Extra, tc.want.Extra)
			assert.True(t, decimal.RequireFromString(tc.wantDrawn).Equal(drawn))
		})
	}
}

func TestApplyPayment(t *testing.T) {
	cases := []struct {
		name         string
		start        Balance
		amount       string
		want         Balance
		wantOverflow string
	}{
		{"partial payment", bal("100", "0"), "60", bal("40", "0"), "0"},
		{"exact payment", bal("100", "0"), "100", bal("0", "0"), "0"},
		{"overpayment overflows to extra", bal("100", "0"), "150", bal("0", "50"), "50"},
		{"payment with nothing pending", bal("0", "20"), "30", bal("0", "50"), "30"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, overflow := ApplyPayment(tc.start, decimal.RequireFromString(tc.amount))
			assert.True(t, tc.want.Pending.Equal(got.Pending), "pending %s != %s", got.Pending, tc.want.Pending)
			assert.True(t, tc.want.Extra.Equal(got.Extra), "extra %s != %s", got.Extra, tc.want.Extra)
			assert.True(t, decimal.RequireFromString(tc.wantOverflow).Equal(overflow))
		})
	}
}

func TestReversePaymentInvertsApplyPayment(t *testing.T) {
	starts := []Balance{
		bal("100", "0"),
		bal("50", "25"),
		bal("0", "40"),
		bal("75.50", "0.50"),
	}
	amounts := []string{"10", "50", "120", "0.01"}

	for _, start := range starts {
		for _, raw := range amounts {
			amount := decimal.RequireFromString(raw)
			applied, _ := ApplyPayment(start, amount)
			reversed, _ := ReversePayment(applied, amount)
			assert.True(t, start.Pending.Equal(reversed.Pending),
				"pending not restored: start %v amount %s got %v", start, raw, reversed)
			assert.True(t, start.Extra.Equal(reversed.Extra),
				"extra not restored: start %v amount %s got %v", start, raw, reversed)
		}
	}
}

func TestReversePaymentDrawsExtraFirst(t *testing.T) {
	got, removed := ReversePayment(bal("10", "30"), decimal.RequireFromString("40"))
	assert.True(t, decimal.RequireFromString("30").Equal(removed))
	assert.True(t, decimal.RequireFromString("20").Equal(got.Pending))
	assert.True(t, decimal.Zero.Equal(got.Extra))
}

func TestReverseCharge(t *testing.T) {
	cases := []struct {
		name   string
		start  Balance
		amount string
		want   Balance
	}{
		{"lowers pending", bal("150", "0"), "100", bal("50", "0")},
		{"floors pending at zero", bal("30", "0"), "100", bal("0", "0")},
		{"never restores extra", bal("0", "20"), "50", bal("0", "20")},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ReverseCharge(tc.start, decimal.RequireFromString(tc.amount))
			assert.True(t, tc.want.Pending.Equal(got.Pending), "pending %s != %s", got.Pending, tc.want.Pending)
			assert.True(t, tc.want.Extra.Equal(got.Extra), "extra %s != %s", got.Extra, tc.want.Extra)
		})
	}
}
