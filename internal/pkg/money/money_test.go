package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMajor(t *testing.T) {
	tests := []struct {
		in       string
		currency string
		want     int64
		wantErr  bool
	}{
		{in: "25", currency: "INR", want: 2500},
		{in: "25.5", currency: "INR", want: 2550},
		{in: " 0.01 ", currency: "usd", want: 1},
		{in: "1000", currency: "JPY", want: 1000},
		{in: "1.005", currency: "INR", wantErr: true},
		{in: "10.5", currency: "JPY", wantErr: true},
		{in: "0", currency: "INR", wantErr: true},
		{in: "-3", currency: "INR", wantErr: true},
		{in: "abc", currency: "INR", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in+"/"+tt.currency, func(t *testing.T) {
			got, err := ParseMajor(tt.in, tt.currency)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidAmount)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "₹2500.50", Format(250050, "INR"))
	assert.Equal(t, "$0.07", Format(7, "USD"))
	assert.Equal(t, "¥1200", Format(1200, "JPY"))
	assert.Equal(t, "12.00 CHF", Format(1200, "chf"))
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 25.0, Percent(2500, 10000))
	assert.Equal(t, 33.3, Percent(1, 3))
	assert.Equal(t, 0.0, Percent(5, 0))
}
