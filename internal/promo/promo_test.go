package promo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/manuwestern/dionwebsite/internal/content"
)

func TestVisible(t *testing.T) {
	p := Policy{Enabled: true, Delay: 8 * time.Second}
	offer := content.Promo{Title: "Winter", Text: "10% off", Routes: []string{"/", "/treatments"}}

	tests := []struct {
		name      string
		path      string
		dismissed bool
		want      bool
	}{
		{"home", "/", false, true},
		{"nested route", "/treatments/fue", false, true},
		{"prefix only", "/treatmentsx", false, false},
		{"other page", "/prices", false, false},
		{"dismissed", "/", true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, p.Visible(offer, tt.path, tt.dismissed))
		})
	}

	require.False(t, Policy{}.Visible(offer, "/", false), "disabled policy")
	require.False(t, p.Visible(content.Promo{}, "/", false), "empty promo")
	require.True(t, p.Visible(content.Promo{Title: "x"}, "/", false), "default route is home")
}

func TestBuild(t *testing.T) {
	p := Policy{Enabled: true, Delay: 1500 * time.Millisecond}
	popup := p.Build(content.Promo{Title: "Offer", CTAHref: "/appointment"}, "/", false)
	require.NotNil(t, popup)
	require.Equal(t, int64(1500), popup.DelayMS)
	require.Nil(t, p.Build(content.Promo{Title: "Offer"}, "/", true))
}
