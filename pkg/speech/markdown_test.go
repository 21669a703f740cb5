package speech

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPlainText(t *testing.T) {
	cases := map[string]string{
		"Welcome to our Hotel Booking Chatbot!":                   "Welcome to our Hotel Booking Chatbot!",
		"**Room** with a _view_":                                  "Room with a view",
		"# Booking\n\nYour room is `101`.":                        "Booking Your room is 101.",
		"- one night\n- two nights":                               "one night two nights",
		"See [our offers](https://example.com) for\nmore details": "See our offers for more details",
		"   ":                                                     "",
	}
	for in, want := range cases {
		require.Equal(t, want, PlainText(in), "input %q", in)
	}
}
