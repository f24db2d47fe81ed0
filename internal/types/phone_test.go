package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhoneE164(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0612345678", "+33612345678"},
		{"33612345678", "+33612345678"},
		{"+33612345678", "+33612345678"},
		{"06 12 34 56 78", "+33612345678"},
		{"06.12.34.56.78", "+33612345678"},
		{"notaphone", ""},
		{"061234567", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizePhoneE164(tt.in))
		})
	}
}
