package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  tom   brady ", "Tom Brady"},
		{"A. Donovan", "A Donovan"},
		{"ken griffey jr.", "Ken Griffey Jr"},
		{"DONNIE SHELL SR", "Donnie Shell Sr"},
		{"robert griffin iii", "Robert Griffin III"},
		{"frank gore ii", "Frank Gore II"},
		{"", ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CleanName(tt.in), "input %q", tt.in)
	}
}
