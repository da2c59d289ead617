package universe

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberwatch/emberwatch/internal/apperr"
)

const sampleRegistry = `
universes:
  - name: clojure
    seed: [richhickey, swannodette, puredanger]
    window_hours: 48
    quantity: 10
  - name: golang
    seed:
      - robpike
      - bradfitz
`

func TestParseRegistry(t *testing.T) {
	reg, err := Parse(strings.NewReader(sampleRegistry))
	require.NoError(t, err)

	assert.Equal(t, []string{"clojure", "golang"}, reg.Names())

	clj, err := reg.Get("clojure")
	require.NoError(t, err)
	assert.Equal(t, 48, clj.WindowHours)
	assert.Equal(t, 10, clj.Quantity)
	assert.Len(t, clj.Seed, 3)

	golang, err := reg.Get("golang")
	require.NoError(t, err)
	assert.Equal(t, defaultWindowHours, golang.WindowHours, "unset knobs pick up defaults")
	assert.Equal(t, defaultQuantity, golang.Quantity)
}

func TestGetUnknownUniverse(t *testing.T) {
	reg, err := Parse(strings.NewReader(sampleRegistry))
	require.NoError(t, err)

	_, err = reg.Get("haskell")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestParseRejectsBadRegistries(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"empty file", `universes: []`},
		{"missing name", "universes:\n  - seed: [somebody]"},
		{"missing seed", "universes:\n  - name: quiet"},
		{"duplicate name", "universes:\n  - name: dup\n    seed: [a]\n  - name: dup\n    seed: [b]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.yaml))
			require.Error(t, err)

			var verr *apperr.ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}
}
