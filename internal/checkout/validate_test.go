package checkout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateInput(t *testing.T) {
	assert.NoError(t, ValidateInput("123 Main St", "6281234567890"))
}

func TestValidateInputBlankAddress(t *testing.T) {
	err := ValidateInput("   ", "6281234567890")

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "address", verr.Field)
}

func TestValidateInputPhone(t *testing.T) {
	cases := []struct {
		name  string
		phone string
	}{
		{"empty", ""},
		{"non numeric", "abc"},
		{"negative", "-42"},
		{"zero", "0"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateInput("123 Main St", tc.phone)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, "phone", verr.Field)
		})
	}
}
