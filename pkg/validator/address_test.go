package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	n := NewAddressNormalizer()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Lowercases", "Rua Nova", "ruanova"},
		{"Strips commas and spaces", "Rua de Cima, 10", "ruadecima10"},
		{"Strips periods and hyphens", "Av. D. Afonso - 3", "avdafonso3"},
		{"Folds diacritics", "Rua de São Jerónimo - 10", "ruadesaojeronimo10"},
		{"Trims surrounding whitespace", "  Largo do Toural 5  ", "largodotoural5"},
		{"Empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, n.Normalize(tt.input))
		})
	}
}

func TestEqual(t *testing.T) {
	n := NewAddressNormalizer()

	t.Run("Punctuation and diacritic variants collide", func(t *testing.T) {
		assert.True(t, n.Equal("Rua de Sao Jeronimo, 10", "Rua de São Jerónimo - 10"))
	})

	t.Run("Different house numbers do not collide", func(t *testing.T) {
		assert.False(t, n.Equal("Rua de Sao Jeronimo, 10", "Rua de Sao Jeronimo, 11"))
	})
}

func TestValidateAddress(t *testing.T) {
	n := NewAddressNormalizer()

	t.Run("Valid address is trimmed", func(t *testing.T) {
		morada, err := n.ValidateAddress("  Rua Nova, 1 ")
		assert.NoError(t, err)
		assert.Equal(t, "Rua Nova, 1", morada)
	})

	t.Run("Empty address rejected", func(t *testing.T) {
		_, err := n.ValidateAddress("   ")
		assert.ErrorIs(t, err, ErrEmptyAddress)
	})
}

func TestValidatePostalCode(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		codigo, err := ValidatePostalCode("4800-058")
		assert.NoError(t, err)
		assert.Equal(t, "4800-058", codigo)
	})

	t.Run("Missing hyphen", func(t *testing.T) {
		_, err := ValidatePostalCode("4800058")
		assert.ErrorIs(t, err, ErrInvalidPostalCode)
	})

	t.Run("Empty", func(t *testing.T) {
		_, err := ValidatePostalCode("")
		assert.ErrorIs(t, err, ErrEmptyPostalCode)
	})
}
