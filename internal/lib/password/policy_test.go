package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate_MaxLength(t *testing.T) {
	atLimit := strings.Repeat("a", MaxLength-2) + "1!"
	assert.NoError(t, Validate(atLimit))

	_, err := GetHash(atLimit, 4)
	assert.NoError(t, err)

	tooLong := strings.Repeat("a", 80) + "1!"
	err = Validate(tooLong)
	assert.ErrorIs(t, err, ErrTooLong)
	assert.ErrorIs(t, err, ErrWeak)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		password string
		wantErr  bool
	}{
		{"Password@123", false},
		{"abcdefg1!", false},
		{"12345678#", false},
		{"short1", true},
		{"nouppercasebutlong", true},
		{"NoDigitsHere!", true},
		{"NoSymbols123", true},
		{"Sh0rt!", true},
		{"has space 1!", true},
		{"unicodé123!", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.password, func(t *testing.T) {
			err := Validate(tt.password)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrWeak)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
