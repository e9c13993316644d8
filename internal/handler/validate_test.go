package handler

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateEmail(t *testing.T) {
	t.Parallel()

	assert.Empty(t, validateEmail("user@example.com"))
	assert.Empty(t, validateEmail("a.b+c@sub.domain.io"))

	for _, bad := range []string{"", "plain", "no@tld", "two@@at.com", "spa ce@x.com"} {
		assert.NotEmpty(t, validateEmail(bad), "email %q should be rejected", bad)
	}
}

func TestValidateUsername(t *testing.T) {
	t.Parallel()

	assert.Empty(t, validateUsername("abc"))
	assert.Empty(t, validateUsername("user_42"))
	assert.Empty(t, validateUsername(strings.Repeat("a", 20)))

	for _, bad := range []string{"", "ab", strings.Repeat("a", 21), "has space", "dash-ed", "ünïcode"} {
		assert.NotEmpty(t, validateUsername(bad), "username %q should be rejected", bad)
	}
}

func TestValidatePassword(t *testing.T) {
	t.Parallel()

	assert.Empty(t, validatePassword("Str0ng!pw"))

	tests := map[string]string{
		"too short":    "S0r!t",
		"no lowercase": "ALLCAPS1!",
		"no uppercase": "alllower1!",
		"no digit":     "NoDigits!!",
		"no special":   "NoSpecial11",
	}
	for name, pw := range tests {
		assert.NotEmpty(t, validatePassword(pw), "case %q should be rejected", name)
	}
}

func TestValidateAge(t *testing.T) {
	t.Parallel()

	assert.Empty(t, validateAge(14))
	assert.Empty(t, validateAge(99))
	assert.NotEmpty(t, validateAge(13))
	assert.NotEmpty(t, validateAge(100))
}

func TestValidateBio(t *testing.T) {
	t.Parallel()

	assert.Empty(t, validateBio(""))
	assert.Empty(t, validateBio(strings.Repeat("x", 300)))
	assert.NotEmpty(t, validateBio(strings.Repeat("x", 301)))
}
