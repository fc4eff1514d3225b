package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRegistration(t *testing.T) {
	require.NoError(t, ValidateRegistration(Registration{
		Username: "alice_01", Email: "alice@x.com", Password: "Secret123!",
	}))

	tests := []struct {
		name string
		in   Registration
		want string
	}{
		{"short username", Registration{"a", "a@x.com", "Secret123!"}, "username must be at least 2"},
		{"long username", Registration{strings.Repeat("a", 21), "a@x.com", "Secret123!"}, "at most 20"},
		{"bad chars", Registration{"al ice", "a@x.com", "Secret123!"}, "letters, digits and underscores"},
		{"bad email", Registration{"alice", "not-an-email", "Secret123!"}, "invalid email"},
		{"short password", Registration{"alice", "a@x.com", "123"}, "password must be at least 6"},
		{"missing", Registration{}, "username is required"},
		{"password over 72 bytes", Registration{"alice", "a@x.com", strings.Repeat("я", 40)}, "at most 72 bytes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRegistration(tt.in)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidateCode(t *testing.T) {
	assert.NoError(t, ValidateCode("000000"))
	assert.NoError(t, ValidateCode("123456"))
	for _, bad := range []string{"", "12345", "1234567", "12a456", " 123456"} {
		assert.Error(t, ValidateCode(bad), bad)
	}
}

func TestValidateContent(t *testing.T) {
	assert.NoError(t, ValidateContent("hello"))
	assert.NoError(t, ValidateContent(strings.Repeat("я", 500)))
	assert.Error(t, ValidateContent(""))
	assert.Error(t, ValidateContent(strings.Repeat("x", 501)))
}

func TestValidateUsernameAndPrompt(t *testing.T) {
	assert.NoError(t, ValidateUsername("bob"))
	assert.Error(t, ValidateUsername("bob@x.com"))
	assert.NoError(t, ValidatePrompt(""))
	assert.Error(t, ValidatePrompt(strings.Repeat("p", 501)))
}
