package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/", "/"},
		{"//", "/"},
		{"/data//users", "/data/users"},
		{"///data///", "/data"},
		{"/data/", "/data"},
		{"/data/users", "/data/users"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in), "Normalize(%q)", tt.in)
	}
}

func TestValidate(t *testing.T) {
	v := NewPathValidator(nil)

	valid := []string{
		"/",
		"/data",
		"/data/",
		"/data/users",
		"/data/users/42/name",
		"/meta",
		"/meta/schemas",
		"//data//users",
	}
	for _, p := range valid {
		assert.True(t, v.Validate(p), "expected %q to be valid", p)
	}

	invalid := []string{
		"",
		"data/users",
		"/etc/passwd",
		"/root/.ssh",
		"/data/users/../../etc/passwd",
		"/data/..",
		"/..",
		"/data\\users",
		"/data/users\x00",
		"/data/users\r\n",
		"/datadir", // prefix of nothing allowed: not under /data
	}
	for _, p := range invalid {
		assert.False(t, v.Validate(p), "expected %q to be invalid", p)
	}
}

func TestValidateIdempotentUnderNormalize(t *testing.T) {
	v := NewPathValidator([]string{"/data", "/meta"})

	inputs := []string{
		"/", "//", "/data//users/", "/data/../etc", "relative", "",
		"/meta///x", "/data/users/../../etc/passwd",
	}
	for _, p := range inputs {
		assert.Equal(t, v.Validate(p), v.Validate(Normalize(p)), "validate(%q) != validate(normalize(%q))", p, p)
		// Deterministic across repeated calls.
		assert.Equal(t, v.Validate(p), v.Validate(p))
	}
}

func TestCustomNamespaces(t *testing.T) {
	v := NewPathValidator([]string{"/records/"})

	assert.True(t, v.Validate("/records/orders"))
	assert.True(t, v.Validate("/"))
	assert.False(t, v.Validate("/data/users"))
}
