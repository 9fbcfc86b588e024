package sanitize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedactPII(t *testing.T) {
	in := "Hubungi saya di budi@example.com atau 081234567890, NIK 3173012345678901"
	out := RedactPII(in)

	assert.NotContains(t, out, "@")
	assert.NotContains(t, out, "0812")
	assert.NotContains(t, out, "3173012345678901")
	assert.Contains(t, out, "[redacted email]")
	assert.Contains(t, out, "[redacted phone]")
	assert.Contains(t, out, "[redacted id]")
}

func TestRedactPII_Empty(t *testing.T) {
	assert.Equal(t, "", RedactPII(""))
}

func TestSummary(t *testing.T) {
	assert.Equal(t, "pendek", Summary("pendek", 240))

	long := strings.Repeat("kata ", 100)
	got := Summary(long, 50)
	assert.LessOrEqual(t, len(got), 50+len("…"))
	assert.True(t, strings.HasSuffix(got, "…"))
}
