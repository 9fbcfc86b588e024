package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type identityProbe struct {
	NIK   string `json:"nik" validate:"omitempty,nik"`
	Stage string `json:"stage" validate:"omitempty,stage"`
}

func TestValidate_NIK(t *testing.T) {
	errs, err := Validate(identityProbe{NIK: "3173012345678901"})
	require.NoError(t, err)
	assert.Nil(t, errs)

	errs, err = Validate(identityProbe{NIK: "12345"})
	require.NoError(t, err)
	require.NotNil(t, errs)
	assert.Contains(t, errs["nik"][0], "16 digits")
}

func TestValidate_Stage(t *testing.T) {
	errs, err := Validate(identityProbe{Stage: "court_session"})
	require.NoError(t, err)
	assert.Nil(t, errs)

	errs, err = Validate(identityProbe{Stage: "mediation"})
	require.NoError(t, err)
	require.NotNil(t, errs)
	assert.Contains(t, errs["stage"][0], "Unknown case stage")
}

type requiredProbe struct {
	Reason string `json:"reason" validate:"required"`
}

func TestValidate_RequiredUsesJSONName(t *testing.T) {
	errs, err := Validate(requiredProbe{})
	require.NoError(t, err)
	require.NotNil(t, errs)
	assert.Equal(t, "This field is required", errs["reason"][0])
}
