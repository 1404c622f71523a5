package errors

import (
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCustomError_Error(t *testing.T) {
	plain := New(ErrConfigMissingSection, "unknown key section", nil, nil)
	assert.Equal(t, "[CONFIG_MISSING_SECTION] unknown key section", plain.Error())

	wrapped := New(ErrFetchRegions, "unable to list regions", nil, fmt.Errorf("boom"))
	assert.Equal(t, "[FETCH_REGIONS_ERROR] unable to list regions: boom", wrapped.Error())
}

func TestIs(t *testing.T) {
	inner := New(ErrFetchCredentials, "rejected", nil, nil)
	outer := New(ErrFetchInstances, "listing failed", nil, inner)
	viaFmt := fmt.Errorf("request: %w", outer)

	tests := []struct {
		name     string
		err      error
		errType  ErrorType
		expected bool
	}{
		{"nil error", nil, ErrConfigParse, false},
		{"plain error", fs.ErrNotExist, ErrConfigParse, false},
		{"direct match", outer, ErrFetchInstances, true},
		{"nested match", outer, ErrFetchCredentials, true},
		{"through fmt wrapping", viaFmt, ErrFetchCredentials, true},
		{"no match", outer, ErrTemplate, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Is(tt.err, tt.errType))
		})
	}
}

func TestFamilies(t *testing.T) {
	for _, typ := range []ErrorType{ErrConfigParse, ErrConfigInvalid, ErrConfigKeysFile, ErrConfigMissingSection, ErrConfigMissingKey, ErrTemplate} {
		err := New(typ, "x", nil, nil)
		assert.True(t, IsConfigError(err), typ)
		assert.False(t, IsFetchError(err), typ)
	}
	for _, typ := range []ErrorType{ErrFetchRegions, ErrFetchInstances, ErrFetchCredentials} {
		err := New(typ, "x", nil, nil)
		assert.True(t, IsFetchError(err), typ)
		assert.False(t, IsConfigError(err), typ)
	}
	serveErr := New(ErrServe, "x", nil, nil)
	assert.False(t, IsConfigError(serveErr))
	assert.False(t, IsFetchError(serveErr))
	assert.False(t, IsConfigError(fmt.Errorf("plain")))
	assert.Equal(t, ErrorType(""), TypeOf(fmt.Errorf("plain")))
}

func TestDescribe(t *testing.T) {
	err := New(ErrFetchInstances, "unable to list instances", map[string]interface{}{"region": "eu-west-1"},
		New(ErrFetchCredentials, "credentials rejected", nil, fmt.Errorf("AuthFailure")))
	assert.Equal(t, "unable to list instances: credentials rejected: AuthFailure", Describe(err))
	assert.Equal(t, "plain", Describe(fmt.Errorf("plain")))
}
