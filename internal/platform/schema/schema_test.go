package schema

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type loginBody struct {
	Email    string `json:"email" jsonschema:"minLength=3,maxLength=254"`
	Password string `json:"password" jsonschema:"minLength=1,maxLength=128"`
}

type submitBody struct {
	PetID   string `json:"pet_id" jsonschema:"minLength=1"`
	Message string `json:"message,omitempty" jsonschema:"maxLength=10"`
}

func TestDecode_ValidBody(t *testing.T) {
	var in loginBody
	err := Decode(strings.NewReader(`{"email":"a@b.co","password":"x"}`), &in)
	require.NoError(t, err)
	assert.Equal(t, "a@b.co", in.Email)
	assert.Equal(t, "x", in.Password)
}

func TestDecode_RejectsMissingRequiredField(t *testing.T) {
	var in loginBody
	err := Decode(strings.NewReader(`{"email":"a@b.co"}`), &in)

	var ve *ValidationError
	require.True(t, errors.As(err, &ve), "expected ValidationError, got %v", err)
}

func TestDecode_RejectsUnknownField(t *testing.T) {
	var in loginBody
	err := Decode(strings.NewReader(`{"email":"a@b.co","password":"x","role":"admin"}`), &in)

	var ve *ValidationError
	require.True(t, errors.As(err, &ve), "expected ValidationError, got %v", err)
}

func TestDecode_OptionalFieldAndMaxLength(t *testing.T) {
	var in submitBody
	require.NoError(t, Decode(strings.NewReader(`{"pet_id":"p-1"}`), &in))
	assert.Equal(t, "", in.Message)

	err := Decode(strings.NewReader(`{"pet_id":"p-1","message":"way too long for this"}`), &in)
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
}

func TestDecode_InvalidJSONAndEmpty(t *testing.T) {
	var in loginBody
	assert.ErrorIs(t, Decode(strings.NewReader(`{"email":`), &in), ErrInvalidJSON)

	var ve *ValidationError
	assert.True(t, errors.As(Decode(strings.NewReader("   "), &in), &ve))
}

func TestValidateFields_Map(t *testing.T) {
	err := ValidateFields(map[string]any{"pet_id": "p-1", "message": "hi"}, submitBody{})
	assert.NoError(t, err)

	err = ValidateFields(map[string]any{"message": "hi"}, submitBody{})
	assert.Error(t, err)
}

func TestFor_CachesAndRejectsNonStruct(t *testing.T) {
	a, err := For(&loginBody{})
	require.NoError(t, err)
	b, err := For(loginBody{})
	require.NoError(t, err)
	assert.Same(t, a, b)

	_, err = For("nope")
	assert.Error(t, err)
}
