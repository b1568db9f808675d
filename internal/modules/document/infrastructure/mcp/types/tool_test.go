package types

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDefinition() ToolDefinition {
	return ToolDefinition{
		Name:        "sample",
		Description: "sample tool",
		Fields: []Field{
			{Name: "documentId", Type: TypeString, Required: true, Description: "id"},
			{Name: "collectionId", Type: TypeString, Default: "company_names"},
			{Name: "limit", Type: TypeNumber, Default: 25, Min: MinValue(1)},
			{Name: "company_id", Type: TypeStringOrInteger},
			{Name: "level", Type: TypeString, Enum: []string{"beginner", "intermediate"}},
		},
	}
}

func TestValidateAppliesDefaults(t *testing.T) {
	args, err := sampleDefinition().Validate(map[string]interface{}{"documentId": "d1", "extra": true})
	require.NoError(t, err)

	assert.Equal(t, "d1", args.String("documentId"))
	assert.Equal(t, "company_names", args.String("collectionId"))
	assert.Equal(t, 25, args.Int("limit"))
	assert.False(t, args.Has("company_id"))
	assert.Nil(t, args.StringPtr("level"))
	assert.NotContains(t, args, "extra")
}

func TestValidateRejectsWithFieldName(t *testing.T) {
	cases := []struct {
		name  string
		args  map[string]interface{}
		field string
	}{
		{"missing required", map[string]interface{}{}, "documentId"},
		{"null required", map[string]interface{}{"documentId": nil}, "documentId"},
		{"blank required", map[string]interface{}{"documentId": "  "}, "documentId"},
		{"wrong string type", map[string]interface{}{"documentId": 12.0}, "documentId"},
		{"fractional limit", map[string]interface{}{"documentId": "d", "limit": 2.5}, "limit"},
		{"limit below minimum", map[string]interface{}{"documentId": "d", "limit": 0.0}, "limit"},
		{"limit as string", map[string]interface{}{"documentId": "d", "limit": "10"}, "limit"},
		{"company_id bool", map[string]interface{}{"documentId": "d", "company_id": true}, "company_id"},
		{"enum mismatch", map[string]interface{}{"documentId": "d", "level": "expert"}, "level"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := sampleDefinition().Validate(tc.args)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidArgument))

			var toolErr *ToolError
			require.True(t, errors.As(err, &toolErr))
			assert.Equal(t, tc.field, toolErr.Field)
			assert.Equal(t, ErrCodeInvalidParams, toolErr.Code)
			assert.Contains(t, err.Error(), tc.field)
		})
	}
}

func TestValidateStringOrInteger(t *testing.T) {
	def := sampleDefinition()

	args, err := def.Validate(map[string]interface{}{"documentId": "d", "company_id": "ACME"})
	require.NoError(t, err)
	assert.Equal(t, "ACME", args.Value("company_id"))

	args, err = def.Validate(map[string]interface{}{"documentId": "d", "company_id": 42.0})
	require.NoError(t, err)
	assert.Equal(t, int64(42), args.Value("company_id"))

	args, err = def.Validate(map[string]interface{}{"documentId": "d", "company_id": json.Number("7")})
	require.NoError(t, err)
	assert.Equal(t, int64(7), args.Value("company_id"))

	args, err = def.Validate(map[string]interface{}{"documentId": "d", "company_id": float64(math.MinInt64)})
	require.NoError(t, err)
	assert.Equal(t, int64(math.MinInt64), args.Value("company_id"))

	for _, big := range []interface{}{float64(1e19), float64(-1e19), float64(math.MaxInt64), json.Number("9223372036854775808")} {
		_, err = def.Validate(map[string]interface{}{"documentId": "d", "company_id": big})
		require.Error(t, err, "company_id %v", big)
		assert.ErrorIs(t, err, ErrInvalidArgument)
		assert.Contains(t, err.Error(), "integer out of range")
	}
}

func TestInputSchema(t *testing.T) {
	raw := sampleDefinition().RawInputSchema()

	var schema struct {
		Type       string                            `json:"type"`
		Required   []string                          `json:"required"`
		Properties map[string]map[string]interface{} `json:"properties"`
	}
	require.NoError(t, json.Unmarshal(raw, &schema))

	assert.Equal(t, "object", schema.Type)
	assert.Equal(t, []string{"documentId"}, schema.Required)
	assert.Equal(t, "string", schema.Properties["documentId"]["type"])
	assert.Equal(t, "company_names", schema.Properties["collectionId"]["default"])
	assert.Equal(t, float64(1), schema.Properties["limit"]["minimum"])
	assert.Equal(t, []interface{}{"string", "integer"}, schema.Properties["company_id"]["type"])
	assert.Equal(t, []interface{}{"beginner", "intermediate"}, schema.Properties["level"]["enum"])
}

func TestUnknownToolError(t *testing.T) {
	err := NewUnknownToolError("nope")
	assert.ErrorIs(t, err, ErrUnknownTool)
	assert.NotErrorIs(t, err, ErrInvalidArgument)
	assert.Equal(t, "tool 'nope' not found", err.Error())
}
