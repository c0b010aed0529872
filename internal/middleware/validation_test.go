package middleware

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testProductRequest struct {
	Name          string   `json:"name" validate:"required,max=100"`
	Price         float64  `json:"price" validate:"gt=0"`
	StockQuantity *int     `json:"stockQuantity" validate:"required,gte=0"`
	ImageURLs     []string `json:"imageUrls" validate:"omitempty,dive,url"`
}

func decodeTestRequest(t *testing.T, body map[string]interface{}) (testProductRequest, error) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/api/products", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")

	var out testProductRequest
	return out, DecodeAndValidate(req, &out)
}

func TestProperty_RequiredFieldValidationWorks(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("missing required fields are rejected", prop.ForAll(
		func(includeName bool, includeStock bool) bool {
			body := map[string]interface{}{"price": 9.5}
			if includeName {
				body["name"] = "Desk Lamp"
			}
			if includeStock {
				body["stockQuantity"] = 0
			}

			_, err := decodeTestRequest(t, body)
			if includeName && includeStock {
				return err == nil
			}
			return err != nil
		},
		gen.Bool(),
		gen.Bool(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProperty_StockRangeValidation(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("negative stock is rejected", prop.ForAll(
		func(stock int) bool {
			_, err := decodeTestRequest(t, map[string]interface{}{
				"name":          "Desk Lamp",
				"price":         1,
				"stockQuantity": stock,
			})
			if stock >= 0 {
				return err == nil
			}
			return err != nil
		},
		gen.IntRange(-100, 100),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestFormatValidationErrors(t *testing.T) {
	_, err := decodeTestRequest(t, map[string]interface{}{
		"name":          strings.Repeat("x", 101),
		"price":         0,
		"stockQuantity": 1,
		"imageUrls":     []string{"not a url"},
	})
	require.Error(t, err)

	formatted := FormatValidationErrors(err)
	byField := make(map[string]string)
	for _, ve := range formatted {
		byField[ve.Field] = ve.Message
	}

	assert.Equal(t, "Value is too long", byField["Name"])
	assert.Equal(t, "Value must be greater than 0", byField["Price"])
	assert.Equal(t, "Invalid URL format", byField["ImageURLs[0]"])
}

func TestDecodeAndValidateRejectsMalformedJSON(t *testing.T) {
	req := httptest.NewRequest("POST", "/api/products", strings.NewReader("{"))

	var out testProductRequest
	err := DecodeAndValidate(req, &out)

	require.Error(t, err)
	assert.Empty(t, FormatValidationErrors(err))
}
