package entity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateReviewRequest_UnmarshalGrade(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		grade *int
	}{
		{"in range", `{"product_id": 1, "grade": 4}`, intPtr(4)},
		{"out of range", `{"product_id": 1, "grade": 9}`, intPtr(9)},
		{"negative", `{"product_id": 1, "grade": -3}`, intPtr(-3)},
		{"integral float", `{"product_id": 1, "grade": 5.0}`, intPtr(5)},
		{"exponent", `{"product_id": 1, "grade": 1e30}`, intPtr(0)},
		{"int64 overflow", `{"product_id": 1, "grade": 99999999999999999999}`, intPtr(0)},
		{"float overflow", `{"product_id": 1, "grade": 1e400}`, intPtr(0)},
		{"missing", `{"product_id": 1}`, nil},
		{"null", `{"product_id": 1, "grade": null}`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req CreateReviewRequest
			require.NoError(t, json.Unmarshal([]byte(tt.body), &req))

			assert.Equal(t, int64(1), req.ProductID)
			assert.Equal(t, tt.grade, req.Grade)
		})
	}
}

func TestCreateReviewRequest_UnmarshalRejects(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"fraction", `{"product_id": 1, "grade": 4.5}`},
		{"string", `{"product_id": 1, "grade": "5"}`},
		{"bool", `{"product_id": 1, "grade": true}`},
		{"object", `{"product_id": 1, "grade": {}}`},
		{"string product", `{"product_id": "1", "grade": 3}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req CreateReviewRequest
			assert.Error(t, json.Unmarshal([]byte(tt.body), &req))
		})
	}
}

func TestCreateReviewRequest_Comment(t *testing.T) {
	var req CreateReviewRequest
	require.NoError(t, json.Unmarshal([]byte(`{"product_id": 2, "grade": 3, "comment": "Solid"}`), &req))

	require.NotNil(t, req.Comment)
	assert.Equal(t, "Solid", *req.Comment)
}

func intPtr(v int) *int {
	return &v
}
