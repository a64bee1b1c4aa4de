package entity

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
)

// CreateReviewRequest is the POST /reviews/ body. Grade bounds are checked by the service
// so that a missing product is reported before an out-of-range grade.
type CreateReviewRequest struct {
	ProductID int64   `json:"product_id" validate:"required,gt=0"`
	Grade     *int    `json:"grade" validate:"required"`
	Comment   *string `json:"comment"`
}

var ErrGradeNotInteger = errors.New("grade must be an integer")

// UnmarshalJSON accepts any integral grade. Values that do not fit in an int are stored
// as 0, so they fail the range check like any other out-of-range grade.
func (r *CreateReviewRequest) UnmarshalJSON(data []byte) error {
	var raw struct {
		ProductID int64           `json:"product_id"`
		Grade     json.RawMessage `json:"grade"`
		Comment   *string         `json:"comment"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	r.ProductID = raw.ProductID
	r.Comment = raw.Comment
	r.Grade = nil

	if len(raw.Grade) == 0 || bytes.Equal(raw.Grade, []byte("null")) {
		return nil
	}

	grade, err := parseGrade(raw.Grade)
	if err != nil {
		return err
	}
	r.Grade = &grade
	return nil
}

func parseGrade(data json.RawMessage) (int, error) {
	if data[0] == '"' {
		return 0, ErrGradeNotInteger
	}

	var number json.Number
	if err := json.Unmarshal(data, &number); err != nil {
		return 0, ErrGradeNotInteger
	}

	if v, err := number.Int64(); err == nil {
		if v < math.MinInt || v > math.MaxInt {
			return 0, nil
		}
		return int(v), nil
	}

	f, err := strconv.ParseFloat(number.String(), 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, ErrGradeNotInteger
	}
	if math.IsInf(f, 0) || math.Abs(f) > math.MaxInt32 {
		return 0, nil
	}
	if f != math.Trunc(f) {
		return 0, ErrGradeNotInteger
	}
	return int(f), nil
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
