package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/divineshop/internal/model"
)

func TestStruct(t *testing.T) {
	tests := []struct {
		name   string
		value  any
		fields []string
	}{
		{
			name:  "valid customer",
			value: model.NewCustomer{Name: "Ann", Email: "ann@example.com"},
		},
		{
			name:   "missing name and bad email",
			value:  model.NewCustomer{Email: "not-an-email"},
			fields: []string{"name", "email"},
		},
		{
			name:   "unknown category",
			value:  model.NewProduct{Name: "X", Category: "hardware"},
			fields: []string{"category"},
		},
		{
			name:   "short password",
			value:  model.NewUser{Username: "admin", Password: "123", Name: "Admin"},
			fields: []string{"password"},
		},
		{
			name:   "unknown activity type",
			value:  model.NewActivity{CustomerID: 1, Type: "login", Description: "x"},
			fields: []string{"type"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(tt.value)
			if len(tt.fields) == 0 {
				require.NoError(t, err)
				return
			}

			var verr *Error
			require.True(t, errors.As(err, &verr), "expected *Error, got %v", err)

			got := make([]string, 0, len(verr.Details))
			for _, d := range verr.Details {
				got = append(got, d.Field)
			}
			assert.ElementsMatch(t, tt.fields, got)
		})
	}
}

func TestStructNestedPath(t *testing.T) {
	type request struct {
		Items []model.NewOrderItem `json:"items" validate:"required,min=1,dive"`
	}

	err := Struct(request{Items: []model.NewOrderItem{{ProductID: 1, Quantity: 0}}})

	var verr *Error
	require.True(t, errors.As(err, &verr))
	require.Len(t, verr.Details, 1)
	assert.Equal(t, "items[0].quantity", verr.Details[0].Field)
	assert.Equal(t, "is required", verr.Details[0].Message)
}

func TestInvalid(t *testing.T) {
	err := Invalid("status", "unknown status")
	assert.Equal(t, "validation failed: status: unknown status", err.Error())
}
