package dto

import (
	"testing"

	ierr "github.com/lessonpay/lessonpay/internal/errors"
	"github.com/lessonpay/lessonpay/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validCheckoutRequest() CreateCheckoutSessionRequest {
	return CreateCheckoutSessionRequest{
		StudentName:   "Ana",
		CustomerName:  "Maria",
		CustomerEmail: "maria@example.com",
		CustomerPhone: "+15555550100",
		LessonType:    "30 Minute Lessons - $150 / Month",
	}
}

func TestCreateCheckoutSessionRequest_Validate(t *testing.T) {
	validator.NewValidator()

	tests := []struct {
		name    string
		mutate  func(r *CreateCheckoutSessionRequest)
		missing string
	}{
		{name: "valid", mutate: func(r *CreateCheckoutSessionRequest) {}},
		{name: "student name", mutate: func(r *CreateCheckoutSessionRequest) { r.StudentName = "" }, missing: "studentName"},
		{name: "customer name", mutate: func(r *CreateCheckoutSessionRequest) { r.CustomerName = "" }, missing: "customerName"},
		{name: "customer email", mutate: func(r *CreateCheckoutSessionRequest) { r.CustomerEmail = "" }, missing: "customerEmail"},
		{name: "customer phone", mutate: func(r *CreateCheckoutSessionRequest) { r.CustomerPhone = "" }, missing: "customerPhone"},
		{name: "lesson type", mutate: func(r *CreateCheckoutSessionRequest) { r.LessonType = "" }, missing: "lessonType"},
		{
			name: "first missing wins",
			mutate: func(r *CreateCheckoutSessionRequest) {
				r.CustomerPhone = ""
				r.CustomerName = ""
				r.LessonType = ""
			},
			missing: "customerName",
		},
		{name: "whitespace only", mutate: func(r *CreateCheckoutSessionRequest) { r.StudentName = "   " }, missing: "studentName"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validCheckoutRequest()
			tt.mutate(&req)

			err := req.Validate()
			if tt.missing == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, ierr.IsValidation(err))
			assert.Equal(t, tt.missing, ierr.MissingFieldName(err))
		})
	}
}

func TestCreateSubscriptionRequest_PaymentMethodLast(t *testing.T) {
	validator.NewValidator()

	req := CreateSubscriptionRequest{
		StudentName:   "Ana",
		CustomerName:  "Maria",
		CustomerEmail: "maria@example.com",
		CustomerPhone: "+15555550100",
	}
	assert.Equal(t, "lessonType", ierr.MissingFieldName(req.Validate()))

	req.LessonType = "30 Minute Lessons - $150 / Month"
	assert.Equal(t, "paymentMethodId", ierr.MissingFieldName(req.Validate()))

	req.PaymentMethodID = "pm_card_visa"
	assert.NoError(t, req.Validate())
}
