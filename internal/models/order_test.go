package models

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateOrderRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     CreateOrderRequest
		wantErr bool
		field   string
	}{
		{
			name: "valid request",
			req:  CreateOrderRequest{CustomerName: "John Doe", Phone: "(555) 123-4567", Email: "john@example.com"},
		},
		{
			name: "name only",
			req:  CreateOrderRequest{CustomerName: "  John  "},
		},
		{
			name:    "missing customer name",
			req:     CreateOrderRequest{CustomerName: "   "},
			wantErr: true,
			field:   "customer_name",
		},
		{
			name:    "customer name too long",
			req:     CreateOrderRequest{CustomerName: strings.Repeat("a", 101)},
			wantErr: true,
			field:   "customer_name",
		},
		{
			name:    "bad phone",
			req:     CreateOrderRequest{CustomerName: "John", Phone: "call me"},
			wantErr: true,
			field:   "phone",
		},
		{
			name:    "bad email",
			req:     CreateOrderRequest{CustomerName: "John", Email: "john@"},
			wantErr: true,
			field:   "email",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var ve ValidationError
			require.True(t, errors.As(err, &ve), "expected ValidationError, got %v", err)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestCreateOrderRequest_TrimsInput(t *testing.T) {
	req := CreateOrderRequest{CustomerName: "  Ann ", Email: " ann@example.com "}
	require.NoError(t, req.Validate())
	assert.Equal(t, "Ann", req.CustomerName)
	assert.Equal(t, "ann@example.com", req.Email)
}

func TestRequestValidation(t *testing.T) {
	tests := []struct {
		name  string
		v     interface{ Validate() error }
		field string
	}{
		{"item name", &AddItemRequest{}, "name"},
		{"payment method", &PaymentMethodRequest{Method: " "}, "method"},
		{"status", &StatusRequest{}, "status"},
		{"staff name", &StaffRequest{Role: "kitchen"}, "name"},
		{"staff role", &StaffRequest{Name: "Bob"}, "role"},
		{"subscriber email", &SubscriberRequest{Name: "Cat", Email: "cat"}, "email"},
		{"promotion message", &PromotionRequest{Category: "desserts"}, "message"},
		{"valid staff", &StaffRequest{Name: "Bob", Role: "chef"}, ""},
		{"valid subscriber", &SubscriberRequest{Name: "Cat", Email: "cat@example.com"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.v.Validate()
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var ve ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestValidationError_Error(t *testing.T) {
	assert.Equal(t, "cvv: missing required field", Invalid("cvv", "missing required field").Error())
}
