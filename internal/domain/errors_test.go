package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsNotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "order not found",
			err:  ErrOrderNotFound,
			want: true,
		},
		{
			name: "item not found",
			err:  ErrItemNotFound,
			want: true,
		},
		{
			name: "wrapped not found",
			err:  fmt.Errorf("load order: %w", ErrOrderNotFound),
			want: true,
		},
		{
			name: "other error",
			err:  ErrItemQtyInvalid,
			want: false,
		},
		{
			name: "nil error",
			err:  nil,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNotFound(tt.err); got != tt.want {
				t.Errorf("IsNotFound() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsValidation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "qty invalid",
			err:  ErrItemQtyInvalid,
			want: true,
		},
		{
			name: "wrapped price invalid",
			err:  errors.Join(ErrItemPriceInvalid, errors.New("item[0]")),
			want: true,
		},
		{
			name: "payment method",
			err:  ErrPaymentMethodInvalid,
			want: true,
		},
		{
			name: "not found is not validation",
			err:  ErrOrderNotFound,
			want: false,
		},
		{
			name: "nil error",
			err:  nil,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidation(tt.err); got != tt.want {
				t.Errorf("IsValidation() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsPublishFailure(t *testing.T) {
	wrapped := fmt.Errorf("publish reserve_inventory: %w", ErrPublishFailed)
	if !IsPublishFailure(wrapped) {
		t.Error("expected wrapped publish error to match")
	}
	if IsPublishFailure(ErrOrderNotFound) {
		t.Error("not found must not match publish failure")
	}
}
