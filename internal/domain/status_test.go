package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckTransition(t *testing.T) {
	tests := []struct {
		name string
		from OrderStatus
		to   OrderStatus
		ok   bool
	}{
		{"pending to processing", OrderStatusPending, OrderStatusProcessing, true},
		{"processing to shipped", OrderStatusProcessing, OrderStatusShipped, true},
		{"shipped to delivered", OrderStatusShipped, OrderStatusDelivered, true},
		{"pending to cancelled", OrderStatusPending, OrderStatusCancelled, true},
		{"processing to cancelled", OrderStatusProcessing, OrderStatusCancelled, true},
		{"shipped to cancelled", OrderStatusShipped, OrderStatusCancelled, true},
		{"same status is a no-op", OrderStatusShipped, OrderStatusShipped, true},
		{"skipping ahead", OrderStatusPending, OrderStatusShipped, false},
		{"moving backwards", OrderStatusShipped, OrderStatusProcessing, false},
		{"out of delivered", OrderStatusDelivered, OrderStatusCancelled, false},
		{"out of cancelled", OrderStatusCancelled, OrderStatusPending, false},
		{"unknown target", OrderStatusPending, OrderStatus("Lost"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckTransition(tt.from, tt.to)
			if tt.ok {
				assert.NoError(t, err)
				return
			}

			var terr *TransitionError
			require.ErrorAs(t, err, &terr)
			assert.Equal(t, tt.from, terr.From)
			assert.Equal(t, tt.to, terr.To)
		})
	}
}

func TestTerminalStatusesHaveNoNext(t *testing.T) {
	for _, s := range []OrderStatus{OrderStatusDelivered, OrderStatusCancelled} {
		assert.True(t, s.Terminal(), s)
		assert.Empty(t, s.Next(), s)
	}
	assert.False(t, OrderStatusPending.Terminal())
	assert.Equal(t, []OrderStatus{OrderStatusProcessing, OrderStatusCancelled}, OrderStatusPending.Next())
}

func TestPaymentStatusAfter(t *testing.T) {
	cod := &Order{PaymentMethod: PaymentMethodCOD, PaymentStatus: PaymentStatusPending}
	assert.Equal(t, PaymentStatusCompleted, PaymentStatusAfter(cod, OrderStatusDelivered))
	assert.Equal(t, PaymentStatusPending, PaymentStatusAfter(cod, OrderStatusShipped))

	card := &Order{PaymentMethod: PaymentMethodStripe, PaymentStatus: PaymentStatusProcessing}
	assert.Equal(t, PaymentStatusProcessing, PaymentStatusAfter(card, OrderStatusDelivered))
}
