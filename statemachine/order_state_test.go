package statemachine

import (
	"testing"

	"quickbite-api/models"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to models.OrderStatus
		actor    Actor
		ok       bool
	}{
		{models.StatusConfirmed, models.StatusPreparing, ActorAdmin, true},
		{models.StatusPreparing, models.StatusReady, ActorAdmin, true},
		{models.StatusReady, models.StatusOutForDelivery, ActorAdmin, true},
		{models.StatusOutForDelivery, models.StatusDelivered, ActorAdmin, true},
		{models.StatusReady, models.StatusCancelled, ActorAdmin, true},
		{models.StatusConfirmed, models.StatusDelivered, ActorAdmin, false},
		{models.StatusDelivered, models.StatusConfirmed, ActorAdmin, false},
		{models.StatusCancelled, models.StatusPreparing, ActorAdmin, false},
		{models.StatusPreparing, models.StatusPreparing, ActorAdmin, false},
		{models.StatusConfirmed, models.StatusPreparing, Actor("customer"), false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			err := CanTransition(tt.from, tt.to, tt.actor)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestCanTransitionListsNextStates(t *testing.T) {
	err := CanTransition(models.StatusConfirmed, models.StatusReady, ActorAdmin)
	assert.ErrorContains(t, err, "preparing, cancelled")

	err = CanTransition(models.StatusDelivered, models.StatusCancelled, ActorAdmin)
	assert.ErrorContains(t, err, "terminal")
}

func TestCanCustomerCancel(t *testing.T) {
	for _, status := range models.OrderStatuses {
		locked := status == models.StatusPreparing || status == models.StatusReady || status == models.StatusOutForDelivery

		err := CanCustomerCancel(models.PaymentSuccess, status)
		if locked {
			assert.ErrorIs(t, err, ErrTooLateToCancel, status)
		} else {
			assert.NoError(t, err, status)
		}

		assert.NoError(t, CanCustomerCancel(models.PaymentPending, status), status)
		assert.NoError(t, CanCustomerCancel(models.PaymentFailed, status), status)
	}
}

func TestTerminalStates(t *testing.T) {
	assert.True(t, IsTerminal(models.StatusDelivered))
	assert.True(t, IsTerminal(models.StatusCancelled))
	assert.False(t, IsTerminal(models.StatusConfirmed))
	assert.Len(t, GetAllTransitions(), 8)
}
