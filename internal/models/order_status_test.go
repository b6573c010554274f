package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from    OrderStatus
		to      OrderStatus
		allowed bool
	}{
		{OrderStatusCreated, OrderStatusPaid, true},
		{OrderStatusCreated, OrderStatusFailed, true},
		{OrderStatusCreated, OrderStatusCanceled, true},
		{OrderStatusCreated, OrderStatusRefunded, false},
		{OrderStatusPaid, OrderStatusRefunded, true},
		{OrderStatusPaid, OrderStatusPaid, false},
		{OrderStatusPaid, OrderStatusCreated, false},
		{OrderStatusPaid, OrderStatusFailed, false},
		{OrderStatusPaid, OrderStatusCanceled, false},
		{OrderStatusRefunded, OrderStatusPaid, false},
		{OrderStatusRefunded, OrderStatusRefunded, false},
		{OrderStatusFailed, OrderStatusPaid, false},
		{OrderStatusCanceled, OrderStatusPaid, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.allowed, CanTransition(tc.from, tc.to),
			"%s vers %s", tc.from, tc.to)
	}
}

func TestTransition_Ok(t *testing.T) {
	next, err := Transition(OrderStatusCreated, OrderStatusPaid)
	require.NoError(t, err)
	assert.Equal(t, OrderStatusPaid, next)
}

func TestTransition_Illegal(t *testing.T) {
	next, err := Transition(OrderStatusRefunded, OrderStatusPaid)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIllegalTransition))
	// Le statut courant est conservé en cas de refus.
	assert.Equal(t, OrderStatusRefunded, next)
}
