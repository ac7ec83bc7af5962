package order_test

import (
	"testing"
	"time"

	"production/internal/core/domain/model/kernel"
	"production/internal/core/domain/model/order"
	"production/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOrder(t *testing.T) {
	target := time.Now().AddDate(0, 0, 14)

	t.Run("creates order in Intake status", func(t *testing.T) {
		id := kernel.NewUUID()

		o, err := order.NewOrder(id, "SILKSCREEN", 500, target)

		require.NoError(t, err)
		assert.True(t, o.ID().IsEqual(id))
		assert.Equal(t, order.Intake, o.Status())
		assert.Equal(t, "SILKSCREEN", o.Method())
		assert.Equal(t, 500, o.Quantity())
		assert.Equal(t, target, o.TargetDate())
		assert.Nil(t, o.Client())
		assert.Equal(t, 0, o.Progress())
		assert.Equal(t, 0, o.Version())
		require.NoError(t, o.Validate())
	})

	t.Run("rejects invalid id", func(t *testing.T) {
		_, err := order.NewOrder(kernel.UUID{}, "SILKSCREEN", 500, target)
		require.Error(t, err)
	})

	t.Run("rejects empty method", func(t *testing.T) {
		_, err := order.NewOrder(kernel.NewUUID(), "", 500, target)
		require.Error(t, err)
		require.ErrorIs(t, err, errs.ErrValueIsRequired)
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		for _, quantity := range []int{0, -5} {
			_, err := order.NewOrder(kernel.NewUUID(), "SILKSCREEN", quantity, target)
			require.Error(t, err)
			require.ErrorIs(t, err, errs.ErrValueIsInvalid)
		}
	})
}

func TestOrder_Validate(t *testing.T) {
	t.Run("zero value is not constructed", func(t *testing.T) {
		var o order.Order
		require.ErrorIs(t, o.Validate(), order.ErrOrderIsNotConstructed)
	})

	t.Run("nil order is not constructed", func(t *testing.T) {
		var o *order.Order
		require.ErrorIs(t, o.Validate(), order.ErrOrderIsNotConstructed)
	})
}

func TestOrder_AssignClient(t *testing.T) {
	t.Run("attaches client", func(t *testing.T) {
		o := newTestOrder(t)
		clientID := kernel.NewUUID()

		require.NoError(t, o.AssignClient(clientID))
		require.NotNil(t, o.Client())
		assert.True(t, o.Client().IsEqual(clientID))
	})

	t.Run("rejects invalid client id", func(t *testing.T) {
		o := newTestOrder(t)
		require.Error(t, o.AssignClient(kernel.UUID{}))
		assert.Nil(t, o.Client())
	})
}

func TestOrder_ChangeStatus(t *testing.T) {
	t.Run("moves to a valid status", func(t *testing.T) {
		o := newTestOrder(t)

		require.NoError(t, o.ChangeStatus(order.DesignPending))
		assert.Equal(t, order.DesignPending, o.Status())
	})

	t.Run("rejects invalid status", func(t *testing.T) {
		o := newTestOrder(t)

		require.Error(t, o.ChangeStatus(order.Unknown))
		assert.Equal(t, order.Intake, o.Status())
	})

	t.Run("rejects any change from a terminal status", func(t *testing.T) {
		o := newTestOrder(t)
		require.NoError(t, o.ChangeStatus(order.Cancelled))

		err := o.ChangeStatus(order.Intake)
		require.ErrorIs(t, err, order.ErrStatusIsTerminal)
		assert.Equal(t, order.Cancelled, o.Status())
	})
}

func TestOrder_SetProgress(t *testing.T) {
	t.Run("accepts values in range", func(t *testing.T) {
		o := newTestOrder(t)

		require.NoError(t, o.SetProgress(60))
		assert.Equal(t, 60, o.Progress())
	})

	t.Run("rejects values out of range", func(t *testing.T) {
		o := newTestOrder(t)

		require.ErrorIs(t, o.SetProgress(-1), errs.ErrValueIsOutOfRange)
		require.ErrorIs(t, o.SetProgress(101), errs.ErrValueIsOutOfRange)
		assert.Equal(t, 0, o.Progress())
	})
}

func TestRestoreOrder(t *testing.T) {
	t.Run("restores persisted state", func(t *testing.T) {
		id := kernel.NewUUID()
		clientID := kernel.NewUUID()
		target := time.Now().AddDate(0, 1, 0)

		o, err := order.RestoreOrder(id, &clientID, "EMBROIDERY", 250, target, order.InProgress, 40, 7)

		require.NoError(t, err)
		assert.Equal(t, order.InProgress, o.Status())
		assert.Equal(t, 40, o.Progress())
		assert.Equal(t, 7, o.Version())
		require.NotNil(t, o.Client())
		assert.True(t, o.Client().IsEqual(clientID))
		require.NoError(t, o.Validate())
	})

	t.Run("rejects invalid persisted status", func(t *testing.T) {
		_, err := order.RestoreOrder(kernel.NewUUID(), nil, "EMBROIDERY", 250, time.Time{}, order.Unknown, 0, 0)
		require.Error(t, err)
	})

	t.Run("rejects negative version", func(t *testing.T) {
		_, err := order.RestoreOrder(kernel.NewUUID(), nil, "EMBROIDERY", 250, time.Time{}, order.Intake, 0, -1)
		require.Error(t, err)
		require.ErrorIs(t, err, errs.ErrVersionIsInvalid)
	})
}

func TestOrder_IsEqual(t *testing.T) {
	o1 := newTestOrder(t)
	o2 := newTestOrder(t)

	assert.True(t, o1.IsEqual(o1))
	assert.False(t, o1.IsEqual(o2))
	assert.False(t, o1.IsEqual(nil))
}

func newTestOrder(t *testing.T) *order.Order {
	t.Helper()

	o, err := order.NewOrder(kernel.NewUUID(), "SILKSCREEN", 500, time.Now().AddDate(0, 0, 14))
	require.NoError(t, err)
	return o
}
