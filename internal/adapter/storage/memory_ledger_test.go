package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryLedger_RoundTripAndIsolation(t *testing.T) {
	ctx := context.Background()
	ledger := NewMemoryLedger()

	empty, err := ledger.Load(ctx)
	require.NoError(t, err)
	require.Empty(t, empty)

	in := sampleReservations(3)
	require.NoError(t, ledger.Replace(ctx, in))

	// caller mutations after Replace or Load must not leak into the ledger
	in[0].RoomID = "changed"
	out, err := ledger.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, sampleReservations(3), out)

	out[1].RoomID = "changed"
	again, err := ledger.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, sampleReservations(3), again)
}
