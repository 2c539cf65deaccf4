package quota

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLinkFoldsAnonymousUsage(t *testing.T) {
	ledger, _ := newTestLedger(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, err := ledger.CheckAndIncrement(ctx, KindAnonymous, "anon-1", 10)
		assert.NoError(t, err)
	}

	res, err := ledger.LinkAnonymousToUser(ctx, "user-1", "anon-1")
	assert.NoError(t, err)
	assert.True(t, res.Linked)
	assert.Equal(t, 4, res.Count)

	usage, err := ledger.GetUsage(ctx, KindUser, "user-1", 20)
	assert.NoError(t, err)
	assert.Equal(t, 4, usage.Used)
}

func TestLinkIsIdempotentPerDay(t *testing.T) {
	ledger, _ := newTestLedger(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := ledger.CheckAndIncrement(ctx, KindAnonymous, "anon-1", 10)
		assert.NoError(t, err)
	}

	first, err := ledger.LinkAnonymousToUser(ctx, "user-1", "anon-1")
	assert.NoError(t, err)
	assert.True(t, first.Linked)

	// Replay, including after more anonymous usage.
	_, err = ledger.CheckAndIncrement(ctx, KindAnonymous, "anon-1", 10)
	assert.NoError(t, err)

	second, err := ledger.LinkAnonymousToUser(ctx, "user-1", "anon-1")
	assert.NoError(t, err)
	assert.False(t, second.Linked)
	assert.Equal(t, 0, second.Count)

	usage, err := ledger.GetUsage(ctx, KindUser, "user-1", 20)
	assert.NoError(t, err)
	assert.Equal(t, 3, usage.Used)
}

func TestLinkWithZeroUsageLeavesNoMarker(t *testing.T) {
	ledger, _ := newTestLedger(t)
	ctx := context.Background()

	res, err := ledger.LinkAnonymousToUser(ctx, "user-1", "anon-fresh")
	assert.NoError(t, err)
	assert.False(t, res.Linked)
	assert.Equal(t, 0, res.Count)

	// The anonymous visitor uses some quota later the same day; that usage
	// can still be linked because the empty attempt left no marker.
	for i := 0; i < 2; i++ {
		_, err := ledger.CheckAndIncrement(ctx, KindAnonymous, "anon-fresh", 10)
		assert.NoError(t, err)
	}

	res, err = ledger.LinkAnonymousToUser(ctx, "user-1", "anon-fresh")
	assert.NoError(t, err)
	assert.True(t, res.Linked)
	assert.Equal(t, 2, res.Count)
}

func TestLinkAddsOnTopOfExistingUserUsage(t *testing.T) {
	ledger, _ := newTestLedger(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := ledger.CheckAndIncrement(ctx, KindUser, "user-1", 20)
		assert.NoError(t, err)
	}
	for i := 0; i < 3; i++ {
		_, err := ledger.CheckAndIncrement(ctx, KindAnonymous, "anon-1", 10)
		assert.NoError(t, err)
	}

	res, err := ledger.LinkAnonymousToUser(ctx, "user-1", "anon-1")
	assert.NoError(t, err)
	assert.True(t, res.Linked)

	usage, err := ledger.GetUsage(ctx, KindUser, "user-1", 20)
	assert.NoError(t, err)
	assert.Equal(t, 8, usage.Used)
	assert.Equal(t, 12, usage.Remaining)
}

func TestLinkLeavesAnonymousCounterInPlace(t *testing.T) {
	ledger, _ := newTestLedger(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := ledger.CheckAndIncrement(ctx, KindAnonymous, "anon-1", 10)
		assert.NoError(t, err)
	}

	_, err := ledger.LinkAnonymousToUser(ctx, "user-1", "anon-1")
	assert.NoError(t, err)

	usage, err := ledger.GetUsage(ctx, KindAnonymous, "anon-1", 10)
	assert.NoError(t, err)
	assert.Equal(t, 3, usage.Used)
}
