package presence_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/devdual/BattleRoomManagerService/internal/presence"
)

func makeTracker(t *testing.T) *presence.Tracker {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return presence.NewTracker(rdb)
}

func TestBindAndGet(t *testing.T) {
	tr := makeTracker(t)
	ctx := context.Background()

	already, err := tr.Bind(ctx, presence.Binding{ConnID: "c1", RoomID: "R1", UserID: "u1", Name: "Alice"})
	require.NoError(t, err)
	require.False(t, already)

	b, err := tr.Get(ctx, "c1")
	require.NoError(t, err)
	require.NotNil(t, b)
	require.Equal(t, "R1", b.RoomID)
	require.Equal(t, "u1", b.UserID)
	require.Equal(t, "Alice", b.Name)

	n, err := tr.Count(ctx, "R1")
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
}

func TestBind_SameRoomIsIdempotent(t *testing.T) {
	tr := makeTracker(t)
	ctx := context.Background()

	_, err := tr.Bind(ctx, presence.Binding{ConnID: "c1", RoomID: "R1", UserID: "u1"})
	require.NoError(t, err)

	already, err := tr.Bind(ctx, presence.Binding{ConnID: "c1", RoomID: "R1", UserID: "u1"})
	require.NoError(t, err)
	require.True(t, already)

	n, err := tr.Count(ctx, "R1")
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
}

func TestBind_MovesAcrossRooms(t *testing.T) {
	tr := makeTracker(t)
	ctx := context.Background()

	_, err := tr.Bind(ctx, presence.Binding{ConnID: "c1", RoomID: "R1", UserID: "u1"})
	require.NoError(t, err)
	_, err = tr.Bind(ctx, presence.Binding{ConnID: "c1", RoomID: "R2", UserID: "u1"})
	require.NoError(t, err)

	n1, err := tr.Count(ctx, "R1")
	require.NoError(t, err)
	require.EqualValues(t, 0, n1)

	n2, err := tr.Count(ctx, "R2")
	require.NoError(t, err)
	require.EqualValues(t, 1, n2)
}

func TestUnbind(t *testing.T) {
	tr := makeTracker(t)
	ctx := context.Background()

	_, err := tr.Bind(ctx, presence.Binding{ConnID: "c1", RoomID: "R1", UserID: "u1"})
	require.NoError(t, err)
	_, err = tr.Bind(ctx, presence.Binding{ConnID: "c2", RoomID: "R1", UserID: "u2"})
	require.NoError(t, err)

	b, remaining, err := tr.Unbind(ctx, "c1")
	require.NoError(t, err)
	require.NotNil(t, b)
	require.Equal(t, "u1", b.UserID)
	require.EqualValues(t, 1, remaining)

	b, remaining, err = tr.Unbind(ctx, "c2")
	require.NoError(t, err)
	require.NotNil(t, b)
	require.EqualValues(t, 0, remaining)
}

func TestUnbind_NeverBound(t *testing.T) {
	tr := makeTracker(t)

	b, remaining, err := tr.Unbind(context.Background(), "ghost")
	require.NoError(t, err)
	require.Nil(t, b)
	require.EqualValues(t, 0, remaining)
}

func TestClearRoom(t *testing.T) {
	tr := makeTracker(t)
	ctx := context.Background()

	_, err := tr.Bind(ctx, presence.Binding{ConnID: "c1", RoomID: "R1", UserID: "u1"})
	require.NoError(t, err)
	_, err = tr.Bind(ctx, presence.Binding{ConnID: "c2", RoomID: "R1", UserID: "u2"})
	require.NoError(t, err)
	_, err = tr.Bind(ctx, presence.Binding{ConnID: "c3", RoomID: "R2", UserID: "u3"})
	require.NoError(t, err)

	connIDs, err := tr.ClearRoom(ctx, "R1")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"c1", "c2"}, connIDs)

	n, err := tr.Count(ctx, "R1")
	require.NoError(t, err)
	require.EqualValues(t, 0, n)

	b, err := tr.Get(ctx, "c1")
	require.NoError(t, err)
	require.Nil(t, b)

	// The other room is untouched.
	b, err = tr.Get(ctx, "c3")
	require.NoError(t, err)
	require.NotNil(t, b)
}
