package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZentaChain/zentalk-wire/pkg/wire"
)

func openTest(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "journal.db"), 0, nil)
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

// clock steps one second per call
func clock(j *Journal) {
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	j.now = func() time.Time {
		at = at.Add(time.Second)
		return at
	}
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint([]byte("frame"))
	assert.Len(t, a, 64)
	assert.Equal(t, a, Fingerprint([]byte("frame")))
	assert.NotEqual(t, a, Fingerprint([]byte("frame2")))
}

func TestRecordReqAndResolve(t *testing.T) {
	ctx := context.Background()
	j := openTest(t)

	corrid := wire.CorrelationIDFromUint64(1)
	req := wire.NewReq(wire.NewAnon(7), "hello", corrid)

	dup, err := RecordReq(ctx, j, req, wire.StringCodec)
	require.NoError(t, err)
	assert.False(t, dup)

	pending, err := j.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, wire.KindReq, pending[0].Kind)
	assert.Equal(t, corrid, pending[0].CorrID)
	assert.Equal(t, req.From.String(), pending[0].Target)
	assert.False(t, pending[0].Resolved())

	// the stored frame decodes back to the request
	h, payload, err := wire.SplitFrame(pending[0].Frame)
	require.NoError(t, err)
	assert.Equal(t, wire.KindReq, h.Kind)
	decoded, err := wire.UnmarshalReq(payload, wire.StringCodec)
	require.NoError(t, err)
	assert.Equal(t, req, decoded)

	found, err := j.ResolveCorr(ctx, corrid)
	require.NoError(t, err)
	assert.True(t, found)

	found, err = j.ResolveCorr(ctx, corrid)
	require.NoError(t, err)
	assert.False(t, found, "already resolved")

	pending, err = j.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestRecordDuplicate(t *testing.T) {
	ctx := context.Background()
	j := openTest(t)

	req := wire.NewReq(wire.NewAnon(7), "hello", wire.CorrelationIDFromUint64(5))
	dup, err := RecordReq(ctx, j, req, wire.StringCodec)
	require.NoError(t, err)
	assert.False(t, dup)

	dup, err = RecordReq(ctx, j, req, wire.StringCodec)
	require.NoError(t, err)
	assert.True(t, dup, "same request under the same correlation id")

	count, err := j.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRecordRepeatedResponses(t *testing.T) {
	ctx := context.Background()
	j := openTest(t)

	// two pongs to two pings of one session have identical bytes
	res := wire.NewRes(wire.NewAnon(7), "pong")
	for i := 0; i < 2; i++ {
		dup, err := RecordRes(ctx, j, res, wire.StringCodec)
		require.NoError(t, err)
		assert.False(t, dup)
	}

	// errors without a correlation id are not deduplicated either
	reject := wire.NewError(wire.NewAnon(7), wire.ErrInvalidMessage, wire.CorrelationID{})
	for i := 0; i < 2; i++ {
		dup, err := RecordError(ctx, j, reject, wire.NetworkErrorCodec)
		require.NoError(t, err)
		assert.False(t, dup)
	}

	count, err := j.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	recent, err := j.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 4)
	assert.Equal(t, recent[0].Fingerprint, recent[1].Fingerprint)
}

func TestRecordErrorResolvesRequest(t *testing.T) {
	ctx := context.Background()
	j := openTest(t)

	corrid := wire.CorrelationIDFromUint64(9)
	req := wire.NewReq(wire.NewAnon(7), "ping", corrid)
	_, err := RecordReq(ctx, j, req, wire.StringCodec)
	require.NoError(t, err)

	reply := wire.ErrorFor(req, wire.ErrInvalidMessage)
	_, err = RecordError(ctx, j, reply, wire.NetworkErrorCodec)
	require.NoError(t, err)

	entries, err := j.ByCorrelation(ctx, corrid)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, wire.KindReq, entries[0].Kind)
	assert.True(t, entries[0].Resolved())
	assert.Equal(t, wire.KindError, entries[1].Kind)
	assert.Equal(t, entries[1].RecordedAt, entries[0].ResolvedAt)

	pending, err := j.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestPendingOrder(t *testing.T) {
	ctx := context.Background()
	j := openTest(t)
	clock(j)

	for i := uint64(1); i <= 3; i++ {
		req := wire.NewReq(wire.NewAnon(wire.SessionID(i)), "x", wire.CorrelationIDFromUint64(i))
		_, err := RecordReq(ctx, j, req, wire.StringCodec)
		require.NoError(t, err)
	}
	_, err := j.ResolveCorr(ctx, wire.CorrelationIDFromUint64(2))
	require.NoError(t, err)

	pending, err := j.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, wire.CorrelationIDFromUint64(1), pending[0].CorrID)
	assert.Equal(t, wire.CorrelationIDFromUint64(3), pending[1].CorrID)

	recent, err := j.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, wire.CorrelationIDFromUint64(3), recent[0].CorrID)
}

func TestStatsAndPrune(t *testing.T) {
	ctx := context.Background()
	j := openTest(t)
	clock(j)

	req := wire.NewReq(wire.NewAnon(1), "a", wire.CorrelationIDFromUint64(1))
	_, err := RecordReq(ctx, j, req, wire.StringCodec)
	require.NoError(t, err)
	_, err = RecordRes(ctx, j, wire.ResFor(req, "b"), wire.StringCodec)
	require.NoError(t, err)

	stats, err := j.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Pending)
	assert.Equal(t, map[string]int{"req": 1, "res": 1}, stats.ByKind)
	assert.NotZero(t, stats.Oldest)

	// cutoff between the two frames
	removed, err := j.Prune(ctx, time.UnixMilli(stats.Oldest+1))
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	count, err := j.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRecordRejects(t *testing.T) {
	ctx := context.Background()
	j := openTest(t)

	_, err := j.Record(ctx, &Entry{Kind: wire.KindReq})
	assert.Error(t, err)

	_, err = j.Record(ctx, &Entry{Kind: 9, Frame: []byte{1}})
	assert.Error(t, err)

	_, err = j.RecordFrame(ctx, []byte("not a frame"), wire.CorrelationID{}, "x")
	assert.Error(t, err)
}

func TestCloseTwice(t *testing.T) {
	j, err := Open(filepath.Join(t.TempDir(), "journal.db"), time.Minute, nil)
	require.NoError(t, err)
	require.NoError(t, j.Close())
	assert.NoError(t, j.Close())
}
