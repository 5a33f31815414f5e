package journal

import (
	"context"

	"github.com/ZentaChain/zentalk-wire/pkg/wire"
)

// RecordReq encodes req as a binary frame and records it as pending
func RecordReq[A any](ctx context.Context, j *Journal, req wire.Req[A], c wire.PayloadCodec[A]) (bool, error) {
	payload := wire.MarshalReq(req, c)
	return j.Record(ctx, &Entry{
		Kind:   wire.KindReq,
		CorrID: req.CorrID,
		Target: req.From.String(),
		Frame:  wire.AppendFrame(nil, wire.NewFrame(wire.KindReq, len(payload)), payload),
	})
}

// RecordRes encodes res as a binary frame and records it. Responses carry no
// correlation id.
func RecordRes[E any](ctx context.Context, j *Journal, res wire.Res[E], c wire.PayloadCodec[E]) (bool, error) {
	payload := wire.MarshalRes(res, c)
	return j.Record(ctx, &Entry{
		Kind:   wire.KindRes,
		Target: res.Targets.String(),
		Frame:  wire.AppendFrame(nil, wire.NewFrame(wire.KindRes, len(payload)), payload),
	})
}

// RecordError encodes e as a binary frame, records it and resolves the
// request it answers
func RecordError[E any](ctx context.Context, j *Journal, e wire.Error[E], c wire.PayloadCodec[E]) (bool, error) {
	payload := wire.MarshalError(e, c)
	return j.Record(ctx, &Entry{
		Kind:   wire.KindError,
		CorrID: e.CorrID,
		Target: e.To.String(),
		Frame:  wire.AppendFrame(nil, wire.NewFrame(wire.KindError, len(payload)), payload),
	})
}

// RecordFrame records an already encoded frame, as read off a stream
func (j *Journal) RecordFrame(ctx context.Context, frame []byte, corrid wire.CorrelationID, target string) (bool, error) {
	h, _, err := wire.SplitFrame(frame)
	if err != nil {
		return false, err
	}
	return j.Record(ctx, &Entry{
		Kind:   h.Kind,
		CorrID: corrid,
		Target: target,
		Frame:  frame,
	})
}
