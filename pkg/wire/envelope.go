package wire

import (
	"fmt"
	"time"
)

// Req is an inbound request from one target
type Req[A any] struct {
	From   Target
	Action A
	CorrID CorrelationID
}

// NewReq builds a request. from may be a Target or an AuthTarget.
func NewReq[A any](from Addressable, action A, corrid CorrelationID) Req[A] {
	return Req[A]{From: from.AsTarget(), Action: action, CorrID: corrid}
}

func (r Req[A]) String() string {
	return fmt.Sprintf("req{from=%s corrid=%s action=%v}", r.From, r.CorrID, r.Action)
}

// Res is an outbound event for a set of targets
type Res[E any] struct {
	Targets Targets
	Event   E
}

// NewRes builds a response. to may be a Target, an AuthTarget or a Targets.
func NewRes[E any](to Audience, event E) Res[E] {
	return Res[E]{Targets: to.AsTargets(), Event: event}
}

func (r Res[E]) String() string {
	return fmt.Sprintf("res{targets=%s event=%v}", r.Targets, r.Event)
}

// Error is a failure reply directed at one target. CorrID names the request
// that caused it.
type Error[E any] struct {
	To     Target
	Err    E
	CorrID CorrelationID
}

// NewError builds an error reply. to may be a Target or an AuthTarget.
func NewError[E any](to Addressable, err E, corrid CorrelationID) Error[E] {
	return Error[E]{To: to.AsTarget(), Err: err, CorrID: corrid}
}

func (e Error[E]) String() string {
	return fmt.Sprintf("error{to=%s corrid=%s err=%v}", e.To, e.CorrID, e.Err)
}

// ErrorFor replies to req with err, echoing its sender and correlation id
func ErrorFor[A, E any](req Req[A], err E) Error[E] {
	return Error[E]{To: req.From, Err: err, CorrID: req.CorrID}
}

// ResFor sends event back to the sender of req only
func ResFor[A, E any](req Req[A], event E) Res[E] {
	return Res[E]{Targets: Few(req.From), Event: event}
}

// Correlates reports whether e answers req
func Correlates[A, E any](req Req[A], e Error[E]) bool {
	return req.CorrID == e.CorrID && req.From == e.To
}

// NowUnixMilli is the clock used by Stamp
var NowUnixMilli = func() int64 {
	return time.Now().UnixMilli()
}

// Time returns the capture time
func (s Stamped[E]) Time() time.Time {
	return time.UnixMilli(s.At)
}
