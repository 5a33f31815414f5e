package wire

import (
	"encoding/json"
	"fmt"
)

// ===== BINARY =====

// WriteReq appends req to w: from, action, corrid
func WriteReq[A any](w *Writer, req Req[A], c PayloadCodec[A]) {
	req.From.MarshalWire(w)
	c.EncodeWire(w, req.Action)
	w.CorrelationID(req.CorrID)
}

// ReadReq consumes a request from r
func ReadReq[A any](r *Reader, c PayloadCodec[A]) (Req[A], error) {
	var req Req[A]
	if err := req.From.UnmarshalWire(r); err != nil {
		return Req[A]{}, fmt.Errorf("req from: %w", err)
	}
	action, err := c.DecodeWire(r)
	if err != nil {
		return Req[A]{}, fmt.Errorf("req action: %w", err)
	}
	req.Action = action
	if req.CorrID, err = r.CorrelationID(); err != nil {
		return Req[A]{}, fmt.Errorf("req corrid: %w", err)
	}
	return req, nil
}

// WriteRes appends res to w: targets, event
func WriteRes[E any](w *Writer, res Res[E], c PayloadCodec[E]) {
	res.Targets.MarshalWire(w)
	c.EncodeWire(w, res.Event)
}

// ReadRes consumes a response from r
func ReadRes[E any](r *Reader, c PayloadCodec[E]) (Res[E], error) {
	var res Res[E]
	if err := res.Targets.UnmarshalWire(r); err != nil {
		return Res[E]{}, fmt.Errorf("res targets: %w", err)
	}
	event, err := c.DecodeWire(r)
	if err != nil {
		return Res[E]{}, fmt.Errorf("res event: %w", err)
	}
	res.Event = event
	return res, nil
}

// WriteError appends e to w: to, error, corrid
func WriteError[E any](w *Writer, e Error[E], c PayloadCodec[E]) {
	e.To.MarshalWire(w)
	c.EncodeWire(w, e.Err)
	w.CorrelationID(e.CorrID)
}

// ReadError consumes an error reply from r
func ReadError[E any](r *Reader, c PayloadCodec[E]) (Error[E], error) {
	var out Error[E]
	if err := out.To.UnmarshalWire(r); err != nil {
		return Error[E]{}, fmt.Errorf("error to: %w", err)
	}
	payload, err := c.DecodeWire(r)
	if err != nil {
		return Error[E]{}, fmt.Errorf("error payload: %w", err)
	}
	out.Err = payload
	if out.CorrID, err = r.CorrelationID(); err != nil {
		return Error[E]{}, fmt.Errorf("error corrid: %w", err)
	}
	return out, nil
}

// MarshalReq encodes req into a fresh buffer
func MarshalReq[A any](req Req[A], c PayloadCodec[A]) []byte {
	w := NewWriter(64)
	WriteReq(w, req, c)
	return w.Bytes()
}

// UnmarshalReq decodes a whole buffer as a request
func UnmarshalReq[A any](data []byte, c PayloadCodec[A]) (Req[A], error) {
	r := NewReader(data)
	req, err := ReadReq(r, c)
	if err != nil {
		return Req[A]{}, err
	}
	return req, r.Finish()
}

// MarshalRes encodes res into a fresh buffer
func MarshalRes[E any](res Res[E], c PayloadCodec[E]) []byte {
	w := NewWriter(64)
	WriteRes(w, res, c)
	return w.Bytes()
}

// UnmarshalRes decodes a whole buffer as a response
func UnmarshalRes[E any](data []byte, c PayloadCodec[E]) (Res[E], error) {
	r := NewReader(data)
	res, err := ReadRes(r, c)
	if err != nil {
		return Res[E]{}, err
	}
	return res, r.Finish()
}

// MarshalError encodes e into a fresh buffer
func MarshalError[E any](e Error[E], c PayloadCodec[E]) []byte {
	w := NewWriter(64)
	WriteError(w, e, c)
	return w.Bytes()
}

// UnmarshalError decodes a whole buffer as an error reply
func UnmarshalError[E any](data []byte, c PayloadCodec[E]) (Error[E], error) {
	r := NewReader(data)
	e, err := ReadError(r, c)
	if err != nil {
		return Error[E]{}, err
	}
	return e, r.Finish()
}

// ===== TEXT =====

type reqJSON struct {
	From   Target          `json:"from"`
	Action json.RawMessage `json:"action"`
	CorrID CorrelationID   `json:"corrid"`
}

type resJSON struct {
	Targets Targets         `json:"targets"`
	Event   json.RawMessage `json:"event"`
}

type errorJSON struct {
	To     Target          `json:"to"`
	Err    json.RawMessage `json:"error"`
	CorrID CorrelationID   `json:"corrid"`
}

// MarshalReqText encodes req as {"from":..,"action":..,"corrid":..}
func MarshalReqText[A any](req Req[A], c PayloadCodec[A]) ([]byte, error) {
	action, err := c.EncodeText(req.Action)
	if err != nil {
		return nil, fmt.Errorf("req action: %w", err)
	}
	return json.Marshal(reqJSON{From: req.From, Action: action, CorrID: req.CorrID})
}

// UnmarshalReqText decodes the text form of a request
func UnmarshalReqText[A any](data []byte, c PayloadCodec[A]) (Req[A], error) {
	if err := knownKeys(data, "Req", "from", "action", "corrid"); err != nil {
		return Req[A]{}, err
	}
	var doc reqJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return Req[A]{}, err
	}
	action, err := c.DecodeText(doc.Action)
	if err != nil {
		return Req[A]{}, fmt.Errorf("req action: %w", err)
	}
	return Req[A]{From: doc.From, Action: action, CorrID: doc.CorrID}, nil
}

// MarshalResText encodes res as {"targets":..,"event":..}
func MarshalResText[E any](res Res[E], c PayloadCodec[E]) ([]byte, error) {
	event, err := c.EncodeText(res.Event)
	if err != nil {
		return nil, fmt.Errorf("res event: %w", err)
	}
	return json.Marshal(resJSON{Targets: res.Targets, Event: event})
}

// UnmarshalResText decodes the text form of a response
func UnmarshalResText[E any](data []byte, c PayloadCodec[E]) (Res[E], error) {
	if err := knownKeys(data, "Res", "targets", "event"); err != nil {
		return Res[E]{}, err
	}
	var doc resJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return Res[E]{}, err
	}
	event, err := c.DecodeText(doc.Event)
	if err != nil {
		return Res[E]{}, fmt.Errorf("res event: %w", err)
	}
	return Res[E]{Targets: doc.Targets, Event: event}, nil
}

// MarshalErrorText encodes e as {"to":..,"error":..,"corrid":..}
func MarshalErrorText[E any](e Error[E], c PayloadCodec[E]) ([]byte, error) {
	payload, err := c.EncodeText(e.Err)
	if err != nil {
		return nil, fmt.Errorf("error payload: %w", err)
	}
	return json.Marshal(errorJSON{To: e.To, Err: payload, CorrID: e.CorrID})
}

// UnmarshalErrorText decodes the text form of an error reply
func UnmarshalErrorText[E any](data []byte, c PayloadCodec[E]) (Error[E], error) {
	if err := knownKeys(data, "Error", "to", "error", "corrid"); err != nil {
		return Error[E]{}, err
	}
	var doc errorJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return Error[E]{}, err
	}
	payload, err := c.DecodeText(doc.Err)
	if err != nil {
		return Error[E]{}, fmt.Errorf("error payload: %w", err)
	}
	return Error[E]{To: doc.To, Err: payload, CorrID: doc.CorrID}, nil
}

// knownKeys checks that data is an object holding every expected key and no other
func knownKeys(data []byte, typeName string, expected ...string) error {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("wire: %s: %w", typeName, err)
	}
	for key := range doc {
		if !contains(expected, key) {
			return &DecodeError{Type: typeName, Got: fmt.Sprintf("%q", key), Allowed: expected}
		}
	}
	for _, key := range expected {
		if _, ok := doc[key]; !ok {
			return fmt.Errorf("wire: %s: missing key %q", typeName, key)
		}
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
