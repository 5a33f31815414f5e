package wire

import (
	"bytes"
	"encoding/json"
	"fmt"
)

const (
	authKindCount    = 2
	targetKindCount  = 3
	targetsKindCount = 2

	targetsAll uint8 = 0
	targetsFew uint8 = 1

	// smallest encoded Target: tag + SessionID
	minTargetSize = 1 + 4
)

// ===== BINARY =====

func (a AuthTarget) MarshalWire(w *Writer) {
	w.Uint8(uint8(a.kind))
	w.UserID(a.user)
	if a.kind == AuthSpecificKind {
		w.Uint32(uint32(a.session))
	}
}

func (a *AuthTarget) UnmarshalWire(r *Reader) error {
	tag, err := r.Tag("AuthTarget", authKindCount)
	if err != nil {
		return err
	}
	user, err := r.UserID()
	if err != nil {
		return err
	}
	switch AuthKind(tag) {
	case AuthAllKind:
		*a = AuthAll(user)
	case AuthSpecificKind:
		session, err := r.Uint32()
		if err != nil {
			return err
		}
		*a = AuthSpecific(user, SessionID(session))
	}
	return nil
}

func (t Target) MarshalWire(w *Writer) {
	w.Uint8(uint8(t.kind))
	switch t.kind {
	case TargetAnon:
		w.Uint32(uint32(t.session))
	case TargetAuth:
		t.auth.MarshalWire(w)
	case TargetBot:
		w.Uint64(uint64(t.bot))
	}
}

func (t *Target) UnmarshalWire(r *Reader) error {
	tag, err := r.Tag("Target", targetKindCount)
	if err != nil {
		return err
	}
	switch TargetKind(tag) {
	case TargetAnon:
		session, err := r.Uint32()
		if err != nil {
			return err
		}
		*t = NewAnon(SessionID(session))
	case TargetAuth:
		var at AuthTarget
		if err := at.UnmarshalWire(r); err != nil {
			return err
		}
		*t = NewAuth(at)
	case TargetBot:
		id, err := r.Uint64()
		if err != nil {
			return err
		}
		*t = NewBot(BotID(id))
	}
	return nil
}

func (ts Targets) MarshalWire(w *Writer) {
	if ts.all {
		w.Uint8(targetsAll)
		return
	}
	w.Uint8(targetsFew)
	w.Uint32(uint32(len(ts.few)))
	for _, t := range ts.few {
		t.MarshalWire(w)
	}
}

func (ts *Targets) UnmarshalWire(r *Reader) error {
	tag, err := r.Tag("Targets", targetsKindCount)
	if err != nil {
		return err
	}
	if tag == targetsAll {
		*ts = AllTargets()
		return nil
	}
	n, err := r.Len(minTargetSize)
	if err != nil {
		return err
	}
	var few []Target
	if n > 0 {
		few = make([]Target, n)
	}
	for i := range few {
		if err := few[i].UnmarshalWire(r); err != nil {
			return fmt.Errorf("targets[%d]: %w", i, err)
		}
	}
	*ts = Targets{few: few}
	return nil
}

func (t Target) MarshalBinary() ([]byte, error) {
	return Encode(t), nil
}

func (t *Target) UnmarshalBinary(data []byte) error {
	return Decode(data, t)
}

func (ts Targets) MarshalBinary() ([]byte, error) {
	return Encode(ts), nil
}

func (ts *Targets) UnmarshalBinary(data []byte) error {
	return Decode(data, ts)
}

// ===== TEXT =====

type specificJSON struct {
	User    UserID    `json:"user"`
	Session SessionID `json:"session"`
}

func (s *specificJSON) UnmarshalJSON(data []byte) error {
	if err := knownKeys(data, "AuthTarget.specific", "user", "session"); err != nil {
		return err
	}
	type plain specificJSON
	return json.Unmarshal(data, (*plain)(s))
}

type authJSON struct {
	All      *UserID       `json:"all,omitempty"`
	Specific *specificJSON `json:"specific,omitempty"`
}

type targetJSON struct {
	Anon *SessionID  `json:"anon,omitempty"`
	Auth *AuthTarget `json:"auth,omitempty"`
	Bot  *BotID      `json:"bot,omitempty"`
}

type targetsJSON struct {
	Few []Target `json:"few"`
}

func (a AuthTarget) MarshalJSON() ([]byte, error) {
	if a.kind == AuthSpecificKind {
		return json.Marshal(authJSON{Specific: &specificJSON{User: a.user, Session: a.session}})
	}
	user := a.user
	return json.Marshal(authJSON{All: &user})
}

func (a *AuthTarget) UnmarshalJSON(data []byte) error {
	if err := singleKey(data, "AuthTarget", "all", "specific"); err != nil {
		return err
	}
	var doc authJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	switch {
	case doc.All != nil:
		*a = AuthAll(*doc.All)
	case doc.Specific != nil:
		*a = AuthSpecific(doc.Specific.User, doc.Specific.Session)
	default:
		return &DecodeError{Type: "AuthTarget", Got: "null", Allowed: []string{"all", "specific"}}
	}
	return nil
}

func (t Target) MarshalJSON() ([]byte, error) {
	var doc targetJSON
	switch t.kind {
	case TargetAnon:
		s := t.session
		doc.Anon = &s
	case TargetAuth:
		at := t.auth
		doc.Auth = &at
	case TargetBot:
		b := t.bot
		doc.Bot = &b
	}
	return json.Marshal(doc)
}

func (t *Target) UnmarshalJSON(data []byte) error {
	if err := singleKey(data, "Target", "anon", "auth", "bot"); err != nil {
		return err
	}
	var doc targetJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	switch {
	case doc.Anon != nil:
		*t = NewAnon(*doc.Anon)
	case doc.Auth != nil:
		*t = NewAuth(*doc.Auth)
	case doc.Bot != nil:
		*t = NewBot(*doc.Bot)
	default:
		return &DecodeError{Type: "Target", Got: "null", Allowed: []string{"anon", "auth", "bot"}}
	}
	return nil
}

func (ts Targets) MarshalJSON() ([]byte, error) {
	if ts.all {
		return []byte(`"all"`), nil
	}
	few := ts.few
	if few == nil {
		few = []Target{}
	}
	return json.Marshal(targetsJSON{Few: few})
}

func (ts *Targets) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		if s != "all" {
			return &DecodeError{Type: "Targets", Got: s, Allowed: []string{"all", "few"}}
		}
		*ts = AllTargets()
		return nil
	}
	if err := singleKey(trimmed, "Targets", "few"); err != nil {
		return err
	}
	var doc targetsJSON
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return err
	}
	*ts = Few(doc.Few...)
	return nil
}

// singleKey checks that data is an object with exactly one key drawn from allowed
func singleKey(data []byte, typeName string, allowed ...string) error {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("wire: %s: %w", typeName, err)
	}
	if len(doc) != 1 {
		return &DecodeError{Type: typeName, Got: fmt.Sprintf("%d keys", len(doc)), Allowed: allowed}
	}
	for key := range doc {
		for _, a := range allowed {
			if key == a {
				return nil
			}
		}
		return &DecodeError{Type: typeName, Got: fmt.Sprintf("%q", key), Allowed: allowed}
	}
	return nil
}
