package inspect

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ZentaChain/zentalk-wire/pkg/journal"
	"github.com/ZentaChain/zentalk-wire/pkg/wire"
	"github.com/ZentaChain/zentalk-wire/pkg/wire/i18n"
)

// DecodeRequest is the body of POST /api/v1/targets/decode
type DecodeRequest struct {
	Hex string `json:"hex" binding:"required"`
	As  string `json:"as"` // "target" (default) or "targets"
}

// DecodeResponse carries the text and display forms of a binary target
type DecodeResponse struct {
	As      string          `json:"as"`
	Text    json.RawMessage `json:"text"`
	Display string          `json:"display"`
}

// EncodeRequest is the body of POST /api/v1/targets/encode. Exactly one
// field must be set.
type EncodeRequest struct {
	Target  json.RawMessage `json:"target,omitempty"`
	Targets json.RawMessage `json:"targets,omitempty"`
}

// EncodeResponse carries the binary form of a target as hex
type EncodeResponse struct {
	Hex     string `json:"hex"`
	Display string `json:"display"`
}

// EntryView is a journal entry as served over HTTP
type EntryView struct {
	ID          int64  `json:"id"`
	Kind        string `json:"kind"`
	CorrID      string `json:"corrid,omitempty"`
	Target      string `json:"target"`
	Fingerprint string `json:"fingerprint"`
	Frame       string `json:"frame"` // hex
	RecordedAt  int64  `json:"recorded_at"`
	ResolvedAt  int64  `json:"resolved_at,omitempty"`
}

// LocalizedError is the body of GET /api/v1/errors/:kind/:code
type LocalizedError struct {
	Kind    string `json:"kind"`
	Code    string `json:"code"`
	Key     string `json:"key"`
	Lang    string `json:"lang,omitempty"`
	Message string `json:"message"`
}

func (s *Server) handleHealth(c *gin.Context) {
	status := http.StatusOK
	health := gin.H{
		"status":  "healthy",
		"time":    time.Now().Unix(),
		"journal": s.journal != nil,
	}

	if s.journal != nil {
		if _, err := s.journal.Count(c.Request.Context()); err != nil {
			status = http.StatusServiceUnavailable
			health["status"] = "unhealthy"
			health["error"] = err.Error()
		}
	}

	c.JSON(status, health)
}

func (s *Server) handleDecodeTarget(c *gin.Context) {
	var req DecodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request", err)
		return
	}

	data, err := hex.DecodeString(strings.TrimPrefix(req.Hex, "0x"))
	if err != nil {
		badRequest(c, "Invalid hex", err)
		return
	}

	var (
		text    []byte
		display string
	)
	switch req.As {
	case "", "target":
		req.As = "target"
		var t wire.Target
		if err = t.UnmarshalBinary(data); err == nil {
			text, err = json.Marshal(t)
			display = t.String()
		}
	case "targets":
		var ts wire.Targets
		if err = ts.UnmarshalBinary(data); err == nil {
			text, err = json.Marshal(ts)
			display = ts.String()
		}
	default:
		badRequest(c, "Invalid request", errors.New(`as must be "target" or "targets"`))
		return
	}
	if err != nil {
		codedError(c, http.StatusUnprocessableEntity, "Undecodable target", err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Data:    DecodeResponse{As: req.As, Text: text, Display: display},
	})
}

func (s *Server) handleEncodeTarget(c *gin.Context) {
	var req EncodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request", err)
		return
	}

	var (
		data    []byte
		display string
		err     error
	)
	switch {
	case len(req.Target) > 0 && len(req.Targets) == 0:
		var t wire.Target
		if err = json.Unmarshal(req.Target, &t); err == nil {
			data, err = t.MarshalBinary()
			display = t.String()
		}
	case len(req.Targets) > 0 && len(req.Target) == 0:
		var ts wire.Targets
		if err = json.Unmarshal(req.Targets, &ts); err == nil {
			data, err = ts.MarshalBinary()
			display = ts.String()
		}
	default:
		badRequest(c, "Invalid request", errors.New("exactly one of target and targets is required"))
		return
	}
	if err != nil {
		codedError(c, http.StatusUnprocessableEntity, "Undecodable target", err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Data:    EncodeResponse{Hex: hex.EncodeToString(data), Display: display},
	})
}

func (s *Server) handleJournalStats(c *gin.Context) {
	if !s.requireJournal(c) {
		return
	}

	stats, err := s.journal.Stats(c.Request.Context())
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Success: true, Data: stats})
}

func (s *Server) handlePending(c *gin.Context) {
	if !s.requireJournal(c) {
		return
	}

	entries, err := s.journal.Pending(c.Request.Context())
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Success: true, Data: views(entries)})
}

func (s *Server) handleCorrelation(c *gin.Context) {
	if !s.requireJournal(c) {
		return
	}

	corrid, err := wire.ParseCorrelationID(c.Param("corrid"))
	if err != nil {
		badRequest(c, "Invalid correlation id", err)
		return
	}

	entries, err := s.journal.ByCorrelation(c.Request.Context(), corrid)
	if err != nil {
		internalError(c, err)
		return
	}
	if len(entries) == 0 {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: "Not found",
			Code:  "NOT_FOUND",
		})
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Success: true, Data: views(entries)})
}

func (s *Server) handleLocalizeError(c *gin.Context) {
	kind, code := c.Param("kind"), c.Param("code")

	var l i18n.Localizable
	switch kind {
	case "session":
		e, err := wire.ParseSessionError(code)
		if err != nil {
			codedError(c, http.StatusNotFound, "Unknown session error", err)
			return
		}
		l = e
	case "network":
		nc, err := wire.ParseNetworkCode(code)
		if err != nil {
			codedError(c, http.StatusNotFound, "Unknown network error", err)
			return
		}
		e := wire.NetworkError{Code: nc}
		if nc == wire.Socket {
			e.Detail = c.Query("detail")
		}
		l = e
	default:
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "Unknown error kind",
			Message: `kind must be "session" or "network"`,
			Code:    "UNKNOWN_KIND",
		})
		return
	}

	out := LocalizedError{Kind: kind, Code: code, Key: l.MessageKey()}
	if lang := c.Query("lang"); lang != "" {
		tag, ok := i18n.ParseTag(lang)
		if !ok {
			badRequest(c, "Invalid language", errors.New(lang))
			return
		}
		out.Lang = tag.String()
		out.Message = i18n.Localize(tag, l)
	} else {
		out.Message = i18n.LocalizeAccept(c.GetHeader("Accept-Language"), l)
	}

	c.JSON(http.StatusOK, SuccessResponse{Success: true, Data: out})
}

func (s *Server) handleLanguages(c *gin.Context) {
	tags := i18n.Languages()
	names := make([]string, len(tags))
	for i, t := range tags {
		names[i] = t.String()
	}
	c.JSON(http.StatusOK, SuccessResponse{Success: true, Data: names})
}

func (s *Server) requireJournal(c *gin.Context) bool {
	if s.journal == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error: "Journal not configured",
			Code:  "NO_JOURNAL",
		})
		return false
	}
	return true
}

func views(entries []*journal.Entry) []EntryView {
	out := make([]EntryView, len(entries))
	for i, e := range entries {
		out[i] = EntryView{
			ID:          e.ID,
			Kind:        e.Kind.String(),
			Target:      e.Target,
			Fingerprint: e.Fingerprint,
			Frame:       hex.EncodeToString(e.Frame),
			RecordedAt:  e.RecordedAt,
			ResolvedAt:  e.ResolvedAt,
		}
		if !e.CorrID.IsZero() {
			out[i].CorrID = e.CorrID.String()
		}
	}
	return out
}

func badRequest(c *gin.Context, msg string, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   msg,
		Message: err.Error(),
		Code:    "BAD_REQUEST",
	})
}

func codedError(c *gin.Context, status int, msg string, err error) {
	code := "INVALID"
	var de *wire.DecodeError
	if errors.As(err, &de) {
		code = "BAD_DISCRIMINANT"
	}
	c.JSON(status, ErrorResponse{Error: msg, Message: err.Error(), Code: code})
}

func internalError(c *gin.Context, err error) {
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error:   "Internal error",
		Message: err.Error(),
	})
}
