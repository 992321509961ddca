// internal/gateway/errors.go
package gateway

import (
	"errors"
	"fmt"
	"strings"

	engine "github.com/feng-mou-mou/Railof1914/engine"
)

// TransportError covers network failures and non-2xx responses. Message holds
// the backend's JSON error text when it could be parsed, else the raw body.
type TransportError struct {
	Op         string
	StatusCode int // Zero when no response was received.
	Message    string
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	msg := fmt.Sprintf("%s: status %d", e.Op, e.StatusCode)
	switch {
	case e.Message != "":
		msg += ": " + e.Message
	case e.Err != nil:
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TransportError) Unwrap() error { return e.Err }

// RejectionError is a well-formed response with success=false.
type RejectionError struct {
	Op     string
	Reason string
}

func (e *RejectionError) Error() string {
	if e.Reason == "" {
		return e.Op + ": rejected by server"
	}
	return fmt.Sprintf("%s: rejected by server: %s", e.Op, e.Reason)
}

// ValidationError is raised before any network call. It unwraps to one of the
// engine's legality errors.
type ValidationError struct {
	Op  string
	Err error
}

func (e *ValidationError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

func (e *ValidationError) Unwrap() error { return e.Err }

// ErrStateNotLoaded is returned when an action needs a snapshot and none exists.
var ErrStateNotLoaded = errors.New("game state not loaded")

// validationMessages maps legality errors to log-panel text.
var validationMessages = []struct {
	err error
	msg string
}{
	{engine.ErrInsufficientGDP, "GDP资源不足"},
	{engine.ErrNotAdjacent, "选择的格子不相邻"},
	{engine.ErrDuplicateRailway, "这两个格子之间已有铁路"},
	{engine.ErrTileOccupied, "该格子已有城镇"},
	{engine.ErrRegionNotOwned, "该区域不属于您的阵营"},
	{engine.ErrMergeLevelMismatch, "只能合并相同等级的城镇"},
	{engine.ErrMergeMaxLevel, "大城市无法继续合并"},
	{engine.ErrWarTooEarly, "保护期内无法宣战"},
	{engine.ErrWarAlreadyDeclared, "已经宣战"},
	{engine.ErrExceedsAvailability, "动员数量超过可用人口"},
}

// rejectionMessages maps substrings of backend reasons to friendlier text.
var rejectionMessages = []struct {
	contains string
	msg      string
}{
	{"GDP不足", "GDP资源不足"},
	{"格子不相邻", "选择的格子不相邻"},
	{"找不到格子", "找不到指定的格子"},
}

// FriendlyMessage renders err for the action log.
func FriendlyMessage(err error) string {
	if err == nil {
		return ""
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		for _, m := range validationMessages {
			if errors.Is(err, m.err) {
				return m.msg
			}
		}
		return verr.Err.Error()
	}
	var rerr *RejectionError
	if errors.As(err, &rerr) {
		for _, m := range rejectionMessages {
			if strings.Contains(rerr.Reason, m.contains) {
				return m.msg
			}
		}
		if rerr.Reason != "" {
			return rerr.Reason
		}
		return "操作被服务器拒绝"
	}
	var terr *TransportError
	if errors.As(err, &terr) {
		if terr.Message != "" {
			return terr.Message
		}
		return "网络错误，请稍后重试"
	}
	return err.Error()
}
