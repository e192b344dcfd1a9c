// Package callback packs menu actions into Telegram callback data and back.
//
// A token has the form "<key>|<params>". Params are free form; compound
// params are joined with "_" and split positionally by the receiving handler.
// The Back button of a screen carries the full token of its parent screen as
// params, so going back needs no server-side history. Only one hop is
// supported: each screen names its parent when it is built.
package callback

import (
	"errors"
	"fmt"
	"strings"
)

const (
	Separator      = "|"
	ParamSeparator = "_"
	// MaxTokenSize is the Telegram limit for callback_data in bytes.
	MaxTokenSize = 64
)

// ErrParams is returned when compound params have the wrong shape.
var ErrParams = errors.New("malformed callback params")

// Encode returns the callback token for key and params.
func Encode(key ActionKey, params string) string {
	return string(key) + Separator + params
}

// Decode parses a callback token. Unparseable tokens and unknown keys decode
// to ActionNone so a stale or forged button is a no-op.
func Decode(token string) (ActionKey, string) {
	key, params, ok := strings.Cut(token, Separator)
	if !ok {
		return ActionNone, ""
	}
	k := ActionKey(key)
	if !k.Valid() {
		return ActionNone, ""
	}
	return k, params
}

// Fits reports whether token can be attached to an inline button.
func Fits(token string) bool {
	return len(token) <= MaxTokenSize
}

// JoinParams builds a compound param.
func JoinParams(parts ...string) string {
	return strings.Join(parts, ParamSeparator)
}

// SplitParams destructures a compound param into exactly n parts. The last
// part keeps any remaining separators.
func SplitParams(params string, n int) ([]string, error) {
	parts := strings.SplitN(params, ParamSeparator, n)
	if len(parts) != n {
		return nil, fmt.Errorf("%w: want %d parts in %q", ErrParams, n, params)
	}
	for _, p := range parts {
		if p == "" {
			return nil, fmt.Errorf("%w: empty part in %q", ErrParams, params)
		}
	}
	return parts, nil
}

// Token is a decoded callback: the screen or operation plus its params.
type Token struct {
	Key    ActionKey
	Params string
}

// To is a shorthand for a Token.
func To(key ActionKey, params ...string) Token {
	return Token{Key: key, Params: JoinParams(params...)}
}

// Parse decodes a token string.
func Parse(token string) Token {
	k, p := Decode(token)
	return Token{Key: k, Params: p}
}

func (t Token) String() string {
	return Encode(t.Key, t.Params)
}

// IsZero reports whether t points nowhere.
func (t Token) IsZero() bool {
	return t.Key == "" || t.Key == ActionNone
}

// Nav carries the navigation context of a screen.
// BackFrom is the action that led here; when set, the screen edits the
// message that carried the pressed button instead of sending a new one.
// BackTo is the parent screen the Back button returns to.
type Nav struct {
	BackFrom ActionKey
	BackTo   Token
}

// Edit reports whether the screen should replace the current message.
func (n Nav) Edit() bool {
	return n.BackFrom != "" && n.BackFrom != ActionNone
}

// BackToken returns the callback token of the Back button, or "" when the
// screen is a root.
func (n Nav) BackToken() string {
	if n.BackTo.IsZero() {
		return ""
	}
	return Encode(ActionBack, n.BackTo.String())
}
