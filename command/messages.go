package command

import (
	"github.com/goliatone/go-custody/core"
)

const (
	TypeWrap            = "custody.command.wrap"
	TypeUnwrap          = "custody.command.unwrap"
	TypeSetEnabledState = "custody.command.enabled_state.set"
)

type WrapMessage struct {
	Request core.WrapRequest
}

func (WrapMessage) Type() string { return TypeWrap }

func (m WrapMessage) Validate() error {
	return invalidRequest("wrap", m.Request.Validate())
}

type UnwrapMessage struct {
	Request core.UnwrapRequest
}

func (UnwrapMessage) Type() string { return TypeUnwrap }

func (m UnwrapMessage) Validate() error {
	return invalidRequest("unwrap", m.Request.Validate())
}

// SetEnabledStateMessage carries no structural checks: the access gate
// decides whether the caller may change the flags.
type SetEnabledStateMessage struct {
	Request core.SetEnabledStateRequest
}

func (SetEnabledStateMessage) Type() string { return TypeSetEnabledState }

func (SetEnabledStateMessage) Validate() error { return nil }
