package command

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-custody/core"
)

var (
	_ gocmd.Commander[WrapMessage]            = (*WrapCommand)(nil)
	_ gocmd.Commander[UnwrapMessage]          = (*UnwrapCommand)(nil)
	_ gocmd.Commander[SetEnabledStateMessage] = (*SetEnabledStateCommand)(nil)
	_ MutatingService                         = (*core.Coordinator)(nil)
)
