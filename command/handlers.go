package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-custody/core"
)

type MutatingService interface {
	Wrap(ctx context.Context, req core.WrapRequest) (core.Conversion, error)
	Unwrap(ctx context.Context, req core.UnwrapRequest) (core.Conversion, error)
	SetEnabledState(ctx context.Context, req core.SetEnabledStateRequest) (core.Configuration, error)
}

type WrapCommand struct {
	service MutatingService
}

func NewWrapCommand(service MutatingService) *WrapCommand {
	return &WrapCommand{service: service}
}

func (c *WrapCommand) Execute(ctx context.Context, msg WrapMessage) error {
	if c == nil || c.service == nil {
		return missingService("wrap")
	}
	out, err := c.service.Wrap(ctx, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type UnwrapCommand struct {
	service MutatingService
}

func NewUnwrapCommand(service MutatingService) *UnwrapCommand {
	return &UnwrapCommand{service: service}
}

func (c *UnwrapCommand) Execute(ctx context.Context, msg UnwrapMessage) error {
	if c == nil || c.service == nil {
		return missingService("unwrap")
	}
	out, err := c.service.Unwrap(ctx, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type SetEnabledStateCommand struct {
	service MutatingService
}

func NewSetEnabledStateCommand(service MutatingService) *SetEnabledStateCommand {
	return &SetEnabledStateCommand{service: service}
}

func (c *SetEnabledStateCommand) Execute(ctx context.Context, msg SetEnabledStateMessage) error {
	if c == nil || c.service == nil {
		return missingService("enabled state")
	}
	out, err := c.service.SetEnabledState(ctx, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
