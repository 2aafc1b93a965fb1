package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

type ConversionHook interface {
	Name() string
	OnConversion(ctx context.Context, conversion Conversion) error
}

// ConversionHookFunc adapts a function to ConversionHook.
type ConversionHookFunc struct {
	HookName string
	Fn       func(ctx context.Context, conversion Conversion) error
}

func (h ConversionHookFunc) Name() string { return h.HookName }

func (h ConversionHookFunc) OnConversion(ctx context.Context, conversion Conversion) error {
	if h.Fn == nil {
		return nil
	}
	return h.Fn(ctx, conversion)
}

// ConversionHooks holds the hooks run around a conversion. Pre-commit hooks
// run inside the unit of work, after the ledgers moved and the journal entry
// was written; post-commit hooks run once the unit of work committed.
type ConversionHooks struct {
	mu         sync.RWMutex
	preCommit  []ConversionHook
	postCommit []ConversionHook
}

func NewConversionHooks() *ConversionHooks {
	return &ConversionHooks{
		preCommit:  make([]ConversionHook, 0),
		postCommit: make([]ConversionHook, 0),
	}
}

func (c *ConversionHooks) RegisterPreCommit(hook ConversionHook) {
	if c == nil || hook == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.preCommit = append(c.preCommit, hook)
}

func (c *ConversionHooks) RegisterPostCommit(hook ConversionHook) {
	if c == nil || hook == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.postCommit = append(c.postCommit, hook)
}

// ExecutePreCommit runs hooks in registration order and stops at the first
// error, which rolls the conversion back.
func (c *ConversionHooks) ExecutePreCommit(ctx context.Context, conversion Conversion) error {
	for _, hook := range c.preHooks() {
		if err := hook.OnConversion(ctx, conversion); err != nil {
			return fmt.Errorf("core: pre-commit conversion hook %q failed: %w", hookName(hook), err)
		}
	}
	return nil
}

// ExecutePostCommit runs every hook and joins their errors. The conversion
// stays committed regardless.
func (c *ConversionHooks) ExecutePostCommit(ctx context.Context, conversion Conversion) error {
	var hookErr error
	for _, hook := range c.postHooks() {
		if err := hook.OnConversion(ctx, conversion); err != nil {
			hookErr = errors.Join(hookErr, fmt.Errorf("post-commit conversion hook %q failed: %w", hookName(hook), err))
		}
	}
	return hookErr
}

func (c *ConversionHooks) preHooks() []ConversionHook {
	if c == nil {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]ConversionHook, len(c.preCommit))
	copy(out, c.preCommit)
	return out
}

func (c *ConversionHooks) postHooks() []ConversionHook {
	if c == nil {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]ConversionHook, len(c.postCommit))
	copy(out, c.postCommit)
	return out
}

func hookName(hook ConversionHook) string {
	if hook == nil {
		return "unknown"
	}
	name := strings.TrimSpace(hook.Name())
	if name == "" {
		return "unnamed"
	}
	return name
}
