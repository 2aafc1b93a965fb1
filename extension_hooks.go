package custody

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-custody/core"
)

// HookPack groups conversion hooks contributed by one downstream package.
type HookPack struct {
	Name       string
	PreCommit  []core.ConversionHook
	PostCommit []core.ConversionHook
}

type CommandQueryBundleFactory func(service CommandQueryService) (any, error)

type ExtensionHooks struct {
	mu sync.RWMutex

	hookPacks map[string]HookPack
	bundles   map[string]CommandQueryBundleFactory
}

func NewExtensionHooks() *ExtensionHooks {
	return &ExtensionHooks{
		hookPacks: map[string]HookPack{},
		bundles:   map[string]CommandQueryBundleFactory{},
	}
}

func (h *ExtensionHooks) RegisterHookPack(pack HookPack) error {
	if h == nil {
		return fmt.Errorf("custody: extension hooks are nil")
	}
	name := strings.TrimSpace(pack.Name)
	if name == "" {
		return fmt.Errorf("custody: hook pack name is required")
	}
	if len(pack.PreCommit) == 0 && len(pack.PostCommit) == 0 {
		return fmt.Errorf("custody: hook pack %q has no hooks", name)
	}
	for _, hook := range append(append([]core.ConversionHook(nil), pack.PreCommit...), pack.PostCommit...) {
		if hook == nil {
			return fmt.Errorf("custody: hook pack %q contains nil hook", name)
		}
	}

	normalized := HookPack{
		Name:       name,
		PreCommit:  append([]core.ConversionHook(nil), pack.PreCommit...),
		PostCommit: append([]core.ConversionHook(nil), pack.PostCommit...),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.hookPacks[name]; exists {
		return fmt.Errorf("custody: hook pack %q already registered", name)
	}
	h.hookPacks[name] = normalized
	return nil
}

func (h *ExtensionHooks) RegisterCommandQueryBundle(
	name string,
	factory CommandQueryBundleFactory,
) error {
	if h == nil {
		return fmt.Errorf("custody: extension hooks are nil")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("custody: command/query bundle name is required")
	}
	if factory == nil {
		return fmt.Errorf("custody: command/query bundle %q factory is required", name)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.bundles[name]; exists {
		return fmt.Errorf("custody: command/query bundle %q already registered", name)
	}
	h.bundles[name] = factory
	return nil
}

// Options turns every registered pack into coordinator options. Packs are
// applied in name order so hook execution order is stable.
func (h *ExtensionHooks) Options() []core.Option {
	packs := h.HookPacks()
	out := make([]core.Option, 0)
	for _, pack := range packs {
		for _, hook := range pack.PreCommit {
			out = append(out, core.WithPreCommitHook(hook))
		}
		for _, hook := range pack.PostCommit {
			out = append(out, core.WithPostCommitHook(hook))
		}
	}
	return out
}

func (h *ExtensionHooks) BuildCommandQueryBundles(
	service CommandQueryService,
) (map[string]any, error) {
	if h == nil {
		return map[string]any{}, nil
	}
	if service == nil {
		return nil, fmt.Errorf("custody: command/query service is required")
	}

	h.mu.RLock()
	names := make([]string, 0, len(h.bundles))
	for name := range h.bundles {
		names = append(names, name)
	}
	sort.Strings(names)
	factories := make(map[string]CommandQueryBundleFactory, len(h.bundles))
	for name, factory := range h.bundles {
		factories[name] = factory
	}
	h.mu.RUnlock()

	result := make(map[string]any, len(names))
	for _, name := range names {
		bundle, err := factories[name](service)
		if err != nil {
			return nil, fmt.Errorf("custody: build command/query bundle %q: %w", name, err)
		}
		result[name] = bundle
	}
	return result, nil
}

func (h *ExtensionHooks) HookPacks() []HookPack {
	if h == nil {
		return nil
	}
	h.mu.RLock()
	defer h.mu.RUnlock()

	names := make([]string, 0, len(h.hookPacks))
	for name := range h.hookPacks {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]HookPack, 0, len(names))
	for _, name := range names {
		pack := h.hookPacks[name]
		out = append(out, HookPack{
			Name:       pack.Name,
			PreCommit:  append([]core.ConversionHook(nil), pack.PreCommit...),
			PostCommit: append([]core.ConversionHook(nil), pack.PostCommit...),
		})
	}
	return out
}

func (h *ExtensionHooks) BundleNames() []string {
	if h == nil {
		return nil
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	names := make([]string, 0, len(h.bundles))
	for name := range h.bundles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
