package gocommand

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/goliatone/go-command"
	commanddispatcher "github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"
	custodycommand "github.com/goliatone/go-custody/command"
	"github.com/goliatone/go-custody/core"
	custodyquery "github.com/goliatone/go-custody/query"
)

// CustodySubscriptions tracks every handler RegisterCustody subscribed so
// they can be released together.
type CustodySubscriptions struct {
	subscriptions []commanddispatcher.Subscription
}

func (s *CustodySubscriptions) Len() int {
	if s == nil {
		return 0
	}
	return len(s.subscriptions)
}

func (s *CustodySubscriptions) Unsubscribe() {
	if s == nil {
		return
	}
	for _, subscription := range s.subscriptions {
		if subscription != nil {
			subscription.Unsubscribe()
		}
	}
	s.subscriptions = nil
}

func (s *CustodySubscriptions) add(subscription commanddispatcher.Subscription, err error) error {
	if err != nil {
		return err
	}
	s.subscriptions = append(s.subscriptions, subscription)
	return nil
}

// RegisterCustody registers and subscribes the wrap, unwrap and enabled
// state commands plus every read query against service. On failure the
// handlers subscribed so far are released.
func RegisterCustody(
	adapter *RegistryAdapter,
	service core.CustodyService,
	runnerOpts ...runner.Option,
) (*CustodySubscriptions, error) {
	if adapter == nil || adapter.registry == nil {
		return nil, fmt.Errorf("gocommand: registry is not configured")
	}
	if service == nil {
		return nil, fmt.Errorf("gocommand: custody service is required")
	}

	subs := &CustodySubscriptions{}
	steps := []func() error{
		func() error {
			return subs.add(RegisterAndSubscribe[custodycommand.WrapMessage](adapter, custodycommand.NewWrapCommand(service), runnerOpts...))
		},
		func() error {
			return subs.add(RegisterAndSubscribe[custodycommand.UnwrapMessage](adapter, custodycommand.NewUnwrapCommand(service), runnerOpts...))
		},
		func() error {
			return subs.add(RegisterAndSubscribe[custodycommand.SetEnabledStateMessage](adapter, custodycommand.NewSetEnabledStateCommand(service), runnerOpts...))
		},
		func() error {
			return subs.add(RegisterAndSubscribeQuery[custodyquery.SourceAssetMessage, common.Address](adapter, custodyquery.NewSourceAssetQuery(service), runnerOpts...))
		},
		func() error {
			return subs.add(RegisterAndSubscribeQuery[custodyquery.AssetInfoMessage, core.AssetPair](adapter, custodyquery.NewAssetInfoQuery(service), runnerOpts...))
		},
		func() error {
			return subs.add(RegisterAndSubscribeQuery[custodyquery.EnabledStateMessage, core.EnabledState](adapter, custodyquery.NewEnabledStateQuery(service), runnerOpts...))
		},
		func() error {
			return subs.add(RegisterAndSubscribeQuery[custodyquery.BalancesMessage, core.AccountBalances](adapter, custodyquery.NewBalancesQuery(service), runnerOpts...))
		},
		func() error {
			return subs.add(RegisterAndSubscribeQuery[custodyquery.CustodyReportMessage, core.CustodyReport](adapter, custodyquery.NewCustodyReportQuery(service), runnerOpts...))
		},
		func() error {
			return subs.add(RegisterAndSubscribeQuery[custodyquery.ListConversionsMessage, core.ConversionPage](adapter, custodyquery.NewListConversionsQuery(service), runnerOpts...))
		},
	}
	for _, step := range steps {
		if err := step(); err != nil {
			subs.Unsubscribe()
			return nil, err
		}
	}
	return subs, nil
}

// Wrap dispatches a wrap command and returns the recorded conversion.
func Wrap(ctx context.Context, req core.WrapRequest) (core.Conversion, error) {
	return dispatchWithResult[custodycommand.WrapMessage, core.Conversion](ctx, custodycommand.WrapMessage{Request: req})
}

func Unwrap(ctx context.Context, req core.UnwrapRequest) (core.Conversion, error) {
	return dispatchWithResult[custodycommand.UnwrapMessage, core.Conversion](ctx, custodycommand.UnwrapMessage{Request: req})
}

func SetEnabledState(ctx context.Context, req core.SetEnabledStateRequest) (core.Configuration, error) {
	return dispatchWithResult[custodycommand.SetEnabledStateMessage, core.Configuration](ctx, custodycommand.SetEnabledStateMessage{Request: req})
}

func dispatchWithResult[T any, R any](ctx context.Context, msg T) (R, error) {
	var zero R
	collector := command.NewResult[R]()
	if err := Dispatch(command.ContextWithResult(ctx, collector), msg); err != nil {
		return zero, err
	}
	out, ok := collector.Load()
	if !ok {
		return zero, fmt.Errorf("gocommand: %T produced no result", msg)
	}
	return out, nil
}
