package framework

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoopPriorityOrder(t *testing.T) {
	var order []string
	record := func(name string) Controller {
		return ControlFunc(func(ctx ControlContext) error {
			order = append(order, name)
			return nil
		})
	}
	loop := NewLoop().
		AddController(PrLvApp, record("app")).
		AddController(PrLvHousekeeping, record("housekeeping")).
		AddController(PrLvLink, record("link"))
	loop.Iterate(context.Background())
	require.Equal(t, []string{"link", "app", "housekeeping"}, order)
}

func TestLoopHooks(t *testing.T) {
	var order []string
	var calls int
	loop := NewLoop()
	loop.AddController(PrLvApp, ControlFunc(func(ctx ControlContext) error {
		order = append(order, "ctl")
		if calls++; calls == 1 {
			ctx.PostRun(ControlFunc(func(ControlContext) error {
				order = append(order, "post")
				return nil
			}))
		}
		return errors.New("ignored")
	}))
	loop.PreRunAt(PrLvApp, ControlFunc(func(ControlContext) error {
		order = append(order, "pre")
		return nil
	}))
	loop.Iterate(context.Background())
	loop.Iterate(context.Background())
	require.Equal(t, []string{"pre", "ctl", "post", "ctl"}, order)
}

func TestLoopContext(t *testing.T) {
	loop := NewLoop()
	var levels []int
	loop.AddController(PrLvLink, ControlFunc(func(ctx ControlContext) error {
		require.NotNil(t, CtlCtxFrom(ctx.Context()))
		require.False(t, ctx.Time().IsZero())
		levels = append(levels, ctx.PriorityLevel())
		return nil
	}))
	loop.Iterate(context.Background())
	require.Equal(t, []int{PrLvLink}, levels)
	require.Nil(t, CtlCtxFrom(context.Background()))
}

func TestLoopRun(t *testing.T) {
	ticks := make(chan struct{}, 1)
	loop := NewLoop()
	loop.Interval = time.Hour
	loop.AddController(PrLvApp, ControlFunc(func(ControlContext) error {
		select {
		case ticks <- struct{}{}:
		default:
		}
		return nil
	}))
	started := make(chan struct{})
	loop.AddRunnable(RunFunc(func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	}))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- loop.Run(ctx) }()
	<-started
	loop.TriggerNext()
	select {
	case <-ticks:
	case <-time.After(time.Second):
		t.Fatal("triggered iteration didn't run")
	}
	cancel()
	select {
	case err := <-errCh:
		require.Equal(t, context.Canceled, err)
	case <-time.After(time.Second):
		t.Fatal("loop didn't stop")
	}
}
