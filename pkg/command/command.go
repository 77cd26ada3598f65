package command

import "context"

// Command is an optimistic local change paired with the remote call that
// makes it durable.
type Command interface {
	// Apply updates local state immediately.
	Apply()
	// Send performs the remote call.
	Send(ctx context.Context) error
	// Revert undoes Apply after a failed Send.
	Revert()
}

// Execute applies cmd, sends it and reverts on failure. The send error is returned unchanged.
func Execute(ctx context.Context, cmd Command) error {
	cmd.Apply()
	if err := cmd.Send(ctx); err != nil {
		cmd.Revert()
		return err
	}
	return nil
}

// Func builds a Command from closures. Nil closures are skipped.
type Func struct {
	ApplyFn  func()
	SendFn   func(ctx context.Context) error
	RevertFn func()
}

func (f Func) Apply() {
	if f.ApplyFn != nil {
		f.ApplyFn()
	}
}

func (f Func) Send(ctx context.Context) error {
	if f.SendFn != nil {
		return f.SendFn(ctx)
	}
	return nil
}

func (f Func) Revert() {
	if f.RevertFn != nil {
		f.RevertFn()
	}
}
