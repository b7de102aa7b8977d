package traccar

import "context"

// LoginPath is where the client sends the user after the backend rejects the session.
const LoginPath = "/login"

// Navigator moves the user interface to another view.
type Navigator interface {
	Redirect(ctx context.Context, path string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(ctx context.Context, path string)

// Redirect calls f(ctx, path).
func (f NavigatorFunc) Redirect(ctx context.Context, path string) { f(ctx, path) }

type noopNavigator struct{}

func (noopNavigator) Redirect(context.Context, string) {}
