package cli

import (
	"context"
	"fmt"
	"io"

	"traccar-client/internal/traccar"
)

// newNavigator turns the client's redirect to the login view into a notice for the terminal.
func newNavigator(w io.Writer) traccar.Navigator {
	return traccar.NavigatorFunc(func(_ context.Context, path string) {
		if path == traccar.LoginPath {
			fmt.Fprintln(w, "session expired or invalid; signed out. Run `traccarctl login` to sign in again.")
			return
		}
		fmt.Fprintf(w, "redirect: %s\n", path)
	})
}
