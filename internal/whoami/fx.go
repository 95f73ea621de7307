// Package whoami is a small server that reports the viewer attached to each request.
//
// It exists to exercise the viewer contract end to end: an authenticator attaches
// the viewer, and handlers read it from the [serverutil.Request] they're given.
package whoami

import (
	"go.uber.org/fx"
)

var Module = fx.Module("whoami",
	fx.Provide(
		NewServer,
	),
)
