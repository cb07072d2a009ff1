package dispatch

import (
	"bytes"

	"github.com/keyfirmware/apdudispatch/iso7816"
)

// Application is a resident application addressed by AID. The dispatcher
// guarantees Select precedes any Call, that Deselect is called exactly once
// per transition from selected-A to selected-B (never on a self-to-self
// SELECT), and that Call receives the fully assembled, post-chaining
// command (spec.md §4.4, §6).
type Application interface {
	// AID returns the AID (or RID) prefix this application claims.
	// Lookup treats it as a byte-prefix of the SELECT'd AID.
	AID() []byte

	// Select is invoked exactly once per selection attempt that reaches
	// this application (i.e. once the registry has already matched its
	// AID). response is scratch space to fill with outbound data; err
	// carries the status word to report on failure.
	Select(command *iso7816.Command, response *[]byte) error

	// Deselect is called when another AID is about to be selected in this
	// application's place. It is infallible.
	Deselect()

	// Call handles every non-SELECT, non-GET-RESPONSE command that
	// arrives while this application is selected. iface lets an
	// application refuse operations on a given physical interface.
	Call(iface iso7816.Interface, command *iso7816.Command, response *[]byte) error
}

// StatusError carries the status word an Application wants reported to the
// reader on failure, satisfying the error interface so Select/Call can
// return it directly.
type StatusError iso7816.Status

func (e StatusError) Error() string { return "status " + iso7816.Status(e).String() }

// Status unwraps the status word carried by a StatusError.
func (e StatusError) Status() iso7816.Status { return iso7816.Status(e) }

// Registry is a flat, caller-provided ordered list of applications. It is
// passed into Poll for the duration of a single call and is not retained
// (spec.md §9: "do not cache pointers into that collection across calls").
type Registry []Application

// find returns the first application whose AID is a byte-prefix of aid,
// scanning front to back; ties are resolved by list order (spec.md §4.4).
func (r Registry) find(aid []byte) Application {
	for _, app := range r {
		if bytes.HasPrefix(aid, app.AID()) {
			return app
		}
	}
	return nil
}

// findByAID resolves the currently-selected AID back to its application,
// re-scanning the (possibly different, but AID-compatible) slice passed to
// this Poll call rather than caching a pointer from a previous call.
func (r Registry) findByAID(aid []byte) Application {
	if aid == nil {
		return nil
	}
	return r.find(aid)
}
