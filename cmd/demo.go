package cmd

import (
	"encoding/hex"

	"github.com/keyfirmware/apdudispatch/apps/authapp"
	"github.com/keyfirmware/apdudispatch/apps/u2fdemo"
	"github.com/keyfirmware/apdudispatch/dispatch"
)

// demoK and demoTOP are 3GPP TS 35.207 Test Set 1's K and TOP, reused here
// so dispatchctl run and authapp's own tests exercise the same known
// vector.
var (
	demoK, _   = hex.DecodeString("465b5ce8b199b49faa5f0a2ee238a6bc")
	demoTOP, _ = hex.DecodeString("cdc202d5123e20f62b6d676ac72cb318")
)

// demoRegistry builds the standard resident-application set dispatchctl
// offers against the simulated transport: the U2F demo app and the
// 3GPP-style authentication demo app.
func demoRegistry() dispatch.Registry {
	return dispatch.Registry{
		u2fdemo.New(),
		authapp.New(demoK, demoTOP),
	}
}
