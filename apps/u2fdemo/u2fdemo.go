// Package u2fdemo is a minimal FIDO U2F resident application used to
// exercise the dispatcher's SELECT/VERSION path end to end (spec.md §8
// scenario 1).
package u2fdemo

import (
	"github.com/keyfirmware/apdudispatch/dispatch"
	"github.com/keyfirmware/apdudispatch/iso7816"
)

// AID is the U2F RID (A0000006472F) with application code 0001.
var AID = []byte{0xA0, 0x00, 0x00, 0x06, 0x47, 0x2F, 0x00, 0x01}

const (
	insRegister     = 0x01
	insAuthenticate = 0x02
	insVersion      = 0x03
)

var versionString = []byte("U2F_V2")

// App answers VERSION and reports REGISTER/AUTHENTICATE as unimplemented;
// it exists to demonstrate selection and command dispatch, not to be a
// working authenticator.
type App struct{}

// New constructs a u2fdemo.App.
func New() *App { return &App{} }

func (a *App) AID() []byte { return AID }

func (a *App) Select(command *iso7816.Command, response *[]byte) error {
	*response = append(*response, versionString...)
	return nil
}

func (a *App) Deselect() {}

func (a *App) Call(iface iso7816.Interface, command *iso7816.Command, response *[]byte) error {
	switch command.Instruction {
	case insVersion:
		*response = append(*response, versionString...)
		return nil
	case insRegister, insAuthenticate:
		return dispatch.StatusError(iso7816.StatusUnspecifiedError)
	default:
		return dispatch.StatusError(iso7816.StatusNotFound)
	}
}
