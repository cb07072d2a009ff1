// Package authapp is a resident application that answers a 3GPP-style
// AUTHENTICATE command using the Milenage algorithm set kept from the
// teacher's algorithms package. It exists to give that package a real
// caller inside the dispatch engine rather than leaving it as dead weight.
package authapp

import (
	"crypto/rand"

	"github.com/keyfirmware/apdudispatch/algorithms"
	"github.com/keyfirmware/apdudispatch/dispatch"
	"github.com/keyfirmware/apdudispatch/iso7816"
)

// AID is the RID for 3GPP applications (A000000087) followed by the USIM
// application code (1002), per 3GPP TS 31.102 Annex E.
var AID = []byte{0xA0, 0x00, 0x00, 0x00, 0x87, 0x10, 0x02}

const insAuthenticate = 0x88

// App wraps a fixed subscriber key and operator variant and answers
// AUTHENTICATE requests built as RAND(16) || AUTN(16).
type App struct {
	alg      algorithms.AlgorithmSet
	k        []byte
	top      []byte
	selected bool
}

// New constructs an authapp.App with a demo subscriber key and operator
// variant. k and top must each be 16 bytes.
func New(k, top []byte) *App {
	return &App{alg: algorithms.NewMilenage(), k: k, top: top}
}

func (a *App) AID() []byte { return AID }

func (a *App) Select(command *iso7816.Command, response *[]byte) error {
	a.selected = true
	*response = append(*response, []byte("AUTH-DEMO")...)
	return nil
}

func (a *App) Deselect() {
	a.selected = false
}

// Call handles INS_AUTHENTICATE (0x88): Data must be RAND(16) || AUTN(16).
// On success it returns a one-byte RES length followed by RES || CK || IK.
// A MAC-A mismatch reports AUTS-style resync data instead (SQN is not
// checked), and any other instruction is rejected with StatusNotFound.
func (a *App) Call(iface iso7816.Interface, command *iso7816.Command, response *[]byte) error {
	if command.Instruction != insAuthenticate {
		return dispatch.StatusError(iso7816.StatusNotFound)
	}
	if len(command.Data) != algorithms.RandLen+algorithms.AUTNLen {
		return dispatch.StatusError(iso7816.StatusUnspecifiedError)
	}

	v := &algorithms.Variables{
		K:    a.k,
		TOP:  a.top,
		RAND: command.Data[:algorithms.RandLen],
		AUTN: command.Data[algorithms.RandLen:],
	}

	if err := a.alg.ComputeTOPC(v); err != nil {
		return dispatch.StatusError(iso7816.StatusUnspecifiedError)
	}
	if err := a.alg.ComputeF2345(v); err != nil {
		return dispatch.StatusError(iso7816.StatusUnspecifiedError)
	}
	if err := v.GenerateUSIM(); err != nil {
		return dispatch.StatusError(iso7816.StatusUnspecifiedError)
	}

	expected := &algorithms.Variables{
		K: a.k, TOP: a.top, TOPC: v.TOPC,
		RAND: v.RAND, SQN: v.SQN, AMF: v.AMF,
	}
	if err := a.alg.ComputeF1(expected); err != nil {
		return dispatch.StatusError(iso7816.StatusUnspecifiedError)
	}

	if !constantTimeEqual(expected.MACA, v.MACA) {
		return a.resync(v, response)
	}

	out := make([]byte, 0, 1+len(v.RES)+len(v.CK)+len(v.IK))
	out = append(out, byte(len(v.RES)))
	out = append(out, v.RES...)
	out = append(out, v.CK...)
	out = append(out, v.IK...)
	*response = append(*response, out...)
	return nil
}

// resync computes an AUTS re-synchronization token using a freshly-sampled
// SQNms, mimicking how a SIM reports a bad sequence number back to the
// network rather than just failing the authentication outright. The
// dispatcher's response channel carries only a status word or a plain
// 0x9000 success, so — unlike a real card's dedicated "synchronisation
// failure" status word — AUTS travels back as ordinary response data.
func (a *App) resync(v *algorithms.Variables, response *[]byte) error {
	sqnms := make([]byte, algorithms.SQNLen)
	if _, err := rand.Read(sqnms); err != nil {
		return dispatch.StatusError(iso7816.StatusUnspecifiedError)
	}
	resyncVars := &algorithms.Variables{
		K: a.k, TOP: a.top, TOPC: v.TOPC,
		RAND: v.RAND, SQN: sqnms, AMF: v.AMF,
	}
	if err := a.alg.ComputeF1s(resyncVars); err != nil {
		return dispatch.StatusError(iso7816.StatusUnspecifiedError)
	}
	if err := a.alg.ComputeF5s(resyncVars); err != nil {
		return dispatch.StatusError(iso7816.StatusUnspecifiedError)
	}
	resyncVars.SQN = sqnms
	if err := resyncVars.ComputeAUTS(); err != nil {
		return dispatch.StatusError(iso7816.StatusUnspecifiedError)
	}
	*response = append(*response, resyncVars.AUTS...)
	return nil
}

func constantTimeEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	var v byte
	for i := range a {
		v |= a[i] ^ b[i]
	}
	return v == 0
}
