package harness

import (
	"bytes"
	"fmt"

	"github.com/keyfirmware/apdudispatch/apps/u2fdemo"
	"github.com/keyfirmware/apdudispatch/channel"
	"github.com/keyfirmware/apdudispatch/dispatch"
	"github.com/keyfirmware/apdudispatch/iso7816"
)

// newHarness builds a fresh Dispatcher wired to the two demo channels and
// the standard demo application registry, mirroring spec.md §8's scenarios.
func newHarness(limits dispatch.Limits) (*dispatch.Dispatcher, *channel.Channel, *channel.Channel, dispatch.Registry) {
	contact := channel.New()
	contactless := channel.New()
	apps := dispatch.Registry{u2fdemo.New()}
	return dispatch.New(contact, contactless, limits, nil), contact, contactless, apps
}

// exchange posts req on ch, polls d to completion, and returns the
// reclaimed response. It fails the scenario (via the returned error) if the
// dispatcher never produces a response on ch.
func exchange(d *dispatch.Dispatcher, apps dispatch.Registry, ch *channel.Channel, want iso7816.Interface, req []byte) ([]byte, error) {
	if err := ch.Post(req); err != nil {
		return nil, fmt.Errorf("post: %w", err)
	}
	iface, ok := d.Poll(apps)
	if !ok {
		return nil, fmt.Errorf("poll produced no response")
	}
	if iface != want {
		return nil, fmt.Errorf("response landed on %s, want %s", iface, want)
	}
	resp, ok := ch.Take()
	if !ok {
		return nil, fmt.Errorf("take: channel not in Responded state")
	}
	return resp, nil
}

// Scenarios returns the spec.md §8 end-to-end scenarios 1-6 as harness
// Cases. There are no separate cases for the P1-P5 invariants; scenario 5
// also checks drain completeness.
func Scenarios() []Case {
	return []Case{
		{
			Name: "select then version (U2F)", Category: "select", Spec: "spec.md scenario 1",
			Run: func() Outcome {
				d, contact, _, apps := newHarness(dispatch.DefaultLimits)
				sel := []byte{0x00, 0xA4, 0x04, 0x00, 0x08, 0xA0, 0x00, 0x00, 0x06, 0x47, 0x2F, 0x00, 0x01}
				resp, err := exchange(d, apps, contact, iso7816.Contact, sel)
				if err != nil {
					return Outcome{Err: err, APDU: sel}
				}
				wantSelect := append([]byte("U2F_V2"), 0x90, 0x00)
				if !bytes.Equal(resp, wantSelect) {
					return Outcome{APDU: sel, Response: resp, Expected: hexUpper(wantSelect), Actual: hexUpper(resp)}
				}

				version := []byte{0x00, 0x03, 0x00, 0x00, 0x00}
				resp, err = exchange(d, apps, contact, iso7816.Contact, version)
				if err != nil {
					return Outcome{Err: err, APDU: version}
				}
				wantVersion := append([]byte("U2F_V2"), 0x90, 0x00)
				return Outcome{
					Passed: bytes.Equal(resp, wantVersion), APDU: version, Response: resp,
					Expected: hexUpper(wantVersion), Actual: hexUpper(resp),
				}
			},
		},
		{
			Name: "unknown AID", Category: "select", Spec: "spec.md scenario 2",
			Run: func() Outcome {
				d, contact, _, apps := newHarness(dispatch.DefaultLimits)
				req := []byte{0x00, 0xA4, 0x04, 0x00, 0x05, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}
				resp, err := exchange(d, apps, contact, iso7816.Contact, req)
				if err != nil {
					return Outcome{Err: err, APDU: req}
				}
				want := []byte{0x6A, 0x82}
				return Outcome{Passed: bytes.Equal(resp, want), APDU: req, Response: resp, Expected: hexUpper(want), Actual: hexUpper(resp)}
			},
		},
		{
			Name: "command with no selection", Category: "errors", Spec: "spec.md scenario 3",
			Run: func() Outcome {
				d, contact, _, apps := newHarness(dispatch.DefaultLimits)
				req := []byte{0x00, 0x20, 0x00, 0x00, 0x00}
				resp, err := exchange(d, apps, contact, iso7816.Contact, req)
				if err != nil {
					return Outcome{Err: err, APDU: req}
				}
				want := []byte{0x6A, 0x82}
				return Outcome{Passed: bytes.Equal(resp, want), APDU: req, Response: resp, Expected: hexUpper(want), Actual: hexUpper(resp)}
			},
		},
		{
			Name: "request chaining", Category: "chaining", Spec: "spec.md scenario 4",
			Run: func() Outcome {
				d, contact, _, apps := newHarness(dispatch.DefaultLimits)
				sel := []byte{0x00, 0xA4, 0x04, 0x00, 0x08, 0xA0, 0x00, 0x00, 0x06, 0x47, 0x2F, 0x00, 0x01}
				if _, err := exchange(d, apps, contact, iso7816.Contact, sel); err != nil {
					return Outcome{Err: err, APDU: sel}
				}

				first := []byte{0x10, 0x01, 0x00, 0x00, 0x04, 0xAA, 0xBB, 0xCC, 0xDD}
				ack, err := exchange(d, apps, contact, iso7816.Contact, first)
				if err != nil {
					return Outcome{Err: err, APDU: first}
				}
				if !bytes.Equal(ack, []byte{0x90, 0x00}) {
					return Outcome{APDU: first, Response: ack, Expected: "9000", Actual: hexUpper(ack)}
				}

				second := []byte{0x00, 0x01, 0x00, 0x00, 0x04, 0xEE, 0xFF, 0x00, 0x11}
				resp, err := exchange(d, apps, contact, iso7816.Contact, second)
				if err != nil {
					return Outcome{Err: err, APDU: second}
				}
				// u2fdemo answers REGISTER (0x01) with 6F00; getting that
				// instead of the dispatcher's 6A82 shows the assembled
				// command reached the selected application.
				want := []byte{0x6F, 0x00}
				return Outcome{Passed: bytes.Equal(resp, want), APDU: second, Response: resp, Expected: hexUpper(want), Actual: hexUpper(resp)}
			},
		},
		{
			Name: "response chaining via GET RESPONSE", Category: "get-response", Spec: "spec.md scenario 5",
			Run: func() Outcome {
				limits := dispatch.Limits{TransportMax: 256, CommandMax: dispatch.DefaultLimits.CommandMax, ResponseMax: 600}
				contact := channel.New()
				contactless := channel.New()
				payload := make([]byte, 600)
				for i := range payload {
					payload[i] = byte(i)
				}
				app := &echoApp{aid: []byte{0xA0}, fixed: payload}
				apps := dispatch.Registry{app}
				d := dispatch.New(contact, contactless, limits, nil)

				sel := []byte{0x00, 0xA4, 0x04, 0x00, 0x01, 0xA0}
				if _, err := exchange(d, apps, contact, iso7816.Contact, sel); err != nil {
					return Outcome{Err: err, APDU: sel}
				}

				cmd := []byte{0x00, 0x20, 0x00, 0x00, 0x00}
				first, err := exchange(d, apps, contact, iso7816.Contact, cmd)
				if err != nil {
					return Outcome{Err: err, APDU: cmd}
				}
				if len(first) != 256 || !bytes.Equal(first[254:], []byte{0x61, 0x00}) {
					return Outcome{APDU: cmd, Response: first, Expected: "254 data bytes + 6100", Actual: fmt.Sprintf("%d bytes", len(first))}
				}

				getResp := []byte{0x00, 0xC0, 0x00, 0x00, 0x00}
				second, err := exchange(d, apps, contact, iso7816.Contact, getResp)
				if err != nil {
					return Outcome{Err: err, APDU: getResp}
				}
				if len(second) != 258 || !bytes.Equal(second[256:], []byte{0x61, 0x5A}) {
					return Outcome{APDU: getResp, Response: second, Expected: "256 data bytes + 615A", Actual: fmt.Sprintf("%d bytes", len(second))}
				}

				third, err := exchange(d, apps, contact, iso7816.Contact, getResp)
				if err != nil {
					return Outcome{Err: err, APDU: getResp}
				}
				wantThird := len(third) == 92 && bytes.Equal(third[90:], []byte{0x90, 0x00})

				reassembled := append(append(append([]byte{}, first[:254]...), second[:256]...), third[:90]...)
				return Outcome{
					Passed:   wantThird && bytes.Equal(reassembled, payload),
					APDU:     getResp, Response: third,
					Expected: "90 data bytes + 9000, full reassembly == original 600 bytes",
					Actual:   fmt.Sprintf("%d bytes, reassembled %d/%d", len(third), len(reassembled), len(payload)),
				}
			},
		},
		{
			Name: "interface isolation", Category: "interface", Spec: "spec.md scenario 6",
			Run: func() Outcome {
				d, contact, contactless, apps := newHarness(dispatch.DefaultLimits)
				sel := []byte{0x00, 0xA4, 0x04, 0x00, 0x08, 0xA0, 0x00, 0x00, 0x06, 0x47, 0x2F, 0x00, 0x01}
				contact.Post(sel)
				contactless.Post(sel)

				iface, ok := d.Poll(apps)
				if !ok || iface != iso7816.Contactless {
					return Outcome{Err: fmt.Errorf("first poll resolved %v (ok=%v), want contactless", iface, ok)}
				}
				if contact.State() == channel.Responded {
					return Outcome{Err: fmt.Errorf("contact channel answered before contactless was reclaimed")}
				}
				contactless.Take()

				iface, ok = d.Poll(apps)
				return Outcome{
					Passed: ok && iface == iso7816.Contact,
					Actual: fmt.Sprintf("%v (ok=%v)", iface, ok),
					Expected: "contact, true",
				}
			},
		},
	}
}

// echoApp is a minimal dispatch.Application used only by scenario 5, which
// needs an oversized fixed response rather than u2fdemo's short VERSION
// reply.
type echoApp struct {
	aid   []byte
	fixed []byte
}

func (a *echoApp) AID() []byte { return a.aid }
func (a *echoApp) Select(*iso7816.Command, *[]byte) error { return nil }
func (a *echoApp) Deselect()                              {}
func (a *echoApp) Call(_ iso7816.Interface, _ *iso7816.Command, response *[]byte) error {
	*response = append(*response, a.fixed...)
	return nil
}

func hexUpper(b []byte) string {
	const hexDigits = "0123456789ABCDEF"
	out := make([]byte, len(b)*2)
	for i, v := range b {
		out[i*2] = hexDigits[v>>4]
		out[i*2+1] = hexDigits[v&0x0F]
	}
	return string(out)
}
