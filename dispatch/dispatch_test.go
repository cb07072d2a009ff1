package dispatch

import (
	"testing"

	"github.com/keyfirmware/apdudispatch/channel"
	"github.com/keyfirmware/apdudispatch/iso7816"
)

// fakeApp is a minimal Application used to exercise the dispatcher without
// depending on the demo apps package.
type fakeApp struct {
	aid []byte

	selectData  []byte
	selectErr   error
	deselected  int
	callFn      func(iface iso7816.Interface, cmd *iso7816.Command) ([]byte, error)
	lastCommand *iso7816.Command
}

func (a *fakeApp) AID() []byte { return a.aid }

func (a *fakeApp) Select(cmd *iso7816.Command, response *[]byte) error {
	c := *cmd
	a.lastCommand = &c
	if a.selectErr != nil {
		return a.selectErr
	}
	*response = append(*response, a.selectData...)
	return nil
}

func (a *fakeApp) Deselect() { a.deselected++ }

func (a *fakeApp) Call(iface iso7816.Interface, cmd *iso7816.Command, response *[]byte) error {
	c := *cmd
	a.lastCommand = &c
	if a.callFn == nil {
		*response = append(*response, cmd.Data...)
		return nil
	}
	data, err := a.callFn(iface, cmd)
	*response = append(*response, data...)
	return err
}

func newTestDispatcher() (*Dispatcher, *channel.Channel, *channel.Channel) {
	contact := channel.New()
	contactless := channel.New()
	d := New(contact, contactless, DefaultLimits, nil)
	return d, contact, contactless
}

// scenario 1: SELECT then VERSION, U2F-style app.
func TestDispatcher_SelectThenCommand(t *testing.T) {
	d, contact, _ := newTestDispatcher()
	app := &fakeApp{
		aid:        []byte{0xA0, 0x00, 0x00, 0x06, 0x47},
		selectData: []byte("U2F_V2"),
		callFn: func(iso7816.Interface, *iso7816.Command) ([]byte, error) {
			return []byte("U2F_V2"), nil
		},
	}
	apps := Registry{app}

	selectAPDU := []byte{0x00, 0xA4, 0x04, 0x00, 0x08, 0xA0, 0x00, 0x00, 0x06, 0x47, 0x2F, 0x00, 0x01}
	if err := contact.Post(selectAPDU); err != nil {
		t.Fatalf("Post() error = %v", err)
	}

	iface, ok := d.Poll(apps)
	if !ok || iface != iso7816.Contact {
		t.Fatalf("Poll() = (%v, %v), want (Contact, true)", iface, ok)
	}
	resp, ok := contact.Take()
	if !ok {
		t.Fatalf("Take() ok = false")
	}
	want := append([]byte("U2F_V2"), 0x90, 0x00)
	if string(resp) != string(want) {
		t.Errorf("select response = %X, want %X", resp, want)
	}
	if got := d.CurrentAID(); string(got) != string(app.aid) {
		t.Errorf("CurrentAID() = %X, want %X", got, app.aid)
	}

	versionAPDU := []byte{0x00, 0x03, 0x00, 0x00, 0x00}
	if err := contact.Post(versionAPDU); err != nil {
		t.Fatalf("Post() error = %v", err)
	}
	iface, ok = d.Poll(apps)
	if !ok || iface != iso7816.Contact {
		t.Fatalf("Poll() = (%v, %v), want (Contact, true)", iface, ok)
	}
	resp, _ = contact.Take()
	want = append([]byte("U2F_V2"), 0x90, 0x00)
	if string(resp) != string(want) {
		t.Errorf("version response = %X, want %X", resp, want)
	}
}

func TestDispatcher_UnknownAID(t *testing.T) {
	d, contact, _ := newTestDispatcher()
	apps := Registry{&fakeApp{aid: []byte{0xA0, 0x00, 0x00, 0x01}}}

	selectAPDU := []byte{0x00, 0xA4, 0x04, 0x00, 0x05, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}
	contact.Post(selectAPDU)
	d.Poll(apps)
	resp, _ := contact.Take()
	if string(resp) != string([]byte{0x6A, 0x82}) {
		t.Errorf("response = %X, want 6A82", resp)
	}
	if d.CurrentAID() != nil {
		t.Errorf("CurrentAID() = %X, want nil", d.CurrentAID())
	}
}

func TestDispatcher_CommandWithNoSelection(t *testing.T) {
	d, contact, _ := newTestDispatcher()
	contact.Post([]byte{0x00, 0x20, 0x00, 0x00, 0x00})
	d.Poll(Registry{})
	resp, _ := contact.Take()
	if string(resp) != string([]byte{0x6A, 0x82}) {
		t.Errorf("response = %X, want 6A82", resp)
	}
}

func TestDispatcher_RequestChaining(t *testing.T) {
	d, contact, _ := newTestDispatcher()
	app := &fakeApp{aid: []byte{0xA0}}
	apps := Registry{app}

	// Select first so something is selected to receive the chained command.
	contact.Post([]byte{0x00, 0xA4, 0x04, 0x00, 0x01, 0xA0})
	d.Poll(apps)
	contact.Take()

	// Chained block 1: class 0x10 sets the "more blocks follow" bit.
	contact.Post([]byte{0x10, 0x01, 0x00, 0x00, 0x04, 0xAA, 0xBB, 0xCC, 0xDD})
	iface, ok := d.Poll(apps)
	if !ok || iface != iso7816.Contact {
		t.Fatalf("Poll() after chained block = (%v, %v)", iface, ok)
	}
	ackResp, _ := contact.Take()
	if string(ackResp) != string([]byte{0x90, 0x00}) {
		t.Errorf("chained ack = %X, want 9000", ackResp)
	}

	// Final block.
	contact.Post([]byte{0x00, 0x01, 0x00, 0x00, 0x04, 0xEE, 0xFF, 0x00, 0x11})
	d.Poll(apps)
	contact.Take()

	want := []byte{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF, 0x00, 0x11}
	if app.lastCommand == nil || string(app.lastCommand.Data) != string(want) {
		t.Errorf("assembled command data = %X, want %X", app.lastCommand.Data, want)
	}
}

func TestDispatcher_ResponseChainingViaGetResponse(t *testing.T) {
	contact := channel.New()
	contactless := channel.New()
	limits := Limits{TransportMax: 256, CommandMax: DefaultLimits.CommandMax, ResponseMax: 600}
	d := New(contact, contactless, limits, nil)

	payload := make([]byte, 600)
	for i := range payload {
		payload[i] = byte(i)
	}
	app := &fakeApp{
		aid: []byte{0xA0},
		callFn: func(iso7816.Interface, *iso7816.Command) ([]byte, error) {
			return payload, nil
		},
	}
	apps := Registry{app}

	contact.Post([]byte{0x00, 0xA4, 0x04, 0x00, 0x01, 0xA0})
	d.Poll(apps)
	contact.Take()

	contact.Post([]byte{0x00, 0x20, 0x00, 0x00, 0x00})
	d.Poll(apps)
	first, _ := contact.Take()
	if len(first) != 256 || string(first[254:]) != string([]byte{0x61, 0x00}) {
		t.Fatalf("first chunk = %X (len %d), want 254 data bytes + 6100", first, len(first))
	}

	contact.Post([]byte{0x00, 0xC0, 0x00, 0x00, 0x00})
	d.Poll(apps)
	second, _ := contact.Take()
	if len(second) != 258 || string(second[256:]) != string([]byte{0x61, 0x5A}) {
		t.Fatalf("second chunk = %X (len %d), want 256 data bytes + 615A", second, len(second))
	}

	contact.Post([]byte{0x00, 0xC0, 0x00, 0x00, 0x00})
	d.Poll(apps)
	third, _ := contact.Take()
	if len(third) != 92 || string(third[90:]) != string([]byte{0x90, 0x00}) {
		t.Fatalf("third chunk = %X (len %d), want 90 data bytes + 9000", third, len(third))
	}

	var reassembled []byte
	reassembled = append(reassembled, first[:254]...)
	reassembled = append(reassembled, second[:256]...)
	reassembled = append(reassembled, third[:90]...)
	if string(reassembled) != string(payload) {
		t.Errorf("drain completeness: reassembled %d bytes != original %d bytes", len(reassembled), len(payload))
	}
}

func TestDispatcher_InterfaceIsolation(t *testing.T) {
	d, contact, contactless := newTestDispatcher()
	app := &fakeApp{aid: []byte{0xA0}}
	apps := Registry{app}

	contact.Post([]byte{0x00, 0xA4, 0x04, 0x00, 0x01, 0xA0})
	contactless.Post([]byte{0x00, 0xA4, 0x04, 0x00, 0x01, 0xA0})

	iface, ok := d.Poll(apps)
	if !ok || iface != iso7816.Contactless {
		t.Fatalf("first Poll() = (%v, %v), want (Contactless, true) — contactless has priority", iface, ok)
	}

	// Contact's request is still sitting unserved; busy() blocked intake
	// on it until the contactless response is reclaimed.
	if contact.State() == channel.Responded {
		t.Errorf("contact channel should not be responded to before reclaim of contactless response")
	}

	contactless.Take()

	iface, ok = d.Poll(apps)
	if !ok || iface != iso7816.Contact {
		t.Fatalf("second Poll() = (%v, %v), want (Contact, true)", iface, ok)
	}
}

func TestDispatcher_SelectSameAIDDoesNotDeselect(t *testing.T) {
	d, contact, _ := newTestDispatcher()
	app := &fakeApp{aid: []byte{0xA0, 0x00}}
	apps := Registry{app}

	contact.Post([]byte{0x00, 0xA4, 0x04, 0x00, 0x02, 0xA0, 0x00})
	d.Poll(apps)
	contact.Take()
	if app.deselected != 0 {
		t.Fatalf("deselected = %d after first select, want 0", app.deselected)
	}

	contact.Post([]byte{0x00, 0xA4, 0x04, 0x00, 0x02, 0xA0, 0x00})
	d.Poll(apps)
	contact.Take()
	if app.deselected != 0 {
		t.Errorf("deselected = %d after re-selecting same AID, want 0 (P1/P5)", app.deselected)
	}
}

func TestDispatcher_SelectDifferentAIDDeselectsPrevious(t *testing.T) {
	d, contact, _ := newTestDispatcher()
	appA := &fakeApp{aid: []byte{0xA0}}
	appB := &fakeApp{aid: []byte{0xB0}}
	apps := Registry{appA, appB}

	contact.Post([]byte{0x00, 0xA4, 0x04, 0x00, 0x01, 0xA0})
	d.Poll(apps)
	contact.Take()

	contact.Post([]byte{0x00, 0xA4, 0x04, 0x00, 0x01, 0xB0})
	d.Poll(apps)
	contact.Take()

	if appA.deselected != 1 {
		t.Errorf("appA.deselected = %d, want 1", appA.deselected)
	}
	if string(d.CurrentAID()) != string(appB.aid) {
		t.Errorf("CurrentAID() = %X, want %X", d.CurrentAID(), appB.aid)
	}
}

func TestDispatcher_GetResponseWithNoPendingResponse(t *testing.T) {
	d, contact, _ := newTestDispatcher()
	contact.Post([]byte{0x00, 0xC0, 0x00, 0x00, 0x00})
	d.Poll(Registry{})
	resp, _ := contact.Take()
	if string(resp) != string([]byte{0x6F, 0x00}) {
		t.Errorf("response = %X, want 6F00", resp)
	}
}

func TestDispatcher_ApplicationError(t *testing.T) {
	d, contact, _ := newTestDispatcher()
	app := &fakeApp{aid: []byte{0xA0}, selectErr: StatusError(iso7816.StatusNotFound)}
	apps := Registry{app}

	contact.Post([]byte{0x00, 0xA4, 0x04, 0x00, 0x01, 0xA0})
	d.Poll(apps)
	resp, _ := contact.Take()
	if string(resp) != string([]byte{0x6A, 0x82}) {
		t.Errorf("response = %X, want 6A82", resp)
	}
	if d.CurrentAID() != nil {
		t.Errorf("CurrentAID() = %X, want nil after select error", d.CurrentAID())
	}
}

func TestDispatcher_ParseErrorLeavesStateUntouched(t *testing.T) {
	d, contact, _ := newTestDispatcher()
	app := &fakeApp{aid: []byte{0xA0}}
	apps := Registry{app}

	contact.Post([]byte{0x00, 0xA4, 0x04, 0x00, 0x01, 0xA0})
	d.Poll(apps)
	contact.Take()

	contact.Post([]byte{0x00, 0x01}) // too short
	d.Poll(apps)
	resp, _ := contact.Take()
	if string(resp) != string([]byte{0x6F, 0x00}) {
		t.Errorf("response = %X, want 6F00", resp)
	}
	if string(d.CurrentAID()) != string(app.aid) {
		t.Errorf("CurrentAID() changed after parse error: %X, want %X", d.CurrentAID(), app.aid)
	}
}
