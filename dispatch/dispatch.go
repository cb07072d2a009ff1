// Package dispatch implements the APDU dispatch engine: the state machine
// that drains framed ISO 7816-4 messages from two transport channels,
// assembles chained requests, routes them to a caller-provided application
// registry by AID, and stages GET RESPONSE chaining for oversized replies.
// See spec.md for the full behavioral specification; this file implements
// §4.6-§4.8, ported in spirit from
// original_source/components/apdu-dispatch/src/dispatch.rs.
package dispatch

import (
	"bytes"

	"github.com/keyfirmware/apdudispatch/channel"
	"github.com/keyfirmware/apdudispatch/iso7816"
)

// Logger is the leveled trace sink the dispatcher writes to. It is
// satisfied by *github.com/charmbracelet/log.Logger; callers inject their
// own instance rather than relying on a process-wide logger (spec.md §9:
// "the dispatcher does not assume" a process-wide singleton collaborator).
type Logger interface {
	Debug(msg interface{}, keyvals ...interface{})
	Info(msg interface{}, keyvals ...interface{})
	Warn(msg interface{}, keyvals ...interface{})
}

type noopLogger struct{}

func (noopLogger) Debug(interface{}, ...interface{}) {}
func (noopLogger) Info(interface{}, ...interface{})  {}
func (noopLogger) Warn(interface{}, ...interface{})  {}

// Limits holds the transport-size configuration knobs spec.md §6 specifies
// as compile-time constants in a faithful port.
type Limits struct {
	// TransportMax is the per-message byte cap (N in spec.md §4.7).
	TransportMax int
	// CommandMax is the configured upper bound on the assembled request
	// length across a chain. Poll does not check requests against it.
	CommandMax int
	// ResponseMax is the configured upper bound on a response payload
	// prior to its trailing SW. Poll does not check responses against it.
	ResponseMax int
}

// DefaultLimits mirrors the typical values spec.md §6 cites.
var DefaultLimits = Limits{
	TransportMax: 3072,
	CommandMax:   7609,
	ResponseMax:  3072,
}

// requestKind classifies a freshly-buffered APDU (spec.md §4.5).
type requestKind int

const (
	reqNone requestKind = iota
	reqSelect
	reqGetResponse
	reqNewCommand
)

// Dispatcher owns selection state, the channel currently being serviced,
// chaining flags, and the command/response buffer (spec.md §3 "Dispatcher
// State"). It is a plain object: no process-wide singleton, no internal
// scheduling. A complete Poll runs to quiescence and returns.
type Dispatcher struct {
	currentAID        []byte
	currentInterface  iso7816.Interface
	wasRequestChained bool
	buffer            bufferState

	contact     *channel.Channel
	contactless *channel.Channel

	limits Limits
	log    Logger
}

// New constructs a Dispatcher over the given contact/contactless channels.
// A nil logger is replaced with a no-op sink.
func New(contact, contactless *channel.Channel, limits Limits, logger Logger) *Dispatcher {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Dispatcher{
		currentInterface: iso7816.Contact,
		buffer:           newBufferState(),
		contact:          contact,
		contactless:      contactless,
		limits:           limits,
		log:              logger,
	}
}

// CurrentAID returns the AID prefix advertised by the selected application
// (its AID()), or nil if none is selected.
func (d *Dispatcher) CurrentAID() []byte {
	return d.currentAID
}

// busy reports whether either channel currently holds unreclaimed traffic,
// per spec.md invariant 3: a new inbound request is only accepted while
// both channels are Idle or Requested.
func (d *Dispatcher) busy() bool {
	return !d.contact.AcceptsIntake() || !d.contactless.AcceptsIntake()
}

// Poll runs one external tick of the dispatch state machine to completion:
// it drains at most one fully-framed request (contactless first), routes
// it through selection/call/GET-RESPONSE, and reports which interface (if
// any) now holds a Responded message ready for the reader to reclaim
// (spec.md §4.8).
func (d *Dispatcher) Poll(apps Registry) (iso7816.Interface, bool) {
	kind, aid := d.checkForRequest()

	switch kind {
	case reqSelect:
		d.log.Info("select", "aid", hexString(aid))
		d.handleSelect(apps, aid)
	case reqGetResponse:
		d.log.Info("get response")
		d.handleReply(false)
	case reqNewCommand:
		d.log.Info("command")
		d.handleCommand(apps)
	case reqNone:
	}

	if d.contactless.State() == channel.Responded {
		return iso7816.Contactless, true
	}
	if d.contact.State() == channel.Responded {
		return iso7816.Contact, true
	}
	return 0, false
}

// checkForRequest implements Phase A (Intake) and Phase B (Chaining &
// classification).
func (d *Dispatcher) checkForRequest() (requestKind, []byte) {
	if d.busy() {
		return reqNone, nil
	}

	var (
		message []byte
		iface   iso7816.Interface
		ok      bool
	)
	if message, ok = d.contactless.TakeRequest(); ok {
		iface = iso7816.Contactless
	} else if message, ok = d.contact.TakeRequest(); ok {
		iface = iso7816.Contact
	} else {
		return reqNone, nil
	}

	cmd, err := iso7816.ParseCommand(message)
	if err != nil {
		d.log.Info("parse error", "interface", iface, "err", err)
		d.respondOn(iface, statusOnlyMessage(iso7816.StatusUnspecifiedError))
		return reqNone, nil
	}

	return d.bufferChainedApduIfNeeded(cmd, iface)
}

// bufferChainedApduIfNeeded implements spec.md §4.6 Phase B.
func (d *Dispatcher) bufferChainedApduIfNeeded(cmd *iso7816.Command, iface iso7816.Interface) (requestKind, []byte) {
	d.currentInterface = iface

	if cmd.Chained() {
		// Acknowledge immediately; nothing for an application to consume yet.
		d.respondOn(iface, statusOnlyMessage(iso7816.StatusSuccess))
		if discarded := d.buffer.appendRequest(cmd); discarded {
			d.log.Warn("discarding stale response for new chained request")
		}
		d.log.Debug("chaining bytes", "n", len(cmd.Data))
		return reqNone, nil
	}

	// Chaining bit clear: last block of any chain, possibly singleton.
	if d.buffer.isRequest() {
		d.buffer.appendRequest(cmd)
		d.wasRequestChained = true
		d.log.Debug("combined chained commands")
		// A multi-block request can never be a SELECT or GET RESPONSE by
		// construction (classification only applies to the first block).
		return reqNewCommand, nil
	}

	if d.buffer.isEmpty() {
		d.wasRequestChained = false
	}

	kind, aid := classify(cmd)
	if kind == reqGetResponse {
		// Buffer must still hold the Response being drained; leave it.
		return kind, aid
	}

	if discarded := d.buffer.appendRequest(cmd); discarded {
		d.log.Warn("discarding stale response for new request")
	}
	return kind, aid
}

// classify implements spec.md §4.5, applied to an already-dechained
// command.
func classify(cmd *iso7816.Command) (requestKind, []byte) {
	if cmd.IsSelectByName() {
		return reqSelect, cmd.Data
	}
	if cmd.IsGetResponse() {
		return reqGetResponse, nil
	}
	return reqNewCommand, nil
}

// handleSelect implements spec.md §4.6 Phase C, SELECT case.
func (d *Dispatcher) handleSelect(apps Registry, aid []byte) {
	app := apps.find(aid)
	if d.currentAID != nil && (app == nil || !bytes.Equal(d.currentAID, app.AID())) {
		if current := apps.findByAID(d.currentAID); current != nil {
			current.Deselect()
		}
		d.currentAID = nil
	}

	if app == nil {
		d.log.Info("select: aid not found", "aid", hexString(aid))
		d.replyError(iso7816.StatusNotFound)
		return
	}

	cmd := d.buffer.request
	var response []byte
	err := app.Select(&cmd, &response)
	if err == nil {
		d.currentAID = append([]byte(nil), app.AID()...)
	}
	d.handleAppResponse(err, response)
}

// handleCommand implements spec.md §4.6 Phase C, NewCommand case.
func (d *Dispatcher) handleCommand(apps Registry) {
	app := apps.findByAID(d.currentAID)
	if app == nil {
		d.replyError(iso7816.StatusNotFound)
		return
	}

	cmd := d.buffer.request
	var response []byte
	err := app.Call(d.currentInterface, &cmd, &response)
	d.handleAppResponse(err, response)
}

// handleAppResponse implements the success/error split of spec.md §4.7
// "Response staging" / §4.7 "Error staging".
func (d *Dispatcher) handleAppResponse(err error, response []byte) {
	if err == nil {
		d.log.Debug("buffered app response", "n", len(response))
		d.buffer.setResponse(response)
		d.handleReply(true)
		return
	}
	d.log.Info("application error", "err", err)
	d.replyError(statusFromError(err))
}

// handleReply drives one step of response-drain (spec.md §4.7). fresh is
// true when called right after a successful application call (the reply
// still has to fit, status word included, in the same transport frame
// budget that admitted the triggering command) and false when called for
// an explicit GET RESPONSE pull, which drains up to a full TransportMax
// of data per chunk regardless of the 2-byte trailer (spec.md §8 scenario
// 5: first chunk is TRANSPORT_MAX-2 bytes, later chunks are TRANSPORT_MAX).
func (d *Dispatcher) handleReply(fresh bool) {
	if !d.buffer.isResponse() {
		d.log.Info("unexpected get response")
		d.replyError(iso7816.StatusUnspecifiedError)
		return
	}

	res := d.buffer.response
	chainMode := d.wasRequestChained || len(res)+2 > d.limits.TransportMax

	if !chainMode {
		d.buffer.clear()
		d.respond(appendStatus(res, iso7816.StatusSuccess))
		return
	}

	chunkCap := d.limits.TransportMax
	if fresh {
		chunkCap -= 2
	}
	boundary := min(chunkCap, len(res))
	toSend := res[:boundary]
	remaining := res[boundary:]

	var sw iso7816.Status
	switch {
	case len(remaining) > 255:
		sw = iso7816.MoreData(0)
	case len(remaining) > 0:
		sw = iso7816.MoreData(len(remaining))
	default:
		sw = iso7816.StatusSuccess
	}

	message := appendStatus(toSend, sw)
	if sw == iso7816.StatusSuccess {
		d.buffer.clear()
	} else {
		d.log.Debug("response chain continues", "remaining", len(remaining))
		d.buffer.setResponse(append([]byte(nil), remaining...))
	}
	d.respond(message)
}

// replyError implements "Error staging": emit a status-word-only message
// and clear the buffer. current_aid is left untouched.
func (d *Dispatcher) replyError(status iso7816.Status) {
	d.respond(statusOnlyMessage(status))
	d.buffer.clear()
}

// respond delivers message on the interface the in-flight transaction
// belongs to (spec.md invariant 5).
func (d *Dispatcher) respond(message []byte) {
	d.respondOn(d.currentInterface, message)
}

func (d *Dispatcher) respondOn(iface iso7816.Interface, message []byte) {
	var ch *channel.Channel
	switch iface {
	case iso7816.Contactless:
		ch = d.contactless
	default:
		ch = d.contact
	}
	if err := ch.Respond(message); err != nil {
		d.log.Warn("respond on channel not in Processing state", "interface", iface, "err", err)
	}
}

func statusFromError(err error) iso7816.Status {
	if se, ok := err.(StatusError); ok {
		return se.Status()
	}
	return iso7816.StatusUnspecifiedError
}

func statusOnlyMessage(status iso7816.Status) []byte {
	return appendStatus(nil, status)
}

func appendStatus(data []byte, status iso7816.Status) []byte {
	sw := status.Bytes()
	out := make([]byte, 0, len(data)+2)
	out = append(out, data...)
	out = append(out, sw[0], sw[1])
	return out
}

func hexString(b []byte) string {
	const hexDigits = "0123456789ABCDEF"
	out := make([]byte, len(b)*2)
	for i, v := range b {
		out[i*2] = hexDigits[v>>4]
		out[i*2+1] = hexDigits[v&0x0F]
	}
	return string(out)
}
