package dispatch

import "github.com/keyfirmware/apdudispatch/iso7816"

// bufferKind discriminates the three arms of bufferState. The state
// machine's correctness depends on exactly one of them being active at a
// time (spec.md §9 design note), so bufferState is a tagged union rather
// than, say, two optional fields.
type bufferKind int

const (
	bufEmpty bufferKind = iota
	bufRequest
	bufResponse
)

// bufferState holds exactly one of {empty, request-in-progress,
// response-in-progress} (spec.md §3 "Buffer State").
type bufferState struct {
	kind     bufferKind
	request  iso7816.Command
	response []byte
}

func newBufferState() bufferState {
	return bufferState{kind: bufEmpty}
}

func (b *bufferState) isEmpty() bool    { return b.kind == bufEmpty }
func (b *bufferState) isRequest() bool  { return b.kind == bufRequest }
func (b *bufferState) isResponse() bool { return b.kind == bufResponse }

// appendRequest implements Command Buffer's append_request (spec.md §4.3):
// if a Request is already buffered, cmd is appended to it; otherwise a new
// Request is started from cmd, silently discarding any stale Response.
// wasDiscardingResponse reports whether a pending Response was abandoned,
// so the caller can log it (spec.md §9 open question: "an implementer may
// add a log line but must not change the semantics").
func (b *bufferState) appendRequest(cmd *iso7816.Command) (wasDiscardingResponse bool) {
	if b.kind == bufRequest {
		b.request.Extend(cmd)
		return false
	}
	wasDiscardingResponse = b.kind == bufResponse
	b.kind = bufRequest
	b.request = *cmd
	return wasDiscardingResponse
}

// setResponse implements set_response: overwrite the buffer with an
// outbound Response.
func (b *bufferState) setResponse(data []byte) {
	b.kind = bufResponse
	b.response = data
}

func (b *bufferState) clear() {
	b.kind = bufEmpty
	b.request = iso7816.Command{}
	b.response = nil
}
