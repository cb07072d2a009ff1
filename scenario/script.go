// Package scenario runs a simple text script of APDUs against a live
// Dispatcher: the same "one command per line" format a physical-reader
// script runner would use, repointed here at the two transport channels
// instead.
package scenario

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/keyfirmware/apdudispatch/channel"
	"github.com/keyfirmware/apdudispatch/dispatch"
	"github.com/keyfirmware/apdudispatch/iso7816"
)

// Step is one executed line: the APDU posted and the response reclaimed
// (or the error that stopped the run).
type Step struct {
	Line     int
	Iface    iso7816.Interface
	Request  []byte
	Response []byte
	Err      error
}

// contactlessDirective and contactDirective are script lines that change
// runner state instead of posting an APDU.
const contactlessDirective = "@contactless"
const contactDirective = "@contact"

// Run reads a script from path and drives it against d, one line at a
// time. Blank lines and lines starting with "#" are ignored. A bare
// "@contactless" or "@contact" line switches which channel subsequent APDU
// lines are posted to; the active channel starts as contact. Each APDU
// line is hex bytes, whitespace-separated or not (e.g. "00 A4 04 00 02 3F
// 00" or "00A40400023F00").
//
// Run calls Poll once after every post (a Poll runs to completion), then
// reclaims the response before moving to the next line —
// mirroring how runners/pc/src/main.rs drives the dispatcher to
// quiescence between each host-side write.
func Run(path string, d *dispatch.Dispatcher, apps dispatch.Registry, contact, contactless *channel.Channel) ([]Step, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open script: %w", err)
	}
	defer f.Close()

	active := iso7816.Contact
	var steps []Step

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		switch strings.ToLower(line) {
		case contactlessDirective:
			active = iso7816.Contactless
			continue
		case contactDirective:
			active = iso7816.Contact
			continue
		}

		apdu, err := parseHexLine(line)
		if err != nil {
			steps = append(steps, Step{Line: lineNo, Iface: active, Err: fmt.Errorf("line %d: %w", lineNo, err)})
			continue
		}

		ch := contact
		if active == iso7816.Contactless {
			ch = contactless
		}
		resp, err := drive(d, apps, ch, active, apdu)
		steps = append(steps, Step{Line: lineNo, Iface: active, Request: apdu, Response: resp, Err: err})
	}
	if err := scanner.Err(); err != nil {
		return steps, fmt.Errorf("read script: %w", err)
	}
	return steps, nil
}

// drive posts apdu on ch, polls d once and reclaims that channel's
// response. It returns an error if the poll leaves no response at all, or
// if the response is on the other interface (e.g. the other interface's
// request won priority on this tick).
func drive(d *dispatch.Dispatcher, apps dispatch.Registry, ch *channel.Channel, want iso7816.Interface, apdu []byte) ([]byte, error) {
	if err := ch.Post(apdu); err != nil {
		return nil, fmt.Errorf("post: %w", err)
	}
	iface, ok := d.Poll(apps)
	if !ok {
		return nil, fmt.Errorf("poll produced no response for %s", want)
	}
	if iface != want {
		return nil, fmt.Errorf("response landed on %s, want %s", iface, want)
	}
	resp, ok := ch.Take()
	if !ok {
		return nil, fmt.Errorf("take: %s channel not responded", want)
	}
	return resp, nil
}

func parseHexLine(line string) ([]byte, error) {
	compact := strings.ReplaceAll(line, " ", "")
	compact = strings.ReplaceAll(compact, "\t", "")
	b, err := hex.DecodeString(compact)
	if err != nil {
		return nil, fmt.Errorf("invalid hex: %w", err)
	}
	if len(b) == 0 {
		return nil, fmt.Errorf("empty APDU")
	}
	return b, nil
}
