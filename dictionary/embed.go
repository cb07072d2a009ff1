// Package dictionary provides the embedded AID-prefix-to-label lookup used
// to annotate an application registry listing. Data is embedded at compile
// time via Go's embed directive.
package dictionary

import (
	"bufio"
	"bytes"
	"embed"
	"encoding/hex"
	"strings"
)

//go:embed aid_prefixes.csv
var content embed.FS

// Entry is one AID-prefix-to-label mapping.
type Entry struct {
	Prefix []byte
	Label  string
}

var entries []Entry

func init() {
	data, err := content.ReadFile("aid_prefixes.csv")
	if err != nil {
		panic(err)
	}
	entries = parse(data)
}

// Format: prefix,label (header row "prefix,label" skipped).
func parse(data []byte) []Entry {
	var out []Entry
	scanner := bufio.NewScanner(bytes.NewReader(data))
	first := true
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if first {
			first = false
			continue
		}
		fields := strings.SplitN(line, ",", 2)
		if len(fields) != 2 {
			continue
		}
		prefix, err := hex.DecodeString(fields[0])
		if err != nil {
			continue
		}
		out = append(out, Entry{Prefix: prefix, Label: fields[1]})
	}
	return out
}

// All returns every known entry, in CSV order.
func All() []Entry {
	return entries
}

// Lookup returns the label for the longest known prefix of aid, and
// whether any entry matched.
func Lookup(aid []byte) (string, bool) {
	var best Entry
	found := false
	for _, e := range entries {
		if bytes.HasPrefix(aid, e.Prefix) && len(e.Prefix) > len(best.Prefix) {
			best = e
			found = true
		}
	}
	return best.Label, found
}
