// ABOUTME: Snapshot reads/writes the newline-delimited JSON wire format for workspace history and agent state.
// ABOUTME: One JSON object per line: ordinary records are core.Event, the tail adds one {"kind":"state",...} record per agent.
package snapshot

import (
	"bufio"
	"encoding/json"
	"io"

	"github.com/2389-research/chorus/core"
)

// StateRecord is the final per-agent record a snapshot file ends with,
// distinguished from ordinary event records by its "kind" field.
type StateRecord struct {
	Kind  string `json:"kind"`
	Agent string `json:"agent"`
	State any    `json:"state"`
}

// Writer appends ndjson records to an underlying stream. It does not buffer
// across calls beyond bufio's own block size — each Write* call flushes.
type Writer struct {
	w *bufio.Writer
}

// NewWriter wraps w for ndjson output.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// WriteEvent appends one event record.
func (sw *Writer) WriteEvent(ev core.Event) error {
	return sw.writeLine(ev)
}

// WriteState appends the final state record for one agent.
func (sw *Writer) WriteState(agent string, state any) error {
	return sw.writeLine(StateRecord{Kind: "state", Agent: agent, State: state})
}

func (sw *Writer) writeLine(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := sw.w.Write(b); err != nil {
		return err
	}
	if err := sw.w.WriteByte('\n'); err != nil {
		return err
	}
	return sw.w.Flush()
}

// Record is one decoded line from a snapshot: exactly one of Event or
// State is populated, distinguished by IsState.
type Record struct {
	IsState bool
	Event   core.Event
	State   StateRecord
}

// Reader decodes ndjson records written by Writer, in order.
type Reader struct {
	sc *bufio.Scanner
}

// NewReader wraps r for ndjson input.
func NewReader(r io.Reader) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	return &Reader{sc: sc}
}

type kindPeek struct {
	Kind string `json:"kind"`
}

// Next decodes the next record. It returns io.EOF once the stream is
// exhausted.
func (sr *Reader) Next() (Record, error) {
	if !sr.sc.Scan() {
		if err := sr.sc.Err(); err != nil {
			return Record{}, err
		}
		return Record{}, io.EOF
	}
	line := sr.sc.Bytes()

	var peek kindPeek
	if err := json.Unmarshal(line, &peek); err != nil {
		return Record{}, err
	}
	if peek.Kind == "state" {
		var sr2 StateRecord
		if err := json.Unmarshal(line, &sr2); err != nil {
			return Record{}, err
		}
		return Record{IsState: true, State: sr2}, nil
	}

	var ev core.Event
	if err := json.Unmarshal(line, &ev); err != nil {
		return Record{}, err
	}
	return Record{Event: ev}, nil
}

// All decodes every remaining record until EOF.
func (sr *Reader) All() ([]Record, error) {
	var out []Record
	for {
		rec, err := sr.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
}
