// Package replay loads synthetic ITCH-like CSV event streams into the
// normalized event type the rest of the pipeline consumes.
package replay

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"mm-backtest/pkg/types"
)

const headerPrefix = "ts_ns,"

// LoadCSV reads a CSV with columns ts_ns,type,order_id,side,px,qty. If the
// first line begins with the literal header "ts_ns,", it is skipped;
// otherwise the file is assumed to have no header and every line is data.
// maxMsgs caps the number of events returned; 0 means unbounded.
func LoadCSV(path string, maxMsgs int) ([]types.Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("replay: cannot open %s: %w", path, err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	if peeked, _ := br.Peek(len(headerPrefix)); string(peeked) == headerPrefix {
		if _, err := br.ReadString('\n'); err != nil && err != io.EOF {
			return nil, fmt.Errorf("replay: %s: reading header: %w", path, err)
		}
	}

	r := csv.NewReader(br)
	r.FieldsPerRecord = -1
	r.ReuseRecord = true

	cap := maxMsgs
	if cap == 0 || cap > 1_000_000 {
		cap = 1_000_000
	}
	events := make([]types.Event, 0, cap)

	for lineNo := 1; ; lineNo++ {
		if maxMsgs > 0 && len(events) >= maxMsgs {
			break
		}
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("replay: %s: line %d: %w", path, lineNo, err)
		}
		ev, err := parseRecord(record)
		if err != nil {
			return nil, fmt.Errorf("replay: %s: line %d: %w", path, lineNo, err)
		}
		events = append(events, ev)
	}
	return events, nil
}

func parseRecord(record []string) (types.Event, error) {
	if len(record) < 6 {
		return types.Event{}, fmt.Errorf("expected 6 columns, got %d", len(record))
	}

	tsNs, err := strconv.ParseUint(record[0], 10, 64)
	if err != nil {
		return types.Event{}, fmt.Errorf("bad ts_ns %q: %w", record[0], err)
	}

	kind := types.Add
	if len(record[1]) > 0 {
		kind = types.EvType(record[1][0])
	}

	orderID, err := strconv.ParseUint(record[2], 10, 32)
	if err != nil {
		return types.Event{}, fmt.Errorf("bad order_id %q: %w", record[2], err)
	}

	side, err := parseSide(record[3])
	if err != nil {
		return types.Event{}, err
	}

	px, err := strconv.ParseInt(record[4], 10, 32)
	if err != nil {
		return types.Event{}, fmt.Errorf("bad px %q: %w", record[4], err)
	}

	qty, err := strconv.ParseInt(record[5], 10, 32)
	if err != nil {
		return types.Event{}, fmt.Errorf("bad qty %q: %w", record[5], err)
	}

	return types.Event{
		TsNs:    tsNs,
		Kind:    kind,
		OrderID: uint32(orderID),
		Side:    side,
		Px:      int32(px),
		Qty:     int32(qty),
	}, nil
}

func parseSide(s string) (types.Side, error) {
	if len(s) == 1 {
		switch s[0] {
		case '1', 'B', 'b':
			return types.Buy, nil
		case '0', 'S', 's':
			return types.Sell, nil
		}
	}
	return false, fmt.Errorf("bad side %q: want one of 0,1,B,b,S,s", s)
}
