package storage

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"pairpool/internal/pool"
)

func TestJournalAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	journal := NewJournal(path)

	first := testSnapshot().Events
	if err := journal.Append(first); err != nil {
		t.Fatalf("append: %v", err)
	}

	more := []pool.Event{
		{Seq: 2, Kind: pool.EventLiquidityRemoved, Account: "0x00000000000000000000000000000000000000A1",
			Removed: &pool.LiquidityRemovedData{SharesBurned: "41", AmountA: "61", AmountB: "27"}},
	}
	if err := journal.Append(more); err != nil {
		t.Fatalf("append more: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	defer file.Close()

	var got []pool.Event
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var ev pool.Event
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			t.Fatalf("parse line: %v", err)
		}
		got = append(got, ev)
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}

	want := append(append([]pool.Event{}, first...), more...)
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("journal mismatch: %+v != %+v", got, want)
	}
}

func TestJournalEmptyBatchWritesNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	journal := NewJournal(path)

	if err := journal.Append(nil); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("empty batch must not create the journal file")
	}
}
