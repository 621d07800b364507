package reservation

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestFileStore(t *testing.T) {
	t.Parallel()

	makeStore := func(t *testing.T) (*FileStore, string) {
		t.Helper()
		path := filepath.Join(t.TempDir(), "reservation.json")
		return NewFileStore(path, nil), path
	}

	t.Run("missing file reads as empty slot", func(t *testing.T) {
		store, _ := makeStore(t)
		rec, err := store.Read()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if rec != nil {
			t.Fatalf("expected nil record, got %+v", rec)
		}
	})

	t.Run("write then read roundtrips the record", func(t *testing.T) {
		store, _ := makeStore(t)
		want := &Record{TicketIDs: []string{"t1", "t2"}, EventID: "event-1", ReservedAt: 1748779200000}

		if err := store.Write(want); err != nil {
			t.Fatalf("write failed: %v", err)
		}
		got, err := store.Read()
		if err != nil {
			t.Fatalf("read failed: %v", err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("expected %+v, got %+v", want, got)
		}
	})

	t.Run("write creates missing parent directories", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "dir", "reservation.json")
		store := NewFileStore(path, nil)
		if err := store.Write(&Record{TicketIDs: []string{"t1"}, EventID: "event-1", ReservedAt: 1}); err != nil {
			t.Fatalf("write failed: %v", err)
		}
	})

	t.Run("unparsable record is deleted and reported absent", func(t *testing.T) {
		store, path := makeStore(t)
		if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
			t.Fatalf("setup write failed: %v", err)
		}

		rec, err := store.Read()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if rec != nil {
			t.Fatalf("expected nil record, got %+v", rec)
		}
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Fatalf("expected corrupt file removed, stat err %v", err)
		}
	})

	t.Run("structurally invalid record is deleted", func(t *testing.T) {
		cases := map[string]string{
			"missing event":    `{"ticketIds":["t1"],"eventId":"","reservedAt":1}`,
			"no tickets":       `{"ticketIds":[],"eventId":"event-1","reservedAt":1}`,
			"empty ticket id":  `{"ticketIds":["t1",""],"eventId":"event-1","reservedAt":1}`,
			"zero reserved at": `{"ticketIds":["t1"],"eventId":"event-1","reservedAt":0}`,
		}

		for name, payload := range cases {
			t.Run(name, func(t *testing.T) {
				store, path := makeStore(t)
				if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
					t.Fatalf("setup write failed: %v", err)
				}

				rec, err := store.Read()
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				if rec != nil {
					t.Fatalf("expected nil record, got %+v", rec)
				}
				if _, err := os.Stat(path); !os.IsNotExist(err) {
					t.Fatalf("expected invalid file removed, stat err %v", err)
				}
			})
		}
	})

	t.Run("clear is idempotent", func(t *testing.T) {
		store, _ := makeStore(t)
		if err := store.Write(&Record{TicketIDs: []string{"t1"}, EventID: "event-1", ReservedAt: 1}); err != nil {
			t.Fatalf("write failed: %v", err)
		}
		if err := store.Clear(); err != nil {
			t.Fatalf("first clear failed: %v", err)
		}
		if err := store.Clear(); err != nil {
			t.Fatalf("second clear failed: %v", err)
		}
	})
}
