package booking

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
)

func TestClient_Reserve(t *testing.T) {
	t.Parallel()

	t.Run("returns the confirmed ids on success", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/booking/reserve" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			var req ReserveRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("failed to decode request: %v", err)
			}
			json.NewEncoder(w).Encode(ReserveResponse{
				Success:   true,
				Message:   "tickets reserved",
				TicketIDs: req.TicketIDs,
			})
		}))
		defer srv.Close()

		client := NewClient(srv.URL)
		confirmed, err := client.Reserve(context.Background(), []string{"t1", "t2"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !reflect.DeepEqual(confirmed, []string{"t1", "t2"}) {
			t.Fatalf("expected [t1 t2], got %v", confirmed)
		}
	})

	t.Run("server rejection carries the verbatim message", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusConflict)
			json.NewEncoder(w).Encode(ReserveResponse{
				Success:   false,
				Message:   "one or more tickets are already reserved",
				TicketIDs: []string{},
			})
		}))
		defer srv.Close()

		client := NewClient(srv.URL)
		_, err := client.Reserve(context.Background(), []string{"t1"})

		var rejected *RejectedError
		if !errors.As(err, &rejected) {
			t.Fatalf("expected RejectedError, got %v", err)
		}
		if rejected.Message != "one or more tickets are already reserved" {
			t.Fatalf("expected verbatim server message, got %q", rejected.Message)
		}
		if rejected.StatusCode != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rejected.StatusCode)
		}
		if !IsRejected(err) {
			t.Fatalf("IsRejected must be true for server rejections")
		}
	})

	t.Run("unreachable server is a transport error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close() // connection refused from here on

		client := NewClient(srv.URL)
		_, err := client.Reserve(context.Background(), []string{"t1"})

		var transport *TransportError
		if !errors.As(err, &transport) {
			t.Fatalf("expected TransportError, got %v", err)
		}
		if IsRejected(err) {
			t.Fatalf("transport failures are not rejections")
		}
	})

	t.Run("undecodable body is a transport error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte("<html>bad gateway</html>"))
		}))
		defer srv.Close()

		client := NewClient(srv.URL)
		_, err := client.Reserve(context.Background(), []string{"t1"})

		var transport *TransportError
		if !errors.As(err, &transport) {
			t.Fatalf("expected TransportError, got %v", err)
		}
	})
}

func TestClient_Purchase(t *testing.T) {
	t.Parallel()

	t.Run("returns the purchase summary on success", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/booking/purchase" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			json.NewEncoder(w).Encode(PurchaseResponse{
				Success:    true,
				Message:    "purchase complete",
				TicketIDs:  []string{"t1"},
				Total:      1000,
				PurchaseID: "p-1",
			})
		}))
		defer srv.Close()

		client := NewClient(srv.URL)
		resp, err := client.Purchase(context.Background(), []string{"t1"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if resp.Total != 1000 || resp.PurchaseID != "p-1" {
			t.Fatalf("unexpected response %+v", resp)
		}
	})

	t.Run("expired hold surfaces the gone rejection", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusGone)
			json.NewEncoder(w).Encode(PurchaseResponse{
				Success:   false,
				Message:   "reservation expired or missing; reserve the tickets again before purchasing",
				TicketIDs: []string{},
			})
		}))
		defer srv.Close()

		client := NewClient(srv.URL)
		_, err := client.Purchase(context.Background(), []string{"t1"})

		var rejected *RejectedError
		if !errors.As(err, &rejected) {
			t.Fatalf("expected RejectedError, got %v", err)
		}
		if rejected.StatusCode != http.StatusGone {
			t.Fatalf("expected 410, got %d", rejected.StatusCode)
		}
	})
}
