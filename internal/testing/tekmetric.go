package testing

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

const (
	FakeClientID     = "client-id"
	FakeClientSecret = "client-secret"
)

// FakeTekmetric is an httptest server speaking enough of the Tekmetric API to serve
// [SampleRepairOrder] and its shop's appointments.
type FakeTekmetric struct {
	Server *httptest.Server

	mu            sync.Mutex
	tokenRequests int
	requests      []string
	created       []map[string]any
	rejectNext    int

	// Appointments is served by GET /api/v1/appointments in a content envelope.
	Appointments []map[string]any
	// BookingResponse overrides the POST /api/v1/appointments body.
	BookingResponse string
}

// NewFakeTekmetric starts a fake upstream closed at test cleanup.
func NewFakeTekmetric(t *testing.T) *FakeTekmetric {
	t.Helper()
	f := &FakeTekmetric{
		Appointments: []map[string]any{
			{"id": 501, "shopId": 238, "title": "Oil", "startTime": "2026-04-20T14:00:00Z"},
			{"id": 502, "shopId": 238, "title": "Brakes", "startTime": "2026-04-20T16:00:00Z"},
			{"id": 503, "shopId": 238, "title": "Inspection", "start": "2026-04-22T15:00:00Z"},
		},
	}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serveHTTP))
	t.Cleanup(f.Server.Close)
	return f
}

// URL returns the base URL of the fake.
func (f *FakeTekmetric) URL() string { return f.Server.URL }

// TokenRequests returns how many token exchanges were performed.
func (f *FakeTekmetric) TokenRequests() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tokenRequests
}

// Requests returns the authenticated request paths in arrival order.
func (f *FakeTekmetric) Requests() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

// Created returns the bodies of booked appointments.
func (f *FakeTekmetric) Created() []map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]map[string]any(nil), f.created...)
}

// RejectNext makes the next n authenticated requests answer 401.
func (f *FakeTekmetric) RejectNext(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rejectNext = n
}

func (f *FakeTekmetric) serveHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/api/v1/oauth/token" {
		f.serveToken(w, r)
		return
	}

	f.mu.Lock()
	reject := f.rejectNext > 0
	if reject {
		f.rejectNext--
	}
	f.requests = append(f.requests, r.URL.Path)
	f.mu.Unlock()

	if reject || !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer tok-") {
		http.Error(w, `{"error":"invalid_token"}`, http.StatusUnauthorized)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.URL.Path == "/api/v1/repair-orders/1501":
		io.WriteString(w, `{"id":1501,"repairOrderNumber":10342,"shopId":238,"customerId":9,"vehicleId":44,"milesIn":48250}`)
	case r.URL.Path == "/api/v1/customers/9":
		io.WriteString(w, `{"id":9,"firstName":"Dana","lastName":"Reyes","email":["dana@example.com"],"phone":[{"number":"555-0100"}]}`)
	case r.URL.Path == "/api/v1/vehicles/44":
		io.WriteString(w, `{"id":44,"year":2017,"make":"Honda","model":"Accord","vin":"1HGCV1F3XHA000000"}`)
	case r.URL.Path == "/api/v1/jobs" && r.URL.Query().Get("repairOrderId") == "1501":
		io.WriteString(w, `{"content":[
			{"id":11,"name":"Oil Change","authorized":true},
			{"id":12,"name":"Tire Rotation","authorizationStatus":" approved "},
			{"id":13,"name":"Brake Pads","authorized":false,"status":"DECLINED"},
			{"id":14,"name":"Cabin Filter","status":"PENDING"}
		],"last":true}`)
	case r.URL.Path == "/api/v1/appointments" && r.Method == http.MethodGet:
		f.mu.Lock()
		body, _ := json.Marshal(map[string]any{"content": f.Appointments, "last": true})
		f.mu.Unlock()
		w.Write(body)
	case r.URL.Path == "/api/v1/appointments" && r.Method == http.MethodPost:
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, `{"type":"ERROR","message":"bad body"}`, http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		f.created = append(f.created, body)
		n := len(f.created)
		resp := f.BookingResponse
		f.mu.Unlock()
		if resp == "" {
			resp = fmt.Sprintf(`{"type":"SUCCESS","message":"Appointment created","data":%d}`, 9000+n)
		}
		io.WriteString(w, resp)
	default:
		http.Error(w, `{"type":"ERROR","message":"not found"}`, http.StatusNotFound)
	}
}

func (f *FakeTekmetric) serveToken(w http.ResponseWriter, r *http.Request) {
	id, secret, ok := r.BasicAuth()
	if r.Method != http.MethodPost || !ok || id != FakeClientID || secret != FakeClientSecret {
		http.Error(w, `{"error":"invalid_client"}`, http.StatusUnauthorized)
		return
	}
	if err := r.ParseForm(); err != nil || r.PostForm.Get("grant_type") != "client_credentials" {
		http.Error(w, `{"error":"unsupported_grant_type"}`, http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	f.tokenRequests++
	n := f.tokenRequests
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"access_token":"tok-%d","token_type":"bearer","scope":"shop:238"}`, n)
}
