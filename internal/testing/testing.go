// package testing contains shared testing utilities
package testing

import (
	"errors"
	"io"
	"net/http"
	"os"
	"testing"

	"github.com/desertthunder/tekx/internal/models"
)

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

func boolPtr(b bool) *bool { return &b }

func floatPtr(f float64) *float64 { return &f }

// SampleRepairOrder is RO 1501: two performed jobs (Oil Change, Tire Rotation), one declined job
// (Brake Pads) and one pending job (Cabin Filter).
func SampleRepairOrder() *models.RepairOrder {
	return &models.RepairOrder{
		ID:       "1501",
		Number:   "10342",
		ShopID:   "238",
		Mileage:  floatPtr(48250),
		Customer: models.Customer{ID: "9", FirstName: "Dana", LastName: "Reyes", Email: "dana@example.com"},
		Vehicle:  models.Vehicle{ID: "44", Year: 2017, Make: "Honda", Model: "Accord"},
		Jobs: []models.Job{
			{ID: "11", Name: "Oil Change", Authorized: boolPtr(true)},
			{ID: "12", Name: "Tire Rotation", AuthorizationStatus: " approved "},
			{ID: "13", Name: "Brake Pads", Authorized: boolPtr(false), Status: "DECLINED"},
			{ID: "14", Name: "Cabin Filter", Status: "PENDING"},
		},
	}
}
