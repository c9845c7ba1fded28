package sysmem

import (
	"errors"
	"testing"
)

func TestResident(t *testing.T) {
	rss, err := Resident()
	if errors.Is(err, ErrUnsupported) {
		t.Skip("no resident-size source on this platform")
	}
	if err != nil {
		t.Fatalf("Resident: %v", err)
	}
	if rss == 0 {
		t.Fatal("resident size reported as zero")
	}
}

func TestPeakAtLeastResident(t *testing.T) {
	rss, err := Resident()
	if err != nil {
		t.Skip("no resident-size source on this platform")
	}
	peak, err := Peak()
	if err != nil {
		t.Fatalf("Peak: %v", err)
	}
	// The high-water mark can lag the instantaneous figure slightly across
	// the two reads, so allow equality with a generous margin.
	if peak*2 < rss {
		t.Fatalf("peak %d implausibly below resident %d", peak, rss)
	}
}
