package services

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"mutualfund-backend/shared"
)

func newNavTestService(t *testing.T, handler http.Handler) (*NavHistoryService, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	navCfg := shared.ServiceConfig{
		BaseURL:            server.URL + "/graph/%s/%d",
		HTTPRequestTimeout: 5 * time.Second,
	}
	amfiCfg := shared.ServiceConfig{
		BaseURL:            server.URL + "/amfi",
		HTTPRequestTimeout: 5 * time.Second,
	}
	return NewNavHistoryService(navCfg, amfiCfg), server
}

func amfiFeedRow(code int, nav float64, date time.Time) string {
	return fmt.Sprintf("%d;INF000000000;INF000000001;%v;%s", code, nav, date.Format(amfiDateLayout))
}

func TestFetchHistoricalNAVFromPrimaryAPI(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/graph/120503/12", func(w http.ResponseWriter, r *http.Request) {
		// NAV values arrive sometimes as numbers and sometimes as strings.
		fmt.Fprint(w, `{"folio":{"data":[[1714521600000,"45.67"],[1714608000000,45.89]]}}`)
	})

	service, _ := newNavTestService(t, mux)
	points := service.FetchHistoricalNAV("120503", 12)

	if len(points) != 2 {
		t.Fatalf("expected 2 NAV points, got %d", len(points))
	}
	if points[0].NAV != 45.67 || points[1].NAV != 45.89 {
		t.Errorf("unexpected NAV values: %v, %v", points[0].NAV, points[1].NAV)
	}

	// 1714521600000 ms is 2024-05-01 UTC; dates are truncated to the day.
	want := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	if !points[0].Date.Equal(want) {
		t.Errorf("first point date = %v, want %v", points[0].Date, want)
	}
}

func TestFetchHistoricalNAVSkipsMalformedEntries(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/graph/120503/12", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"folio":{"data":[[1714521600000],[1714521600000,"garbage"],[1714608000000,45.89]]}}`)
	})

	service, _ := newNavTestService(t, mux)
	points := service.FetchHistoricalNAV("120503", 12)

	if len(points) != 1 {
		t.Fatalf("expected only the well-formed entry, got %d points", len(points))
	}
	if points[0].NAV != 45.89 {
		t.Errorf("NAV = %v, want 45.89", points[0].NAV)
	}
}

func TestFetchHistoricalNAVFallsBackOnEmptyPayload(t *testing.T) {
	var feedHits int64
	now := time.Now().UTC()

	mux := http.NewServeMux()
	mux.HandleFunc("/graph/120503/12", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"folio":{"data":[]}}`)
	})
	mux.HandleFunc("/amfi", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&feedHits, 1)
		rows := []string{
			"Scheme Code;ISIN Div Payout/ISIN Growth;ISIN Div Reinvestment;Net Asset Value;Date",
			amfiFeedRow(120503, 44.1, now.AddDate(0, 0, -10)),
			amfiFeedRow(120503, 44.9, now.AddDate(0, 0, -5)),
			amfiFeedRow(120503, 30.0, now.AddDate(-2, 0, 0)), // outside the 12-month window
			amfiFeedRow(999999, 12.3, now.AddDate(0, 0, -5)), // different scheme
		}
		fmt.Fprint(w, strings.Join(rows, "\n"))
	})

	service, _ := newNavTestService(t, mux)
	points := service.FetchHistoricalNAV("120503", 12)

	if atomic.LoadInt64(&feedHits) != 1 {
		t.Fatalf("expected exactly one bulk feed fetch, got %d", feedHits)
	}
	if len(points) != 2 {
		t.Fatalf("expected 2 points from the bulk feed window, got %d", len(points))
	}
	if !points[0].Date.Before(points[1].Date) {
		t.Error("fallback points not sorted by date")
	}
	if points[0].NAV != 44.1 || points[1].NAV != 44.9 {
		t.Errorf("unexpected fallback NAVs: %v, %v", points[0].NAV, points[1].NAV)
	}
}

func TestFetchHistoricalNAVFallsBackOnAPIError(t *testing.T) {
	now := time.Now().UTC()

	mux := http.NewServeMux()
	mux.HandleFunc("/graph/120503/12", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream broken", http.StatusInternalServerError)
	})
	mux.HandleFunc("/amfi", func(w http.ResponseWriter, r *http.Request) {
		rows := []string{
			"Scheme Code;ISIN Div Payout/ISIN Growth;ISIN Div Reinvestment;Net Asset Value;Date",
			amfiFeedRow(120503, 44.9, now.AddDate(0, 0, -5)),
		}
		fmt.Fprint(w, strings.Join(rows, "\n"))
	})

	service, _ := newNavTestService(t, mux)
	points := service.FetchHistoricalNAV("120503", 12)

	if len(points) != 1 {
		t.Fatalf("expected the fallback point, got %d points", len(points))
	}
}

func TestFetchHistoricalNAVWithoutSchemeCode(t *testing.T) {
	service, _ := newNavTestService(t, http.NewServeMux())

	if points := service.FetchHistoricalNAV("", 12); points != nil {
		t.Errorf("expected nil for an empty scheme code, got %v", points)
	}
}

func TestFallbackNAVFiltersWindowAndCode(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)

	mux := http.NewServeMux()
	mux.HandleFunc("/amfi", func(w http.ResponseWriter, r *http.Request) {
		rows := []string{
			"Scheme Code;ISIN Div Payout/ISIN Growth;ISIN Div Reinvestment;Net Asset Value;Date",
			"Open Ended Schemes(Debt Scheme - Banking and PSU Fund)", // section header, fewer than 5 fields
			"",
			amfiFeedRow(120503, 40.0, time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)), // day before window
			amfiFeedRow(120503, 41.0, start),                                         // window start is inclusive
			amfiFeedRow(120503, 42.0, end),                                           // window end is inclusive
			amfiFeedRow(120503, 43.0, end.AddDate(0, 0, 1)),
			"120503;INF0;INF1;not-a-number;15-Mar-2026", // unparseable NAV skipped
		}
		fmt.Fprint(w, strings.Join(rows, "\n"))
	})

	service, _ := newNavTestService(t, mux)
	points := service.FallbackNAV("120503", start, end)

	if len(points) != 2 {
		t.Fatalf("expected 2 points inside the inclusive window, got %d", len(points))
	}
	if points[0].NAV != 41.0 || points[1].NAV != 42.0 {
		t.Errorf("unexpected window points: %v, %v", points[0].NAV, points[1].NAV)
	}
}

func TestFallbackNAVNonNumericSchemeCode(t *testing.T) {
	service, _ := newNavTestService(t, http.NewServeMux())

	points := service.FallbackNAV("not-numeric", time.Now().AddDate(0, -1, 0), time.Now())
	if points != nil {
		t.Errorf("expected nil for a non-numeric scheme code, got %v", points)
	}
}

func TestFallbackNAVFeedUnavailable(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/amfi", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusServiceUnavailable)
	})

	service, _ := newNavTestService(t, mux)
	points := service.FallbackNAV("120503", time.Now().AddDate(0, -1, 0), time.Now())
	if points != nil {
		t.Errorf("expected empty result when the feed is unavailable, got %v", points)
	}
}
