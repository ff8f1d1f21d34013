package shared

import (
	"errors"
	"testing"
)

func TestWrapErrorPreservesExistingServiceError(t *testing.T) {
	original := NewServiceError(ErrorCategoryParsing, "PAGE_PARSE_FAILED", "bad markup", "PageFetcher", "Fetch", false, nil)

	wrapped := WrapError(original, ErrorCategoryNetwork, "OTHER_CODE", "NavHistory", "FetchHistoricalNAV", true)

	if wrapped.Category != ErrorCategoryParsing || wrapped.Code != "PAGE_PARSE_FAILED" {
		t.Errorf("wrapping replaced the original classification: %v/%v", wrapped.Category, wrapped.Code)
	}
	if wrapped.ServiceName != "NavHistory" || wrapped.Operation != "FetchHistoricalNAV" {
		t.Errorf("wrapping did not update the service context: %v/%v", wrapped.ServiceName, wrapped.Operation)
	}
}

func TestWrapErrorNil(t *testing.T) {
	if WrapError(nil, ErrorCategoryNetwork, "CODE", "Service", "Op", true) != nil {
		t.Error("wrapping nil must stay nil")
	}
}

func TestServiceErrorUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	serviceErr := WrapError(cause, ErrorCategoryNetwork, "PAGE_FETCH_FAILED", "PageFetcher", "Fetch", true)

	if !errors.Is(serviceErr, cause) {
		t.Error("expected errors.Is to reach the cause through Unwrap")
	}
}

func TestIsRetryableErrorHeuristics(t *testing.T) {
	if !IsRetryableError(errors.New("dial tcp: connection refused")) {
		t.Error("connection refused should be retryable")
	}
	if IsRetryableError(errors.New("invalid character '<' looking for beginning of value")) {
		t.Error("a parse error should not be retryable")
	}
}
