package smithy

import (
	"testing"
	"time"
)

func TestApiExceptionRetrySafeNoClearsThrottleAndRetryAfter(t *testing.T) {
	e := NewApiException("throttled",
		WithRetrySafety(RetrySafetyMaybe),
		WithThrottle(true),
		WithRetryAfter(10*time.Second),
	)

	if e.IsRetrySafe() != RetrySafetyMaybe {
		t.Fatalf("expected RetrySafetyMaybe, got %v", e.IsRetrySafe())
	}
	if !e.IsThrottle() {
		t.Fatalf("expected IsThrottle true")
	}
	if d, ok := e.RetryAfter(); !ok || d != 10*time.Second {
		t.Fatalf("expected RetryAfter=10s, got %v %v", d, ok)
	}

	e.SetRetrySafe(RetrySafetyNo)

	if e.IsRetrySafe() != RetrySafetyNo {
		t.Errorf("expected RetrySafetyNo, got %v", e.IsRetrySafe())
	}
	if e.IsThrottle() {
		t.Errorf("expected IsThrottle cleared")
	}
	if _, ok := e.RetryAfter(); ok {
		t.Errorf("expected RetryAfter cleared")
	}
}

func TestFaultOfHTTPStatusCode(t *testing.T) {
	cases := map[int]Fault{
		404: FaultClient,
		499: FaultClient,
		500: FaultServer,
		599: FaultServer,
		301: FaultOther,
		200: FaultOther,
	}
	for code, want := range cases {
		if got := FaultOfHTTPStatusCode(code); got != want {
			t.Errorf("FaultOfHTTPStatusCode(%d) = %v, want %v", code, got, want)
		}
	}
}

func TestModeledApiExceptionDefaultHTTPStatus(t *testing.T) {
	schema := StructureBuilder(MustParseShapeID("smithy.example#ThrottlingError")).Build()

	e := NewModeledApiException(schema, "throttled")
	if got := e.DefaultHTTPStatus(); got != 500 {
		t.Errorf("expected fallback 500, got %d", got)
	}
}
