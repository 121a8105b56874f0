package lineageevent

import (
	"context"
	"testing"
	"time"
)

func testEvent() Event {
	return Event{
		OccurredAt:  time.Unix(1700000000, 0).UTC(),
		Actor:       "alice",
		LaunchID:    "launch-1",
		SubjectType: KindArtifact,
		SubjectID:   "gem5-binary",
		Predicate:   PredicateUsedBy,
		ObjectType:  KindRun,
		ObjectID:    "run-1",
	}
}

func TestComputeIntegritySHA256_Deterministic(t *testing.T) {
	event := testEvent()
	metadataJSON := []byte(`{"cpu":"Calib","benchmark":"CCa"}`)

	a, err := ComputeIntegritySHA256(event, metadataJSON)
	if err != nil {
		t.Fatalf("ComputeIntegritySHA256() err=%v", err)
	}
	b, err := ComputeIntegritySHA256(event, metadataJSON)
	if err != nil {
		t.Fatalf("ComputeIntegritySHA256() err=%v", err)
	}
	if a != b {
		t.Fatalf("integrity mismatch: %q vs %q", a, b)
	}
}

func TestComputeIntegritySHA256_ChangesOnPredicate(t *testing.T) {
	event := testEvent()
	a, err := ComputeIntegritySHA256(event, nil)
	if err != nil {
		t.Fatalf("ComputeIntegritySHA256() err=%v", err)
	}
	event.Predicate = PredicateDerivedFrom
	b, err := ComputeIntegritySHA256(event, nil)
	if err != nil {
		t.Fatalf("ComputeIntegritySHA256() err=%v", err)
	}
	if a == b {
		t.Fatalf("expected integrity to differ")
	}
}

func TestValidateRejectsUnknownPredicate(t *testing.T) {
	event := testEvent()
	event.Predicate = "owns"
	if err := event.Validate(); err == nil {
		t.Fatalf("expected unknown predicate to fail")
	}
}

func TestValidateEnforcesEdgeKinds(t *testing.T) {
	cases := []struct {
		subject, predicate, object string
		ok                         bool
	}{
		{KindArtifact, PredicateDerivedFrom, KindArtifact, true},
		{KindArtifact, PredicateUsedBy, KindRun, true},
		{KindArtifact, PredicateDerivedFrom, KindRun, false},
		{KindRun, PredicateUsedBy, KindArtifact, false},
		{KindArtifact, PredicateUsedBy, KindArtifact, false},
		{"", PredicateUsedBy, KindRun, false},
		{KindArtifact, "", KindRun, false},
	}
	for _, tc := range cases {
		event := testEvent()
		event.SubjectType, event.Predicate, event.ObjectType = tc.subject, tc.predicate, tc.object
		err := event.Validate()
		if (err == nil) != tc.ok {
			t.Fatalf("%s -%s-> %s: err=%v, want ok=%v", tc.subject, tc.predicate, tc.object, err, tc.ok)
		}
	}
}

func TestInsertRequiresQueryer(t *testing.T) {
	if _, err := Insert(context.Background(), nil, testEvent()); err == nil {
		t.Fatalf("expected error for nil queryer")
	}
}
