package shutdownmeta_test

import (
	"errors"
	"testing"
	"time"

	"pkt.systems/shutdownmeta"
)

func baseBuilder(typ shutdownmeta.Type) *shutdownmeta.Builder {
	return shutdownmeta.NewBuilder().
		NodeID("node-1").
		NodeEphemeralID("eph-1").
		Type(typ).
		Reason("planned maintenance").
		StartedAtMillis(1700000000000)
}

func TestBuildValidPerType(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		build func() (shutdownmeta.Record, error)
	}{
		{"restart without delay", func() (shutdownmeta.Record, error) {
			return baseBuilder(shutdownmeta.TypeRestart).Build()
		}},
		{"restart with delay", func() (shutdownmeta.Record, error) {
			return baseBuilder(shutdownmeta.TypeRestart).AllocationDelay(5 * time.Minute).Build()
		}},
		{"remove", func() (shutdownmeta.Record, error) {
			return baseBuilder(shutdownmeta.TypeRemove).Build()
		}},
		{"replace", func() (shutdownmeta.Record, error) {
			return baseBuilder(shutdownmeta.TypeReplace).TargetNodeName("node-2").Build()
		}},
		{"sigterm", func() (shutdownmeta.Record, error) {
			return baseBuilder(shutdownmeta.TypeSigterm).GracePeriod(time.Minute).Build()
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, err := tc.build()
			if err != nil {
				t.Fatalf("build: %v", err)
			}
			if rec.NodeID() != "node-1" {
				t.Fatalf("expected node-1, got %q", rec.NodeID())
			}
		})
	}
}

func TestBuildRejectsInvalidCombinations(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		build func() (shutdownmeta.Record, error)
	}{
		{"missing node id", func() (shutdownmeta.Record, error) {
			return shutdownmeta.NewBuilder().
				NodeEphemeralID("eph-1").
				Type(shutdownmeta.TypeRemove).
				Reason("r").
				StartedAtMillis(0).
				Build()
		}},
		{"missing ephemeral id", func() (shutdownmeta.Record, error) {
			return shutdownmeta.NewBuilder().
				NodeID("node-1").
				Type(shutdownmeta.TypeRemove).
				Reason("r").
				StartedAtMillis(0).
				Build()
		}},
		{"missing type", func() (shutdownmeta.Record, error) {
			return shutdownmeta.NewBuilder().
				NodeID("node-1").
				NodeEphemeralID("eph-1").
				Reason("r").
				StartedAtMillis(0).
				Build()
		}},
		{"missing reason", func() (shutdownmeta.Record, error) {
			return shutdownmeta.NewBuilder().
				NodeID("node-1").
				NodeEphemeralID("eph-1").
				Type(shutdownmeta.TypeRemove).
				StartedAtMillis(0).
				Build()
		}},
		{"missing started at", func() (shutdownmeta.Record, error) {
			return shutdownmeta.NewBuilder().
				NodeID("node-1").
				NodeEphemeralID("eph-1").
				Type(shutdownmeta.TypeRemove).
				Reason("r").
				Build()
		}},
		{"negative started at", func() (shutdownmeta.Record, error) {
			return baseBuilder(shutdownmeta.TypeRemove).StartedAtMillis(-1).Build()
		}},
		{"restart with target", func() (shutdownmeta.Record, error) {
			return baseBuilder(shutdownmeta.TypeRestart).TargetNodeName("node-2").Build()
		}},
		{"restart with grace period", func() (shutdownmeta.Record, error) {
			return baseBuilder(shutdownmeta.TypeRestart).GracePeriod(time.Second).Build()
		}},
		{"remove with delay", func() (shutdownmeta.Record, error) {
			return baseBuilder(shutdownmeta.TypeRemove).AllocationDelay(time.Minute).Build()
		}},
		{"remove with target", func() (shutdownmeta.Record, error) {
			return baseBuilder(shutdownmeta.TypeRemove).TargetNodeName("node-2").Build()
		}},
		{"remove with grace period", func() (shutdownmeta.Record, error) {
			return baseBuilder(shutdownmeta.TypeRemove).GracePeriod(time.Second).Build()
		}},
		{"replace without target", func() (shutdownmeta.Record, error) {
			return baseBuilder(shutdownmeta.TypeReplace).Build()
		}},
		{"replace with delay", func() (shutdownmeta.Record, error) {
			return baseBuilder(shutdownmeta.TypeReplace).
				TargetNodeName("node-2").
				AllocationDelay(time.Minute).
				Build()
		}},
		{"replace with grace period", func() (shutdownmeta.Record, error) {
			return baseBuilder(shutdownmeta.TypeReplace).
				TargetNodeName("node-2").
				GracePeriod(time.Second).
				Build()
		}},
		{"sigterm without grace period", func() (shutdownmeta.Record, error) {
			return baseBuilder(shutdownmeta.TypeSigterm).Build()
		}},
		{"sigterm with zero grace period", func() (shutdownmeta.Record, error) {
			return baseBuilder(shutdownmeta.TypeSigterm).GracePeriod(0).Build()
		}},
		{"sigterm with delay", func() (shutdownmeta.Record, error) {
			return baseBuilder(shutdownmeta.TypeSigterm).
				GracePeriod(time.Second).
				AllocationDelay(time.Minute).
				Build()
		}},
		{"sigterm with target", func() (shutdownmeta.Record, error) {
			return baseBuilder(shutdownmeta.TypeSigterm).
				GracePeriod(time.Second).
				TargetNodeName("node-2").
				Build()
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := tc.build(); !shutdownmeta.IsValidation(err) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestMarkedForRemoval(t *testing.T) {
	t.Parallel()

	cases := []struct {
		typ    shutdownmeta.Type
		marked bool
	}{
		{shutdownmeta.TypeRestart, false},
		{shutdownmeta.TypeRemove, true},
		{shutdownmeta.TypeReplace, true},
		{shutdownmeta.TypeSigterm, true},
	}
	for _, tc := range cases {
		if got := tc.typ.MarkedForRemoval(); got != tc.marked {
			t.Fatalf("%s: expected marked=%v, got %v", tc.typ, tc.marked, got)
		}
	}
}

func TestWithNodeSeenPreservesOtherFields(t *testing.T) {
	t.Parallel()

	rec, err := baseBuilder(shutdownmeta.TypeSigterm).GracePeriod(time.Minute).Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	seen := rec.WithNodeSeen(true)
	if !seen.NodeSeen() {
		t.Fatal("expected node_seen true")
	}
	if rec.NodeSeen() {
		t.Fatal("original record mutated")
	}
	if seen.GracePeriod() != time.Minute || seen.Type() != shutdownmeta.TypeSigterm {
		t.Fatalf("unexpected copy: %+v", seen)
	}
}

func TestParseType(t *testing.T) {
	t.Parallel()

	for _, typ := range []shutdownmeta.Type{
		shutdownmeta.TypeRestart,
		shutdownmeta.TypeRemove,
		shutdownmeta.TypeReplace,
		shutdownmeta.TypeSigterm,
	} {
		parsed, err := shutdownmeta.ParseType(typ.String())
		if err != nil {
			t.Fatalf("parse %s: %v", typ, err)
		}
		if parsed != typ {
			t.Fatalf("expected %v, got %v", typ, parsed)
		}
	}
	if _, err := shutdownmeta.ParseType("reboot"); !errors.Is(err, shutdownmeta.ErrMalformed) {
		t.Fatalf("expected malformed error, got %v", err)
	}
}
