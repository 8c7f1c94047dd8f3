package workflow

import (
	"bytes"
	"log/slog"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/onnwee/docflow/internal/audit"
)

// genTarget yields lifecycle states plus names outside the lifecycle.
func genTarget() gopter.Gen {
	return gen.OneConstOf(
		StateDraft, StateReview, StateApproved, StateArchived,
		State(""), State("Rejected"), State("review"),
	)
}

func quietController() (*Controller, *recordingSink) {
	sink := &recordingSink{}
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	return NewController(sink, WithLogger(logger)), sink
}

// TestTransitionProperties checks the state machine over random request sequences.
func TestTransitionProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("accepted iff target is the immediate successor", prop.ForAll(
		func(targets []State) bool {
			c, _ := quietController()
			for _, target := range targets {
				before := c.Current()
				entry := c.RequestTransition(target)
				legal := target.Valid() && target.Index() == before.Index()+1

				if legal != (entry.Severity == audit.SeveritySuccess) {
					return false
				}
				if legal && c.Current() != target {
					return false
				}
				if !legal && c.Current() != before {
					return false
				}
			}
			return true
		},
		gen.SliceOf(genTarget(), reflect.TypeOf(State(""))),
	))

	properties.Property("state only moves forward one step at a time", prop.ForAll(
		func(targets []State) bool {
			c, _ := quietController()
			prev := c.Current().Index()
			for _, target := range targets {
				c.RequestTransition(target)
				cur := c.Current().Index()
				if cur < 0 || cur < prev || cur > prev+1 {
					return false
				}
				prev = cur
			}
			return true
		},
		gen.SliceOf(genTarget(), reflect.TypeOf(State(""))),
	))

	properties.Property("exactly one entry per request", prop.ForAll(
		func(targets []State) bool {
			c, sink := quietController()
			for _, target := range targets {
				c.RequestTransition(target)
			}
			return len(sink.Entries()) == len(targets)+1
		},
		gen.SliceOf(genTarget(), reflect.TypeOf(State(""))),
	))

	properties.Property("signature outcome never changes state", prop.ForAll(
		func(username, password, meaning string, steps int) bool {
			c, _ := quietController()
			for i := 0; i < steps; i++ {
				if next, ok := c.Next(); ok {
					c.RequestTransition(next)
				}
			}
			before := c.Current()
			entry := c.ApplySignature(SignatureAttempt{Username: username, Password: password, Meaning: meaning})

			_, wantOK := SignatureAttempt{Username: username, Password: password}.valid()
			if wantOK != (entry.Severity == audit.SeveritySuccess) {
				return false
			}
			return c.Current() == before
		},
		gen.AlphaString(),
		gen.AlphaString(),
		gen.AlphaString(),
		gen.IntRange(0, 4),
	))

	properties.TestingRun(t)
}
