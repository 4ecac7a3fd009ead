package capability_test

import (
	"context"
	"fmt"
	"testing"

	"pgregory.net/rapid"

	"github.com/BaSui01/capflow/llm/capability"
	"github.com/BaSui01/capflow/testutil/fixtures"
	"github.com/BaSui01/capflow/testutil/mocks"
	"github.com/BaSui01/capflow/types"
)

// Property: for any mix of failing attachments the decision counts agree with
// the outputs and the outcome follows from them.
func TestProperty_RunOutcomeMatchesCounts(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 8).Draw(rt, "attachments")
		failing := rapid.SliceOfDistinct(rapid.IntRange(0, n-1), func(i int) int { return i }).Draw(rt, "failing")
		concurrency := rapid.IntRange(0, 4).Draw(rt, "concurrency")

		fail := make(map[string]bool, len(failing))
		for _, i := range failing {
			fail[fmt.Sprintf("clip-%d", i)] = true
		}
		p := mocks.NewMockCapabilityProvider("openai", capability.CapabilityAudio).
			WithAudioFunc(func(_ context.Context, req *capability.AudioRequest) (*capability.AudioResult, error) {
				if fail[string(req.Data)] {
					return nil, types.NewProviderError("openai", types.ProviderErrUpstream, "failed "+string(req.Data))
				}
				return &capability.AudioResult{Text: string(req.Data)}, nil
			})
		runner := capability.NewRunner(capability.NewRegistry().MustRegister("openai", p))

		cfg := capability.DefaultConfig(capability.CapabilityAudio)
		cfg.Concurrency = concurrency
		res := runner.Run(context.Background(), capability.CapabilityAudio, cfg, fixtures.AudioAttachments(n))
		dec := res.Decision

		if len(res.Outputs) != dec.Succeeded {
			rt.Fatalf("outputs %d != succeeded %d", len(res.Outputs), dec.Succeeded)
		}
		if dec.Total != n || dec.Succeeded != n-len(failing) {
			rt.Fatalf("counts: total %d succeeded %d, want %d/%d", dec.Total, dec.Succeeded, n, n-len(failing))
		}
		if len(dec.Attachments) != n {
			rt.Fatalf("attachment decisions %d, want %d", len(dec.Attachments), n)
		}
		for i := 1; i < len(res.Outputs); i++ {
			if res.Outputs[i-1].AttachmentIndex >= res.Outputs[i].AttachmentIndex {
				rt.Fatalf("outputs out of order: %+v", res.Outputs)
			}
		}

		switch {
		case dec.Succeeded == n:
			if dec.Outcome != capability.OutcomeSuccess || dec.Partial || dec.Reason != "" {
				rt.Fatalf("full success decision: %+v", dec)
			}
		case dec.Succeeded == 0:
			if dec.Outcome != capability.OutcomeError || dec.Partial {
				rt.Fatalf("total failure decision: %+v", dec)
			}
		default:
			if dec.Outcome != capability.OutcomeSuccess || !dec.Partial {
				rt.Fatalf("partial decision: %+v", dec)
			}
		}

		// The reported reason belongs to the lowest failing attachment.
		if len(failing) > 0 {
			lowest := n
			for _, i := range failing {
				lowest = min(lowest, i)
			}
			if want := fmt.Sprintf("failed clip-%d", lowest); dec.Reason != want {
				rt.Fatalf("reason %q, want %q", dec.Reason, want)
			}
		}
	})
}

// Property: candidates are always tried in resolution order and the first
// success stops the walk.
func TestProperty_CandidateOrder(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		k := rapid.IntRange(1, 5).Draw(rt, "providers")
		firstOK := rapid.IntRange(0, k).Draw(rt, "firstOK")

		reg := capability.NewRegistry()
		providers := make([]*mocks.MockCapabilityProvider, k)
		for i := range providers {
			id := fmt.Sprintf("p%d", i)
			p := mocks.NewMockCapabilityProvider(id, capability.CapabilityAudio)
			if i < firstOK {
				p.WithError(types.NewProviderError(id, types.ProviderErrUpstream, "down"))
			}
			providers[i] = p
			reg.MustRegister(id, p)
		}

		res := capability.NewRunner(reg).Run(context.Background(), capability.CapabilityAudio,
			capability.DefaultConfig(capability.CapabilityAudio), []capability.Attachment{fixtures.AudioAttachment()})

		attempts := res.Decision.Attachments[0].Attempts
		wantAttempts := min(firstOK+1, k)
		if len(attempts) != wantAttempts {
			rt.Fatalf("attempts %d, want %d", len(attempts), wantAttempts)
		}
		for i, a := range attempts {
			if a.Provider != fmt.Sprintf("p%d", i) {
				rt.Fatalf("attempt %d went to %s", i, a.Provider)
			}
		}
		for i, p := range providers {
			want := 0
			if i <= firstOK {
				want = 1
			}
			if p.CallCount() != want {
				rt.Fatalf("provider p%d called %d times, want %d", i, p.CallCount(), want)
			}
		}
		if firstOK < k {
			if res.Decision.Outcome != capability.OutcomeSuccess || res.Decision.Provider != fmt.Sprintf("p%d", firstOK) {
				rt.Fatalf("decision %+v", res.Decision)
			}
		} else if res.Decision.Outcome != capability.OutcomeError || res.Decision.Reason != "down" {
			rt.Fatalf("decision %+v", res.Decision)
		}
	})
}
