package capability

import "fmt"

// Resolution reasons.
const (
	ReasonDisabled            = "disabled by configuration"
	ReasonConfiguredUnavail   = "configured providers unavailable"
	ReasonNoProvider          = "no provider declares capability"
	ReasonNoCredentials       = "no provider credentials for capability"
	ReasonNoAttachments       = "no attachments"
	ReasonCancelled           = "cancelled"
	ReasonAttachmentTooLarge  = "attachment exceeds max bytes"
	ReasonAttachmentNotLoaded = "attachment unavailable"
)

// Candidate is a (provider, model) pair the runner is willing to try. An
// empty Model is unset.
type Candidate struct {
	Provider string `json:"provider"`
	Model    string `json:"model,omitempty"`
}

// Resolution is the result of Resolve.
type Resolution struct {
	Enabled    bool
	Candidates []Candidate
	Reason     string
	// Notes lists explicit entries dropped during resolution.
	Notes []string
}

// Resolve decides whether capability c is enabled under cfg and returns the
// ordered candidates to attempt. It only reads cfg and the registry.
func Resolve(c Capability, cfg Config, reg *Registry) Resolution {
	if cfg.Enabled == ToggleOff {
		return Resolution{Reason: ReasonDisabled}
	}

	if len(cfg.Models) > 0 {
		var res Resolution
		for _, m := range cfg.Models {
			switch {
			case !reg.Has(m.Provider):
				res.Notes = append(res.Notes, fmt.Sprintf("provider %q not registered", m.Provider))
			case !reg.Supports(m.Provider, c):
				res.Notes = append(res.Notes, fmt.Sprintf("provider %q does not support %s", m.Provider, c))
			default:
				res.Candidates = append(res.Candidates, Candidate{Provider: m.Provider, Model: m.Model})
			}
		}
		if len(res.Candidates) == 0 {
			res.Reason = ReasonConfiguredUnavail
			return res
		}
		res.Enabled = true
		return res
	}

	ids := reg.ProvidersFor(c)
	if len(ids) == 0 {
		return Resolution{Reason: ReasonNoProvider}
	}
	var res Resolution
	for _, id := range ids {
		// An explicit "on" tries every declaring provider; auto needs credentials.
		if cfg.Enabled != ToggleOn && !reg.HasCredentials(id) {
			res.Notes = append(res.Notes, fmt.Sprintf("provider %q has no credentials", id))
			continue
		}
		res.Candidates = append(res.Candidates, Candidate{Provider: id})
	}
	if len(res.Candidates) == 0 {
		res.Reason = ReasonNoCredentials
		return res
	}
	res.Enabled = true
	return res
}
