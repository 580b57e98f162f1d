package matching

import (
	"sort"

	"github.com/rilaconsulting/pmpulse-sub002/internal/dto"
	"github.com/rilaconsulting/pmpulse-sub002/internal/model"
)

// Signal scores one independent piece of evidence that two vendors are the
// same business. It returns a weighted contribution in [0, weight] and, when
// it fired, a human-readable reason for the review UI. New signals slot in
// without touching the pairwise contract.
type Signal func(a, b *model.Vendor) (score float64, reason string)

// Signal weights. Company name carries the most evidence; phone and email
// are fixed smaller contributions; address is a weak corroborating signal.
// The composite is capped at 1.0.
const (
	nameWeight    = 0.55
	phoneWeight   = 0.25
	emailWeight   = 0.25
	addressWeight = 0.15

	// nameReasonFloor is the normalized-name similarity below which the name
	// signal stays silent.
	nameReasonFloor = 0.85
	// addressFloor is the normalized-address similarity required for the
	// address signal to fire.
	addressFloor = 0.9
)

// Engine computes composite pairwise similarity between vendor records.
type Engine struct {
	scorer  *Scorer
	signals []Signal
}

// NewEngine builds an engine with the default signal set.
func NewEngine() *Engine {
	e := &Engine{scorer: NewScorer()}
	e.signals = []Signal{
		e.companyNameSignal,
		e.phoneSignal,
		e.emailSignal,
		e.addressSignal,
	}
	return e
}

// Score returns the composite similarity in [0, 1] plus the reasons for each
// signal that fired. Symmetric: Score(a, b) == Score(b, a).
func (e *Engine) Score(a, b *model.Vendor) (float64, []string) {
	total := 0.0
	var reasons []string
	for _, sig := range e.signals {
		s, reason := sig(a, b)
		if s <= 0 {
			continue
		}
		total += s
		if reason != "" {
			reasons = append(reasons, reason)
		}
	}
	if total > 1.0 {
		total = 1.0
	}
	return total, reasons
}

// FindPotentialDuplicates scores every unordered pair of the given vendors
// (assumed to already be the canonical set), keeps pairs at or above the
// threshold, sorts by similarity descending (stable, so ties keep input
// order), and truncates to limit. O(n²) — callers run this off the request
// path.
func (e *Engine) FindPotentialDuplicates(vendors []model.Vendor, threshold float64, limit int) []dto.DuplicateMatch {
	var matches []dto.DuplicateMatch
	for i := 0; i < len(vendors); i++ {
		for j := i + 1; j < len(vendors); j++ {
			score, reasons := e.Score(&vendors[i], &vendors[j])
			if score < threshold {
				continue
			}
			matches = append(matches, dto.DuplicateMatch{
				Vendor1:      summarize(&vendors[i]),
				Vendor2:      summarize(&vendors[j]),
				Similarity:   score,
				MatchReasons: reasons,
			})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

func summarize(v *model.Vendor) dto.VendorSummary {
	return dto.VendorSummary{
		ID:          v.ID.String(),
		CompanyName: v.CompanyName,
		ContactName: v.ContactName,
		Email:       v.Email,
		Phone:       v.Phone,
		Trades:      v.Trades,
	}
}

// ─── Signals ─────────────────────────────────────────────────────────────────

func (e *Engine) companyNameSignal(a, b *model.Vendor) (float64, string) {
	na := NormalizeCompanyName(a.CompanyName)
	nb := NormalizeCompanyName(b.CompanyName)
	if na == "" || nb == "" {
		return 0, ""
	}
	sim := e.scorer.NameSimilarity(na, nb)
	if sim < nameReasonFloor {
		return 0, ""
	}
	if na == nb {
		return nameWeight, "Same company name"
	}
	return nameWeight * sim, "Similar company name"
}

func (e *Engine) phoneSignal(a, b *model.Vendor) (float64, string) {
	if a.Phone == nil || b.Phone == nil {
		return 0, ""
	}
	pa := NormalizePhone(*a.Phone)
	pb := NormalizePhone(*b.Phone)
	if pa == "" || pa != pb {
		return 0, ""
	}
	return phoneWeight, "Same phone number"
}

// emailSignal requires the exact same address. A shared free-mail domain is
// not evidence of duplication, so those matches are suppressed entirely.
func (e *Engine) emailSignal(a, b *model.Vendor) (float64, string) {
	if a.Email == nil || b.Email == nil {
		return 0, ""
	}
	ea := NormalizeEmail(*a.Email)
	eb := NormalizeEmail(*b.Email)
	if ea == "" || ea != eb {
		return 0, ""
	}
	if IsFreeMail(ea) {
		return 0, ""
	}
	return emailWeight, "Same email address"
}

func (e *Engine) addressSignal(a, b *model.Vendor) (float64, string) {
	if a.AddressLine1 == nil || b.AddressLine1 == nil {
		return 0, ""
	}
	na := NormalizeAddress(*a.AddressLine1)
	nb := NormalizeAddress(*b.AddressLine1)
	if na == "" || nb == "" {
		return 0, ""
	}
	if e.scorer.JaroWinkler(na, nb) < addressFloor {
		return 0, ""
	}
	return addressWeight, "Similar address"
}
