// Package balancesource abstracts external platforms that can report a total
// account balance. Each platform implements the single-method Source
// capability; the sync engine stays agnostic of platform protocols.
package balancesource

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"
)

// Result carries the outcome of a balance fetch. The external contract is a
// plain USD number: failures degrade to zero instead of propagating, but
// Degraded and Reason keep "fetch failed" distinguishable from a genuinely
// empty account in logs and tests.
type Result struct {
	Balance  float64
	Degraded bool
	Reason   string
}

// Ok builds a successful result.
func Ok(balance float64) Result {
	return Result{Balance: balance}
}

// Degraded builds a zero-balance result recording why the fetch failed.
func Degraded(reason string) Result {
	return Result{Degraded: true, Reason: reason}
}

// Source fetches a platform's total balance in USD. Implementations never
// return an error: transport, auth and parse failures all degrade to zero so
// one platform can never abort a household's sync pass.
type Source interface {
	FetchBalance(ctx context.Context) Result
}

// Constructor builds a Source from an integration's credential pair.
type Constructor func(apiKey, apiSecret string, log zerolog.Logger) Source

var registry = map[string]Constructor{}

// Register adds a platform constructor. Called from package init functions;
// not safe for concurrent use after startup.
func Register(platform string, ctor Constructor) {
	registry[platform] = ctor
}

// New instantiates the Source for a platform tag.
func New(platform, apiKey, apiSecret string, log zerolog.Logger) (Source, error) {
	ctor, ok := registry[platform]
	if !ok {
		return nil, fmt.Errorf("unknown platform: %s", platform)
	}
	return ctor(apiKey, apiSecret, log), nil
}

// Platforms lists the registered platform tags, sorted.
func Platforms() []string {
	tags := make([]string, 0, len(registry))
	for tag := range registry {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}
