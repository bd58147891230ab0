//go:build property
// +build property

package hashing_test

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/2gfhixs/OGREE/pkg/hashing"
)

// TestContentHashDeterminism verifies content hashing is a pure function.
// Property: ContentHash(p) == ContentHash(p) for any payload p.
func TestContentHashDeterminism(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("content hash is deterministic", prop.ForAll(
		func(keys []string, values []string) bool {
			payload := make(map[string]any)
			for i := 0; i < len(keys) && i < len(values); i++ {
				if keys[i] != "" {
					payload[keys[i]] = values[i]
				}
			}
			h1, err1 := hashing.ContentHash(payload)
			h2, err2 := hashing.ContentHash(payload)
			if err1 != nil || err2 != nil {
				return err1 != nil && err2 != nil
			}
			return h1 == h2
		},
		gen.SliceOf(gen.AlphaString()),
		gen.SliceOf(gen.AlphaString()),
	))

	properties.TestingRun(t)
}

// TestAlertIDLength verifies the alert id is always 24 hex chars.
func TestAlertIDLength(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("alert ids are 24 hex chars", prop.ForAll(
		func(doc, tier, eventType string) bool {
			id := hashing.AlertID(doc, tier, eventType)
			if len(id) != 24 {
				return false
			}
			for _, ch := range id {
				if !((ch >= '0' && ch <= '9') || (ch >= 'a' && ch <= 'f')) {
					return false
				}
			}
			return true
		},
		gen.AnyString(),
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
