package contracts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTierRankOrdering(t *testing.T) {
	assert.Less(t, TierRank(TierNone), TierRank(TierLow))
	assert.Less(t, TierRank(TierLow), TierRank(TierMedium))
	assert.Less(t, TierRank(TierMedium), TierRank(TierHigh))
	assert.Equal(t, TierRank("HIGH"), TierRank("high"))
	assert.Equal(t, 0, TierRank("unexpected"))
}

func TestFormatTimeUTCZ(t *testing.T) {
	loc := time.FixedZone("AKST", -9*3600)
	ts := time.Date(2026, 3, 14, 1, 30, 0, 0, loc)
	assert.Equal(t, "2026-03-14T10:30:00Z", FormatTime(ts))
	assert.Equal(t, "", FormatTimePtr(nil))
}

func TestPayloadString(t *testing.T) {
	p := Payload{"operator": "  Pioneer  ", "count": 3.0, "empty": "", "nil": nil}
	assert.Equal(t, "Pioneer", PayloadString(p, "operator"))
	assert.Equal(t, "", PayloadString(p, "count"))
	assert.Equal(t, "", PayloadString(p, "empty"))
	assert.Equal(t, "", PayloadString(p, "nil"))
	assert.Equal(t, "", PayloadString(p, "missing"))
}

func TestPayloadFloat(t *testing.T) {
	p := Payload{"ip_boed": 1250.5, "depth": "9000", "bad": "n/a", "int": 7}
	v, ok := PayloadFloat(p, "ip_boed")
	assert.True(t, ok)
	assert.Equal(t, 1250.5, v)

	v, ok = PayloadFloat(p, "depth")
	assert.True(t, ok)
	assert.Equal(t, 9000.0, v)

	_, ok = PayloadFloat(p, "bad")
	assert.False(t, ok)

	v, ok = PayloadFloat(p, "int")
	assert.True(t, ok)
	assert.Equal(t, 7.0, v)

	_, ok = PayloadFloat(p, "missing")
	assert.False(t, ok)
}

func TestPayloadStrings(t *testing.T) {
	p := Payload{
		"tickers": []any{"PR", " UUUU ", ""},
		"typed":   []string{"MP"},
	}
	assert.Equal(t, []string{"PR", "UUUU"}, PayloadStrings(p, "tickers"))
	assert.Equal(t, []string{"MP"}, PayloadStrings(p, "typed"))
	assert.Nil(t, PayloadStrings(p, "missing"))
}
