package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLifecycle(t *testing.T) {
	cases := map[string]Lifecycle{
		"New":        LifecycleNew,
		"growth":     LifecycleGrowth,
		" STABLE ":   LifecycleStable,
		"Clearance":  LifecycleClearance,
		"":           LifecycleNew,
		"discounted": LifecycleNew,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLifecycle(in), "input %q", in)
	}
}

func TestLifecycleValid(t *testing.T) {
	for _, lc := range Lifecycles() {
		assert.True(t, lc.Valid(), string(lc))
	}
	assert.False(t, Lifecycle("growth").Valid())
	assert.False(t, Lifecycle("").Valid())
}

func TestDaysJSONSentinel(t *testing.T) {
	payload, err := json.Marshal(struct {
		D Days `json:"d"`
	}{D: NoDepletion})
	require.NoError(t, err)
	assert.JSONEq(t, `{"d":null}`, string(payload))

	var out struct {
		D Days `json:"d"`
	}
	require.NoError(t, json.Unmarshal(payload, &out))
	assert.True(t, out.D.IsInfinite())
}

func TestDaysJSONFinite(t *testing.T) {
	payload, err := json.Marshal(Days(12.5))
	require.NoError(t, err)
	assert.Equal(t, "12.5", string(payload))

	var d Days
	require.NoError(t, json.Unmarshal([]byte("10"), &d))
	assert.Equal(t, Days(10), d)
	assert.False(t, d.IsInfinite())
}
