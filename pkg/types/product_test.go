// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItemRecordPriceIsJSONNumber(t *testing.T) {
	it := ItemRecord{URL: "https://blinkit.com/prn/a", Available: true, Price: decimal.RequireFromString("45.5")}

	data, err := json.Marshal(it)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"price":45.5`)

	var back ItemRecord
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, back.Price.Equal(it.Price))
}
