package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONListStoresEmptyArrayForNil(t *testing.T) {
	b, err := jsonList[string](nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(b))

	b, err = jsonList([]string{"Houseboat stay", "Shikara ride"})
	require.NoError(t, err)
	assert.JSONEq(t, `["Houseboat stay","Shikara ride"]`, string(b))
}

func TestScanJSON(t *testing.T) {
	var got []string
	require.NoError(t, scanJSON([]byte(`["breakfast","transfers"]`), &got, "inclusions"))
	assert.Equal(t, []string{"breakfast", "transfers"}, got)

	require.NoError(t, scanJSON(nil, &got, "inclusions"))
	assert.Equal(t, []string{}, got)

	err := scanJSON([]byte(`{"not":"a list"}`), &got, "inclusions")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode inclusions")
}
