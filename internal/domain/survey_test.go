package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZipRow(t *testing.T) {
	header := []string{"NAME", "DP05_0001E", "DP03_0062E"}
	values := []*string{strPtr("Mesa County, Colorado"), strPtr("158364")}

	row := ZipRow(header, values)
	require.NotNil(t, row["NAME"])
	assert.Equal(t, "158364", *row["DP05_0001E"])
	assert.Nil(t, row["DP03_0062E"], "trailing header cell without a value stays null")
}

func TestProfileRowFrom(t *testing.T) {
	row := SurveyRow{
		"NAME":        strPtr("Fruita city, Colorado"),
		"DP05_0001E":  strPtr("13985"),
		"DP04_0134E":  nil,
		"B19013_001E": strPtr("61000"), // unknown code, dropped
	}
	p := ProfileRowFrom(row)

	require.NotNil(t, p.TotalPopulation)
	assert.Equal(t, "13985", *p.TotalPopulation)
	assert.Nil(t, p.MedianGrossRent)
	assert.Nil(t, p.MedianHouseholdIncome, "absent code stays nil")
}

func TestProfileRowKeepsCodeKeyedShape(t *testing.T) {
	p := ProfileRow{Name: strPtr("Palisade town, Colorado"), TotalPopulation: strPtr("2565")}
	data, err := json.Marshal(p)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, "2565", out["DP05_0001E"])
	assert.Nil(t, out["DP04_0134E"], "absent values serialize as null")
	assert.NotContains(t, out, "DP02_0001E", "household count only appears when the detailed-table fallback filled it")
}
