package promptparse

import (
	"testing"

	"srefhub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFallback_Grammar(t *testing.T) {
	prompt := "a misty forest --sref 123 456 --ar 16:9 --s 250 --chaos 20 --seed 42 --w 100 --v 6.1 --tile"
	p := Fallback(prompt)

	require.NotNil(t, p.Sref)
	assert.Equal(t, "123 456", *p.Sref)
	assert.Equal(t, "16:9", *p.AR)
	assert.Equal(t, 250, *p.Stylize)
	assert.Equal(t, 20, *p.Chaos)
	assert.Equal(t, int64(42), *p.Seed)
	assert.Equal(t, 100, *p.Weird)
	assert.Equal(t, "6.1", string(*p.Version))
	assert.True(t, *p.Tile)
	assert.Nil(t, p.Model)
	assert.Equal(t, prompt, p.Raw)
}

func TestFallback_DropsInvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		prompt string
		check  func(t *testing.T, p models.MidjourneyParams)
	}{
		{"chaos out of range", "x --chaos 101", func(t *testing.T, p models.MidjourneyParams) { assert.Nil(t, p.Chaos) }},
		{"stylize out of range", "x --stylize 1001", func(t *testing.T, p models.MidjourneyParams) { assert.Nil(t, p.Stylize) }},
		{"weird out of range", "x --weird 3001", func(t *testing.T, p models.MidjourneyParams) { assert.Nil(t, p.Weird) }},
		{"negative seed", "x --seed -1", func(t *testing.T, p models.MidjourneyParams) { assert.Nil(t, p.Seed) }},
		{"bad ratio", "x --ar wide", func(t *testing.T, p models.MidjourneyParams) { assert.Nil(t, p.AR) }},
		{"zero ratio", "x --ar 0:9", func(t *testing.T, p models.MidjourneyParams) { assert.Nil(t, p.AR) }},
		{"non numeric sref", "x --sref abc", func(t *testing.T, p models.MidjourneyParams) { assert.Nil(t, p.Sref) }},
		{"bad version", "x --v six", func(t *testing.T, p models.MidjourneyParams) { assert.Nil(t, p.Version) }},
		{"unknown flag", "x --foo 1", func(t *testing.T, p models.MidjourneyParams) { assert.True(t, p.IsEmpty()) }},
		{"boundary values kept", "x --chaos 100 --stylize 0 --weird 3000", func(t *testing.T, p models.MidjourneyParams) {
			assert.Equal(t, 100, *p.Chaos)
			assert.Equal(t, 0, *p.Stylize)
			assert.Equal(t, 3000, *p.Weird)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Fallback(tt.prompt)
			assert.Equal(t, tt.prompt, p.Raw)
			tt.check(t, p)
		})
	}
}

func TestFallback_NijiAndDashes(t *testing.T) {
	p := Fallback("cat girl —niji 6 —ar 2:3")
	require.NotNil(t, p.Model)
	assert.Equal(t, "niji", *p.Model)
	assert.Equal(t, "6", string(*p.Version))
	assert.Equal(t, "2:3", *p.AR)

	p = Fallback("cat --niji --sref 99, --ASPECT 1:1")
	assert.Equal(t, "niji", *p.Model)
	assert.Nil(t, p.Version)
	assert.Equal(t, "99", *p.Sref)
	assert.Equal(t, "1:1", *p.AR)
}

func TestFallback_NoFlags(t *testing.T) {
	p := Fallback("just words")
	assert.True(t, p.IsEmpty())
	assert.Equal(t, "just words", p.Raw)
}

func TestDecodeParams_Lenient(t *testing.T) {
	p, err := decodeParams([]byte(`{"sref":123,"version":6.1,"chaos":"20","stylize":5000,"seed":"7","ar":"16:9","tile":true,"model":"Niji 6"}`))
	require.NoError(t, err)
	assert.Equal(t, "123", *p.Sref)
	assert.Equal(t, "6.1", string(*p.Version))
	assert.Equal(t, 20, *p.Chaos)
	assert.Nil(t, p.Stylize)
	assert.Equal(t, int64(7), *p.Seed)
	assert.Equal(t, "16:9", *p.AR)
	assert.True(t, *p.Tile)
	assert.Equal(t, "Niji 6", *p.Model)

	p, err = decodeParams([]byte(`{"sref":null,"chaos":2.5,"ar":"bad"}`))
	require.NoError(t, err)
	assert.True(t, p.IsEmpty())

	_, err = decodeParams([]byte(`not json`))
	assert.Error(t, err)
	_, err = decodeParams([]byte(` `))
	assert.Error(t, err)
}
