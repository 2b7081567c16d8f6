package router

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseCatalogueOrderAndModes(t *testing.T) {
	src := `
# comment lines and blanks are ignored

layout START
elevation CONTINUOUS
load1 ECON
speedbrake DELTA
mcpmom BIGMOM
`
	cat, err := ParseCatalogue(strings.NewReader(src))
	require.NoError(t, err)
	require.Equal(t, []string{"layout", "elevation", "load1", "speedbrake", "mcpmom"}, cat.Order())
	require.Equal(t, ModeStart, cat.ModeOf("layout"))
	require.Equal(t, ModeBigMom, cat.ModeOf("mcpmom"))
	require.True(t, cat.Known("speedbrake"))
	require.False(t, cat.Known("nonexistent"))
}

func TestParseCatalogueRejectsUnknownMode(t *testing.T) {
	_, err := ParseCatalogue(strings.NewReader("foo BOGUS\n"))
	require.Error(t, err)
}

func TestParseCatalogueRejectsMalformedLine(t *testing.T) {
	_, err := ParseCatalogue(strings.NewReader("onlyonefield\n"))
	require.Error(t, err)
}

func TestCatalogueLaterDeclarationWinsButKeepsPosition(t *testing.T) {
	src := `
a ECON
b DELTA
a CONTINUOUS
`
	cat, err := ParseCatalogue(strings.NewReader(src))
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, cat.Order())
	require.Equal(t, ModeContinuous, cat.ModeOf("a"))
}

func TestEffectiveModeDefaultsUnknownToECON(t *testing.T) {
	cat := NewCatalogue()
	require.Equal(t, ModeUnknown, cat.ModeOf("ghost"))
	require.Equal(t, ModeECON, cat.EffectiveMode("ghost"))
}

func TestModeCacheableAndForwardAsECON(t *testing.T) {
	require.False(t, ModeDelta.Cacheable())
	require.True(t, ModeECON.Cacheable())
	require.True(t, ModeStartECON.ForwardAsECON())
	require.True(t, ModeBigMom.ForwardAsECON())
	require.False(t, ModeContinuous.ForwardAsECON())
	require.True(t, ModeStart.PureStart())
	require.True(t, ModeDelta.PureDelta())
}
