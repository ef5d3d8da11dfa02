package imaging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/raster-tools-mcp/internal/raster"
)

func TestBrightness(t *testing.T) {
	src := grayFromRows(t, [][]uint8{{0, 100, 250}})

	out, err := Brightness(src, 10)
	require.NoError(t, err)
	assert.Equal(t, []uint8{10, 110, 255}, out.Pix)

	out, err = Brightness(src, -50)
	require.NoError(t, err)
	assert.Equal(t, []uint8{0, 50, 200}, out.Pix)

	_, err = Brightness(src, 300)
	require.Error(t, err)
}

func TestContrast(t *testing.T) {
	src := grayFromRows(t, [][]uint8{{0, 128, 255}})

	out, err := Contrast(src, 0)
	require.NoError(t, err)
	assert.Equal(t, src.Pix, out.Pix, "zero contrast is identity")

	out, err = Contrast(src, 255)
	require.NoError(t, err)
	assert.Equal(t, []uint8{0, 128, 255}, out.Pix)

	out, err = Contrast(src, -255)
	require.NoError(t, err)
	assert.Equal(t, []uint8{128, 128, 128}, out.Pix)
}

func TestSolarize(t *testing.T) {
	src := grayFromRows(t, [][]uint8{{10, 128, 129, 255}})
	out, err := Solarize(src, 128)
	require.NoError(t, err)
	assert.Equal(t, []uint8{10, 128, 126, 0}, out.Pix)
}

func TestDesaturate(t *testing.T) {
	src, err := raster.New(1, 1, 3)
	require.NoError(t, err)
	src.SetRGB(0, 0, 255, 0, 0)

	gray, err := Desaturate(src, 0)
	require.NoError(t, err)
	r, g, b := gray.RGBAt(0, 0)
	assert.Equal(t, [3]uint8{54, 54, 54}, [3]uint8{r, g, b})

	same, err := Desaturate(src, 1)
	require.NoError(t, err)
	assert.True(t, same.Equal(src))

	_, err = Desaturate(src, 1.5)
	require.Error(t, err)
}

func TestAdjust_Pipeline(t *testing.T) {
	src := grayFromRows(t, [][]uint8{{100, 200}})
	level := 150
	out, err := Adjust(src, Adjustments{Brightness: 20, Solarize: &level})
	require.NoError(t, err)
	// 100+20=120 stays, 200+20=220 solarizes to 35
	assert.Equal(t, []uint8{120, 35}, out.Pix)

	unchanged, err := Adjust(src, Adjustments{})
	require.NoError(t, err)
	assert.True(t, unchanged.Equal(src))
}
