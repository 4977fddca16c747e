/*
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package decode

import (
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

func decodeUint14(t *testing.T, hi, lo byte) int64 {
	t.Helper()
	var d ParamDecoder
	d.Prime(ParamSpec{Decoder: DecUint14, Primitive: PrimUint14}, -1)
	_, done, err := d.Step(hi, -1)
	require.NoError(t, err)
	require.False(t, done)
	formatted, done, err := d.Step(lo, -1)
	require.NoError(t, err)
	require.True(t, done)
	v, err := strconv.ParseInt(formatted, 10, 64)
	require.NoError(t, err)
	return v
}

func TestDecodeUint14MatchesBitFormula(t *testing.T) {
	for hi := byte(0); hi < 0x80; hi++ {
		for lo := byte(0); lo < 0x80; lo += 3 {
			got := decodeUint14(t, hi, lo)
			want := int64((uint16(hi&0x7F) << 7) | uint16(lo&0x7F))
			require.Equal(t, want, got, "hi=%02X lo=%02X", hi, lo)
		}
	}
}

func TestDecodeUint14DoesNotDoubleAccumulate(t *testing.T) {
	// Regression: the accumulator must be v = (v<<7)|b, not the source's
	// v += (v<<7)+b, which would have produced 129 here instead of 128.
	got := decodeUint14(t, 0x01, 0x00)
	require.Equal(t, int64(128), got)
}

func TestMagnitudeInt35FiveByteBoundary(t *testing.T) {
	data := []byte{0x00, 0x00, 0x00, 0x00, 0x7F}
	require.Equal(t, int64(0x7F), magnitude(data, true))

	allOnes := []byte{0x7F, 0x7F, 0x7F, 0x7F, 0x7F}
	require.Equal(t, int64(1<<35-1), magnitude(allOnes, false))
}

func TestMagnitudeSignedNegatesOnHighBit(t *testing.T) {
	data := []byte{0x40, 0x00}
	require.Equal(t, int64(0), magnitude(data, true))

	data2 := []byte{0x41, 0x00}
	require.Equal(t, int64(-128), magnitude(data2, true))
}

func TestPowerRoundTripWithinOneLSB(t *testing.T) {
	const scale = float64(0x4000) / 100.0
	for p := 0.0; p < 100.0; p += 0.5 {
		raw := uint16(math.Round(p * scale))
		data := []byte{byte(raw >> 7 & 0x7F), byte(raw & 0x7F)}
		got := float64(magnitude(data, false)) / scale
		require.InDelta(t, p, got, 1.0/scale, "p=%v", p)
	}
}

func TestRapidOptionValidValues(t *testing.T) {
	for idx, want := range RapidOptions {
		var d ParamDecoder
		d.Prime(ParamSpec{Decoder: DecRapidOption, Primitive: PrimBool7, Format: "%v"}, -1)
		got, done, err := d.Step(byte(idx), -1)
		require.NoError(t, err)
		require.True(t, done)
		require.Equal(t, want, got)
	}
}

func TestRapidOptionRejectsOutOfRange(t *testing.T) {
	var d ParamDecoder
	d.Prime(ParamSpec{Decoder: DecRapidOption, Primitive: PrimBool7}, -1)
	_, _, err := d.Step(byte(len(RapidOptions)), -1)
	require.Error(t, err)
}

func TestParamDecoderRejectsHighBitByte(t *testing.T) {
	var d ParamDecoder
	d.Prime(ParamSpec{Decoder: DecUint7, Primitive: PrimUint7}, -1)
	_, _, err := d.Step(0x80, -1)
	require.Error(t, err)
}

func TestParamDecoderMemoryAddressFormatsAsHexString(t *testing.T) {
	var d ParamDecoder
	d.Prime(ParamSpec{Format: "Addr:%s", Decoder: DecMT, Primitive: PrimMT}, -1)
	_, done, err := d.Step(0x00, -1)
	require.NoError(t, err)
	require.False(t, done)
	formatted, done, err := d.Step(0x26, -1)
	require.NoError(t, err)
	require.True(t, done)
	require.Equal(t, "Addr:0026", formatted)
	msb, lsb := d.Address()
	require.Equal(t, byte(0x00), msb)
	require.Equal(t, byte(0x26), lsb)
}

func TestParamDecoderCstringTerminatesOnNUL(t *testing.T) {
	var d ParamDecoder
	d.Prime(ParamSpec{Format: "%s", Decoder: DecCstring, Primitive: PrimCstr}, -1)
	for _, b := range []byte("RDC") {
		_, done, err := d.Step(b, -1)
		require.NoError(t, err)
		require.False(t, done)
	}
	formatted, done, err := d.Step(0x00, -1)
	require.NoError(t, err)
	require.True(t, done)
	require.Equal(t, "RDC", formatted)
}
