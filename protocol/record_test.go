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

package protocol

import (
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseRecordLineRoundTrips(t *testing.T) {
	line := "0.001\t40200,12345\t12\tc6010203"
	rec, err := parseRecordLine(line)
	require.NoError(t, err)
	require.Equal(t, 40200, rec.ToPort)
	require.Equal(t, 12345, rec.FromPort)
	require.Equal(t, 12, rec.UDPLength)
	require.Equal(t, []byte{0xc6, 0x01, 0x02, 0x03}, rec.PayloadByte)
}

func TestParseRecordLineRejectsWrongFieldCount(t *testing.T) {
	_, err := parseRecordLine("0.001\t40200,12345\tc6010203")
	require.Error(t, err)
}

func TestParseRecordLineRejectsLengthMismatch(t *testing.T) {
	_, err := parseRecordLine("0.001\t40200,12345\t99\tc6010203")
	require.Error(t, err)
}

func TestFileSourceReadsRecordsAndResets(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "records")
	require.NoError(t, err)
	_, err = f.WriteString("0.001\t40200,12345\t9\tc6\n0.002\t12345,40200\t9\t88\n")
	require.NoError(t, err)
	_, err = f.Seek(0, 0)
	require.NoError(t, err)

	src := NewFileSource(f)
	rec1, err := src.NextRecord()
	require.NoError(t, err)
	require.Equal(t, []byte{0xc6}, rec1.PayloadByte)

	require.NoError(t, src.Reset())
	rec1again, err := src.NextRecord()
	require.NoError(t, err)
	require.Equal(t, rec1.PayloadByte, rec1again.PayloadByte)
}

func TestLiveTextSourceResetIsNoOp(t *testing.T) {
	r, w := io.Pipe()
	go func() {
		w.Write([]byte("0.001\t40200,12345\t9\tc6\n"))
		w.Close()
	}()
	src := NewLiveTextSource(r)
	require.NoError(t, src.Reset())
}
