package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKindNames(t *testing.T) {
	for _, k := range AllKinds() {
		got, err := ParseKind(string(k))
		require.NoError(t, err, k)
		assert.Equal(t, k, got)
	}
}

func TestParseKindCodes(t *testing.T) {
	tests := []struct {
		in   string
		want Kind
	}{
		{"1", KindCreate},
		{"2", KindStart},
		{"08", KindSend},
		{"9", KindReceive},
		{"20", KindNotifyAll},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseKind(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseKindRejectsUnknown(t *testing.T) {
	for _, in := range []string{"", "0", "21", "snd", "FORK", "8x"} {
		_, err := ParseKind(in)
		assert.Error(t, err, "input %q", in)
	}
}

func TestKindCodeRoundTrip(t *testing.T) {
	for i, k := range AllKinds() {
		assert.Equal(t, i+1, k.Code())
	}
	assert.Equal(t, 0, Kind("FORK").Code())
}

func TestKindIsOpener(t *testing.T) {
	openers := map[Kind]bool{KindConnect: true, KindSend: true, KindCreate: true, KindEnd: true}
	for _, k := range AllKinds() {
		assert.Equal(t, openers[k], k.IsOpener(), k)
	}
}

func TestDecodeFields(t *testing.T) {
	f, err := DecodeFields(KindSend, []byte(`{"timestamp":10,"socket":"s1","src":"10.0.0.1","src_port":80,"message":"hi"}`))
	require.NoError(t, err)

	stream, ok := f.(StreamFields)
	require.True(t, ok)
	assert.Equal(t, int64(10), stream.Time())
	assert.Equal(t, "s1", stream.Socket)
	assert.Equal(t, int64(80), stream.SrcPort)
	assert.Equal(t, "hi", stream.Message)

	f, err = DecodeFields(KindLog, []byte(`{"timestamp":1,"message":"boot"}`))
	require.NoError(t, err)
	assert.Equal(t, LogFields{Timestamp: 1, Message: "boot"}, f)

	_, err = DecodeFields(Kind("FORK"), []byte(`{}`))
	assert.Error(t, err)
}
