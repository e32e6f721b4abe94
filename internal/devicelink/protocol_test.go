package devicelink

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessageRoundTrip(t *testing.T) {
	m := &Message{
		ID:          "m1",
		Op:          OpScanAck,
		Status:      "authorized",
		PetName:     "Rex",
		PortionTime: 5,
		FeedsToday:  2,
	}
	data, err := m.Encode()
	assert.NoError(t, err)
	assert.True(t, bytes.HasSuffix(data, []byte{'\n'}))

	got, err := Decode(bytes.TrimSuffix(data, []byte{'\n'}))
	assert.NoError(t, err)
	assert.Equal(t, m, got)
}

func TestDecode_MalformedFrame(t *testing.T) {
	_, err := Decode([]byte("not json"))
	assert.Error(t, err)
}
