package qrcode

import (
	"bytes"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayload(t *testing.T) {
	got := Payload("0c7e", "Ada Love Lace", "Web Development Basics")
	assert.Equal(t, "Registration ID: 0c7e\nName: Ada Love Lace\nCourse: Web Development Basics", got)
}

func TestEncodeProducesPNG(t *testing.T) {
	enc := NewEncoder(0)
	data, err := enc.Encode(Payload("id-1", "Ada Lovelace", "Content Creation Basics"))
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, DefaultSize, img.Bounds().Dx())
}

func TestDataURLRoundTrip(t *testing.T) {
	data, err := NewEncoder(128).Encode("hello")
	require.NoError(t, err)

	url := DataURL(data)
	assert.True(t, strings.HasPrefix(url, "data:image/png;base64,"))

	back, err := DecodeDataURL(url)
	require.NoError(t, err)
	assert.Equal(t, data, back)
}

func TestDecodeDataURLRejectsOtherValues(t *testing.T) {
	_, err := DecodeDataURL("data:image/jpeg;base64,AAAA")
	assert.ErrorIs(t, err, ErrNotPNGDataURL)

	_, err = DecodeDataURL(DataURLPrefix + "%%%")
	assert.Error(t, err)
}
