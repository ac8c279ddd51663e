package browser

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fengxsong/douyin-crawler/pkg/errors"
)

func TestDecodeImageSrc(t *testing.T) {
	payload := []byte{0x89, 0x50, 0x4e, 0x47}
	src := "data:image/png;base64," + base64.StdEncoding.EncodeToString(payload)

	got, err := decodeImageSrc(src)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestDecodeImageSrcRejectsPlainURL(t *testing.T) {
	_, err := decodeImageSrc("https://example.com/captcha.png")
	require.Error(t, err)
	assert.True(t, errors.IsImage(err))
}

func TestDecodeImageSrcRejectsBadBase64(t *testing.T) {
	_, err := decodeImageSrc("data:image/png;base64,!!!not-base64!!!")
	require.Error(t, err)
	assert.True(t, errors.IsImage(err))
}

func TestJitterStaysInRange(t *testing.T) {
	for i := 0; i < 100; i++ {
		v := jitter(2)
		assert.GreaterOrEqual(t, v, -2.0)
		assert.LessOrEqual(t, v, 2.0)
	}
}
