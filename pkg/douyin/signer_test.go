package douyin

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fengxsong/douyin-crawler/pkg/errors"
)

// fakeEvaluator signs deterministically so tests can inspect the query the
// signer produced.
type fakeEvaluator struct {
	lastQuery     string
	lastUserAgent string
	err           error
}

func (f *fakeEvaluator) Sign(query, userAgent string) (string, error) {
	f.lastQuery = query
	f.lastUserAgent = userAgent
	if f.err != nil {
		return "", f.err
	}
	return fmt.Sprintf("sig-%d", len(query)), nil
}

func TestParamsPreservesInsertionOrder(t *testing.T) {
	p := NewParams()
	p.Set("zebra", "1")
	p.Set("apple", "2")
	p.Set("mango", "3")

	assert.Equal(t, "zebra=1&apple=2&mango=3", p.Encode())

	// Overwriting keeps the original position.
	p.Set("apple", "9")
	assert.Equal(t, "zebra=1&apple=9&mango=3", p.Encode())
}

func TestSignMergesCommonParamsAndAppendsSignature(t *testing.T) {
	ev := &fakeEvaluator{}
	s := NewSigner(ev)

	p := NewParams()
	p.Set("aweme_id", "7306880126984211724")
	require.NoError(t, s.Sign(p, "test-agent"))

	assert.True(t, p.Has("X-Bogus"))
	assert.Equal(t, "webapp", p.Get("device_platform"))
	assert.Equal(t, "6383", p.Get("aid"))
	assert.Equal(t, "test-agent", ev.lastUserAgent)

	// Caller params come first, X-Bogus is appended last and is not part
	// of the signed query.
	assert.True(t, strings.HasPrefix(p.Encode(), "aweme_id="))
	assert.True(t, strings.HasSuffix(p.Encode(), "X-Bogus="+p.Get("X-Bogus")))
	assert.NotContains(t, ev.lastQuery, "X-Bogus")
}

func TestSignEmptyParamsPassThrough(t *testing.T) {
	ev := &fakeEvaluator{}
	s := NewSigner(ev)

	p := NewParams()
	require.NoError(t, s.Sign(p, "test-agent"))
	assert.Equal(t, 0, p.Len())
	assert.Empty(t, ev.lastQuery)

	require.NoError(t, s.Sign(nil, "test-agent"))
}

func TestSignIsNotIdempotent(t *testing.T) {
	s := NewSigner(&fakeEvaluator{})

	p := NewParams()
	p.Set("aweme_id", "123")
	require.NoError(t, s.Sign(p, "ua"))
	first := p.Get("X-Bogus")

	// A second pass signs a query that already contains the first
	// signature, producing a different, invalid value.
	require.NoError(t, s.Sign(p, "ua"))
	assert.NotEqual(t, first, p.Get("X-Bogus"))
}

func TestSignEvaluatorFailure(t *testing.T) {
	s := NewSigner(&fakeEvaluator{err: errors.Signing("vm crashed", nil)})

	p := NewParams()
	p.Set("aweme_id", "123")
	err := s.Sign(p, "ua")
	require.Error(t, err)
	assert.True(t, errors.IsSigning(err))
	assert.False(t, p.Has("X-Bogus"))
}

func TestGojaEvaluator(t *testing.T) {
	ev, err := NewGojaEvaluator()
	require.NoError(t, err)

	sig1, err := ev.Sign("aweme_id=123&cursor=0", "ua-one")
	require.NoError(t, err)
	assert.NotEmpty(t, sig1)

	// Deterministic for identical input.
	again, err := ev.Sign("aweme_id=123&cursor=0", "ua-one")
	require.NoError(t, err)
	assert.Equal(t, sig1, again)

	// Sensitive to both query and user agent.
	sig2, err := ev.Sign("aweme_id=124&cursor=0", "ua-one")
	require.NoError(t, err)
	assert.NotEqual(t, sig1, sig2)

	sig3, err := ev.Sign("aweme_id=123&cursor=0", "ua-two")
	require.NoError(t, err)
	assert.NotEqual(t, sig1, sig3)
}
