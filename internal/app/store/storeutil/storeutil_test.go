package storeutil

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaginate(t *testing.T) {
	opts := Paginate(10, 3)
	assert.Equal(t, int64(10), *opts.Limit)
	assert.Equal(t, int64(20), *opts.Skip)

	opts = Paginate(0, 0)
	assert.Equal(t, int64(DefaultPerPage), *opts.Limit)
	assert.Equal(t, int64(0), *opts.Skip)
}

func TestNewPageInfo(t *testing.T) {
	pi := NewPageInfo(1, 10, 25)
	assert.Equal(t, int64(0), pi.PrevPage)
	assert.Equal(t, int64(2), pi.NextPage)

	pi = NewPageInfo(3, 10, 25)
	assert.Equal(t, int64(2), pi.PrevPage)
	assert.Equal(t, int64(0), pi.NextPage)

	pi = NewPageInfo(1, 10, 10)
	assert.Equal(t, int64(0), pi.NextPage)
}

func TestPageInfo_WithQuery(t *testing.T) {
	pi := NewPageInfo(1, 10, 25).WithQuery(url.Values{"q": {"ann"}, "status": {""}})
	assert.Equal(t, "&q=ann", pi.Query)
	assert.Equal(t, "?page=2&q=ann", pi.NextHref())
	assert.Equal(t, "", pi.PrevHref())

	pi = NewPageInfo(1, 10, 25).WithQuery(url.Values{})
	assert.Equal(t, "", pi.Query)
}

func TestParseID(t *testing.T) {
	_, err := ParseID("nope")
	assert.ErrorIs(t, err, ErrBadID)

	id, err := ParseID("65a1b2c3d4e5f60718293a4b")
	assert.NoError(t, err)
	assert.Equal(t, "65a1b2c3d4e5f60718293a4b", id.Hex())
}

func TestOptional(t *testing.T) {
	none := None[string]()
	assert.False(t, none.Present())
	assert.Equal(t, "fallback", none.Or("fallback"))

	some := Some("stored")
	v, ok := some.Get()
	assert.True(t, ok)
	assert.Equal(t, "stored", v)
	assert.Equal(t, "stored", some.Or("fallback"))

	// A present zero value is still present.
	empty := Some("")
	assert.True(t, empty.Present())
	assert.Equal(t, "", empty.Or("fallback"))
}
