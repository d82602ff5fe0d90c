// internal/app/store/storeutil/storeutil.go
package storeutil

import (
	"errors"
	"net/url"
	"strconv"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DefaultPerPage is the page size used when a caller passes 0.
const DefaultPerPage = 25

// ErrBadID is returned when a hex string is not a valid ObjectID.
var ErrBadID = errors.New("invalid id")

// Paginate returns *options.FindOptions with skip/limit given a 1-based page.
func Paginate(limit, page int64) *options.FindOptions {
	if limit <= 0 {
		limit = DefaultPerPage
	}
	if page <= 0 {
		page = 1
	}
	return options.Find().SetLimit(limit).SetSkip((page - 1) * limit)
}

// PageInfo describes one page of a paginated list for templates.
type PageInfo struct {
	Page     int64
	PerPage  int64
	Total    int64
	PrevPage int64
	NextPage int64
	// Query is appended to pager links after the page number, e.g. "&q=ann".
	Query string
}

// NewPageInfo computes previous/next page numbers. PrevPage and NextPage
// are 0 when there is no such page.
func NewPageInfo(page, perPage, total int64) PageInfo {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	if page <= 0 {
		page = 1
	}
	pi := PageInfo{Page: page, PerPage: perPage, Total: total}
	if page > 1 {
		pi.PrevPage = page - 1
	}
	if page*perPage < total {
		pi.NextPage = page + 1
	}
	return pi
}

// WithQuery returns pi with extra pager link parameters. Empty values are
// left out.
func (pi PageInfo) WithQuery(params url.Values) PageInfo {
	for k, vs := range params {
		if len(vs) == 0 || vs[0] == "" {
			delete(params, k)
		}
	}
	if enc := params.Encode(); enc != "" {
		pi.Query = "&" + enc
	}
	return pi
}

// PrevHref is the relative link to the previous page, or "" on page one.
func (pi PageInfo) PrevHref() string { return pi.href(pi.PrevPage) }

// NextHref is the relative link to the next page, or "" on the last page.
func (pi PageInfo) NextHref() string { return pi.href(pi.NextPage) }

func (pi PageInfo) href(page int64) string {
	if page == 0 {
		return ""
	}
	return "?page=" + strconv.FormatInt(page, 10) + pi.Query
}

// ParseID converts a hex string from a URL into an ObjectID.
func ParseID(hex string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, ErrBadID
	}
	return id, nil
}

// IsDup reports whether err is a duplicate key error from a unique index.
func IsDup(err error) bool {
	return err != nil && wafflemongo.IsDup(err)
}
