package pagination

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/solsticehq/core/internal/pkg/response"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	DefaultPage = 1
	DefaultSize = 10
	MaxSize     = 100
)

// Query holds parsed pagination parameters.
type Query struct {
	Page int
	Size int
}

// FromContext extracts and validates pagination params from the request.
func FromContext(c *gin.Context) Query {
	page := parseIntOr(c.DefaultQuery("page", "1"), DefaultPage)
	size := parseIntOr(c.DefaultQuery("size", "10"), DefaultSize)

	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = DefaultSize
	}
	if size > MaxSize {
		size = MaxSize
	}

	return Query{Page: page, Size: size}
}

// Skip returns the document offset for the query.
func (q Query) Skip() int64 { return int64(q.Page-1) * int64(q.Size) }

// Meta builds the pagination metadata for a total document count.
func (q Query) Meta(total int64) response.Pagination {
	totalPage := int((total + int64(q.Size) - 1) / int64(q.Size))
	return response.Pagination{
		Total:       total,
		CurrentPage: q.Page,
		TotalPage:   totalPage,
		Size:        q.Size,
		HasNextPage: q.Page < totalPage,
	}
}

// Find runs a counted, paged query against a Mongo collection.
func Find[T any](ctx context.Context, coll *mongo.Collection, filter interface{}, q Query, opts ...*options.FindOptions) ([]T, response.Pagination, error) {
	total, err := coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, response.Pagination{}, err
	}

	findOpts := options.Find().SetSkip(q.Skip()).SetLimit(int64(q.Size))
	opts = append(opts, findOpts)
	cursor, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, response.Pagination{}, err
	}

	items := make([]T, 0, q.Size)
	if err := cursor.All(ctx, &items); err != nil {
		return nil, response.Pagination{}, err
	}
	return items, q.Meta(total), nil
}

func parseIntOr(s string, def int) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
