package handlers

import (
	"net/url"

	"github.com/gofiber/fiber/v2"
	"github.com/nicolasdagostino/a615-sub000/internal/listing"
)

// parseListQuery reads q, sort, dir, page, per_page and the table's filter
// keys from the request query string.
func parseListQuery[T any](c *fiber.Ctx, table listing.Table[T]) listing.Query {
	values, err := url.ParseQuery(string(c.Request().URI().QueryString()))
	if err != nil {
		values = url.Values{}
	}
	return listing.ParseQuery(values, table)
}
