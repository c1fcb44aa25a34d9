package pagination

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// NoPage is used for Page.NextPage and Page.PreviousPage if there is no such page
const NoPage = -1

// Request represents the pagination parameters of a listing request.
// A PageSize of 0 (or less) requests all records as a single page.
type Request struct {
	PageSize   int `json:"paginator"`
	PageNumber int `json:"page"`
}

// Apply paginates the given records according to the request
func Apply[T any](request Request, records []T) *Page[T] {
	return Paginate(records, request.PageSize, request.PageNumber)
}

// Page represents a single page of an ordered sequence of records
type Page[T any] struct {
	Items        []T `json:"objects"`
	CurrentPage  int `json:"current"`
	TotalPages   int `json:"total_pages"`
	TotalItems   int `json:"total_objects"`
	NextPage     int `json:"next"`
	PreviousPage int `json:"previous"`
}

// Paginate slices the given ordered records into the page with the given number.
// Invalid page numbers never result in an error: numbers below 1 fall back to the first page and numbers exceeding the
// total amount of pages fall back to the last one.
func Paginate[T any](records []T, pageSize, pageNumber int) *Page[T] {
	if records == nil {
		records = []T{}
	}
	if pageSize <= 0 {
		return Window(records, len(records), pageSize, pageNumber)
	}
	_, start, end := Bounds(len(records), pageSize, pageNumber)
	return Window(records[start:end:end], len(records), pageSize, pageNumber)
}

// Bounds clamps the page number and calculates the index range of that page within total records.
// A page size of 0 (or less) results in a single page spanning all records.
func Bounds(total, pageSize, pageNumber int) (page, start, end int) {
	if pageSize <= 0 {
		return 1, 0, total
	}
	page = clamp(pageNumber, totalPages(total, pageSize))
	start = (page - 1) * pageSize
	end = total
	if total-start > pageSize {
		end = start + pageSize
	}
	return page, start, end
}

// Window builds a page out of records that were already sliced out of a sequence of total records, i.e. by a database
// query using the range computed by Bounds
func Window[T any](items []T, total, pageSize, pageNumber int) *Page[T] {
	if items == nil {
		items = []T{}
	}
	pages := totalPages(total, pageSize)
	current := clamp(pageNumber, pages)

	page := &Page[T]{
		Items:        items,
		CurrentPage:  current,
		TotalPages:   pages,
		TotalItems:   total,
		NextPage:     NoPage,
		PreviousPage: NoPage,
	}
	if current < pages {
		page.NextPage = current + 1
	}
	if current > 1 {
		page.PreviousPage = current - 1
	}
	return page
}

func totalPages(total, pageSize int) int {
	if pageSize <= 0 || total <= 0 {
		return 1
	}
	pages := total / pageSize
	if total%pageSize != 0 {
		pages++
	}
	return pages
}

func clamp(pageNumber, totalPages int) int {
	if pageNumber < 1 {
		return 1
	}
	if pageNumber > totalPages {
		return totalPages
	}
	return pageNumber
}

// Map converts the items of a page while keeping its metadata
func Map[T, U any](page *Page[T], convert func(T) U) *Page[U] {
	items := make([]U, 0, len(page.Items))
	for _, item := range page.Items {
		items = append(items, convert(item))
	}
	return &Page[U]{
		Items:        items,
		CurrentPage:  page.CurrentPage,
		TotalPages:   page.TotalPages,
		TotalItems:   page.TotalItems,
		NextPage:     page.NextPage,
		PreviousPage: page.PreviousPage,
	}
}

// ParsePageNumber parses a raw page number.
// Values that are no integer at all fall back to the first page.
func ParsePageNumber(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 1
	}
	return n
}

// ParseJSONNumber parses a raw JSON pagination parameter.
// Integral numbers and strings holding an integer are accepted; absent, null or any other value results in def.
func ParseJSONNumber(raw json.RawMessage, def int) int {
	var value any
	if len(raw) == 0 || json.Unmarshal(raw, &value) != nil {
		return def
	}
	switch typed := value.(type) {
	case float64:
		if typed != math.Trunc(typed) || typed < math.MinInt || typed >= math.MaxInt {
			return def
		}
		return int(typed)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(typed))
		if err != nil {
			return def
		}
		return n
	}
	return def
}
