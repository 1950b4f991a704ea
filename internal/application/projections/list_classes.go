package projections

import (
	"context"

	classstore "gymflow/internal/adapters/storage/class"
	"gymflow/internal/application/listutil"
	domainClass "gymflow/internal/domain/class"
)

// ClassFilterKeys are the exact-match filters the class list accepts.
var ClassFilterKeys = []string{"location", "trainer", "status"}

// ListClassesResult carries the query result.
type ListClassesResult struct {
	Classes []domainClass.Class
	Page    listutil.PageInfo
}

// ListClassesDeps holds dependencies for ListClasses.
type ListClassesDeps struct {
	ClassStore ClassStore
}

// QueryListClasses returns one page of the class table.
// PRE: params came from listutil.ParseListParams with classstore.SortColumns
// POST: Page.Total counts every match; Classes holds at most Page.PerPage rows
func QueryListClasses(ctx context.Context, params listutil.ListParams, deps ListClassesDeps) (ListClassesResult, error) {
	filter := classstore.ListFilter{
		LocationID: params.Filters["location"],
		Trainer:    params.Filters["trainer"],
		Status:     params.Filters["status"],
		From:       params.From,
		To:         params.To,
		Search:     params.Search,
		Sort:       params.Sort,
		Dir:        params.Dir,
	}

	total, err := deps.ClassStore.Count(ctx, filter)
	if err != nil {
		return ListClassesResult{}, err
	}
	page := listutil.NewPageInfo(params.Page, params.PerPage, total)
	filter.Limit = page.PerPage
	filter.Offset = page.Offset()

	classes, err := deps.ClassStore.List(ctx, filter)
	if err != nil {
		return ListClassesResult{}, err
	}
	return ListClassesResult{Classes: classes, Page: page}, nil
}
