package shopee

import "context"

// DefaultMaxPages 单次遍历的页数上限
// 平台若因 bug 一直报告 more=true，遍历不能无限跑下去
const DefaultMaxPages = 200

// CursorPage 游标分页的单页结果
type CursorPage[T any] struct {
	Items      []T
	More       bool
	NextCursor string
}

// OffsetPage 偏移量分页的单页结果
type OffsetPage[T any] struct {
	Items      []T
	HasNext    bool
	NextOffset int
}

// WalkCursor 从空游标开始遍历列表接口，聚合所有条目
// 每次完整遍历都从头开始，游标不跨运行持久化。
// 达到 maxPages 上限仍有下一页时，返回已收集的条目和 *TruncatedError。
func WalkCursor[T any](ctx context.Context, maxPages int, fetch func(ctx context.Context, cursor string) (CursorPage[T], error)) ([]T, error) {
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}

	var all []T
	cursor := ""

	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return all, err
		}

		p, err := fetch(ctx, cursor)
		if err != nil {
			return all, err
		}
		all = append(all, p.Items...)

		if !p.More {
			return all, nil
		}
		if page >= maxPages {
			return all, &TruncatedError{Pages: page}
		}
		cursor = p.NextCursor
	}
}

// WalkOffset 数字偏移量版本，商品列表接口使用
func WalkOffset[T any](ctx context.Context, maxPages int, fetch func(ctx context.Context, offset int) (OffsetPage[T], error)) ([]T, error) {
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}

	var all []T
	offset := 0

	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return all, err
		}

		p, err := fetch(ctx, offset)
		if err != nil {
			return all, err
		}
		all = append(all, p.Items...)

		if !p.HasNext {
			return all, nil
		}
		if page >= maxPages {
			return all, &TruncatedError{Pages: page}
		}
		offset = p.NextOffset
	}
}
