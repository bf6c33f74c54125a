package shopee

// Chunk 按 size 切分 ID 列表，保持原有顺序
// 不同详情接口的单次上限不同（订单详情 20，设置类查询 100），
// 所以分块大小是调用方参数而不是全局常量。
func Chunk[T any](items []T, size int) [][]T {
	if size <= 0 || len(items) == 0 {
		return nil
	}

	out := make([][]T, 0, (len(items)+size-1)/size)
	for i := 0; i < len(items); i += size {
		end := i + size
		if end > len(items) {
			end = len(items)
		}
		out = append(out, items[i:end])
	}
	return out
}
