package shopee

import "testing"

func TestChunk_PreservesOrder(t *testing.T) {
	ids := make([]string, 45)
	for i := range ids {
		ids[i] = string(rune('A' + i%26))
	}

	chunks := Chunk(ids, 20)
	if len(chunks) != 3 {
		t.Fatalf("块数 = %d, want 3", len(chunks))
	}
	if len(chunks[0]) != 20 || len(chunks[1]) != 20 || len(chunks[2]) != 5 {
		t.Errorf("块大小 = %d/%d/%d, want 20/20/5", len(chunks[0]), len(chunks[1]), len(chunks[2]))
	}

	// 拼回去应与原序列逐项一致
	idx := 0
	for _, chunk := range chunks {
		for _, v := range chunk {
			if v != ids[idx] {
				t.Fatalf("第 %d 项 = %s, want %s", idx, v, ids[idx])
			}
			idx++
		}
	}
}

func TestChunk_ExactMultiple(t *testing.T) {
	chunks := Chunk([]int64{1, 2, 3, 4}, 2)
	if len(chunks) != 2 {
		t.Fatalf("块数 = %d, want 2", len(chunks))
	}
	if len(chunks[1]) != 2 {
		t.Errorf("末块大小 = %d, want 2", len(chunks[1]))
	}
}

func TestChunk_Empty(t *testing.T) {
	if chunks := Chunk([]string{}, 20); chunks != nil {
		t.Errorf("空输入应返回 nil, got %v", chunks)
	}
	if chunks := Chunk([]string{"a"}, 0); chunks != nil {
		t.Errorf("非法 size 应返回 nil, got %v", chunks)
	}
}
