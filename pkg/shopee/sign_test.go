package shopee

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

func hmacHex(key, base string) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(base))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestSign_AuthLevel(t *testing.T) {
	// 授权级：基础串只有 partner_id + path + timestamp
	got := Sign("secret-key", 123456, "/api/v2/auth/token/get", 1700000000, "", 0)
	want := hmacHex("secret-key", "123456/api/v2/auth/token/get1700000000")

	if got != want {
		t.Errorf("Sign() = %s, want %s", got, want)
	}
}

func TestSign_APILevel(t *testing.T) {
	// API 级：追加 access_token + shop_id
	got := Sign("secret-key", 123456, "/api/v2/order/get_order_list", 1700000000, "token-abc", 789)
	want := hmacHex("secret-key", "123456/api/v2/order/get_order_list1700000000token-abc789")

	if got != want {
		t.Errorf("Sign() = %s, want %s", got, want)
	}
}

func TestSign_Deterministic(t *testing.T) {
	a := Sign("k", 1, "/p", 100, "t", 2)
	b := Sign("k", 1, "/p", 100, "t", 2)
	if a != b {
		t.Error("相同输入应产生相同签名")
	}

	c := Sign("k2", 1, "/p", 100, "t", 2)
	if a == c {
		t.Error("不同 partner key 应产生不同签名")
	}
}
