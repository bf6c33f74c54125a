package shopee

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Sign 计算开放平台要求的请求签名
// 基础串为 partner_id + path + timestamp 直接拼接（无分隔符），
// API 级接口追加 access_token + shop_id，授权级接口（token 换取/刷新）不追加。
// 参数名与拼接顺序是平台合同固定的，不能改。
func Sign(partnerKey string, partnerID int64, path string, timestamp int64, accessToken string, shopID int64) string {
	base := fmt.Sprintf("%d%s%d", partnerID, path, timestamp)
	if accessToken != "" {
		base += accessToken
	}
	if shopID > 0 {
		base += fmt.Sprintf("%d", shopID)
	}

	mac := hmac.New(sha256.New, []byte(partnerKey))
	mac.Write([]byte(base))
	return hex.EncodeToString(mac.Sum(nil))
}
