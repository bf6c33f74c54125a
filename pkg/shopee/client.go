package shopee

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
)

// ==================== 凭证存储 ====================

// Credential 店铺授权凭证
type Credential struct {
	AccessToken           string
	RefreshToken          string
	AccessTokenExpiresAt  time.Time
	RefreshTokenExpiresAt time.Time
}

// CredentialStore 凭证存储接口，按平台 shop_id 维度读写
// 唯一的写入方是客户端内部的 token 刷新，以及授权回调
type CredentialStore interface {
	GetToken(ctx context.Context, shopID int64) (*Credential, error)
	SaveToken(ctx context.Context, shopID int64, cred *Credential) error
}

// ==================== 客户端 ====================

// Config 客户端配置
type Config struct {
	PartnerID  int64
	PartnerKey string
	BaseURL    string // 如 https://partner.shopeemobile.com
	Timeout    time.Duration
}

// Client 带签名的开放平台客户端
// 每个出站请求自动携带 partner_id/timestamp/sign，
// API 级调用额外携带 access_token/shop_id，并在 token 失效时刷新一次后重试一次。
type Client struct {
	cfg   Config
	http  *resty.Client
	creds CredentialStore

	// 按店铺维度的刷新互斥锁，防止并发刷新互相覆盖 refresh token
	refreshLocks sync.Map // shopID -> *sync.Mutex
}

// NewClient 创建客户端
func NewClient(cfg Config, creds CredentialStore) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 20 * time.Second
	}

	httpClient := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", "Shopee-Go-App/1.0")

	return &Client{
		cfg:   cfg,
		http:  httpClient,
		creds: creds,
	}
}

// 响应外壳：API 级接口载荷在 response 字段，错误码在顶层
type envelope struct {
	Error     string          `json:"error"`
	Message   string          `json:"message"`
	RequestID string          `json:"request_id"`
	Response  json.RawMessage `json:"response"`
}

// ==================== 对外调用 ====================

// CallAuth 调用授权级接口（token 换取/刷新），签名不含 access_token/shop_id
// 载荷在响应体顶层，直接解码进 out
func (c *Client) CallAuth(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	raw, err := c.execute(ctx, method, path, query, body, "", 0)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("解析授权响应失败: %w", err)
	}
	return nil
}

// CallAPI 调用需鉴权的业务接口
// token 失效时刷新一次并重试一次；刷新不可用或重试仍失败则抛出最初的失败。
// 这是系统里唯一的自动恢复路径，其余失败一律直接上抛。
func (c *Client) CallAPI(ctx context.Context, shopID int64, method, path string, query url.Values, body, out interface{}) error {
	cred, err := c.creds.GetToken(ctx, shopID)
	if err != nil {
		return fmt.Errorf("读取店铺凭证失败: %w", err)
	}
	if cred == nil || cred.AccessToken == "" {
		return ErrMissingCredential
	}

	raw, callErr := c.executeAPI(ctx, method, path, query, body, cred.AccessToken, shopID)
	if callErr == nil {
		return decodeResponse(raw, out)
	}

	var rerr *RemoteError
	if !errors.As(callErr, &rerr) || !rerr.InvalidToken() {
		return callErr
	}

	// token 失效：刷新一次再重试一次，严格不超过一次
	log.Printf("[ShopeeClient] 店铺 %d access token 失效，尝试刷新后重试", shopID)

	newCred, refreshErr := c.refreshToken(ctx, shopID, cred.AccessToken)
	if refreshErr != nil {
		log.Printf("[ShopeeClient] 店铺 %d token 刷新失败: %v", shopID, refreshErr)
		return callErr
	}

	raw, retryErr := c.executeAPI(ctx, method, path, query, body, newCred.AccessToken, shopID)
	if retryErr != nil {
		return callErr
	}
	return decodeResponse(raw, out)
}

// RefreshAccessToken 用 refresh token 换新的 access token 并落库
func (c *Client) RefreshAccessToken(ctx context.Context, shopID int64) (*Credential, error) {
	cred, err := c.creds.GetToken(ctx, shopID)
	if err != nil {
		return nil, fmt.Errorf("读取店铺凭证失败: %w", err)
	}
	if cred == nil {
		return nil, ErrMissingCredential
	}
	return c.refreshToken(ctx, shopID, cred.AccessToken)
}

// ==================== 内部实现 ====================

// executeAPI 执行 API 级调用，载荷在 response 字段
func (c *Client) executeAPI(ctx context.Context, method, path string, query url.Values, body interface{}, accessToken string, shopID int64) (json.RawMessage, error) {
	raw, err := c.execute(ctx, method, path, query, body, accessToken, shopID)
	if err != nil {
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("解析响应失败: %w", err)
	}
	return env.Response, nil
}

// execute 签名并发出请求，返回原始响应体
// 传输错误、非 2xx 和顶层业务错误码都包装成 *RemoteError
func (c *Client) execute(ctx context.Context, method, path string, query url.Values, body interface{}, accessToken string, shopID int64) ([]byte, error) {
	timestamp := time.Now().Unix()
	signature := Sign(c.cfg.PartnerKey, c.cfg.PartnerID, path, timestamp, accessToken, shopID)

	params := url.Values{}
	for k, vs := range query {
		params[k] = vs
	}
	params.Set("partner_id", strconv.FormatInt(c.cfg.PartnerID, 10))
	params.Set("timestamp", strconv.FormatInt(timestamp, 10))
	params.Set("sign", signature)
	if accessToken != "" {
		params.Set("access_token", accessToken)
	}
	if shopID > 0 {
		params.Set("shop_id", strconv.FormatInt(shopID, 10))
	}

	req := c.http.R().
		SetContext(ctx).
		SetQueryParamsFromValues(params)

	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}

	resp, err := req.Execute(method, c.cfg.BaseURL+path)
	if err != nil {
		return nil, &RemoteError{Path: path, Message: err.Error()}
	}

	if resp.StatusCode() >= 400 {
		return nil, &RemoteError{
			Path:       path,
			StatusCode: resp.StatusCode(),
			Body:       resp.Body(),
		}
	}

	var env envelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return nil, fmt.Errorf("解析响应失败: %w", err)
	}
	if env.Error != "" {
		return nil, &RemoteError{
			Path:       path,
			StatusCode: resp.StatusCode(),
			Code:       env.Error,
			Message:    env.Message,
			RequestID:  env.RequestID,
			Body:       resp.Body(),
		}
	}

	return resp.Body(), nil
}

// refreshToken 按店铺加锁刷新 token
// staleToken 是触发刷新的旧 token；拿到锁后如果库里已经换过，直接复用，
// 避免两个并发刷新互相覆盖，把有效的 refresh token 作废。
func (c *Client) refreshToken(ctx context.Context, shopID int64, staleToken string) (*Credential, error) {
	actual, _ := c.refreshLocks.LoadOrStore(shopID, &sync.Mutex{})
	mu := actual.(*sync.Mutex)
	mu.Lock()
	defer mu.Unlock()

	cred, err := c.creds.GetToken(ctx, shopID)
	if err != nil {
		return nil, fmt.Errorf("读取店铺凭证失败: %w", err)
	}
	if cred == nil || cred.RefreshToken == "" {
		return nil, ErrMissingCredential
	}
	if cred.AccessToken != "" && cred.AccessToken != staleToken {
		// 其他协程已经刷新过了
		return cred, nil
	}

	var tokenResp TokenResponse
	reqBody := map[string]interface{}{
		"partner_id":    c.cfg.PartnerID,
		"shop_id":       shopID,
		"refresh_token": cred.RefreshToken,
	}
	if err := c.CallAuth(ctx, "POST", "/api/v2/auth/access_token/get", nil, reqBody, &tokenResp); err != nil {
		return nil, err
	}
	if tokenResp.AccessToken == "" {
		return nil, &RemoteError{Path: "/api/v2/auth/access_token/get", Message: "刷新响应缺少 access_token"}
	}

	now := time.Now()
	newCred := &Credential{
		AccessToken:           tokenResp.AccessToken,
		RefreshToken:          tokenResp.RefreshToken,
		AccessTokenExpiresAt:  now.Add(time.Duration(tokenResp.ExpireIn) * time.Second),
		RefreshTokenExpiresAt: now.Add(time.Duration(tokenResp.RefreshExpireIn) * time.Second),
	}
	if err := c.creds.SaveToken(ctx, shopID, newCred); err != nil {
		return nil, fmt.Errorf("保存刷新后的凭证失败: %w", err)
	}

	log.Printf("[ShopeeClient] 店铺 %d token 刷新成功，有效期至 %s", shopID, newCred.AccessTokenExpiresAt.Format(time.RFC3339))
	return newCred, nil
}

func decodeResponse(raw json.RawMessage, out interface{}) error {
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("解析响应载荷失败: %w", err)
	}
	return nil
}
