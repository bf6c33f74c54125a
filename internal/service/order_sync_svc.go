package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strconv"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"shopee_dev_v1_202608/internal/model"
	"shopee_dev_v1_202608/internal/repository"
	"shopee_dev_v1_202608/pkg/shopee"
)

// ErrShopNotRegistered 平台 shop_id 在本系统没有对应店铺
var ErrShopNotRegistered = errors.New("店铺未在系统中注册")

// 订单详情拉取的批大小，平台单次最多 50，线上一直用 20
const orderDetailChunkSize = 20

// 详情接口要额外申请的可选字段
const orderDetailOptionalFields = "order_status,booking_sn,advance_package,hot_listing_order," +
	"is_buyer_shop_collection,cod,days_to_ship,ship_by_date,message_to_seller," +
	"reverse_shipping_fee,recipient_address"

// ==================== 依赖接口 ====================

// ShopeeGateway 平台调用入口
// 由 pkg/shopee.Client 实现，服务层只依赖这一个方法，便于测试替身
type ShopeeGateway interface {
	CallAPI(ctx context.Context, shopID int64, method, path string, query url.Values, body, out interface{}) error
}

// ==================== OrderSyncService ====================

// OrderSyncSummary 单次订单同步的结果
type OrderSyncSummary struct {
	ShopeeShopID   int64 `json:"shopee_shop_id"`
	Processed      int   `json:"processed"`       // 成功落库的订单数
	AddressChanged int   `json:"address_changed"` // 新增地址快照的订单数
	Late           int   `json:"late"`            // 已超发货期限
	AtRisk         int   `json:"at_risk"`         // 24 小时内到期
	Truncated      bool  `json:"truncated"`       // 列表遍历是否被页数上限截断
}

// OrderSyncService 订单同步服务
// 拉取订单列表 + 详情，落库并做地址变更检测和发货风险分类
type OrderSyncService struct {
	shopRepo     repository.ShopRepository
	orderRepo    repository.OrderRepository
	snapshotRepo repository.AddressSnapshotRepository
	gateway      ShopeeGateway
}

// NewOrderSyncService 创建订单同步服务
func NewOrderSyncService(
	shopRepo repository.ShopRepository,
	orderRepo repository.OrderRepository,
	snapshotRepo repository.AddressSnapshotRepository,
	gateway ShopeeGateway,
) *OrderSyncService {
	return &OrderSyncService{
		shopRepo:     shopRepo,
		orderRepo:    orderRepo,
		snapshotRepo: snapshotRepo,
		gateway:      gateway,
	}
}

// ==================== 同步入口 ====================

// SyncOrders 同步指定店铺最近 rangeDays 天内有更新的订单
// 列表被页数上限截断时不算失败：已收集的订单照常处理，结果打上 Truncated 标记。
// 详情批次失败则中止本次运行，已落库的订单保留（至少一次语义）。
func (s *OrderSyncService) SyncOrders(ctx context.Context, shopeeShopID int64, rangeDays, pageSize int) (*OrderSyncSummary, error) {
	shop, err := s.resolveShop(ctx, shopeeShopID)
	if err != nil {
		return nil, err
	}

	rangeDays = ParseRangeDays(rangeDays)
	if pageSize <= 0 {
		pageSize = 50
	}

	now := time.Now()
	timeFrom := now.Add(-time.Duration(rangeDays) * 24 * time.Hour)

	summary := &OrderSyncSummary{ShopeeShopID: shopeeShopID}

	// 第一步：游标遍历订单列表，收集 order_sn
	orderSNs, err := shopee.WalkCursor(ctx, shopee.DefaultMaxPages, func(ctx context.Context, cursor string) (shopee.CursorPage[string], error) {
		query := url.Values{}
		query.Set("time_range_field", "update_time")
		query.Set("time_from", strconv.FormatInt(timeFrom.Unix(), 10))
		query.Set("time_to", strconv.FormatInt(now.Unix(), 10))
		query.Set("page_size", strconv.Itoa(pageSize))
		if cursor != "" {
			query.Set("cursor", cursor)
		}

		var resp shopee.OrderListResponse
		if err := s.gateway.CallAPI(ctx, shopeeShopID, "GET", "/api/v2/order/get_order_list", query, nil, &resp); err != nil {
			return shopee.CursorPage[string]{}, err
		}

		sns := make([]string, 0, len(resp.OrderList))
		for _, entry := range resp.OrderList {
			sns = append(sns, entry.OrderSN)
		}
		return shopee.CursorPage[string]{Items: sns, More: resp.More, NextCursor: resp.NextCursor}, nil
	})
	if err != nil {
		var terr *shopee.TruncatedError
		if !errors.As(err, &terr) {
			return nil, fmt.Errorf("拉取订单列表失败: %w", err)
		}
		summary.Truncated = true
		log.Printf("[OrderSync] 店铺 %d 订单列表在 %d 页后截断，继续处理已收集的 %d 条", shopeeShopID, terr.Pages, len(orderSNs))
	}

	log.Printf("[OrderSync] 店铺 %d 最近 %d 天共 %d 条订单待同步", shopeeShopID, rangeDays, len(orderSNs))

	// 第二步：分批拉详情并逐条落库
	for _, batch := range shopee.Chunk(orderSNs, orderDetailChunkSize) {
		details, err := s.fetchOrderDetails(ctx, shopeeShopID, batch)
		if err != nil {
			return summary, fmt.Errorf("拉取订单详情失败: %w", err)
		}

		for i := range details {
			changed, late, atRisk, err := s.upsertOrder(ctx, shop.ID, &details[i], now)
			if err != nil {
				return summary, fmt.Errorf("落库订单 %s 失败: %w", details[i].OrderSN, err)
			}
			summary.Processed++
			if changed {
				summary.AddressChanged++
			}
			if late {
				summary.Late++
			}
			if atRisk {
				summary.AtRisk++
			}
		}
	}

	if err := s.shopRepo.MarkOrderSynced(ctx, shop.ID, now); err != nil {
		log.Printf("[OrderSync] 店铺 %d 更新同步时间失败: %v", shopeeShopID, err)
	}

	log.Printf("[OrderSync] 店铺 %d 同步完成: 处理 %d, 地址变更 %d, 超期 %d, 临期 %d",
		shopeeShopID, summary.Processed, summary.AddressChanged, summary.Late, summary.AtRisk)
	return summary, nil
}

func (s *OrderSyncService) resolveShop(ctx context.Context, shopeeShopID int64) (*model.Shop, error) {
	shop, err := s.shopRepo.GetByShopeeShopID(ctx, shopeeShopID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShopNotRegistered
		}
		return nil, fmt.Errorf("查询店铺失败: %w", err)
	}
	return shop, nil
}

// fetchOrderDetails 拉取一批订单的完整详情
func (s *OrderSyncService) fetchOrderDetails(ctx context.Context, shopeeShopID int64, orderSNs []string) ([]shopee.OrderDetail, error) {
	query := url.Values{}
	query.Set("order_sn_list", strings.Join(orderSNs, ","))
	query.Set("response_optional_fields", orderDetailOptionalFields)

	var resp shopee.OrderDetailResponse
	if err := s.gateway.CallAPI(ctx, shopeeShopID, "GET", "/api/v2/order/get_order_detail", query, nil, &resp); err != nil {
		return nil, err
	}
	return resp.OrderList, nil
}

// ==================== 落库 ====================

// upsertOrder 按 (shop_id, order_sn) 查找后创建或更新，再做地址与风险判断
func (s *OrderSyncService) upsertOrder(ctx context.Context, shopID int64, detail *shopee.OrderDetail, now time.Time) (addressChanged, late, atRisk bool, err error) {
	existing, err := s.orderRepo.GetByShopAndSN(ctx, shopID, detail.OrderSN)
	if err != nil {
		return false, false, false, err
	}

	order := existing
	if order == nil {
		order = &model.Order{ShopID: shopID, OrderSN: detail.OrderSN}
	}
	applyOrderDetail(order, detail, now)

	if existing == nil {
		err = s.orderRepo.Create(ctx, order)
	} else {
		err = s.orderRepo.Update(ctx, order)
	}
	if err != nil {
		return false, false, false, err
	}

	// 地址变更检测：哈希与最近快照不同才追加
	if detail.RecipientAddress != nil {
		addressChanged, err = s.snapshotAddress(ctx, order.ID, detail.RecipientAddress)
		if err != nil {
			return false, false, false, err
		}
	}

	late, atRisk = classifyShipRisk(order.OrderStatus, order.ShipByDate, now)
	return addressChanged, late, atRisk, nil
}

// applyOrderDetail 把平台详情映射到订单模型
func applyOrderDetail(order *model.Order, detail *shopee.OrderDetail, now time.Time) {
	order.OrderStatus = detail.OrderStatus
	order.Region = detail.Region
	order.Currency = detail.Currency
	order.COD = detail.COD
	order.DaysToShip = detail.DaysToShip
	order.ShipByDate = unixToTime(detail.ShipByDate)
	order.ShopeeCreateTime = unixToTime(detail.CreateTime)
	order.ShopeeUpdateTime = unixToTime(detail.UpdateTime)
	order.BookingSN = detail.BookingSN
	order.AdvancePackage = detail.AdvancePackage
	order.HotListingOrder = detail.HotListingOrder
	order.IsBuyerShopCollection = detail.IsBuyerShopCollection
	order.MessageToSeller = detail.MessageToSeller
	order.ReverseShippingFee = detail.ReverseShippingFee
	order.SyncedAt = &now

	if raw, err := json.Marshal(detail); err == nil {
		order.RawData = datatypes.JSON(raw)
	}
}

// snapshotAddress 地址内容哈希与最近一条快照不同时追加新快照
func (s *OrderSyncService) snapshotAddress(ctx context.Context, orderID int64, addr *shopee.RecipientAddress) (bool, error) {
	hash := addressHash(addr)

	latest, err := s.snapshotRepo.GetLatest(ctx, orderID)
	if err != nil {
		return false, err
	}
	if latest != nil && latest.AddressHash == hash {
		return false, nil
	}

	snapshot := &model.OrderAddressSnapshot{
		OrderID:     orderID,
		Name:        addr.Name,
		Phone:       addr.Phone,
		Town:        addr.Town,
		District:    addr.District,
		City:        addr.City,
		State:       addr.State,
		Region:      addr.Region,
		Zipcode:     addr.Zipcode,
		FullAddress: addr.FullAddress,
		AddressHash: hash,
	}
	if err := s.snapshotRepo.Create(ctx, snapshot); err != nil {
		return false, err
	}
	return true, nil
}

// ==================== 纯函数 ====================

// ParseRangeDays 校验同步窗口天数，只允许 7/15/30/60，其余一律回退到 7
func ParseRangeDays(days int) int {
	switch days {
	case 7, 15, 30, 60:
		return days
	}
	return 7
}

// addressHash 地址内容哈希
// 每个字段去首尾空白、转小写、连续空白折叠为单个空格，再按固定顺序用 | 拼接
func addressHash(addr *shopee.RecipientAddress) string {
	fields := []string{
		addr.Zipcode,
		addr.State,
		addr.City,
		addr.District,
		addr.Town,
		addr.FullAddress,
		addr.Name,
		addr.Phone,
	}
	for i, f := range fields {
		fields[i] = strings.Join(strings.Fields(strings.ToLower(f)), " ")
	}
	sum := sha256.Sum256([]byte(strings.Join(fields, "|")))
	return hex.EncodeToString(sum[:])
}

// classifyShipRisk 发货风险分类
// 只有等待发货的订单参与分类；超过期限算超期，剩余不足 24 小时算临期
func classifyShipRisk(status string, shipBy *time.Time, now time.Time) (late, atRisk bool) {
	if status != model.OrderStatusReadyToShip || shipBy == nil {
		return false, false
	}

	left := shipBy.Sub(now)
	if left < 0 {
		return true, false
	}
	if left <= 24*time.Hour {
		return false, true
	}
	return false, false
}

func unixToTime(sec int64) *time.Time {
	if sec <= 0 {
		return nil
	}
	t := time.Unix(sec, 0)
	return &t
}
