package channelsync

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/irfan-ansarii/goldys-inventory-management/internal/customers"
	"github.com/irfan-ansarii/goldys-inventory-management/internal/orders"
	"github.com/irfan-ansarii/goldys-inventory-management/internal/transactions"
	"github.com/irfan-ansarii/goldys-inventory-management/internal/variants"
	"github.com/irfan-ansarii/goldys-inventory-management/pkg/channel"
	"github.com/irfan-ansarii/goldys-inventory-management/pkg/db/models"
	"github.com/irfan-ansarii/goldys-inventory-management/pkg/enums"
	pkgerrors "github.com/irfan-ansarii/goldys-inventory-management/pkg/errors"
	"github.com/irfan-ansarii/goldys-inventory-management/pkg/logger"
	"github.com/irfan-ansarii/goldys-inventory-management/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type channelAPI interface {
	GetOrderTransactions(ctx context.Context, creds channel.Credentials, orderID int64) ([]channel.Transaction, error)
	GetProductImage(ctx context.Context, creds channel.Credentials, productID int64) (string, error)
}

var razorpayGateway = regexp.MustCompile(`(?i)razorpay.*`)

// Service folds channel order webhooks into the local ledger. Events are
// replay-safe: the create/update topic flips based on whether the order
// already exists, and transactions dedup on the channel payment id.
type Service interface {
	HandleOrderEvent(ctx context.Context, store *models.Store, topic enums.WebhookTopic, raw []byte) error
}

type service struct {
	orders    orders.Repository
	txnsRepo  transactions.Repository
	txns      transactions.Service
	customers customers.Service
	variants  variants.Repository
	channel   channelAPI
	tx        txRunner
	logger    *logger.Logger
}

// NewService builds the channel order sync handler. The channel API client
// and logger are optional; without the client, transaction and image sync is
// skipped.
func NewService(orderRepo orders.Repository, txnsRepo transactions.Repository, txns transactions.Service, custs customers.Service, varRepo variants.Repository, api channelAPI, tx txRunner, logg *logger.Logger) (Service, error) {
	if orderRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if txnsRepo == nil {
		return nil, fmt.Errorf("transactions repository required")
	}
	if txns == nil {
		return nil, fmt.Errorf("transactions service required")
	}
	if custs == nil {
		return nil, fmt.Errorf("customers service required")
	}
	if varRepo == nil {
		return nil, fmt.Errorf("variants repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		orders:    orderRepo,
		txnsRepo:  txnsRepo,
		txns:      txns,
		customers: custs,
		variants:  varRepo,
		channel:   api,
		tx:        tx,
		logger:    logg,
	}, nil
}

func (s *service) HandleOrderEvent(ctx context.Context, store *models.Store, topic enums.WebhookTopic, raw []byte) error {
	if store == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "store required")
	}
	if topic != enums.WebhookTopicOrderCreate && topic != enums.WebhookTopicOrderUpdate {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unsupported order topic %q", topic))
	}

	var payload OrderPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decoding order payload")
	}
	if payload.Name == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "order payload name required")
	}

	// the channel retries and reorders deliveries, so the topic is advisory:
	// existence decides whether this is a create or an update
	existing, err := s.orders.FindByName(ctx, store.ID, payload.Name)
	if err != nil && err != gorm.ErrRecordNotFound {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up order by name")
	}

	creating := existing == nil

	var channelTxns []channel.Transaction
	var creds channel.Credentials
	hasCreds := store.Domain != nil && store.ChannelToken != nil
	if hasCreds {
		creds = channel.Credentials{Domain: *store.Domain, Token: *store.ChannelToken}
	}
	if s.channel != nil && hasCreds {
		channelTxns, err = s.channel.GetOrderTransactions(ctx, creds, payload.ID)
		if err != nil {
			return err
		}
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		orderRepo := s.orders.WithTx(tx)
		txnsRepo := s.txnsRepo.WithTx(tx)

		customer, err := s.customers.UpsertByEmail(ctx, tx, store.ID, customers.UpsertInput{
			Name:  strings.TrimSpace(payload.Customer.FirstName + " " + payload.Customer.LastName),
			Email: payload.Email,
			Phone: customerPhone(payload),
		})
		if err != nil {
			return err
		}

		order, err := s.upsertOrder(ctx, orderRepo, store, payload, existing, customer.ID)
		if err != nil {
			return err
		}

		if channelTxns != nil {
			if err := s.syncTransactions(ctx, txnsRepo, store.ID, order.ID, channelTxns); err != nil {
				return err
			}
		}

		state, err := s.txns.DeriveOrderStatus(ctx, tx, order.ID, order.Total)
		if err != nil {
			return err
		}
		err = orderRepo.Update(ctx, order.ID, map[string]any{
			"payment_status": state.Status,
			"due":            state.Due,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payment status")
		}

		// line items only come in on create; edits never rewrite them
		if creating {
			if err := s.createLineItems(ctx, tx, orderRepo, store, creds, hasCreds, order, payload); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *service) upsertOrder(ctx context.Context, orderRepo orders.Repository, store *models.Store, payload OrderPayload, existing *models.Order, customerID uuid.UUID) (*models.Order, error) {
	billing := types.FormatAddress(withEmail(payload.BillingAddress, payload.Email))
	shipping := billing
	if payload.ShippingAddress != nil && payload.ShippingAddress.Address1 != "" {
		shipping = types.FormatAddress(withEmail(*payload.ShippingAddress, payload.Email))
	}

	charges := foldCharges(payload.ShippingLines)
	taxLines := make([]types.TaxLine, 0, len(payload.TaxLines))
	for _, line := range payload.TaxLines {
		taxLines = append(taxLines, types.TaxLine{Name: line.Title, Amount: line.Price})
	}
	taxKind := types.TaxKind{Type: enums.TaxTypeExcluded}
	if payload.TaxesIncluded {
		taxKind.Type = enums.TaxTypeIncluded
	}
	meta := types.JSONMap{"channelOrderId": payload.ID}

	if existing != nil {
		updates := map[string]any{
			"customer_id":     customerID,
			"billing":         billing,
			"shipping":        shipping,
			"subtotal":        payload.Subtotal,
			"discount":        payload.Discount,
			"tax":             payload.Tax,
			"charges":         charges,
			"total":           payload.Total,
			"due":             payload.Outstanding,
			"tax_kind":        taxKind,
			"tax_lines":       taxLines,
			"notes":           payload.Note,
			"cancelled_at":    payload.CancelledAt,
			"cancel_reason":   payload.CancelReason,
			"additional_meta": &meta,
		}
		if err := orderRepo.Update(ctx, existing.ID, updates); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order")
		}
		refreshed, err := orderRepo.FindByID(ctx, existing.ID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
		}
		return refreshed, nil
	}

	cid := customerID
	order := &models.Order{
		StoreID:        store.ID,
		Name:           payload.Name,
		CustomerID:     &cid,
		Billing:        billing,
		Shipping:       shipping,
		Subtotal:       payload.Subtotal,
		Discount:       payload.Discount,
		Tax:            payload.Tax,
		Charges:        charges,
		Total:          payload.Total,
		Due:            payload.Outstanding,
		TaxKind:        taxKind,
		TaxLines:       taxLines,
		Notes:          payload.Note,
		PaymentStatus:  enums.PaymentStatusUnpaid,
		ShipmentStatus: enums.OrderShipmentStatusProcessing,
		CancelledAt:    payload.CancelledAt,
		CancelReason:   payload.CancelReason,
		AdditionalMeta: &meta,
	}
	if payload.ProcessedAt != nil {
		order.CreatedAt = *payload.ProcessedAt
	}
	if err := orderRepo.Create(ctx, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
	}
	return order, nil
}

// syncTransactions appends the channel-side money movements the ledger has
// not seen yet, keyed by payment id.
func (s *service) syncTransactions(ctx context.Context, txnsRepo transactions.Repository, storeID, orderID uuid.UUID, channelTxns []channel.Transaction) error {
	existing, err := txnsRepo.ListByOrder(ctx, orderID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load transactions")
	}
	seen := make(map[string]struct{}, len(existing))
	for _, txn := range existing {
		if txn.PaymentID != nil {
			seen[*txn.PaymentID] = struct{}{}
		}
	}

	rows := make([]models.Transaction, 0, len(channelTxns))
	for _, txn := range channelTxns {
		if txn.Kind != "sale" && txn.Kind != "refund" {
			continue
		}
		if txn.Status != "success" {
			continue
		}
		paymentID := strconv.FormatInt(txn.ID, 10)
		if _, ok := seen[paymentID]; ok {
			continue
		}
		amount, err := decimal.NewFromString(txn.Amount)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid channel transaction amount")
		}
		oid := orderID
		pid := paymentID
		rows = append(rows, models.Transaction{
			StoreID:   storeID,
			OrderID:   &oid,
			Name:      normalizeGateway(txn.Gateway),
			Kind:      enums.TransactionKind(txn.Kind),
			Amount:    amount,
			PaymentID: &pid,
			Status:    enums.TransactionStatusSuccess,
		})
	}
	if len(rows) == 0 {
		return nil
	}
	if err := txnsRepo.Create(ctx, rows); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record channel transactions")
	}
	return nil
}

func (s *service) createLineItems(ctx context.Context, tx *gorm.DB, orderRepo orders.Repository, store *models.Store, creds channel.Credentials, hasCreds bool, order *models.Order, payload OrderPayload) error {
	items := make([]models.LineItem, 0, len(payload.LineItems))
	for _, line := range payload.LineItems {
		var variant *models.Variant
		if line.SKU != nil && *line.SKU != "" {
			found, err := s.variants.WithTx(tx).FindBySKU(ctx, store.ID, *line.SKU)
			if err != nil && err != gorm.ErrRecordNotFound {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up variant by sku")
			}
			variant = found
		}

		var image *string
		if variant != nil && variant.Image != nil {
			image = variant.Image
		} else if s.channel != nil && hasCreds && line.ProductID != nil && line.ProductExists {
			src, err := s.channel.GetProductImage(ctx, creds, *line.ProductID)
			if err != nil {
				s.warn(ctx, "product image fetch failed", order.Name, err)
			} else if src != "" {
				image = &src
			}
		}

		currentQty := line.CurrentQuantity
		if currentQty == 0 {
			currentQty = line.Quantity
		}

		tax := decimal.Zero
		taxLines := make([]types.TaxLine, 0, len(line.TaxLines))
		for _, tl := range line.TaxLines {
			tax = tax.Add(tl.Price)
			taxLines = append(taxLines, types.TaxLine{Name: tl.Title, Amount: tl.Price})
		}

		subtotal := line.Price.Mul(decimal.NewFromInt(int64(currentQty)))
		item := models.LineItem{
			OrderID:          order.ID,
			StoreID:          store.ID,
			Title:            line.Title,
			VariantTitle:     line.VariantTitle,
			SKU:              line.SKU,
			Image:            image,
			Price:            line.Price,
			SalePrice:        line.Price,
			Quantity:         line.Quantity,
			CurrentQuantity:  currentQty,
			ShippingQuantity: line.FulfillableQuantity,
			RequiresShipping: line.RequiresShipping,
			Subtotal:         subtotal,
			Discount:         line.TotalDiscount,
			Tax:              tax,
			Total:            subtotal.Sub(line.TotalDiscount),
			TaxLines:         taxLines,
		}
		if variant != nil {
			pid := variant.ProductID
			vid := variant.ID
			item.ProductID = &pid
			item.VariantID = &vid
			item.Barcode = variant.Barcode
		}
		items = append(items, item)
	}
	if err := orderRepo.CreateLineItems(ctx, items); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create line items")
	}
	return nil
}

func (s *service) warn(ctx context.Context, msg, orderName string, err error) {
	if s.logger == nil {
		return
	}
	ctx = s.logger.WithFields(ctx, map[string]any{"orderName": orderName, "error": err.Error()})
	s.logger.Warn(ctx, msg)
}

// foldCharges collapses the shipping lines into one charge covering every
// line that actually costs something.
func foldCharges(lines []PayloadShippingLine) *types.Charge {
	var charge *types.Charge
	for _, line := range lines {
		if !line.DiscountedPrice.IsPositive() {
			continue
		}
		amount, _ := line.DiscountedPrice.Float64()
		if charge == nil {
			charge = &types.Charge{Reason: line.Title, Amount: amount}
			continue
		}
		charge.Reason = line.Title
		charge.Amount += amount
	}
	return charge
}

func normalizeGateway(gateway string) string {
	out := strings.ReplaceAll(gateway, "gift_card", "Gift Card")
	return razorpayGateway.ReplaceAllString(out, "Razorpay")
}

func withEmail(addr types.ChannelAddress, email string) types.ChannelAddress {
	addr.Email = email
	return addr
}

func customerPhone(payload OrderPayload) *string {
	if payload.Phone != nil && *payload.Phone != "" {
		return payload.Phone
	}
	if payload.ShippingAddress != nil && payload.ShippingAddress.Phone != "" {
		phone := payload.ShippingAddress.Phone
		return &phone
	}
	if payload.BillingAddress.Phone != "" {
		phone := payload.BillingAddress.Phone
		return &phone
	}
	return nil
}
