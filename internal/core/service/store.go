package service

import (
	"context"
	"fmt"
	"time"

	"github.com/mzawadzki/storekeeper/internal/core/domain"
	"github.com/mzawadzki/storekeeper/internal/core/dto"
	"github.com/mzawadzki/storekeeper/internal/core/logger"
	"github.com/mzawadzki/storekeeper/internal/core/port"
	"github.com/mzawadzki/storekeeper/internal/core/serviceerrors"
	"github.com/mzawadzki/storekeeper/internal/core/utils"
)

const (
	storeViewCacheKey = "storefront"
	storeViewCacheTTL = 30 * time.Second
)

// StoreService orchestrates the catalog, the ledger and the audit log. Each
// operation is one atomic transition: it either fully applies or changes
// nothing, and every accepted or domain-rejected attempt leaves exactly one
// audit record. Input-validation failures are reported to the caller only
// and are never audited; the same goes for selling an unknown product.
type StoreService struct {
	catalog     port.CatalogPort
	ledger      port.LedgerPort
	audit       port.AuditPort
	outbox      port.OutboxPort
	viewCache   port.CachePort[domain.StoreView]
	idempotency *IdempotencyService[domain.Receipt]
	txManager   port.TransactionManager
}

func NewStoreService(
	catalog port.CatalogPort,
	ledger port.LedgerPort,
	audit port.AuditPort,
	outbox port.OutboxPort,
	viewCache port.CachePort[domain.StoreView],
	idempotency *IdempotencyService[domain.Receipt],
	txManager port.TransactionManager,
) *StoreService {
	return &StoreService{
		catalog:     catalog,
		ledger:      ledger,
		audit:       audit,
		outbox:      outbox,
		viewCache:   viewCache,
		idempotency: idempotency,
		txManager:   txManager,
	}
}

func validateBuy(request *dto.BuyRequest) []string {
	var messages []string
	if request.Name == "" {
		messages = append(messages, "product name must not be empty")
	}
	if request.UnitPrice <= 0 {
		messages = append(messages, "unit price must be greater than 0")
	}
	if request.Count <= 0 {
		messages = append(messages, "quantity must be greater than 0")
	}
	return messages
}

func validateSell(request *dto.SellRequest) []string {
	var messages []string
	if request.Name == "" {
		messages = append(messages, "product name must not be empty")
	}
	if request.Count <= 0 {
		messages = append(messages, "quantity must be greater than 0")
	}
	return messages
}

// Buy restocks a product, paying for the new units from the account. The
// product is created on first purchase; on a repeat purchase the supplied
// unit price overwrites the stored one (last write wins) and the count is
// added to the stock.
func (s *StoreService) Buy(ctx context.Context, idempotencyKey string, request *dto.BuyRequest) (*domain.Receipt, error) {
	return s.withIdempotency(ctx, idempotencyKey, request, func(ctx context.Context) (*domain.Receipt, error) {
		return s.processBuy(ctx, request)
	})
}

func (s *StoreService) processBuy(ctx context.Context, request *dto.BuyRequest) (*domain.Receipt, error) {
	if messages := validateBuy(request); len(messages) > 0 {
		return nil, serviceerrors.NewValidationError(messages)
	}

	price := domain.NewAmountFromCents(request.UnitPrice)
	total := price.Multiply(request.Count)

	balance, err := s.ledger.Balance(ctx)
	if err != nil {
		return nil, err
	}

	// Strict solvency: a purchase that would zero the balance is rejected.
	if !balance.Sub(total).IsPositive() {
		if err := s.audit.Append(ctx, domain.PurchaseRejectedMessage()); err != nil {
			return nil, err
		}
		return nil, serviceerrors.NewInsufficientFundsError(
			fmt.Sprintf("insufficient funds: purchase of %s exceeds balance %s", total, balance))
	}

	executedAt := time.Now()
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.audit.Append(txCtx, domain.PurchaseMessage(request.Name, request.Count, price)); err != nil {
			return err
		}
		if err := s.catalog.Restock(txCtx, request.Name, price, request.Count); err != nil {
			return err
		}
		if err := s.ledger.Debit(txCtx, total); err != nil {
			return err
		}
		return s.outbox.Enqueue(txCtx, &domain.StockPurchasedEvent{
			ProductName: request.Name,
			UnitPrice:   price.Cents(),
			Quantity:    request.Count,
			Total:       total.Cents(),
			OccurredAt:  executedAt,
		})
	})
	if err != nil {
		logger.Error(ctx, "store: buy transaction failed", err, map[string]any{
			"product": request.Name,
			"count":   request.Count,
		})
		return nil, err
	}

	s.invalidateView(ctx)
	logger.Info(ctx, "Stock purchased", map[string]any{
		"product": request.Name,
		"count":   request.Count,
		"total":   total.String(),
	})

	return &domain.Receipt{
		Operation:   domain.OperationPurchase,
		ProductName: request.Name,
		UnitPrice:   price,
		Quantity:    request.Count,
		Total:       total,
		Balance:     balance.Sub(total),
		ExecutedAt:  executedAt,
	}, nil
}

// Sell removes units from stock and credits the sale total to the account.
func (s *StoreService) Sell(ctx context.Context, idempotencyKey string, request *dto.SellRequest) (*domain.Receipt, error) {
	return s.withIdempotency(ctx, idempotencyKey, request, func(ctx context.Context) (*domain.Receipt, error) {
		return s.processSell(ctx, request)
	})
}

func (s *StoreService) processSell(ctx context.Context, request *dto.SellRequest) (*domain.Receipt, error) {
	if messages := validateSell(request); len(messages) > 0 {
		return nil, serviceerrors.NewValidationError(messages)
	}

	product, err := s.catalog.FindByName(ctx, request.Name)
	if err != nil {
		return nil, err
	}
	if product == nil {
		// Unknown products are reported to the caller without an audit
		// record, unlike the stock rejections below.
		return nil, serviceerrors.NewNotFoundError(fmt.Sprintf("no product named %q", request.Name))
	}

	if product.Stock == 0 {
		if err := s.audit.Append(ctx, domain.SaleRejectedMessage(request.Name)); err != nil {
			return nil, err
		}
		return nil, serviceerrors.NewOutOfStockError(fmt.Sprintf("product %q is out of stock", request.Name))
	}
	if product.Stock < request.Count {
		if err := s.audit.Append(ctx, domain.SaleRejectedMessage(request.Name)); err != nil {
			return nil, err
		}
		return nil, serviceerrors.NewInsufficientStockError(
			fmt.Sprintf("only %d units of product %q in stock", product.Stock, request.Name))
	}

	total := product.Price.Multiply(request.Count)

	balance, err := s.ledger.Balance(ctx)
	if err != nil {
		return nil, err
	}

	executedAt := time.Now()
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.catalog.DeductStock(txCtx, request.Name, request.Count); err != nil {
			return err
		}
		if err := s.ledger.Credit(txCtx, total); err != nil {
			return err
		}
		if err := s.audit.Append(txCtx, domain.SaleMessage(request.Name, request.Count, product.Price)); err != nil {
			return err
		}
		return s.outbox.Enqueue(txCtx, &domain.StockSoldEvent{
			ProductName: request.Name,
			UnitPrice:   product.Price.Cents(),
			Quantity:    request.Count,
			Total:       total.Cents(),
			OccurredAt:  executedAt,
		})
	})
	if err != nil {
		logger.Error(ctx, "store: sell transaction failed", err, map[string]any{
			"product": request.Name,
			"count":   request.Count,
		})
		return nil, err
	}

	s.invalidateView(ctx)
	logger.Info(ctx, "Stock sold", map[string]any{
		"product": request.Name,
		"count":   request.Count,
		"total":   total.String(),
	})

	return &domain.Receipt{
		Operation:   domain.OperationSale,
		ProductName: request.Name,
		UnitPrice:   product.Price,
		Quantity:    request.Count,
		Total:       total,
		Balance:     balance.Add(total),
		ExecutedAt:  executedAt,
	}, nil
}

// AdjustBalance applies a signed cash movement with an operator comment.
func (s *StoreService) AdjustBalance(ctx context.Context, request *dto.AdjustBalanceRequest) (*domain.Receipt, error) {
	if request.Delta == 0 {
		return nil, serviceerrors.NewValidationError([]string{"balance change must be different from 0"})
	}

	delta := domain.NewAmountFromCents(request.Delta)

	previous, err := s.ledger.Balance(ctx)
	if err != nil {
		return nil, err
	}

	operation := domain.OperationDeposit
	message := domain.DepositMessage(delta, previous, request.Comment)
	if !delta.IsPositive() {
		operation = domain.OperationWithdrawal
		message = domain.WithdrawalMessage(delta, previous, request.Comment)
	}

	executedAt := time.Now()
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.ledger.Adjust(txCtx, delta); err != nil {
			return err
		}
		if err := s.audit.Append(txCtx, message); err != nil {
			return err
		}
		return s.outbox.Enqueue(txCtx, &domain.BalanceAdjustedEvent{
			Delta:      delta.Cents(),
			Comment:    request.Comment,
			OccurredAt: executedAt,
		})
	})
	if err != nil {
		if serviceerrors.IsOfKind(err, serviceerrors.KindInsufficientFunds) {
			// The aborted transaction changed nothing; the failed withdrawal
			// still gets its audit record.
			if auditErr := s.audit.Append(ctx, domain.WithdrawalRejectedMessage(delta, previous, request.Comment)); auditErr != nil {
				return nil, auditErr
			}
			return nil, err
		}
		logger.Error(ctx, "store: balance adjustment failed", err, map[string]any{
			"delta": request.Delta,
		})
		return nil, err
	}

	s.invalidateView(ctx)
	logger.Info(ctx, "Balance adjusted", map[string]any{
		"delta":   delta.String(),
		"comment": request.Comment,
	})

	return &domain.Receipt{
		Operation:  operation,
		Total:      delta.Abs(),
		Balance:    previous.Add(delta),
		ExecutedAt: executedAt,
	}, nil
}

// Storefront returns the catalog and the balance, served from the redis
// view cache when fresh. Cache failures are logged and never fail the read.
func (s *StoreService) Storefront(ctx context.Context) (*domain.StoreView, error) {
	cached, err := s.viewCache.Get(ctx, storeViewCacheKey)
	if err != nil {
		logger.Error(ctx, "cache: get storefront failed", err, nil)
	}
	if cached != nil {
		return cached, nil
	}

	products, err := s.catalog.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	balance, err := s.ledger.Balance(ctx)
	if err != nil {
		return nil, err
	}

	view := &domain.StoreView{Balance: balance, Products: make([]domain.Product, len(products))}
	for i, product := range products {
		view.Products[i] = *product
	}

	if err := s.viewCache.Set(ctx, storeViewCacheKey, view, storeViewCacheTTL); err != nil {
		logger.Error(ctx, "cache: set storefront failed", err, nil)
	}

	return view, nil
}

func (s *StoreService) Balance(ctx context.Context) (domain.Amount, error) {
	return s.ledger.Balance(ctx)
}

// History returns the audit log, optionally narrowed to an inclusive seq
// range. A missing or non-positive bound disables the filter and yields the
// whole log.
func (s *StoreService) History(ctx context.Context, startSeq, endSeq int64) ([]*domain.Record, error) {
	if startSeq <= 0 || endSeq <= 0 {
		return s.audit.GetAll(ctx)
	}
	return s.audit.GetRange(ctx, startSeq, endSeq)
}

func (s *StoreService) invalidateView(ctx context.Context) {
	if err := s.viewCache.Del(ctx, storeViewCacheKey); err != nil {
		logger.Error(ctx, "cache: invalidate storefront failed", err, nil)
	}
}

func (s *StoreService) withIdempotency(
	ctx context.Context,
	key string,
	request any,
	process func(ctx context.Context) (*domain.Receipt, error),
) (*domain.Receipt, error) {
	if key == "" {
		return process(ctx)
	}

	payloadHash := utils.HashJSON(request)

	existing, err := s.idempotency.Claim(ctx, key, payloadHash)
	if err != nil {
		logger.Error(ctx, "idempotency: claim failed", err, map[string]any{
			"idempotency_key": key,
		})
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	receipt, err := process(ctx)
	if err != nil {
		s.idempotency.Release(ctx, key)
		return nil, err
	}

	s.idempotency.Complete(ctx, key, payloadHash, receipt)

	return receipt, nil
}
