package integration_test

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	adaptconfig "github.com/mzawadzki/storekeeper/internal/adapters/config"
	adaptmongo "github.com/mzawadzki/storekeeper/internal/adapters/mongo"
	"github.com/mzawadzki/storekeeper/internal/adapters/mongo/repository"
	"github.com/mzawadzki/storekeeper/internal/adapters/outbox"
	adaptrabbitmq "github.com/mzawadzki/storekeeper/internal/adapters/rabbitmq"
	adaptredis "github.com/mzawadzki/storekeeper/internal/adapters/redis"
	"github.com/mzawadzki/storekeeper/internal/core/domain"
	"github.com/mzawadzki/storekeeper/internal/core/dto"
	"github.com/mzawadzki/storekeeper/internal/core/service"
	"github.com/mzawadzki/storekeeper/internal/core/serviceerrors"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	tcrabbit "github.com/testcontainers/testcontainers-go/modules/rabbitmq"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const seedBalance = domain.Amount(500000)

var (
	mongoClient  *mongo.Client
	redisClient  *adaptredis.Client
	broker       *adaptrabbitmq.RabbitMQAdapter
	amqpEndpoint string
)

func TestMain(m *testing.M) {
	ctx := context.Background()

	mongoContainer, err := mongodb.Run(ctx, "mongo:7", mongodb.WithReplicaSet("rs0"))
	if err != nil {
		log.Fatalf("mongodb container: %v", err)
	}
	mongoEndpoint, err := mongoContainer.ConnectionString(ctx)
	if err != nil {
		log.Fatalf("mongodb connection string: %v", err)
	}
	mongoClient, err = mongo.Connect(ctx, options.Client().
		ApplyURI(mongoEndpoint).
		SetDirect(true).
		SetConnectTimeout(30*time.Second).
		SetServerSelectionTimeout(30*time.Second))
	if err != nil {
		log.Fatalf("mongodb connect: %v", err)
	}
	if err := mongoClient.Ping(ctx, nil); err != nil {
		log.Fatalf("mongodb ping: %v", err)
	}

	// --- Redis ---
	redisContainer, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		log.Fatalf("redis container: %v", err)
	}
	redisEndpoint, err := redisContainer.ConnectionString(ctx)
	if err != nil {
		log.Fatalf("redis connection string: %v", err)
	}
	redisClient, err = adaptredis.NewConnection(adaptconfig.RedisConfig{URL: redisEndpoint})
	if err != nil {
		log.Fatalf("redis connect: %v", err)
	}

	// --- RabbitMQ ---
	rabbitContainer, err := tcrabbit.Run(ctx, "rabbitmq:3-management-alpine")
	if err != nil {
		log.Fatalf("rabbitmq container: %v", err)
	}
	amqpEndpoint, err = rabbitContainer.AmqpURL(ctx)
	if err != nil {
		log.Fatalf("rabbitmq amqp url: %v", err)
	}
	broker, err = adaptrabbitmq.NewRabbitMQAdapter(adaptconfig.RabbitMQConfig{
		URL:        amqpEndpoint,
		MaxRetries: 2,
		RetryDelay: 100 * time.Millisecond,
		ExchangeConfigs: []adaptconfig.ExchangeConfig{
			{Name: "exchange.store", Type: "direct", Durable: true, AutoDelete: false},
			{Name: "exchange.account", Type: "direct", Durable: true, AutoDelete: false},
		},
	})
	if err != nil {
		log.Fatalf("rabbitmq adapter: %v", err)
	}

	code := m.Run()

	_ = broker.Close()
	_ = redisClient.Close()
	_ = mongoClient.Disconnect(ctx)
	_ = mongoContainer.Terminate(ctx)
	_ = redisContainer.Terminate(ctx)
	_ = rabbitContainer.Terminate(ctx)

	os.Exit(code)
}

func setupConsumer(t *testing.T, exchange, routingKey string) <-chan amqp.Delivery {
	t.Helper()

	conn, err := amqp.Dial(amqpEndpoint)
	if err != nil {
		t.Fatalf("consumer dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	ch, err := conn.Channel()
	if err != nil {
		t.Fatalf("consumer channel: %v", err)
	}
	t.Cleanup(func() { ch.Close() })

	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		t.Fatalf("queue declare: %v", err)
	}
	if err := ch.QueueBind(q.Name, routingKey, exchange, false, nil); err != nil {
		t.Fatalf("queue bind: %v", err)
	}

	msgs, err := ch.Consume(q.Name, "", true, false, false, false, nil)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	return msgs
}

func buildStoreService(t *testing.T, dbName string) (*service.StoreService, *outbox.Handler) {
	t.Helper()
	db := mongoClient.Database(dbName)

	productRepo := repository.NewProductRepository(db)
	accountRepo := repository.NewAccountRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	outboxRepo := repository.NewOutboxRepository(db)
	txManager := adaptmongo.NewTransactionManager(mongoClient)

	if err := accountRepo.EnsureSeed(context.Background(), seedBalance); err != nil {
		t.Fatalf("seed account: %v", err)
	}

	viewCache := adaptredis.NewCache[domain.StoreView](redisClient, dbName+"-view")
	idempotencyCache := adaptredis.NewCache[service.IdempotencyEntry[domain.Receipt]](redisClient, dbName+"-idemp")
	idempotencyService := service.NewIdempotencyService(idempotencyCache, 5*time.Minute, 500*time.Millisecond, 10*time.Second)

	storeService := service.NewStoreService(
		productRepo, accountRepo, auditRepo, outboxRepo, viewCache, idempotencyService, txManager)

	outboxHandler := outbox.NewHandler(outboxRepo, broker, adaptconfig.OutboxConfig{
		Interval:  100 * time.Millisecond,
		BatchSize: 50,
	})

	return storeService, outboxHandler
}

func TestIntegration_BuySell_FullCycle(t *testing.T) {
	msgs := setupConsumer(t, "exchange.store", "stock.sold")

	storeSvc, outboxHandler := buildStoreService(t, "int_full_cycle")
	ctx := context.Background()

	handlerCtx, cancelHandler := context.WithCancel(ctx)
	defer cancelHandler()
	go outboxHandler.Start(handlerCtx)

	buyReceipt, err := storeSvc.Buy(ctx, "", &dto.BuyRequest{Name: "chleb", UnitPrice: 350, Count: 10})
	if err != nil {
		t.Fatalf("buy: %v", err)
	}
	if buyReceipt.Balance != seedBalance-domain.Amount(3500) {
		t.Fatalf("expected balance %d after buy, got %d", seedBalance-3500, buyReceipt.Balance)
	}

	sellReceipt, err := storeSvc.Sell(ctx, "", &dto.SellRequest{Name: "chleb", Count: 4})
	if err != nil {
		t.Fatalf("sell: %v", err)
	}
	if sellReceipt.Total != domain.Amount(1400) {
		t.Fatalf("expected sale total 1400, got %d", sellReceipt.Total)
	}

	select {
	case msg := <-msgs:
		var event domain.StockSoldEvent
		if err := json.Unmarshal(msg.Body, &event); err != nil {
			t.Fatalf("unmarshal event: %v", err)
		}
		if event.ProductName != "chleb" {
			t.Fatalf("event product_name: expected chleb, got %s", event.ProductName)
		}
		if event.Quantity != 4 {
			t.Fatalf("event quantity: expected 4, got %d", event.Quantity)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for stock.sold event")
	}

	view, err := storeSvc.Storefront(ctx)
	if err != nil {
		t.Fatalf("storefront: %v", err)
	}
	if len(view.Products) != 1 {
		t.Fatalf("expected 1 product, got %d", len(view.Products))
	}
	if view.Products[0].Stock != 6 {
		t.Fatalf("expected stock 6, got %d", view.Products[0].Stock)
	}
	if view.Balance != seedBalance-3500+1400 {
		t.Fatalf("expected balance %d, got %d", seedBalance-3500+1400, view.Balance)
	}

	records, err := storeSvc.History(ctx, 0, 0)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 audit records, got %d", len(records))
	}
	if records[0].Message != domain.PurchaseMessage("chleb", 10, domain.Amount(350)) {
		t.Fatalf("unexpected first record: %q", records[0].Message)
	}
	if records[1].Message != domain.SaleMessage("chleb", 4, domain.Amount(350)) {
		t.Fatalf("unexpected second record: %q", records[1].Message)
	}
}

func TestIntegration_Buy_Idempotency(t *testing.T) {
	storeSvc, _ := buildStoreService(t, "int_idempotency")
	ctx := context.Background()

	request := &dto.BuyRequest{Name: "mleko", UnitPrice: 289, Count: 5}

	r1, err := storeSvc.Buy(ctx, "idemp-key-1", request)
	if err != nil {
		t.Fatalf("first buy: %v", err)
	}
	r2, err := storeSvc.Buy(ctx, "idemp-key-1", request)
	if err != nil {
		t.Fatalf("second buy: %v", err)
	}
	if r2.Balance != r1.Balance {
		t.Fatalf("expected replayed receipt, got balances %d vs %d", r1.Balance, r2.Balance)
	}

	// Stock added only once
	view, _ := storeSvc.Storefront(ctx)
	if view.Products[0].Stock != 5 {
		t.Fatalf("expected stock 5 (single restock), got %d", view.Products[0].Stock)
	}
	balance, _ := storeSvc.Balance(ctx)
	if balance != seedBalance-domain.Amount(289*5) {
		t.Fatalf("expected single debit, got balance %d", balance)
	}
}

func TestIntegration_Buy_InsufficientFunds(t *testing.T) {
	storeSvc, _ := buildStoreService(t, "int_poor")
	ctx := context.Background()

	// 5000.00 seed; a purchase of exactly the whole balance must fail too
	_, err := storeSvc.Buy(ctx, "", &dto.BuyRequest{Name: "sejf", UnitPrice: seedBalance.Cents(), Count: 1})
	if !serviceerrors.IsOfKind(err, serviceerrors.KindInsufficientFunds) {
		t.Fatalf("expected KindInsufficientFunds, got %v", err)
	}

	// Nothing was created, nothing was debited
	view, _ := storeSvc.Storefront(ctx)
	if len(view.Products) != 0 {
		t.Fatalf("expected empty catalog, got %d products", len(view.Products))
	}
	if view.Balance != seedBalance {
		t.Fatalf("expected untouched balance, got %d", view.Balance)
	}

	// But the rejection is in the audit trail
	records, _ := storeSvc.History(ctx, 0, 0)
	if len(records) != 1 {
		t.Fatalf("expected 1 audit record, got %d", len(records))
	}
	if records[0].Message != domain.PurchaseRejectedMessage() {
		t.Fatalf("unexpected record: %q", records[0].Message)
	}
}

func TestIntegration_Sell_Rejections(t *testing.T) {
	storeSvc, _ := buildStoreService(t, "int_sell_reject")
	ctx := context.Background()

	t.Run("unknown product - no audit record", func(t *testing.T) {
		_, err := storeSvc.Sell(ctx, "", &dto.SellRequest{Name: "widmo", Count: 1})
		if !serviceerrors.IsOfKind(err, serviceerrors.KindNotFound) {
			t.Fatalf("expected KindNotFound, got %v", err)
		}

		records, _ := storeSvc.History(ctx, 0, 0)
		if len(records) != 0 {
			t.Fatalf("expected no audit records, got %d", len(records))
		}
	})

	t.Run("short stock - audited and rolled back", func(t *testing.T) {
		if _, err := storeSvc.Buy(ctx, "", &dto.BuyRequest{Name: "ser", UnitPrice: 1200, Count: 2}); err != nil {
			t.Fatalf("setup buy: %v", err)
		}

		_, err := storeSvc.Sell(ctx, "", &dto.SellRequest{Name: "ser", Count: 5})
		if !serviceerrors.IsOfKind(err, serviceerrors.KindInsufficientStock) {
			t.Fatalf("expected KindInsufficientStock, got %v", err)
		}

		view, _ := storeSvc.Storefront(ctx)
		if view.Products[0].Stock != 2 {
			t.Fatalf("stock should be unchanged, got %d", view.Products[0].Stock)
		}

		records, _ := storeSvc.History(ctx, 0, 0)
		last := records[len(records)-1]
		if last.Message != domain.SaleRejectedMessage("ser") {
			t.Fatalf("unexpected last record: %q", last.Message)
		}
	})
}

func TestIntegration_AdjustBalance(t *testing.T) {
	msgs := setupConsumer(t, "exchange.account", "account.adjusted")

	storeSvc, outboxHandler := buildStoreService(t, "int_adjust")
	ctx := context.Background()

	handlerCtx, cancelHandler := context.WithCancel(ctx)
	defer cancelHandler()
	go outboxHandler.Start(handlerCtx)

	receipt, err := storeSvc.AdjustBalance(ctx, &dto.AdjustBalanceRequest{Delta: -150000, Comment: "supplier payment"})
	if err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if receipt.Operation != domain.OperationWithdrawal {
		t.Fatalf("expected withdrawal, got %s", receipt.Operation)
	}
	if receipt.Balance != seedBalance-domain.Amount(150000) {
		t.Fatalf("expected balance %d, got %d", seedBalance-150000, receipt.Balance)
	}

	select {
	case msg := <-msgs:
		var event domain.BalanceAdjustedEvent
		if err := json.Unmarshal(msg.Body, &event); err != nil {
			t.Fatalf("unmarshal event: %v", err)
		}
		if event.Delta != -150000 {
			t.Fatalf("event delta: expected -150000, got %d", event.Delta)
		}
		if event.Comment != "supplier payment" {
			t.Fatalf("event comment: expected %q, got %q", "supplier payment", event.Comment)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for account.adjusted event")
	}

	// Draining the account entirely is rejected but still audited
	_, err = storeSvc.AdjustBalance(ctx, &dto.AdjustBalanceRequest{Delta: -receipt.Balance.Cents(), Comment: "drain"})
	if !serviceerrors.IsOfKind(err, serviceerrors.KindInsufficientFunds) {
		t.Fatalf("expected KindInsufficientFunds, got %v", err)
	}

	balance, _ := storeSvc.Balance(ctx)
	if balance != seedBalance-domain.Amount(150000) {
		t.Fatalf("expected rollback to %d, got %d", seedBalance-150000, balance)
	}

	records, _ := storeSvc.History(ctx, 0, 0)
	if len(records) != 2 {
		t.Fatalf("expected 2 audit records, got %d", len(records))
	}
}

func TestIntegration_History_RangeQuirk(t *testing.T) {
	storeSvc, _ := buildStoreService(t, "int_history")
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		if _, err := storeSvc.AdjustBalance(ctx, &dto.AdjustBalanceRequest{Delta: 100, Comment: "tick"}); err != nil {
			t.Fatalf("adjust %d: %v", i, err)
		}
	}

	ranged, err := storeSvc.History(ctx, 2, 3)
	if err != nil {
		t.Fatalf("ranged history: %v", err)
	}
	if len(ranged) != 2 {
		t.Fatalf("expected 2 records in range, got %d", len(ranged))
	}
	if ranged[0].Seq != 2 || ranged[1].Seq != 3 {
		t.Fatalf("expected seq [2 3], got [%d %d]", ranged[0].Seq, ranged[1].Seq)
	}

	// A missing bound disables the filter entirely
	full, err := storeSvc.History(ctx, 2, 0)
	if err != nil {
		t.Fatalf("full history: %v", err)
	}
	if len(full) != 4 {
		t.Fatalf("expected the whole log, got %d records", len(full))
	}
}

func TestIntegration_Storefront_Cache(t *testing.T) {
	storeSvc, _ := buildStoreService(t, "int_view_cache")
	ctx := context.Background()

	if _, err := storeSvc.Buy(ctx, "", &dto.BuyRequest{Name: "chleb", UnitPrice: 350, Count: 5}); err != nil {
		t.Fatalf("buy: %v", err)
	}

	v1, err := storeSvc.Storefront(ctx)
	if err != nil {
		t.Fatalf("first storefront: %v", err)
	}

	// Second fetch is served from the cache
	v2, err := storeSvc.Storefront(ctx)
	if err != nil {
		t.Fatalf("second storefront: %v", err)
	}
	if v1.Balance != v2.Balance || len(v1.Products) != len(v2.Products) {
		t.Fatal("cached view should match original")
	}

	// A mutation invalidates it
	if _, err := storeSvc.Sell(ctx, "", &dto.SellRequest{Name: "chleb", Count: 2}); err != nil {
		t.Fatalf("sell: %v", err)
	}
	v3, err := storeSvc.Storefront(ctx)
	if err != nil {
		t.Fatalf("third storefront: %v", err)
	}
	if v3.Products[0].Stock != 3 {
		t.Fatalf("expected fresh view with stock 3, got %d", v3.Products[0].Stock)
	}
}
