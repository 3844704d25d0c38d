package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"testing"

	"cartsync/internal/domain/model"
	infraRepo "cartsync/internal/infra/repository"
	"cartsync/internal/usecase"

	"github.com/cucumber/godog"
	"github.com/shopspring/decimal"
)

// シナリオ用の在庫サービス
type featureInventory struct {
	mu    sync.Mutex
	stock map[int64]int64
	info  map[int64]model.ItemInfo
	down  bool
}

func (f *featureInventory) GetStock(ctx context.Context, productID int64) (model.StockInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return model.StockInfo{}, errors.New("dial tcp: connection refused")
	}
	return model.StockInfo{ID: productID, Amount: f.stock[productID]}, nil
}

func (f *featureInventory) GetItemInfo(ctx context.Context, productID int64) (model.ItemInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return model.ItemInfo{}, errors.New("dial tcp: connection refused")
	}
	info, ok := f.info[productID]
	if !ok {
		return model.ItemInfo{}, fmt.Errorf("product %d: unexpected status 404", productID)
	}
	return info, nil
}

type cartTestContext struct {
	inventory *featureInventory
	storage   *infraRepo.CartSnapshotMemoryRepository
	store     *usecase.CartStore
	last      usecase.Outcome
}

func (c *cartTestContext) reset() {
	c.inventory = &featureInventory{
		stock: make(map[int64]int64),
		info:  make(map[int64]model.ItemInfo),
	}
	c.storage = infraRepo.NewCartSnapshotMemoryRepository()
	c.store = nil
	c.last = usecase.Outcome{}
}

func (c *cartTestContext) theInventoryHasProduct(id int64, title, price string, amount int64) error {
	p, err := decimal.NewFromString(price)
	if err != nil {
		return err
	}
	c.inventory.stock[id] = amount
	c.inventory.info[id] = model.ItemInfo{ID: id, Title: title, Price: p, Image: "https://img/" + title + ".jpg"}
	return nil
}

func (c *cartTestContext) theInventoryServiceIsUnreachable() error {
	c.inventory.down = true
	return nil
}

func (c *cartTestContext) anEmptyCart() error {
	return c.open()
}

func (c *cartTestContext) theCartIsReopened() error {
	return c.open()
}

func (c *cartTestContext) open() error {
	store, err := usecase.NewCartStore(context.Background(), testKey, c.inventory, c.storage, nil)
	if err != nil {
		return err
	}
	c.store = store
	return nil
}

func (c *cartTestContext) iAddProduct(id int64) error {
	c.last = c.store.AddItem(context.Background(), id)
	return nil
}

func (c *cartTestContext) iRemoveProduct(id int64) error {
	c.last = c.store.RemoveItem(context.Background(), id)
	return nil
}

func (c *cartTestContext) iSetTheQuantityOfProduct(id, amount int64) error {
	c.last = c.store.SetQuantity(context.Background(), id, amount)
	return nil
}

func (c *cartTestContext) theCartContainsProductWithQuantity(id, qty int64) error {
	items := c.store.Items()
	idx := items.IndexOf(id)
	if idx < 0 {
		return fmt.Errorf("product %d not in cart %v", id, items)
	}
	if items[idx].Quantity != qty {
		return fmt.Errorf("expected quantity %d, got %d", qty, items[idx].Quantity)
	}
	return nil
}

func (c *cartTestContext) theCartIsEmpty() error {
	if n := len(c.store.Items()); n != 0 {
		return fmt.Errorf("expected empty cart, got %d items", n)
	}
	return nil
}

func (c *cartTestContext) theCartListsProducts(list string) error {
	items := c.store.Items()
	got := make([]string, len(items))
	for i, it := range items {
		got[i] = strconv.FormatInt(it.ID, 10)
	}
	if strings.Join(got, ",") != list {
		return fmt.Errorf("expected %s, got %s", list, strings.Join(got, ","))
	}
	return nil
}

func (c *cartTestContext) theCartWasSaved() error {
	data, found, err := c.storage.Load(context.Background(), testKey)
	if err != nil {
		return err
	}
	if !found {
		return errors.New("nothing saved")
	}
	saved, err := model.DecodeCollection(data)
	if err != nil {
		return err
	}
	current := c.store.Items()
	if len(saved) != len(current) {
		return fmt.Errorf("saved %d items, cart has %d", len(saved), len(current))
	}
	for i := range saved {
		if saved[i].ID != current[i].ID || saved[i].Quantity != current[i].Quantity {
			return fmt.Errorf("saved item %d differs: %+v vs %+v", i, saved[i], current[i])
		}
	}
	return nil
}

func (c *cartTestContext) theNoticeIs(code string) error {
	notice, ok := usecase.NoticeFor(c.last)
	if !ok {
		return errors.New("expected a notice, operation succeeded")
	}
	if string(notice.Code) != code {
		return fmt.Errorf("expected notice %s, got %s", code, notice.Code)
	}
	return nil
}

func (c *cartTestContext) thereIsNoNotice() error {
	if notice, ok := usecase.NoticeFor(c.last); ok {
		return fmt.Errorf("unexpected notice %s", notice.Code)
	}
	return nil
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := &cartTestContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	// Given steps
	ctx.Step(`^the inventory has product (\d+) "([^"]*)" priced "([^"]*)" with stock (\d+)$`, tc.theInventoryHasProduct)
	ctx.Step(`^the inventory service is unreachable$`, tc.theInventoryServiceIsUnreachable)
	ctx.Step(`^an empty cart$`, tc.anEmptyCart)

	// When steps
	ctx.Step(`^I add product (\d+)$`, tc.iAddProduct)
	ctx.Step(`^I remove product (\d+)$`, tc.iRemoveProduct)
	ctx.Step(`^I set the quantity of product (\d+) to (-?\d+)$`, tc.iSetTheQuantityOfProduct)
	ctx.Step(`^the cart is reopened$`, tc.theCartIsReopened)

	// Then steps
	ctx.Step(`^the cart contains product (\d+) with quantity (\d+)$`, tc.theCartContainsProductWithQuantity)
	ctx.Step(`^the cart is empty$`, tc.theCartIsEmpty)
	ctx.Step(`^the cart lists products "([^"]*)"$`, tc.theCartListsProducts)
	ctx.Step(`^the cart was saved$`, tc.theCartWasSaved)
	ctx.Step(`^the notice is "([^"]*)"$`, tc.theNoticeIs)
	ctx.Step(`^there is no notice$`, tc.thereIsNoNotice)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features/cart.feature"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
