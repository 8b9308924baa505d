package service

import (
	"context"
	"errors"
	"testing"
	"time"

	catalogrepo "agrovet_backend/internal/catalog/repository"
	diagdomain "agrovet_backend/internal/diagnosis/domain"
	diagrepo "agrovet_backend/internal/diagnosis/repository"
	farmersrepo "agrovet_backend/internal/farmers/repository"
	"agrovet_backend/internal/orders/domain"
	"agrovet_backend/internal/orders/repository"
	"agrovet_backend/internal/orders/transport"
	retailersrepo "agrovet_backend/internal/retailers/repository"
	"agrovet_backend/platform/apperr"

	"github.com/google/uuid"
)

type fakeOrderStore struct {
	orders map[uuid.UUID]*repository.Order
	items  map[uuid.UUID][]repository.Item
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{
		orders: make(map[uuid.UUID]*repository.Order),
		items:  make(map[uuid.UUID][]repository.Item),
	}
}

func (f *fakeOrderStore) CreateWithItems(_ context.Context, o *repository.Order, items []repository.Item) error {
	cp := *o
	f.orders[o.ID] = &cp
	f.items[o.ID] = items
	return nil
}

func (f *fakeOrderStore) GetByID(_ context.Context, id uuid.UUID) (*repository.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, apperr.NotFound("order not found")
	}
	cp := *o
	return &cp, nil
}

func (f *fakeOrderStore) GetWithItems(ctx context.Context, id uuid.UUID) (*repository.OrderWithItems, error) {
	o, err := f.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &repository.OrderWithItems{Order: *o, Items: f.items[id]}, nil
}

func (f *fakeOrderStore) ListByFarmer(_ context.Context, farmerID uuid.UUID, status *string) ([]repository.Order, error) {
	out := make([]repository.Order, 0)
	for _, o := range f.orders {
		if o.FarmerID == farmerID && (status == nil || o.Status == *status) {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (f *fakeOrderStore) ListByRetailer(_ context.Context, retailerID uuid.UUID, status *string) ([]repository.Order, error) {
	out := make([]repository.Order, 0)
	for _, o := range f.orders {
		if o.RetailerID == retailerID && (status == nil || o.Status == *status) {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (f *fakeOrderStore) ListAll(_ context.Context, filter repository.ListFilter) ([]repository.Order, error) {
	out := make([]repository.Order, 0)
	for _, o := range f.orders {
		if filter.Status != nil && o.Status != *filter.Status {
			continue
		}
		if filter.RetailerID != nil && o.RetailerID != *filter.RetailerID {
			continue
		}
		if filter.FarmerID != nil && o.FarmerID != *filter.FarmerID {
			continue
		}
		out = append(out, *o)
	}
	return out, nil
}

func (f *fakeOrderStore) UpdateStatus(_ context.Context, id uuid.UUID, status string, notes *string) (*repository.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, apperr.NotFound("order not found")
	}
	o.Status = status
	if notes != nil {
		o.Notes = notes
	}
	now := time.Now().UTC()
	o.UpdatedAt = &now
	cp := *o
	return &cp, nil
}

type fakeFarmerReader struct {
	farmers map[uuid.UUID]*farmersrepo.Farmer
}

func (f *fakeFarmerReader) GetByID(_ context.Context, id uuid.UUID) (*farmersrepo.Farmer, error) {
	fr, ok := f.farmers[id]
	if !ok {
		return nil, apperr.NotFound("farmer not found")
	}
	return fr, nil
}

type mappingKey struct {
	retailerID uuid.UUID
	variantID  uuid.UUID
}

type fakeRetailerReader struct {
	retailers map[uuid.UUID]*retailersrepo.Retailer
	mappings  map[mappingKey]*retailersrepo.RetailerProduct
}

func (f *fakeRetailerReader) GetByID(_ context.Context, id uuid.UUID) (*retailersrepo.Retailer, error) {
	r, ok := f.retailers[id]
	if !ok {
		return nil, apperr.NotFound("retailer not found")
	}
	return r, nil
}

func (f *fakeRetailerReader) GetMapping(_ context.Context, retailerID, variantID uuid.UUID) (*retailersrepo.RetailerProduct, error) {
	m, ok := f.mappings[mappingKey{retailerID, variantID}]
	if !ok {
		return nil, apperr.NotFound("product not available from this retailer")
	}
	return m, nil
}

type fakeVariantReader struct {
	variants map[uuid.UUID]*catalogrepo.Variant
}

func (f *fakeVariantReader) GetVariant(_ context.Context, id uuid.UUID) (*catalogrepo.Variant, error) {
	v, ok := f.variants[id]
	if !ok {
		return nil, apperr.NotFound("product variant not found")
	}
	return v, nil
}

type fakeCaseStore struct {
	cases         map[uuid.UUID]*diagrepo.Case
	statusUpdates []string
}

func (f *fakeCaseStore) GetCase(_ context.Context, id uuid.UUID) (*diagrepo.Case, error) {
	c, ok := f.cases[id]
	if !ok {
		return nil, apperr.NotFound("diagnosis case not found")
	}
	return c, nil
}

func (f *fakeCaseStore) UpdateCaseStatus(_ context.Context, id uuid.UUID, status string) (*diagrepo.Case, error) {
	c, ok := f.cases[id]
	if !ok {
		return nil, apperr.NotFound("diagnosis case not found")
	}
	c.Status = status
	f.statusUpdates = append(f.statusUpdates, status)
	return c, nil
}

type fixture struct {
	svc        *Service
	orders     *fakeOrderStore
	retailers  *fakeRetailerReader
	variants   *fakeVariantReader
	cases      *fakeCaseStore
	farmerID   uuid.UUID
	retailerID uuid.UUID
}

func newFixture() *fixture {
	farmerID := uuid.New()
	retailerID := uuid.New()

	orders := newFakeOrderStore()
	farmers := &fakeFarmerReader{farmers: map[uuid.UUID]*farmersrepo.Farmer{
		farmerID: {ID: farmerID, Name: "Wanjiku Dairy", Phone: "+254700000001"},
	}}
	retailers := &fakeRetailerReader{
		retailers: map[uuid.UUID]*retailersrepo.Retailer{
			retailerID: {ID: retailerID, Name: "Agrovet Nakuru", IsActive: true},
		},
		mappings: make(map[mappingKey]*retailersrepo.RetailerProduct),
	}
	variants := &fakeVariantReader{variants: make(map[uuid.UUID]*catalogrepo.Variant)}
	cases := &fakeCaseStore{cases: make(map[uuid.UUID]*diagrepo.Case)}

	return &fixture{
		svc:        New(orders, farmers, retailers, variants, cases),
		orders:     orders,
		retailers:  retailers,
		variants:   variants,
		cases:      cases,
		farmerID:   farmerID,
		retailerID: retailerID,
	}
}

// addVariant registers an active variant with a retailer offer.
func (f *fixture) addVariant(priceCents int64, stock int) uuid.UUID {
	variantID := uuid.New()
	f.variants.variants[variantID] = &catalogrepo.Variant{
		ID: variantID, SKU: "SKU-" + variantID.String()[:8], IsActive: true,
	}
	f.retailers.mappings[mappingKey{f.retailerID, variantID}] = &retailersrepo.RetailerProduct{
		ID:               uuid.New(),
		RetailerID:       f.retailerID,
		ProductVariantID: variantID,
		PriceCents:       priceCents,
		StockQuantity:    stock,
		IsAvailable:      true,
	}
	return variantID
}

func assertKind(t *testing.T, err error, kind apperr.Kind) {
	t.Helper()
	var appErr *apperr.Error
	if !errors.As(err, &appErr) || appErr.Kind != kind {
		t.Fatalf("expected %v error, got %v", kind, err)
	}
}

func TestPlaceOrder(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	v1 := f.addVariant(45000, 10) // 450.00 x2
	v2 := f.addVariant(120050, 5) // 1200.50 x1

	caseID := uuid.New()
	f.cases.cases[caseID] = &diagrepo.Case{
		ID: caseID, FarmerID: f.farmerID, Status: diagdomain.StatusRecommendationShown,
	}

	resp, err := f.svc.PlaceOrder(ctx, f.farmerID, transport.PlaceOrderRequest{
		RetailerID:      f.retailerID,
		DiagnosisCaseID: &caseID,
		Items: []transport.OrderItemRequest{
			{ProductVariantID: v1, Quantity: 2},
			{ProductVariantID: v2, Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}

	if resp.Status != domain.StatusPending {
		t.Errorf("status = %q, want %q", resp.Status, domain.StatusPending)
	}
	if want := int64(2*45000 + 120050); resp.TotalAmountCents != want {
		t.Errorf("total = %d, want %d", resp.TotalAmountCents, want)
	}
	if len(resp.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(resp.Items))
	}
	if resp.Items[0].UnitPriceCents != 45000 {
		t.Errorf("unit price = %d, want 45000", resp.Items[0].UnitPriceCents)
	}

	if got := f.cases.cases[caseID].Status; got != diagdomain.StatusOrderPlaced {
		t.Errorf("case status = %q, want %q", got, diagdomain.StatusOrderPlaced)
	}

	stored := f.orders.orders[resp.ID]
	if stored == nil {
		t.Fatal("order not persisted")
	}
	if stored.SourceType == nil || *stored.SourceType != "diagnosis" {
		t.Errorf("source type = %v, want diagnosis", stored.SourceType)
	}
	if stored.SourceRefID == nil || *stored.SourceRefID != caseID {
		t.Errorf("source ref = %v, want %s", stored.SourceRefID, caseID)
	}
}

func TestPlaceOrderWithoutCase(t *testing.T) {
	f := newFixture()
	v1 := f.addVariant(1000, 3)

	resp, err := f.svc.PlaceOrder(context.Background(), f.farmerID, transport.PlaceOrderRequest{
		RetailerID: f.retailerID,
		Items:      []transport.OrderItemRequest{{ProductVariantID: v1, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if resp.DiagnosisCaseID != nil {
		t.Errorf("diagnosis case = %v, want nil", resp.DiagnosisCaseID)
	}
	if len(f.cases.statusUpdates) != 0 {
		t.Errorf("case status updates = %v, want none", f.cases.statusUpdates)
	}
	if stored := f.orders.orders[resp.ID]; stored.SourceType != nil {
		t.Errorf("source type = %v, want nil", stored.SourceType)
	}
}

func TestPlaceOrderInactiveRetailer(t *testing.T) {
	f := newFixture()
	f.retailers.retailers[f.retailerID].IsActive = false
	v1 := f.addVariant(1000, 3)

	_, err := f.svc.PlaceOrder(context.Background(), f.farmerID, transport.PlaceOrderRequest{
		RetailerID: f.retailerID,
		Items:      []transport.OrderItemRequest{{ProductVariantID: v1, Quantity: 1}},
	})
	assertKind(t, err, apperr.KindValidation)
}

func TestPlaceOrderForeignCase(t *testing.T) {
	f := newFixture()
	v1 := f.addVariant(1000, 3)

	caseID := uuid.New()
	f.cases.cases[caseID] = &diagrepo.Case{ID: caseID, FarmerID: uuid.New(), Status: diagdomain.StatusAnalyzed}

	_, err := f.svc.PlaceOrder(context.Background(), f.farmerID, transport.PlaceOrderRequest{
		RetailerID:      f.retailerID,
		DiagnosisCaseID: &caseID,
		Items:           []transport.OrderItemRequest{{ProductVariantID: v1, Quantity: 1}},
	})
	assertKind(t, err, apperr.KindForbidden)
}

func TestPlaceOrderItemValidation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	t.Run("unknown variant", func(t *testing.T) {
		_, err := f.svc.PlaceOrder(ctx, f.farmerID, transport.PlaceOrderRequest{
			RetailerID: f.retailerID,
			Items:      []transport.OrderItemRequest{{ProductVariantID: uuid.New(), Quantity: 1}},
		})
		assertKind(t, err, apperr.KindNotFound)
	})

	t.Run("inactive variant", func(t *testing.T) {
		v := f.addVariant(1000, 3)
		f.variants.variants[v].IsActive = false
		_, err := f.svc.PlaceOrder(ctx, f.farmerID, transport.PlaceOrderRequest{
			RetailerID: f.retailerID,
			Items:      []transport.OrderItemRequest{{ProductVariantID: v, Quantity: 1}},
		})
		assertKind(t, err, apperr.KindValidation)
	})

	t.Run("not stocked by retailer", func(t *testing.T) {
		v := f.addVariant(1000, 3)
		delete(f.retailers.mappings, mappingKey{f.retailerID, v})
		_, err := f.svc.PlaceOrder(ctx, f.farmerID, transport.PlaceOrderRequest{
			RetailerID: f.retailerID,
			Items:      []transport.OrderItemRequest{{ProductVariantID: v, Quantity: 1}},
		})
		assertKind(t, err, apperr.KindNotFound)
	})

	t.Run("offer unavailable", func(t *testing.T) {
		v := f.addVariant(1000, 3)
		f.retailers.mappings[mappingKey{f.retailerID, v}].IsAvailable = false
		_, err := f.svc.PlaceOrder(ctx, f.farmerID, transport.PlaceOrderRequest{
			RetailerID: f.retailerID,
			Items:      []transport.OrderItemRequest{{ProductVariantID: v, Quantity: 1}},
		})
		assertKind(t, err, apperr.KindConflict)
	})

	t.Run("insufficient stock", func(t *testing.T) {
		v := f.addVariant(1000, 2)
		_, err := f.svc.PlaceOrder(ctx, f.farmerID, transport.PlaceOrderRequest{
			RetailerID: f.retailerID,
			Items:      []transport.OrderItemRequest{{ProductVariantID: v, Quantity: 3}},
		})
		assertKind(t, err, apperr.KindConflict)
	})
}

func TestGetOrderOwnership(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	v1 := f.addVariant(1000, 3)

	resp, err := f.svc.PlaceOrder(ctx, f.farmerID, transport.PlaceOrderRequest{
		RetailerID: f.retailerID,
		Items:      []transport.OrderItemRequest{{ProductVariantID: v1, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}

	got, err := f.svc.GetOrder(ctx, f.farmerID, resp.ID)
	if err != nil {
		t.Fatalf("GetOrder: %v", err)
	}
	if len(got.Items) != 1 {
		t.Errorf("items = %d, want 1", len(got.Items))
	}

	_, err = f.svc.GetOrder(ctx, uuid.New(), resp.ID)
	assertKind(t, err, apperr.KindForbidden)
}

func TestListOrdersRejectsUnknownStatus(t *testing.T) {
	f := newFixture()
	bad := "shipped"
	_, err := f.svc.ListOrders(context.Background(), f.farmerID, &bad)
	assertKind(t, err, apperr.KindValidation)
}

func TestListAllOrders(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	v1 := f.addVariant(1000, 10)

	first, err := f.svc.PlaceOrder(ctx, f.farmerID, transport.PlaceOrderRequest{
		RetailerID: f.retailerID,
		Items:      []transport.OrderItemRequest{{ProductVariantID: v1, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if _, err := f.svc.PlaceOrder(ctx, f.farmerID, transport.PlaceOrderRequest{
		RetailerID: f.retailerID,
		Items:      []transport.OrderItemRequest{{ProductVariantID: v1, Quantity: 2}},
	}); err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if _, err := f.svc.UpdateOrderStatus(ctx, f.retailerID, first.ID, transport.UpdateOrderStatusRequest{Action: "accept"}); err != nil {
		t.Fatalf("accept: %v", err)
	}

	all, err := f.svc.ListAllOrders(ctx, nil, nil, nil)
	if err != nil {
		t.Fatalf("ListAllOrders: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("orders = %d, want 2", len(all))
	}

	accepted := domain.StatusAccepted
	byStatus, err := f.svc.ListAllOrders(ctx, &accepted, nil, nil)
	if err != nil {
		t.Fatalf("ListAllOrders by status: %v", err)
	}
	if len(byStatus) != 1 || byStatus[0].ID != first.ID {
		t.Errorf("accepted orders = %v", byStatus)
	}

	otherRetailer := uuid.New()
	none, err := f.svc.ListAllOrders(ctx, nil, &otherRetailer, nil)
	if err != nil {
		t.Fatalf("ListAllOrders by retailer: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("orders for unknown retailer = %d, want 0", len(none))
	}

	byFarmer, err := f.svc.ListAllOrders(ctx, nil, nil, &f.farmerID)
	if err != nil {
		t.Fatalf("ListAllOrders by farmer: %v", err)
	}
	if len(byFarmer) != 2 {
		t.Errorf("orders for farmer = %d, want 2", len(byFarmer))
	}

	bad := "shipped"
	_, err = f.svc.ListAllOrders(ctx, &bad, nil, nil)
	assertKind(t, err, apperr.KindValidation)
}

func TestGetOrderDetail(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	v1 := f.addVariant(2500, 3)

	resp, err := f.svc.PlaceOrder(ctx, f.farmerID, transport.PlaceOrderRequest{
		RetailerID: f.retailerID,
		Items:      []transport.OrderItemRequest{{ProductVariantID: v1, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}

	got, err := f.svc.GetOrderDetail(ctx, resp.ID)
	if err != nil {
		t.Fatalf("GetOrderDetail: %v", err)
	}
	if len(got.Items) != 1 || got.Items[0].UnitPriceCents != 2500 {
		t.Errorf("items = %+v", got.Items)
	}
	if got.TotalAmountCents != 5000 {
		t.Errorf("total = %d, want 5000", got.TotalAmountCents)
	}

	_, err = f.svc.GetOrderDetail(ctx, uuid.New())
	assertKind(t, err, apperr.KindNotFound)
}

func TestUpdateOrderStatus(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	v1 := f.addVariant(1000, 5)

	resp, err := f.svc.PlaceOrder(ctx, f.farmerID, transport.PlaceOrderRequest{
		RetailerID: f.retailerID,
		Items:      []transport.OrderItemRequest{{ProductVariantID: v1, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	orderID := resp.ID

	notes := "ready for pickup"
	upd, err := f.svc.UpdateOrderStatus(ctx, f.retailerID, orderID, transport.UpdateOrderStatusRequest{
		Action: "Accept", Notes: &notes,
	})
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if upd.Status != domain.StatusAccepted {
		t.Errorf("status = %q, want %q", upd.Status, domain.StatusAccepted)
	}
	if got := f.orders.orders[orderID].Notes; got == nil || *got != notes {
		t.Errorf("notes = %v, want %q", got, notes)
	}

	upd, err = f.svc.UpdateOrderStatus(ctx, f.retailerID, orderID, transport.UpdateOrderStatusRequest{Action: "fulfill"})
	if err != nil {
		t.Fatalf("fulfill: %v", err)
	}
	if upd.Status != domain.StatusFulfilled {
		t.Errorf("status = %q, want %q", upd.Status, domain.StatusFulfilled)
	}

	// fulfilled is terminal
	_, err = f.svc.UpdateOrderStatus(ctx, f.retailerID, orderID, transport.UpdateOrderStatusRequest{Action: "cancel"})
	assertKind(t, err, apperr.KindValidation)
}

func TestUpdateOrderStatusInvalidAction(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	v1 := f.addVariant(1000, 5)

	resp, err := f.svc.PlaceOrder(ctx, f.farmerID, transport.PlaceOrderRequest{
		RetailerID: f.retailerID,
		Items:      []transport.OrderItemRequest{{ProductVariantID: v1, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}

	_, err = f.svc.UpdateOrderStatus(ctx, f.retailerID, resp.ID, transport.UpdateOrderStatusRequest{Action: "approve"})
	assertKind(t, err, apperr.KindValidation)

	// fulfill is not reachable from pending
	_, err = f.svc.UpdateOrderStatus(ctx, f.retailerID, resp.ID, transport.UpdateOrderStatusRequest{Action: "fulfill"})
	assertKind(t, err, apperr.KindValidation)
}

func TestUpdateOrderStatusOwnership(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	v1 := f.addVariant(1000, 5)

	resp, err := f.svc.PlaceOrder(ctx, f.farmerID, transport.PlaceOrderRequest{
		RetailerID: f.retailerID,
		Items:      []transport.OrderItemRequest{{ProductVariantID: v1, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}

	_, err = f.svc.UpdateOrderStatus(ctx, uuid.New(), resp.ID, transport.UpdateOrderStatusRequest{Action: "accept"})
	assertKind(t, err, apperr.KindForbidden)
}
