package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/resto_admin/internal/db"
	"github.com/Skotchmaster/resto_admin/internal/models"
	"github.com/Skotchmaster/resto_admin/internal/transport"
	"github.com/Skotchmaster/resto_admin/pkg/domain"
)

func newTestRepo(t *testing.T) *GormRepo {
	t.Helper()
	ctx := context.Background()
	gdb, err := db.Open(ctx, "sqlite::memory:")
	require.NoError(t, err)
	require.NoError(t, db.Migrate(ctx, gdb))
	t.Cleanup(func() { _ = db.Close(gdb) })
	return &GormRepo{DB: gdb}
}

func ptr[T any](v T) *T { return &v }

func TestOperator_MissingIsNil(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	op, err := r.Operator(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, op)

	err = r.TouchLastLogin(ctx, "nobody", time.Now())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateOperator_AndTouch(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	op, err := r.CreateOperator(ctx, &models.Account{Email: "Chef@Resto.test", PasswordHash: "x", DisplayName: "Chef"}, domain.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, "chef@resto.test", op.Email)
	assert.Nil(t, op.LastLogin)

	at := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	require.NoError(t, r.TouchLastLogin(ctx, op.UID, at))

	got, err := r.Operator(ctx, op.UID)
	require.NoError(t, err)
	require.NotNil(t, got.LastLogin)
	assert.True(t, at.Equal(*got.LastLogin))

	_, err = r.CreateOperator(ctx, &models.Account{Email: "chef@resto.test", PasswordHash: "y"}, domain.RoleAdmin)
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestMenuItem_CreateThenReadRoundTrips(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	created, err := r.CreateMenuItem(ctx, &models.MenuItem{
		Name: "Rendang", Price: 25000, Category: "Main Courses",
		Description: "slow-cooked beef", ImageURL: "https://img.resto.id/rendang.jpg",
		Available: true, IsPopular: true,
	})
	require.NoError(t, err)

	got, err := r.GetMenuItem(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, created.CreatedAt.Equal(got.CreatedAt), "created_at %v != %v", created.CreatedAt, got.CreatedAt)
	assert.True(t, created.UpdatedAt.Equal(got.UpdatedAt), "updated_at %v != %v", created.UpdatedAt, got.UpdatedAt)
	assert.Equal(t, time.UTC, got.CreatedAt.Location())
	assert.False(t, got.CreatedAt.IsZero())

	want, have := *created, *got
	want.CreatedAt, want.UpdatedAt = time.Time{}, time.Time{}
	have.CreatedAt, have.UpdatedAt = time.Time{}, time.Time{}
	assert.Equal(t, want, have)
	assert.EqualValues(t, 25000, have.Price)
	assert.Equal(t, "Main Courses", have.Category)
}

func TestPatchMenuItem_OnlyProvidedFields(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	created, err := r.CreateMenuItem(ctx, &models.MenuItem{
		Name: "Nasi Goreng", Price: 30000, Category: "Main Courses", Description: "spicy", Available: true,
	})
	require.NoError(t, err)

	got, err := r.PatchMenuItem(ctx, transport.PatchMenuItemRequest{Price: ptr(int64(32000))}, created.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 32000, got.Price)
	assert.Equal(t, "Nasi Goreng", got.Name)
	assert.Equal(t, "spicy", got.Description)
	assert.True(t, got.Available)

	got, err = r.PatchMenuItem(ctx, transport.PatchMenuItemRequest{Available: ptr(false)}, created.ID)
	require.NoError(t, err)
	assert.False(t, got.Available)
	assert.EqualValues(t, 32000, got.Price)

	_, err = r.PatchMenuItem(ctx, transport.PatchMenuItemRequest{Name: ptr("x")}, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMenuItems_ByCategoryAndDelete(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	for _, m := range []models.MenuItem{
		{Name: "Es Teh", Price: 5000, Category: "Beverages"},
		{Name: "Kopi", Price: 8000, Category: "Beverages"},
		{Name: "Sate", Price: 25000, Category: "Main Courses"},
	} {
		_, err := r.CreateMenuItem(ctx, &m)
		require.NoError(t, err)
	}

	drinks, err := r.ListMenuItems(ctx, "Beverages")
	require.NoError(t, err)
	require.Len(t, drinks, 2)
	assert.Equal(t, "Es Teh", drinks[0].Name)

	all, err := r.ListMenuItems(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	require.NoError(t, r.DeleteMenuItem(ctx, drinks[0].ID))
	assert.ErrorIs(t, r.DeleteMenuItem(ctx, drinks[0].ID), ErrNotFound)

	n, err := r.CountMenuItems(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func TestCategories_SeedRenameMigrate(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	added, err := r.SeedCategories(ctx, domain.DefaultCategories)
	require.NoError(t, err)
	assert.Equal(t, 4, added)
	added, err = r.SeedCategories(ctx, domain.DefaultCategories)
	require.NoError(t, err)
	assert.Equal(t, 0, added)

	drinks, err := r.CategoryByName(ctx, "beverages")
	require.NoError(t, err)
	_, err = r.CreateMenuItem(ctx, &models.MenuItem{Name: "Kopi", Price: 8000, Category: "Beverages"})
	require.NoError(t, err)

	renamed, err := r.RenameCategory(ctx, drinks.ID, "Drinks")
	require.NoError(t, err)
	assert.Equal(t, "Drinks", renamed.Name)
	items, err := r.ListMenuItems(ctx, "Drinks")
	require.NoError(t, err)
	assert.Len(t, items, 1)

	require.NoError(t, r.DB.Create(&models.Category{Nama: "Snacks"}).Error)
	moved, err := r.MigrateCategoryNames(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, moved)
	_, err = r.CategoryByName(ctx, "Snacks")
	require.NoError(t, err)

	moved, err = r.MigrateCategoryNames(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 0, moved)
}

func testOrder(user string, created time.Time, names ...string) domain.Order {
	o := domain.Order{UserID: user, Status: domain.StatusPending, CreatedAt: created, UpdatedAt: created}
	for i, n := range names {
		o.Items = append(o.Items, domain.OrderLineItem{MenuItemID: "m" + n, Name: n, Price: int64(1000 * (i + 1)), Quantity: 1})
	}
	o.TotalPrice = domain.Total(o.Items)
	return o
}

func TestOrders_CreateListHistory(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	base := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)

	first, err := r.CreateOrder(ctx, testOrder("u1", base, "c", "a", "b"))
	require.NoError(t, err)
	require.Len(t, first.Items, 3)
	assert.Equal(t, []string{"c", "a", "b"}, []string{first.Items[0].Name, first.Items[1].Name, first.Items[2].Name})
	assert.EqualValues(t, 6000, first.TotalPrice)

	second, err := r.CreateOrder(ctx, testOrder("u2", base.Add(time.Minute), "x"))
	require.NoError(t, err)

	total, list, err := r.ListOrders(ctx, transport.OrderFilter{}, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)

	_, byUser, err := r.ListOrders(ctx, transport.OrderFilter{UserID: "u1"}, 0, 10)
	require.NoError(t, err)
	require.Len(t, byUser, 1)
	assert.Equal(t, first.ID, byUser[0].ID)

	next, err := domain.Transition(*first, domain.StatusProcessing, base.Add(time.Hour))
	require.NoError(t, err)
	_, err = r.SaveTransition(ctx, next, domain.StatusChange{
		From: domain.StatusPending, To: domain.StatusProcessing, ChangedBy: "op1", ChangedAt: base.Add(time.Hour),
	})
	require.NoError(t, err)

	got, err := r.GetOrder(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusProcessing, got.Status)

	_, processing, err := r.ListOrders(ctx, transport.OrderFilter{Status: domain.StatusProcessing}, 0, 10)
	require.NoError(t, err)
	assert.Len(t, processing, 1)

	hist, err := r.StatusHistory(ctx, first.ID)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, domain.StatusPending, hist[0].From)
	assert.Equal(t, "op1", hist[0].ChangedBy)

	counts, err := r.CountOrdersByStatus(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, counts[domain.StatusPending])
	assert.EqualValues(t, 1, counts[domain.StatusProcessing])
	assert.EqualValues(t, 0, counts[domain.StatusCancelled])

	require.NoError(t, r.DeleteOrder(ctx, first.ID))
	_, err = r.GetOrder(ctx, first.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, r.DeleteOrder(ctx, first.ID), ErrNotFound)
}

func TestPatchOrder(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	o, err := r.CreateOrder(ctx, testOrder("u1", time.Now().UTC(), "a"))
	require.NoError(t, err)

	got, err := r.PatchOrder(ctx, transport.PatchOrderRequest{ContactPhone: ptr("0812")}, o.ID)
	require.NoError(t, err)
	assert.Equal(t, "0812", got.ContactPhone)
	assert.Equal(t, domain.StatusPending, got.Status)
}

func TestRefreshRotation(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, r.SaveRefresh(ctx, &models.RefreshToken{JTI: "j1", UserID: "u1", TokenHash: "h1", ExpiresAt: now.Add(time.Hour)}))

	next := &models.RefreshToken{JTI: "j2", UserID: "u1", TokenHash: "h2", ExpiresAt: now.Add(time.Hour)}
	require.NoError(t, r.RotateRefresh(ctx, "j1", "h1", next, now))

	again := &models.RefreshToken{JTI: "j3", UserID: "u1", TokenHash: "h3", ExpiresAt: now.Add(time.Hour)}
	assert.ErrorIs(t, r.RotateRefresh(ctx, "j1", "h1", again, now), ErrTokenRevoked)

	require.NoError(t, r.RevokeRefresh(ctx, "h2"))
	require.NoError(t, r.RevokeRefresh(ctx, "h2"))
	require.NoError(t, r.RevokeRefresh(ctx, "unknown"))
}

func TestStoreError_WrapsDriverFailure(t *testing.T) {
	r := newTestRepo(t)
	require.NoError(t, db.Close(r.DB))

	_, err := r.ListMenuItems(context.Background(), "")
	require.Error(t, err)
	var se *StoreError
	assert.True(t, errors.As(err, &se))
	assert.Equal(t, "list_menu_items", se.Op)
}
