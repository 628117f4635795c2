package usecase_test

import (
	"context"
	"net/http"
	"testing"

	"mealmates/internal/domain/model"
	repo "mealmates/internal/repository"
	"mealmates/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newCartUsecase() (*usecase.CartUsecase, *MenuRepoMock, *OrderRepoMock) {
	menu := new(MenuRepoMock)
	orders := new(OrderRepoMock)
	return usecase.NewCartUsecase(usecase.NewCartRegistry(newMemCartStore(), &fixedClock{now: baseNow}, 0), menu, orders), menu, orders
}

func TestCartUsecase_AddItem(t *testing.T) {
	ctx := context.Background()
	uc, menu, _ := newCartUsecase()
	menu.On("FindByID", mock.Anything, "burger").Return(burger(), nil)

	res, err := uc.AddItem(ctx, "sess", usecase.AddCartInput{MenuItemID: "burger"})
	require.NoError(t, err)
	res, err = uc.AddItem(ctx, "sess", usecase.AddCartInput{MenuItemID: "burger"})
	require.NoError(t, err)

	require.Len(t, res.Lines, 1)
	assert.Equal(t, 2, res.Lines[0].Quantity)
	assert.Equal(t, []string{}, res.Lines[0].SelectedOptions)
	assert.True(t, res.Total.Equal(dec("12.00")))
	assert.Equal(t, 2, res.ItemCount)
	// 10分x2 + 梱包5分
	assert.Equal(t, 25, res.PickupPrepMinutes)
}

func TestCartUsecase_AddItem_Rejects(t *testing.T) {
	ctx := context.Background()
	uc, menu, _ := newCartUsecase()

	soldOut := fries()
	soldOut.IsAvailable = false
	menu.On("FindByID", mock.Anything, "fries").Return(soldOut, nil)
	menu.On("FindByID", mock.Anything, "ghost").Return(nil, repo.ErrNotFound)

	_, err := uc.AddItem(ctx, "sess", usecase.AddCartInput{MenuItemID: "fries"})
	var verr *usecase.ValidationError
	assert.ErrorAs(t, err, &verr)

	_, err = uc.AddItem(ctx, "sess", usecase.AddCartInput{MenuItemID: "ghost"})
	assertHTTPStatus(t, err, http.StatusNotFound)

	_, err = uc.AddItem(ctx, "", usecase.AddCartInput{MenuItemID: "fries"})
	assertHTTPStatus(t, err, http.StatusBadRequest)
}

func TestCartUsecase_Reorder(t *testing.T) {
	ctx := context.Background()
	uc, menu, orders := newCartUsecase()

	owner := "user-1"
	orders.On("FindByID", mock.Anything, "o1").Return(model.Order{
		ID:     "o1",
		UserID: &owner,
		Items: []model.OrderItem{
			{MenuItemID: "burger", Quantity: 2, PriceAtOrder: dec("5.00"), SelectedOptions: model.StringList{"cheese"}},
			{MenuItemID: "retired", Quantity: 1, PriceAtOrder: dec("9.00")},
		},
	}, nil)
	menu.On("FindByID", mock.Anything, "burger").Return(burger(), nil)
	menu.On("FindByID", mock.Anything, "retired").Return(nil, repo.ErrNotFound)

	res, err := uc.Reorder(ctx, "sess", owner, "o1")
	require.NoError(t, err)
	assert.Equal(t, []string{"retired"}, res.Skipped)
	require.Len(t, res.Cart.Lines, 1)
	assert.Equal(t, "burger|cheese", res.Cart.Lines[0].LineID)
	assert.Equal(t, 2, res.Cart.Lines[0].Quantity)
	// 今日の価格で入れ直す
	assert.True(t, res.Cart.Total.Equal(dec("12.00")))
}

func TestCartUsecase_Reorder_OtherUsersOrderIsNotFound(t *testing.T) {
	uc, _, orders := newCartUsecase()
	someoneElse := "user-2"
	orders.On("FindByID", mock.Anything, "o1").Return(model.Order{ID: "o1", UserID: &someoneElse}, nil)
	orders.On("FindByID", mock.Anything, "guest").Return(model.Order{ID: "guest"}, nil)

	_, err := uc.Reorder(context.Background(), "sess", "user-1", "o1")
	assertHTTPStatus(t, err, http.StatusNotFound)

	_, err = uc.Reorder(context.Background(), "sess", "user-1", "guest")
	assertHTTPStatus(t, err, http.StatusNotFound)
}
