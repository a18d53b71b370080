package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmeshcher/divineshop/internal/model"
	"github.com/mmeshcher/divineshop/internal/repository"
	"github.com/mmeshcher/divineshop/internal/repository/memstore"
	"github.com/mmeshcher/divineshop/internal/service"
)

func TestSeedIsRepeatable(t *testing.T) {
	ctx := context.Background()
	store := memstore.New(repository.Options{})
	svc := service.NewService(store, nil, nil, service.Options{BcryptCost: bcrypt.MinCost})
	opts := seedOptions{AdminUsername: "admin", AdminPassword: "admin123"}

	require.NoError(t, seed(ctx, svc, opts, zap.NewNop().Sugar()))

	products, err := store.ListProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, products, len(sampleProducts))

	orders, err := store.ListOrders(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 3)
	assert.Equal(t, model.OrderStatusCompleted, orders[0].Status)
	assert.Equal(t, model.OrderStatusProcessing, orders[1].Status)
	assert.Equal(t, model.OrderStatusPending, orders[2].Status)

	admin, err := svc.Authenticate(ctx, model.Credentials{Username: "admin", Password: "admin123"})
	require.NoError(t, err)
	assert.Equal(t, "Administrator", admin.Role)

	require.NoError(t, seed(ctx, svc, opts, zap.NewNop().Sugar()))

	products, err = store.ListProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, products, len(sampleProducts))

	customers, err := store.ListCustomers(ctx)
	require.NoError(t, err)
	assert.Len(t, customers, len(sampleCustomers))
}
