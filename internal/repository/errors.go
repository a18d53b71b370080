// Package repository содержит реализацию доступа к данным в PostgreSQL.
package repository

import (
	"errors"
	"strings"

	"github.com/mmeshcher/divineshop/internal/model"
)

var (
	// ErrNotFound возвращается, если запись с указанным идентификатором отсутствует.
	ErrNotFound = errors.New("not found")
	// ErrCustomerExists возвращается при повторном использовании email покупателя.
	ErrCustomerExists = errors.New("customer with this email already exists")
	// ErrUserExists возвращается при попытке создать пользователя с уже существующим логином.
	ErrUserExists = errors.New("user already exists")
	// ErrInsufficientStock возвращается, если остатка товара не хватает для заказа.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrStatusConflict возвращается, если статус заказа изменился параллельно.
	ErrStatusConflict = errors.New("order status changed concurrently")
	// ErrPaymentAlreadyUsed возвращается, если по платежу уже оформлен заказ.
	ErrPaymentAlreadyUsed = errors.New("payment already used for another order")
	// ErrPaymentShortfall возвращается, если итог заказа превышает оплаченную сумму.
	ErrPaymentShortfall = errors.New("order total exceeds paid amount")
)

// Options задаёт политики, общие для всех реализаций хранилища.
type Options struct {
	StockPolicy model.StockPolicy
	TieBreak    model.TieBreak
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern строит шаблон ILIKE для поиска подстроки.
func likePattern(query string) string {
	return "%" + likeEscaper.Replace(query) + "%"
}
