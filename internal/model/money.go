package model

import "github.com/shopspring/decimal"

// LineTotal возвращает стоимость строки заказа.
func LineTotal(price float64, quantity int64) decimal.Decimal {
	return decimal.NewFromFloat(price).Mul(decimal.NewFromInt(quantity))
}

// OrderTotal считает сумму заказа по строкам с округлением до центов.
func OrderTotal(items []OrderItem) float64 {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(LineTotal(it.Price, it.Quantity))
	}
	return sum.Round(2).InexactFloat64()
}

// ToCents переводит денежную сумму в минимальные единицы валюты.
func ToCents(amount float64) int64 {
	return decimal.NewFromFloat(amount).Shift(2).Round(0).IntPart()
}

// SumMoney складывает суммы без накопления ошибки округления float64.
func SumMoney(amounts ...float64) float64 {
	sum := decimal.Zero
	for _, a := range amounts {
		sum = sum.Add(decimal.NewFromFloat(a))
	}
	return sum.Round(2).InexactFloat64()
}
