package model

import (
	"fmt"
	"math"
	"sort"
)

// StockPolicy определяет поведение при заказе большего количества, чем есть на складе.
type StockPolicy string

const (
	// StockPolicyReject отклоняет заказ, если остаток уйдёт в минус.
	StockPolicyReject StockPolicy = "reject"
	// StockPolicyAllowNegative разрешает отрицательный остаток.
	StockPolicyAllowNegative StockPolicy = "allow_negative"
)

// ParseStockPolicy разбирает значение политики остатков.
func ParseStockPolicy(s string) (StockPolicy, error) {
	switch p := StockPolicy(s); p {
	case StockPolicyReject, StockPolicyAllowNegative:
		return p, nil
	}
	return "", fmt.Errorf("unknown stock policy %q", s)
}

// TieBreak определяет порядок товаров с одинаковым числом продаж.
type TieBreak string

const (
	// TieBreakID ставит выше товар с меньшим идентификатором.
	TieBreakID TieBreak = "id"
	// TieBreakName упорядочивает товары по названию.
	TieBreakName TieBreak = "name"
)

// ParseTieBreak разбирает значение правила ранжирования.
func ParseTieBreak(s string) (TieBreak, error) {
	switch t := TieBreak(s); t {
	case TieBreakID, TieBreakName:
		return t, nil
	}
	return "", fmt.Errorf("unknown ranking tie-break %q", s)
}

const (
	UnknownCustomerName = "Unknown Customer"
	UnknownProductName  = "Unknown Product"
	UnknownCategory     = "unknown"
	NoTopProductName    = "No product"
)

// PlaceholderCustomer подставляется в выборки, когда покупатель удалён.
func PlaceholderCustomer(id int64) Customer {
	return Customer{ID: id, Name: UnknownCustomerName}
}

// PlaceholderProduct подставляется в выборки, когда товар удалён.
func PlaceholderProduct(id int64) Product {
	return Product{ID: id, Name: UnknownProductName, Category: Category(UnknownCategory)}
}

// CategoryStats переводит количество товаров по категориям в проценты.
// Каждая категория присутствует в результате; сумма может отличаться от 100.
func CategoryStats(counts map[Category]int64) []ProductCategoryStat {
	var total int64
	for _, c := range Categories {
		total += counts[c]
	}

	stats := make([]ProductCategoryStat, 0, len(Categories))
	for _, c := range Categories {
		var pct int64
		if total > 0 {
			pct = int64(math.Round(float64(counts[c]) / float64(total) * 100))
		}
		stats = append(stats, ProductCategoryStat{Category: c, Percent: pct})
	}
	return stats
}

// SortPopular упорядочивает товары по убыванию продаж с учётом правила tb.
func SortPopular(products []PopularProduct, tb TieBreak) {
	sort.SliceStable(products, func(i, j int) bool {
		a, b := products[i], products[j]
		if a.Sales != b.Sales {
			return a.Sales > b.Sales
		}
		if tb == TieBreakName && a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID < b.ID
	})
}
