package models

// MonthlySales is one bucket of the dashboard sales chart.
type MonthlySales struct {
	Month string  `json:"month" bson:"_id"`
	Total float64 `json:"total" bson:"total"`
	Count int     `json:"count" bson:"count"`
}

type DashboardCounts struct {
	Orders     int64   `json:"totalOrders"`
	Customers  int64   `json:"totalUsers"`
	Products   int64   `json:"totalProducts"`
	SalesTotal float64 `json:"totalSales"`
}

type Dashboard struct {
	Counts         DashboardCounts `json:"counts"`
	RecentOrders   []Order         `json:"recentOrders"`
	Products       []Product       `json:"products"`
	MonthlySales   []MonthlySales  `json:"monthlySales"`
	LowStockAlerts []Product       `json:"lowStockProducts"`
}
