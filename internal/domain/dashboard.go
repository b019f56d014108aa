package domain

// StockHealth buckets the products of the last report by how well current
// stock covers predicted demand.
type StockHealth struct {
	Healthy  int `json:"healthy"`
	Low      int `json:"low"`
	Critical int `json:"critical"`
	Total    int `json:"total"`
}

type TodayActivity struct {
	ActionsExecuted int   `json:"actionsExecuted"`
	TotalSpent      Money `json:"totalSpent"`
	ActionsBlocked  int   `json:"actionsBlocked"`
}

type AgentStatus struct {
	IsActive        bool   `json:"isActive"`
	LastCycleID     string `json:"lastCycleId,omitempty"`
	MonthlyBudget   Money  `json:"monthlyBudget"`
	BudgetUsed      Money  `json:"budgetUsed"`
	BudgetRemaining Money  `json:"budgetRemaining"`
}

// DashboardStats is the home page summary.
type DashboardStats struct {
	StockHealth     StockHealth   `json:"stockHealth"`
	TodayActivity   TodayActivity `json:"todayActivity"`
	AgentStatus     AgentStatus   `json:"aiStatus"`
	RecentDecisions []Decision    `json:"recentDecisions"`
}
