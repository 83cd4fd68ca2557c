package service

import "github.com/Behyna/wa-inbox/internal/model"

type ApplyStatusResult struct {
	Applied bool
	Message *model.Message
}

type DashboardStats struct {
	BusinessNumber      string  `json:"business_number"`
	Day                 string  `json:"day"`
	TotalMessages       int64   `json:"total_messages"`
	InboundMessages     int64   `json:"inbound_messages"`
	OutboundMessages    int64   `json:"outbound_messages"`
	UniqueCustomers     int64   `json:"unique_customers"`
	ActiveConversations int64   `json:"active_conversations"`
	AverageResponseTime float64 `json:"average_response_time"`
}
