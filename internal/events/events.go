package events

import (
	"time"
)

// Scan operations carried by scanner clients. A lookup only resolves the
// barcode; load and unload adjust stock.
const (
	OpLookup = "lookup"
	OpLoad   = "load"
	OpUnload = "unload"
)

// ScanEvent is one decoded barcode from a scanner client. The service
// never talks to the camera; it only consumes the decoded text.
type ScanEvent struct {
	EventID   string    `json:"event_id"`
	DeviceID  string    `json:"device_id"`
	Barcode   string    `json:"barcode"`
	Operation string    `json:"operation"`
	Quantity  int       `json:"quantity"`
	Timestamp time.Time `json:"timestamp"`
}

// StockAdjustedEvent is published after every successful adjustment.
type StockAdjustedEvent struct {
	EventID          string    `json:"event_id"`
	ProductID        string    `json:"product_id"`
	Barcode          string    `json:"barcode"`
	Direction        string    `json:"direction"`
	Adjusted         int       `json:"adjusted"`
	PreviousQuantity int       `json:"previous_quantity"`
	NewQuantity      int       `json:"new_quantity"`
	Timestamp        time.Time `json:"timestamp"`
}

// ScanFailedEvent reports a scan that could not be applied, so scanner
// clients can show the operator what went wrong.
type ScanFailedEvent struct {
	EventID   string    `json:"event_id"`
	DeviceID  string    `json:"device_id"`
	Barcode   string    `json:"barcode"`
	Operation string    `json:"operation"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}
