package constants

// ReceiptStatus is stored verbatim in the receipts.status column.
type ReceiptStatus string

const (
	// StatusCompleted is set on every receipt saved through the API.
	StatusCompleted ReceiptStatus = "Tamamlandı"
	// StatusSeeded marks demo rows written by the seed command.
	StatusSeeded ReceiptStatus = "Completed"
)

// UnknownMerchant is the sentinel merchant name used when extraction yields nothing.
const UnknownMerchant = "Bilinmiyor"

// MockOCRText stands in for OCR output when the OCR engine is unavailable or fails.
const MockOCRText = "MOCK RECEIPT TEXT"
