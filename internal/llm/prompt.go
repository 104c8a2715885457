package llm

import (
	"strings"
)

const promptHeader = `Below is an instruction that describes a task, paired with an input that provides further context. Write a response that appropriately completes the request.

### Instruction:
You are an advanced receipt understanding AI. Analyze the input OCR text and extract the following JSON fields.

Rules:
1. **merchant**: The name of the shop. **ALWAYS** return the very first meaningful line of text as the merchant if no known brand is found.
2. **date**: The date of the transaction as found on the receipt.
3. **total_amount**: The final grand total amount.
4. **tax**: The tax amount (VAT, TAX) if available.
5. **tax_rate**: The tax rate percentage if available.
6. **currency**: The currency symbol found on the receipt.

### Reference Examples (Do NOT copy these values):
Input:
TARGET STORE
12.04.2023
TOTAL 7.50

Response:
{
  "merchant": "TARGET STORE",
  "date": "12.04.2023",
  "total_amount": "7.50",
  "tax": "0.00",
  "tax_rate": "0",
  "currency": "$"
}

Input:
Uber Eats
Date: Nov 10, 2024
Total: 25.50

Response:
{
  "merchant": "Uber Eats",
  "date": "10.11.2024",
  "total_amount": "25.50",
  "tax": "1.50",
  "tax_rate": "0",
  "currency": "$"
}

### REAL TASK (Analyze the below text):
Input:
`

// BuildPrompt wraps OCR text in the instruction-style prompt. The prompt ends with the
// response marker so the completion starts with the JSON object.
func BuildPrompt(ocrText string) string {
	var b strings.Builder
	b.Grow(len(promptHeader) + len(ocrText) + 32)
	b.WriteString(promptHeader)
	b.WriteString(ocrText)
	b.WriteString("\n\n### Response:\n")
	return b.String()
}
