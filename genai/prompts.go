package genai

var receiptParsePrompt = `Extract structured data from this receipt image. Return ONLY valid JSON with these exact keys (no markdown, no extra text):
{
  "amount": number (total amount, e.g. 25.50),
  "currency": "USD" or "INR" or other 3-letter code,
  "merchant": string (store/vendor name),
  "date": "YYYY-MM-DD" if visible, else null,
  "items": array of strings (line items if visible),
  "description": string (short summary for expense, max 100 chars)
}
If you cannot read the receipt, return: {"error": "Could not parse receipt"}`

var categorizePrompt = `Given an expense description, suggest the best matching category. Return ONLY a valid JSON object:
{"category": "Category Name", "confidence": 0.0-1.0}
Use one of these categories if provided, otherwise suggest a sensible one: {categories}
Description: `

var nlExpensePrompt = `Parse this natural language expense into structured data. Return ONLY valid JSON:
{"amount": number, "currency": "USD"|"INR"|etc, "description": string, "date": "YYYY-MM-DD", "category": string}
Examples: "$30 Uber yesterday" -> {"amount":30,"currency":"USD","description":"Uber","date":"<yesterday>","category":"Transport"}
"50 INR chai today" -> {"amount":50,"currency":"INR","description":"Chai","date":"<today>","category":"Food"}
Use today's date if not specified. Today is {today}.
Input: `

var insightsPrompt = `You are a personal finance advisor. Based on the user's expense summary below, provide 3-5 brief, actionable insights or tips (each 1-2 sentences). Be specific and helpful. Return ONLY a JSON array of strings:
["insight 1", "insight 2", ...]

Expense summary:
`

var reportPrompt = `Generate a concise monthly expense report (2-4 paragraphs). Include:
1. Total spent vs budget (if any)
2. Top spending categories with brief analysis
3. Notable trends or changes
4. 1-2 actionable recommendations
Be professional and helpful. Return plain text (no JSON).

Data:
`

var anomalyPrompt = `Analyze this spending data for anomalies. Return ONLY a JSON array of objects:
[{"type": "high_spend"|"unusual_category"|"budget_exceeded", "message": string, "severity": "low"|"medium"|"high"}]
Focus on: spending spikes, categories that doubled, budget overruns. Return [] if nothing notable.

Data:
`

var chatPrompt = `You are a helpful expense tracker assistant. Answer the user's question based ONLY on the expense data below. Be concise (1-3 sentences). If the data doesn't contain the answer, say so.

Expense data:
{data}

User question: `
