package enums

// JournalSourceType names the document a journal entry was derived from.
type JournalSourceType string

const (
	JournalSourceExpense JournalSourceType = "expense"
	JournalSourceInvoice JournalSourceType = "invoice"
	JournalSourceManual  JournalSourceType = "manual"
)

func (t JournalSourceType) IsValid() bool {
	switch t {
	case JournalSourceExpense, JournalSourceInvoice, JournalSourceManual:
		return true
	}
	return false
}

// PostingOutcome records what the posting engine did with a source document.
type PostingOutcome string

const (
	PostingOutcomePosted    PostingOutcome = "posted"
	PostingOutcomeSkipped   PostingOutcome = "skipped"
	PostingOutcomeDuplicate PostingOutcome = "duplicate"
	PostingOutcomeFailed    PostingOutcome = "failed"
)
