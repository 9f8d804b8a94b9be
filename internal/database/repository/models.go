package repository

import "time"

// Tag namespaces group related tag values on a transaction.
const (
	NamespaceBucket   = "bucket"
	NamespaceAccount  = "account"
	NamespaceOccasion = "occasion"
)

// Tag represents a tag row. Name carries the namespace prefix,
// e.g. "bucket:groceries" or "account:anz-credit".
type Tag struct {
	ID   string
	Name string
}

// Transaction represents a transaction row.
type Transaction struct {
	ID          string
	Date        time.Time
	AmountCents int64
	Description string
	Merchant    *string
	Reference   *string
	Notes       *string
	SourceHash  *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Tags        []Tag
}

// ImportFormat is a saved custom format configuration. Config holds the
// mapping JSON verbatim; it is parsed by the importer package on use.
type ImportFormat struct {
	ID        string
	Name      string
	Config    string
	UseCount  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ImportRecord captures one committed import run.
type ImportRecord struct {
	ID        string
	Filename  string
	FormatID  *string
	Imported  int
	Skipped   int
	Failed    int
	CreatedAt time.Time
}

// MerchantAlias rewrites raw descriptions into a canonical merchant name.
type MerchantAlias struct {
	ID        string
	Pattern   string
	MatchType string // exact | contains | fuzzy
	Alias     string
	CreatedAt time.Time
}

// TagRule attaches a tag to transactions whose field matches the pattern.
type TagRule struct {
	ID        string
	Name      string
	Field     string // description | merchant
	Pattern   string
	MatchType string // exact | contains | regexp
	TagID     string
	Enabled   bool
	CreatedAt time.Time
}

// Budget is an amount for a bucket tag. Month is "YYYY-MM" for an
// override or empty for the recurring default.
type Budget struct {
	ID          string
	BucketTagID string
	Month       string
	AmountCents int64
}

// Dashboard groups widgets.
type Dashboard struct {
	ID        string
	Name      string
	IsDefault bool
	Widgets   []Widget
}

// Widget is one dashboard panel. Config holds widget-specific JSON.
type Widget struct {
	ID          string
	DashboardID string
	Kind        string
	Title       string
	Position    int
	Config      string
}
