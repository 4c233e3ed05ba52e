package domain

// defaultFallback is served when the published sheet cannot be used.
var defaultFallback = []RawRow{
	{"WH001", "New York, NY", "+1 (555) 123-4567", "John Doe", "john.doe@logistics.com", "https://example.com/chat/wh001"},
	{"WH002", "Los Angeles, CA", "+1 (555) 987-6543", "Jane Smith", "jane.smith@logistics.com", ""},
	{"WH003", "Chicago, IL", "+1 (555) 246-8101", "Robert Johnson", "bob.j@logistics.com", "https://example.com/chat/wh003"},
	{"WH004", "Houston, TX", "+1 (555) 135-7924", "Emily Davis", "emily.d@logistics.com", "https://example.com/chat/wh004"},
	{"WH005", "Phoenix, AZ", "+1 (555) 369-2580", "Michael Brown", "m.brown@logistics.com", ""},
}

// DefaultFallback returns a copy of the compiled-in fallback table.
func DefaultFallback() []RawRow {
	out := make([]RawRow, len(defaultFallback))
	copy(out, defaultFallback)
	return out
}
