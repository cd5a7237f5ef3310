package brief

// Payload is the structured body submitted by the automated writer.
type Payload struct {
	Title    string `json:"title"`
	Date     string `json:"date"`
	Summary  string `json:"summary"`
	Category string `json:"category"`
	Body     string `json:"body"`
	Items    []Item `json:"items"`
}

// Item is a single link reference within a brief.
type Item struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Source  string `json:"source"`
	Snippet string `json:"snippet"`
}
