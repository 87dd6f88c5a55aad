package types

// Record is a single search result card
type Record struct {
	Title       string `json:"title"`
	Snippet     string `json:"snippet"`
	Link        string `json:"link"`
	DisplayHost string `json:"display_host"`
	IconURL     string `json:"icon_url"`
}

// Page is one appended batch of records; Index is the page cursor it was fetched at
type Page struct {
	Index   int      `json:"index"`
	Records []Record `json:"records"`
}

// PinnedTab is a saved reference to a URL previously loaded in the frame
type PinnedTab struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}
