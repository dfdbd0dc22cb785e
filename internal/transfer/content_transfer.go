package transfer

type ContentCreation struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	ContentType  string   `json:"content_type"`
	MediaURL     string   `json:"media_url"`
	Platforms    []string `json:"platforms"`
	Status       string   `json:"status"`
	ScheduledFor string   `json:"scheduled_for"` // RFC 3339, required when status=scheduled
	Hashtags     []string `json:"hashtags"`
}

type ContentUpdate struct {
	Title        *string   `json:"title"`
	Description  *string   `json:"description"`
	ContentType  *string   `json:"content_type"`
	MediaURL     *string   `json:"media_url"`
	Platforms    *[]string `json:"platforms"`
	Status       *string   `json:"status"`
	ScheduledFor *string   `json:"scheduled_for"`
	Hashtags     *[]string `json:"hashtags"`
}
