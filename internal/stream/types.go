package stream

// API response types (internal). Pointers mark fields whose absence is checked.

type videoResponse struct {
	ID            string          `json:"id"`
	Name          *string         `json:"name"`
	PublishedDate *string         `json:"publishedDate"`
	Media         *mediaInfo      `json:"media"`
	Creator       *creatorInfo    `json:"creator"`
	PlaybackURLs  []playbackEntry `json:"playbackUrls"`
}

type mediaInfo struct {
	Duration *string `json:"duration"`
}

type creatorInfo struct {
	Name string `json:"name"`
	Mail string `json:"mail"`
}

type playbackEntry struct {
	MimeType    string `json:"mimeType"`
	PlaybackURL string `json:"playbackUrl"`
}

type groupResponse struct {
	ID      string        `json:"id"`
	Metrics *groupMetrics `json:"metrics"`
}

type groupMetrics struct {
	Videos *int `json:"videos"`
}

type groupVideosResponse struct {
	Value []struct {
		ID string `json:"id"`
	} `json:"value"`
}

type textTracksResponse struct {
	Value []struct {
		URL      string `json:"url"`
		Language string `json:"language"`
	} `json:"value"`
}
