package config

import "podcast_syncer/internal/domain"

const (
	haftaShowID  = "5ec3d9497cef7479d2ef4798"
	haftaArtwork = "https://assets.pippa.io/shows/5ec3d9497cef7479d2ef4798/1751695551059-62a98700-bdf2-4588-911c-4f8f4d930ac3.jpeg"
)

// BuiltinShows is the table used when the config file names no shows.
func BuiltinShows() []ShowConfig {
	return []ShowConfig{
		{
			ID:             "hafta",
			StorePath:      "hafta_data.json",
			FeedPath:       "hafta_feed.xml",
			IndexURL:       "https://www.newslaundry.com/podcast/nl-hafta",
			BaseURL:        "https://www.newslaundry.com",
			EpisodePattern: `hafta-(\d+)`,
			APIPattern:     `/acast-rest/shows/` + haftaShowID + `/episodes/([a-z0-9]+)`,
			MetadataURL:    "https://www.newslaundry.com/acast-rest/shows/" + haftaShowID + "/episodes/{id}",
			MinEpisode:     1,
			Channel: domain.Channel{
				Title:       "Newslaundry Hafta",
				Description: "Freewheeling discussion on the news of the week from Newslaundry",
				Link:        "https://www.newslaundry.com/podcast/nl-hafta",
				Language:    "en-us",
				Author:      "Newslaundry",
				Category:    "News",
				Type:        "episodic",
				Image:       haftaArtwork,
			},
		},
		{
			ID:             "charcha",
			StorePath:      "charcha_data.json",
			FeedPath:       "charcha_feed.xml",
			IndexURL:       "https://www.newslaundry.com/podcast/nl-charcha",
			BaseURL:        "https://www.newslaundry.com",
			EpisodePattern: `charcha-(\d+)`,
			APIPattern:     `/acast-rest/shows/(?P<show>[a-z0-9]+)/episodes/(?P<id>[a-z0-9]+)`,
			MetadataURL:    "https://www.newslaundry.com/acast-rest/shows/{show}/episodes/{id}",
			MinEpisode:     1,
			Channel: domain.Channel{
				Title:       "NL Charcha",
				Description: "Conversations on media and politics from Newslaundry",
				Link:        "https://www.newslaundry.com/podcast/nl-charcha",
				Language:    "en-us",
				Author:      "Newslaundry",
				Category:    "News",
				Type:        "episodic",
			},
		},
	}
}
