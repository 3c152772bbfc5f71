package models

// Disclaimer is the site notice rendered by the frontend
type Disclaimer struct {
	Title    string   `json:"title"`
	Headline string   `json:"headline"`
	Points   []string `json:"points"`
}

// SiteDisclaimer is the notice every visitor must be able to read
var SiteDisclaimer = Disclaimer{
	Title:    "Important Notice:",
	Headline: "Booze Del is just for fun and learning. No alcohol is actually being delivered.",
	Points: []string{
		"Alcohol delivery sites are subject to strict government regulations in India.",
		"Drinking alcohol is injurious to health.",
		"The developers are not responsible for any legal issues arising from the use of this project.",
	},
}
