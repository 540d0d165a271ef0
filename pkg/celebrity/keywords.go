package celebrity

// highProfileKeywords mark a reference summary as describing a prominent person.
// They only count for long articles.
var highProfileKeywords = []string{
	"billionaire", "entrepreneur", "ceo", "founder", "executive",
	"actor", "actress", "musician", "singer", "celebrity", "star",
	"producer", "director", "artist", "performer",
	"influencer", "youtuber", "streamer", "content creator",
	"famous", "renowned", "notable", "prominent", "distinguished",
	"philanthropist", "investor", "public figure", "media personality",
	"tech executive", "silicon valley", "startup founder",
	"award-winning", "bestselling", "acclaimed",
	"social media entrepreneur", "digital marketing guru", "business guru",
	"keynote speaker", "motivational speaker", "thought leader",
	"business influencer", "marketing influencer", "social media expert",
	"vaynermedia", "wine library", "serial entrepreneur",
}

// achievementKeywords name press lists, awards and stages; any one of them is enough.
var achievementKeywords = []string{
	"forbes", "time 100", "fortune 500", "grammy", "oscar", "emmy",
	"nobel", "pulitzer", "world record", "hall of fame",
	"bestselling author", "ted talk", "tedx", "keynote",
	"inc 500", "shark tank", "dragons den", "y combinator",
	"web summit", "sxsw", "social media week",
}

// businessKeywords lower the follower threshold when they appear next to a follower count.
var businessKeywords = []string{
	"entrepreneur", "founder", "ceo", "investor", "speaker",
	"author", "expert", "guru", "consultant", "advisor",
}

var newsDomains = []string{
	"techcrunch.com", "wired.com", "theverge.com", "cnet.com",
	"venturebeat.com", "arstechnica.com",
	"forbes.com", "bloomberg.com", "reuters.com", "wsj.com",
	"ft.com", "cnbc.com", "businessinsider.com",
	"nytimes.com", "washingtonpost.com", "theguardian.com",
	"bbc.com", "cnn.com", "apnews.com",
	"variety.com", "hollywoodreporter.com", "deadline.com",
	"billboard.com", "rollingstone.com",
}

var headlineVerbs = []string{
	"announces", "launches", "reveals", "joins", "leads",
	"raises", "acquires", "wins", "receives", "appointed",
}

var socialSites = []string{
	"twitter.com", "x.com", "instagram.com", "linkedin.com", "youtube.com", "tiktok.com",
}

// platformLabels maps match.Platform names to display names.
var platformLabels = map[string]string{
	"twitter":   "Twitter/X",
	"instagram": "Instagram",
	"linkedin":  "LinkedIn",
	"youtube":   "YouTube",
	"tiktok":    "TikTok",
}

const (
	// longArticleWords is the word count above which an article counts as substantial.
	longArticleWords = 2000
	// businessFollowerThreshold applies when the snippet mentions a business keyword.
	businessFollowerThreshold = 500_000
	// generalFollowerThreshold applies otherwise.
	generalFollowerThreshold = 2_000_000
	// newsVolumeThreshold is the estimated result count that signals heavy coverage.
	newsVolumeThreshold = 1000
	// newsOutletThreshold is how many allow-listed outlets signal heavy coverage.
	newsOutletThreshold = 3
)
