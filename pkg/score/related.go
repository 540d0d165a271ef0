package score

// relatedTerms expands a topic term into phrases that signal the same subject.
var relatedTerms = map[string][]string{
	"startup":          {"entrepreneur", "founder", "venture", "seed", "series a", "startup", "innovation"},
	"entrepreneurship": {"business", "founder", "ceo", "startup", "venture", "entrepreneurial"},
	"technology":       {"tech", "software", "digital", "innovation", "ai", "platform"},
	"marketing":        {"growth", "brand", "digital marketing", "advertising", "content"},
	"leadership":       {"management", "executive", "strategy", "ceo", "director"},
	"innovation":       {"innovative", "disruption", "breakthrough", "cutting-edge", "pioneer"},
	"ai":               {"artificial intelligence", "machine learning", "deep learning", "neural", "llm", "data science"},
}
