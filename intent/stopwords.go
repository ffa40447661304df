package intent

// stopWords are removed before treating the residue of a message as a buyer
// or brand name. Covers question words, grammar, time words and the
// production vocabulary the classifier already understands.
var stopWords = toSet(
	// questions and grammar
	"a", "an", "the", "and", "or", "but", "if", "so", "than", "then", "also",
	"what", "whats", "what's", "which", "who", "whom", "whose", "when", "where", "why", "how",
	"is", "are", "was", "were", "be", "been", "being", "am", "do", "does", "did", "done",
	"have", "has", "had", "can", "could", "will", "would", "shall", "should", "may", "might", "must",
	"i", "me", "my", "we", "us", "our", "you", "your", "it", "its", "they", "them", "their", "he", "she",
	"this", "that", "these", "those", "there", "here", "s",
	"of", "for", "from", "to", "in", "on", "at", "by", "with", "about", "into", "onto", "off",
	"up", "down", "out", "over", "under", "per", "via", "vs", "between", "against", "till", "until",
	"not", "no", "yes", "any", "all", "each", "every", "some", "much", "many", "more", "most",
	"less", "least", "few", "only", "just", "still", "yet", "already", "far", "near", "left",
	"please", "pls", "plz", "thanks", "thank", "hi", "hello", "hey", "ok", "okay",
	"show", "tell", "give", "list", "get", "find", "check", "see", "know", "let", "need", "want",
	"going", "doing", "happening", "happened", "look", "looks", "like",
	// time
	"today", "todays", "yesterday", "tomorrow", "now", "currently", "current", "latest", "recent",
	"day", "days", "daily", "week", "weeks", "weekly", "month", "monthly", "hour", "hours", "hourly",
	"morning", "evening", "night", "shift", "date", "time", "so-far", "far",
	// numbers and units
	"one", "two", "three", "four", "five", "six", "seven", "eight", "nine", "ten",
	"pcs", "pc", "pieces", "piece", "qty", "quantity", "number", "no", "percent", "percentage", "%",
	// production vocabulary
	"output", "produced", "production", "produce", "efficiency", "reject", "rejects", "rework",
	"dhu", "sewn", "made", "sewing", "sew", "sewer", "sewers", "target", "targets", "goal", "goals",
	"plan", "planned", "achievement", "achieved", "achieve", "behind", "ahead", "track", "shortfall",
	"blocker", "blockers", "blocked", "issue", "issues", "problem", "problems", "delay", "delays",
	"delayed", "stoppage", "stoppages", "downtime", "breakdown", "breakdowns", "shortage", "shortages",
	"stuck", "bottleneck", "bottlenecks", "po", "pos", "p.o", "purchase", "order", "orders", "work",
	"style", "styles", "buyer", "buyers", "brand", "brands", "shipment", "shipments", "ship", "ex-factory",
	"ex", "factory", "progress", "complete", "completed", "completion", "status", "remaining", "balance",
	"cut", "cuts", "cutting", "cutter", "lay", "input", "finish", "finishing", "finished", "poly",
	"carton", "cartons", "packing", "packed", "iron", "ironing", "storage", "store", "warehouse",
	"inventory", "stock", "fabric", "bin", "card", "received", "receive", "issued", "issue", "trims",
	"line", "lines", "manpower", "operator", "operators", "worker", "workers", "headcount",
	"submitted", "submit", "submission", "summary", "summarise", "summarize", "overview", "overall",
	"dashboard", "report", "reports", "total", "totals", "floor", "unit", "section", "update", "updates",
	"best", "worst", "top", "bottom", "highest", "lowest", "performing", "performance", "ranking",
	"compare", "comparison", "good", "bad", "well", "ready", "anything", "everything", "info", "information",
	"hit", "miss", "missed", "make", "makes", "making", "slow", "slower", "slowest", "fast", "faster",
	"fastest", "low", "high", "late", "early", "fine", "meet", "met", "reach", "reached",
	"sop", "sops", "policy", "procedure", "procedures", "manual", "guide", "rule", "rules",
)

func toSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
