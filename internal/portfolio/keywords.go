package portfolio

import (
	"regexp"
	"strings"
)

var languageKeywords = keywordSet(
	"go", "golang", "python", "javascript", "typescript", "java", "kotlin", "swift",
	"c", "c++", "c#", "rust", "ruby", "php", "scala", "r", "dart", "elixir", "erlang",
	"haskell", "clojure", "perl", "lua", "objective-c", "sql", "bash", "shell",
	"matlab", "julia", "solidity", "f#", "groovy", "js", "ts",
)

var frameworkKeywords = keywordSet(
	"react", "react.js", "reactjs", "react native", "angular", "vue", "vue.js", "svelte",
	"next.js", "nextjs", "nuxt", "django", "flask", "fastapi", "spring", "spring boot",
	"express", "express.js", "nestjs", "node.js", "nodejs", "rails", "ruby on rails",
	"laravel", "symfony", ".net", "asp.net", "gin", "echo", "fiber", "flutter",
	"tensorflow", "pytorch", "keras", "scikit-learn", "pandas", "numpy", "jquery",
	"bootstrap", "tailwind", "tailwindcss", "redux", "langchain", "hibernate",
)

var technicalKeywords = keywordSet(
	"aws", "gcp", "google cloud", "azure", "docker", "kubernetes", "k8s", "terraform",
	"ansible", "git", "github actions", "gitlab ci", "jenkins", "ci/cd", "linux",
	"postgresql", "postgres", "mysql", "mongodb", "redis", "elasticsearch", "kafka",
	"rabbitmq", "graphql", "rest", "grpc", "microservices", "nginx", "html", "css",
	"figma", "jira", "prometheus", "grafana", "snowflake", "bigquery", "spark",
	"hadoop", "airflow", "dbt", "tableau", "power bi", "excel", "firebase", "supabase",
	"sqlite", "dynamodb", "cassandra", "serverless", "webpack", "vite", "helm",
	"machine learning", "deep learning", "llm", "llms", "mlops", "devops",
)

// Widely held skills; they add little to rarity.
var commonSkills = keywordSet(
	"html", "css", "javascript", "js", "git", "sql", "excel", "python", "java", "jquery",
	"bootstrap", "php", "mysql", "communication", "teamwork", "leadership",
	"microsoft office", "word", "powerpoint", "linux", "rest", "react", "node.js",
	"nodejs", "c", "c++", "agile", "scrum", "jira", "photoshop", "problem solving",
)

var inDemandSkills = keywordSet(
	"go", "golang", "rust", "kubernetes", "k8s", "aws", "gcp", "azure", "terraform",
	"typescript", "react", "next.js", "nextjs", "python", "pytorch", "tensorflow",
	"machine learning", "deep learning", "llm", "llms", "generative ai", "ai",
	"kafka", "docker", "graphql", "snowflake", "spark", "airflow", "dbt", "swift",
	"kotlin", "cybersecurity", "devops", "mlops", "node.js", "fastapi", "postgresql",
)

type industryRule struct {
	name    string
	pattern *regexp.Regexp
}

var industryRules = []industryRule{
	industry("Fintech", "fintech", "bank", "banking", "payments", "finance", "financial", "trading", "insurance", "lending"),
	industry("Healthcare", "health", "healthcare", "medical", "hospital", "pharma", "biotech", "clinical"),
	industry("E-commerce", "e-commerce", "ecommerce", "retail", "marketplace", "online store"),
	industry("Education", "education", "edtech", "school", "university", "e-learning"),
	industry("Gaming", "game", "games", "gaming", "esports"),
	industry("SaaS", "saas", "b2b software"),
	industry("Media", "media", "news", "publishing", "streaming", "entertainment"),
	industry("Logistics", "logistics", "shipping", "supply chain", "delivery", "freight"),
	industry("Cybersecurity", "cybersecurity", "infosec", "security operations"),
	industry("AI/ML", "machine learning", "artificial intelligence", "ai", "computer vision", "nlp"),
	industry("Telecommunications", "telecom", "telecommunications", "5g"),
	industry("Travel", "travel", "hospitality", "airline", "booking"),
	industry("Real Estate", "real estate", "proptech", "property"),
}

var (
	leadMarkers   = regexp.MustCompile(`(?i)\b(lead|head of|director|vp|vice president|chief|cto|ceo|cio)\b`)
	seniorMarkers = regexp.MustCompile(`(?i)\b(senior|sr|staff|principal)\b`)
)

func keywordSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

func industry(name string, keywords ...string) industryRule {
	quoted := make([]string, 0, len(keywords))
	for _, k := range keywords {
		quoted = append(quoted, regexp.QuoteMeta(k))
	}
	return industryRule{
		name:    name,
		pattern: regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`),
	}
}

func normalizeKey(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func inSet(set map[string]struct{}, skill string) bool {
	_, ok := set[normalizeKey(skill)]
	return ok
}
