// Package similartech defines the Similar-Tech Table: undirected
// equivalence groups of technology keywords granting partial match credit.
// Exposed as data, per the open-question decision in DESIGN.md, each group
// documents its own relationship tag rather than leaving it implicit.
package similartech

import "resumatch/internal/keyword"

// Group is one undirected equivalence class of interchangeable
// technologies, tagged with why they're considered related.
type Group struct {
	Tag     string
	Members []string
}

// Groups is the static table. Membership is hand-curated; keywords are
// compared after keyword.Normalize (lowercase, whitespace stripped).
var Groups = []Group{
	{Tag: "framework family", Members: []string{"react", "next.js", "remix", "gatsby"}},
	{Tag: "framework family", Members: []string{"vue", "nuxt.js", "svelte", "sveltekit"}},
	{Tag: "framework family", Members: []string{"angular", "angularjs"}},
	{Tag: "python web framework family", Members: []string{"fastapi", "flask", "django"}},
	{Tag: "go web framework family", Members: []string{"gin", "echo", "fiber", "hertz", "chi"}},
	{Tag: "java web framework family", Members: []string{"spring", "springboot", "quarkus", "micronaut"}},
	{Tag: "database family", Members: []string{"postgres", "postgresql", "mysql", "mariadb"}},
	{Tag: "nosql document store family", Members: []string{"mongodb", "couchdb", "dynamodb", "firestore"}},
	{Tag: "cache/kv store family", Members: []string{"redis", "memcached", "valkey"}},
	{Tag: "search engine family", Members: []string{"elasticsearch", "opensearch", "solr"}},
	{Tag: "message broker family", Members: []string{"kafka", "rabbitmq", "nats", "pulsar"}},
	{Tag: "same language ecosystem", Members: []string{"typescript", "javascript"}},
	{Tag: "same language ecosystem", Members: []string{"go", "golang"}},
	{Tag: "jvm language family", Members: []string{"java", "kotlin", "scala"}},
	{Tag: "same runtime", Members: []string{"node.js", "nodejs", "node", "deno", "bun"}},
	{Tag: "container orchestration family", Members: []string{"kubernetes", "k8s", "docker swarm", "nomad"}},
	{Tag: "IaC tool family", Members: []string{"terraform", "pulumi", "cloudformation", "opentofu"}},
	{Tag: "CI/CD tool family", Members: []string{"github actions", "gitlab ci", "circleci", "jenkins"}},
	{Tag: "cloud provider family", Members: []string{"aws", "gcp", "azure"}},
	{Tag: "testing framework family", Members: []string{"jest", "mocha", "vitest", "jasmine"}},
	{Tag: "testing framework family", Members: []string{"pytest", "unittest", "nose"}},
	{Tag: "CSS tooling family", Members: []string{"tailwind", "tailwindcss", "bootstrap", "chakra-ui", "mui"}},
	{Tag: "ORM family", Members: []string{"gorm", "sqlalchemy", "prisma", "typeorm", "sequelize"}},
	{Tag: "GraphQL tooling family", Members: []string{"graphql", "apollo", "relay"}},
	{Tag: "mobile framework family", Members: []string{"react native", "flutter", "swiftui", "jetpack compose"}},
	{Tag: "static site generator family", Members: []string{"hugo", "jekyll", "eleventy", "astro"}},
}

// index maps a normalized keyword to every group it belongs to, built once
// at package init since Groups never changes at runtime.
var index map[string][]int

func init() {
	index = make(map[string][]int)
	for gi, g := range Groups {
		for _, m := range g.Members {
			n := keyword.Normalize(m)
			index[n] = append(index[n], gi)
		}
	}
}

// Match describes one partial-credit pairing between a JD keyword the
// résumé lacks verbatim and a résumé keyword from the same group.
type Match struct {
	JDKeyword      string
	ResumeKeyword  string
	Relationship   string
}

// FindMatches compares a normalized JD keyword set against a normalized
// résumé keyword set and returns one Match for every JD keyword missing
// verbatim from the résumé but covered by a shared Similar-Tech group. At
// most one résumé keyword is reported per missing JD keyword (the first
// group hit, by Groups order).
func FindMatches(jdKeywords, resumeKeywords map[string]bool) []Match {
	var matches []Match
	for jdKW := range jdKeywords {
		if resumeKeywords[jdKW] {
			continue // exact match, no bonus needed
		}
		groupIdxs, ok := index[jdKW]
		if !ok {
			continue
		}
		for _, gi := range groupIdxs {
			found := false
			for _, member := range Groups[gi].Members {
				n := keyword.Normalize(member)
				if n == jdKW {
					continue
				}
				if resumeKeywords[n] {
					matches = append(matches, Match{
						JDKeyword:     jdKW,
						ResumeKeyword: n,
						Relationship:  Groups[gi].Tag,
					})
					found = true
					break
				}
			}
			if found {
				break
			}
		}
	}
	return matches
}
